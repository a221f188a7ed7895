package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-cascade/common"
)

// FileName returns the file name of a shader stage: "<name>.<vert|frag|comp>.wgsl".
func FileName(name string, t ShaderType) string {
	return name + "." + t.Suffix() + ".wgsl"
}

// ParseFileName splits a stage file name produced by FileName.
//
// Parameters:
//   - file: a base file name such as "pbr.frag.wgsl"
//
// Returns:
//   - string: the shader name
//   - ShaderType: the stage
//   - bool: false if the file is not a stage file
func ParseFileName(file string) (string, ShaderType, bool) {
	base, ok := strings.CutSuffix(file, ".wgsl")
	if !ok {
		return "", 0, false
	}
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 {
		return "", 0, false
	}
	name, suffix := base[:dot], base[dot+1:]
	for _, t := range []ShaderType{ShaderTypeVertex, ShaderTypeFragment, ShaderTypeCompute} {
		if t.Suffix() == suffix {
			return name, t, true
		}
	}
	return "", 0, false
}

// Loader reads shader stages from a file system and caches the parsed result.
type Loader struct {
	mu    sync.Mutex
	fsys  fs.FS
	pp    PreProcessor
	cache map[string]Shader
}

// NewLoader creates a loader reading stages from the root of fsys. Includes resolve through pp.
//
// Parameters:
//   - fsys: the shader file system
//   - pp: the pre-processor shared by every stage
//
// Returns:
//   - *Loader: the loader
func NewLoader(fsys fs.FS, pp PreProcessor) *Loader {
	return &Loader{
		fsys:  fsys,
		pp:    pp,
		cache: make(map[string]Shader),
	}
}

// PreProcessor returns the pre-processor used by the loader.
func (l *Loader) PreProcessor() PreProcessor {
	return l.pp
}

// Load returns the parsed stage, reading it on first use.
//
// Parameters:
//   - name: the shader name, e.g. "pbr"
//   - t: the stage
//
// Returns:
//   - Shader: the parsed stage
//   - error: ErrShaderNotFound if the file is missing, ErrShaderCompile if parsing fails
func (l *Loader) Load(name string, t ShaderType) (Shader, error) {
	file := FileName(name, t)

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.cache[file]; ok {
		return s, nil
	}
	s, err := l.read(file, t)
	if err != nil {
		return nil, err
	}
	l.cache[file] = s
	return s, nil
}

// Reload re-reads a stage and replaces the cached copy only if it parses.
//
// Parameters:
//   - name: the shader name
//   - t: the stage
//
// Returns:
//   - Shader: the freshly parsed stage
//   - error: the read or parse error; the cache keeps the previous stage
func (l *Loader) Reload(name string, t ShaderType) (Shader, error) {
	file := FileName(name, t)
	s, err := l.read(file, t)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[file] = s
	l.mu.Unlock()
	return s, nil
}

// Dependents lists the cached stages whose source pulled in the named include.
//
// Parameters:
//   - include: the include name
//
// Returns:
//   - []string: the file names of dependent stages
func (l *Loader) Dependents(include string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string
	for file, s := range l.cache {
		for _, inc := range s.Includes() {
			if inc == include {
				out = append(out, file)
				break
			}
		}
	}
	return out
}

func (l *Loader) read(file string, t ShaderType) (Shader, error) {
	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrShaderNotFound, file)
		}
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return NewShader(file, t, string(data), WithPreProcessor(l.pp))
}
