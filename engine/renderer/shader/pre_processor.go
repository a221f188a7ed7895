// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader source for
// @oxy: annotations and replaces them with registered WGSL snippets or host constants.
//
// Snippets come from two places. Go packages that own a GPU-visible type register its embedded
// WGSL through Register (the vertex layout, light structs). Anything not registered is looked up as
// include/<name>.wgsl in the pre-processor's file system, which is how shared shader functions are
// provided. Includes may nest; each snippet is injected at most once per shader.
package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-cascade/common"
)

// constEntry is a host constant emitted by //@oxy:const.
type constEntry struct {
	Type  string
	Value string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	mu       sync.RWMutex
	fsys     fs.FS
	includes map[string]string
	consts   map[string]constEntry
}

// PreProcessor expands @oxy: annotations in WGSL source.
type PreProcessor interface {
	// Register adds or replaces an include snippet.
	//
	// Parameters:
	//   - name: the include name used by //@oxy:include
	//   - source: the WGSL text injected at the annotation site
	Register(name, source string)

	// RegisterConst adds or replaces a constant emitted by //@oxy:const.
	//
	// Parameters:
	//   - name: the WGSL identifier
	//   - wgslType: the WGSL scalar type, e.g. "u32"
	//   - value: the literal value, e.g. "5u"
	RegisterConst(name, wgslType, value string)

	// Process expands every annotation in source.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - []string: the include names that were resolved, in injection order
	//   - error: an error if an annotation is malformed, unknown or cyclic
	Process(source string) (string, []string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a pre-processor that resolves unregistered includes from fsys.
// fsys may be nil, in which case only registered snippets resolve.
//
// Parameters:
//   - fsys: the shader file system whose include/ directory holds shared snippets
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(fsys fs.FS) PreProcessor {
	return &preProcessor{
		fsys:     fsys,
		includes: make(map[string]string),
		consts:   make(map[string]constEntry),
	}
}

func (p *preProcessor) Register(name, source string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.includes[name] = source
}

func (p *preProcessor) RegisterConst(name, wgslType, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consts[name] = constEntry{Type: wgslType, Value: value}
}

func (p *preProcessor) Process(source string) (string, []string, error) {
	state := &expansion{
		seen:   make(map[string]bool),
		active: make(map[string]bool),
	}
	out, err := p.expand(source, state)
	if err != nil {
		return "", nil, err
	}
	return out, state.order, nil
}

// expansion tracks the includes injected during one Process call.
type expansion struct {
	seen   map[string]bool
	active map[string]bool
	order  []string
}

func (p *preProcessor) expand(source string, state *expansion) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			if state.active[a.Name] {
				return "", fmt.Errorf("line %d: include cycle through %q", a.Line, a.Name)
			}
			if state.seen[a.Name] {
				continue
			}
			snippet, err := p.lookup(a.Name)
			if err != nil {
				return "", fmt.Errorf("line %d: %w", a.Line, err)
			}

			state.active[a.Name] = true
			expanded, err := p.expand(snippet, state)
			delete(state.active, a.Name)
			if err != nil {
				return "", fmt.Errorf("include %q: %w", a.Name, err)
			}
			state.seen[a.Name] = true
			state.order = append(state.order, a.Name)
			out = append(out, expanded)
		case AnnotationTypeConst:
			p.mu.RLock()
			c, ok := p.consts[a.Name]
			p.mu.RUnlock()
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:const %q", a.Line, a.Name)
			}
			out = append(out, fmt.Sprintf("const %s: %s = %s;", a.Name, c.Type, c.Value))
		}
	}
	return strings.Join(out, "\n"), nil
}

// lookup resolves an include name against the registry, then the file system.
func (p *preProcessor) lookup(name string) (string, error) {
	p.mu.RLock()
	src, ok := p.includes[name]
	p.mu.RUnlock()
	if ok {
		return src, nil
	}

	if p.fsys != nil {
		data, err := fs.ReadFile(p.fsys, path.Join("include", name+".wgsl"))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: unknown @oxy:include %q", common.ErrShaderNotFound, name)
}
