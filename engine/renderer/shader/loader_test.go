package shader

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullscreenVert = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
    var out: VertexOutput;
    return out;
}
`

func TestLoaderCachesAndReloads(t *testing.T) {
	fsys := fstest.MapFS{
		"fullscreen.vert.wgsl": {Data: []byte(fullscreenVert)},
	}
	loader := NewLoader(fsys, NewPreProcessor(fsys))

	first, err := loader.Load("fullscreen", ShaderTypeVertex)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", first.EntryPoint())
	assert.Nil(t, first.VertexLayouts())

	again, err := loader.Load("fullscreen", ShaderTypeVertex)
	require.NoError(t, err)
	assert.Same(t, first, again)

	reloaded, err := loader.Reload("fullscreen", ShaderTypeVertex)
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
}

func TestLoaderErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.frag.wgsl": {Data: []byte("fn not_an_entry() {}")},
	}
	loader := NewLoader(fsys, NewPreProcessor(fsys))

	_, err := loader.Load("missing", ShaderTypeFragment)
	assert.ErrorIs(t, err, common.ErrShaderNotFound)

	_, err = loader.Load("broken", ShaderTypeFragment)
	assert.ErrorIs(t, err, common.ErrShaderCompile)
}

func TestLoaderDependents(t *testing.T) {
	fsys := fstest.MapFS{
		"include/tonemap.wgsl": {Data: []byte("fn aces(x: vec3<f32>) -> vec3<f32> { return x; }")},
		"hdr.frag.wgsl":        {Data: []byte("//@oxy:include tonemap\n@fragment\nfn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }")},
	}
	loader := NewLoader(fsys, NewPreProcessor(fsys))
	_, err := loader.Load("hdr", ShaderTypeFragment)
	require.NoError(t, err)

	assert.Equal(t, []string{"hdr.frag.wgsl"}, loader.Dependents("tonemap"))
	assert.Empty(t, loader.Dependents("other"))
}

func TestParseFileName(t *testing.T) {
	name, st, ok := ParseFileName("bloom.comp.wgsl")
	assert.True(t, ok)
	assert.Equal(t, "bloom", name)
	assert.Equal(t, ShaderTypeCompute, st)

	_, _, ok = ParseFileName("notes.txt")
	assert.False(t, ok)
	_, _, ok = ParseFileName("pbr.geom.wgsl")
	assert.False(t, ok)
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "include"), 0o755))

	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pbr.frag.wgsl"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "include", "shadows.wgsl"), []byte("x"), 0o644))

	seen := map[Change]bool{}
	require.Eventually(t, func() bool {
		for _, c := range w.Poll() {
			seen[c] = true
		}
		return seen[Change{Name: "pbr", Type: ShaderTypeFragment}] && seen[Change{Name: "shadows", Include: true}]
	}, 5*time.Second, 20*time.Millisecond)
}
