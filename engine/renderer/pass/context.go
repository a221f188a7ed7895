// Package pass implements the render passes of the scene renderer. Every pass reads the output of
// the pass before it, records its GPU work and forwards its own output to the next consumer.
package pass

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// programEntry remembers which stage files a program was built from so it can be rebuilt.
type programEntry struct {
	program *gpu.Program
	stages  map[shader.ShaderType]string
}

// RenderContext is shared by every pass of a renderer: the device, the shader loader, the tunables
// and a handful of fallback resources.
type RenderContext struct {
	Device  gpu.Device
	Shaders *shader.Loader
	// Config is read every frame, so edits between frames take effect on the next one.
	Config *config.Config
	// Parallel spreads CPU matrix work; nil runs it on the calling goroutine.
	Parallel light.Parallel

	mu       sync.Mutex
	programs []*programEntry

	white     *gpu.Texture
	black     *gpu.Texture
	dummyCube *gpu.Texture
	cube      *gpu.VertexArray
}

// NewRenderContext creates the shared fallback resources on device.
//
// Parameters:
//   - device: the device every pass records on
//   - shaders: the loader for stage files
//   - cfg: the renderer tunables
//
// Returns:
//   - *RenderContext: the context
//   - error: an error if a fallback resource could not be created
func NewRenderContext(device gpu.Device, shaders *shader.Loader, cfg *config.Config) (*RenderContext, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	c := &RenderContext{Device: device, Shaders: shaders, Config: cfg}

	var err error
	if c.white, err = c.solidTexture("White", wgpu.TextureFormatRGBA8Unorm, []byte{255, 255, 255, 255}); err != nil {
		return nil, err
	}
	if c.black, err = c.solidTexture("Black", wgpu.TextureFormatRGBA16Float, make([]byte, 8)); err != nil {
		c.Release()
		return nil, err
	}
	if c.dummyCube, err = c.createDummyCube(); err != nil {
		c.Release()
		return nil, err
	}
	if c.cube, err = device.CreateVertexArray(gpu.VertexArrayDescriptor{
		Label:        "Unit Cube",
		Vertices:     common.SliceToBytes(unitCubeVertices[:]),
		VertexStride: 12,
		VertexCount:  len(unitCubeVertices) / 3,
	}); err != nil {
		c.Release()
		return nil, fmt.Errorf("failed to create unit cube: %w", err)
	}
	return c, nil
}

func (c *RenderContext) solidTexture(label string, format wgpu.TextureFormat, texel []byte) (*gpu.Texture, error) {
	tex, err := c.Device.CreateTexture(gpu.TextureDescriptor{
		Label:  label,
		Format: format,
		Width:  1,
		Height: 1,
		Usage:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s texture: %w", label, err)
	}
	if err := c.Device.WriteTexture(tex, gpu.TextureRegion{}, texel); err != nil {
		tex.Release()
		return nil, err
	}
	return tex, nil
}

// createDummyCube makes the 1x1 depth cube bound to unused point shadow slots. Every face is cleared
// to the far plane so comparisons against it always pass.
func (c *RenderContext) createDummyCube() (*gpu.Texture, error) {
	tex, err := c.Device.CreateTexture(gpu.TextureDescriptor{
		Label:  "Dummy Shadow Cube",
		Kind:   gpu.TextureKindCube,
		Format: wgpu.TextureFormatDepth32Float,
		Width:  1,
		Height: 1,
		Usage:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dummy shadow cube: %w", err)
	}
	for face := 0; face < 6; face++ {
		view, err := c.LayerView(tex, face, 0)
		if err != nil {
			tex.Release()
			return nil, err
		}
		pass := c.Device.BeginRenderPass(gpu.RenderPassDescriptor{
			Label: "Clear Dummy Shadow Cube",
			Depth: &gpu.DepthAttachment{View: view, LoadOp: wgpu.LoadOpClear, Clear: 1},
		})
		pass.End()
		view.Release()
	}
	return tex, nil
}

// White returns the 1x1 white texture bound in place of missing material textures.
func (c *RenderContext) White() *gpu.Texture { return c.white }

// Black returns the 1x1 black rgba16float texture bound in place of a missing bloom result.
func (c *RenderContext) Black() *gpu.Texture { return c.black }

// DummyShadowCube returns the 1x1 depth cube bound to unused point shadow slots.
func (c *RenderContext) DummyShadowCube() *gpu.Texture { return c.dummyCube }

// UnitCube returns the 36 vertex position-only cube used by the sky and cube map captures.
func (c *RenderContext) UnitCube() *gpu.VertexArray { return c.cube }

// LayerView creates a single layer, single mip 2D view of tex for use as a render attachment.
//
// Parameters:
//   - tex: an array or cube texture
//   - layer: the array layer or cube face
//   - mip: the mip level
//
// Returns:
//   - *gpu.TextureView: the view, owned by the caller
//   - error: ErrInvalidDescriptor when layer or mip is out of range
func (c *RenderContext) LayerView(tex *gpu.Texture, layer, mip int) (*gpu.TextureView, error) {
	return c.Device.CreateTextureView(tex, gpu.TextureViewDescriptor{
		Label:           fmt.Sprintf("%s Layer %d Mip %d", tex.Label(), layer, mip),
		Dimension:       wgpu.TextureViewDimension2D,
		BaseMipLevel:    mip,
		MipLevelCount:   1,
		BaseArrayLayer:  layer,
		ArrayLayerCount: 1,
	})
}

// LoadProgram builds a render program from the "<vertex>.vert.wgsl" and "<fragment>.frag.wgsl" stages.
// The program is rebuilt in place when one of its stages is reloaded.
//
// Parameters:
//   - label: the program label
//   - vertex: the vertex stage name
//   - fragment: the fragment stage name; empty for depth-only programs without one
//
// Returns:
//   - *gpu.Program: the program
//   - error: ErrShaderNotFound or ErrShaderCompile, wrapped
func (c *RenderContext) LoadProgram(label, vertex, fragment string) (*gpu.Program, error) {
	stages := map[shader.ShaderType]string{shader.ShaderTypeVertex: vertex}
	if fragment != "" {
		stages[shader.ShaderTypeFragment] = fragment
	}
	return c.load(label, stages)
}

// LoadComputeProgram builds a compute program from "<name>.comp.wgsl".
func (c *RenderContext) LoadComputeProgram(label, name string) (*gpu.Program, error) {
	return c.load(label, map[shader.ShaderType]string{shader.ShaderTypeCompute: name})
}

func (c *RenderContext) load(label string, stages map[shader.ShaderType]string) (*gpu.Program, error) {
	desc, err := c.describe(label, stages, c.Shaders.Load)
	if err != nil {
		return nil, err
	}
	p, err := c.Device.CreateProgram(desc)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", label, err)
	}

	c.mu.Lock()
	c.programs = append(c.programs, &programEntry{program: p, stages: stages})
	c.mu.Unlock()
	return p, nil
}

func (c *RenderContext) describe(label string, stages map[shader.ShaderType]string, load func(string, shader.ShaderType) (shader.Shader, error)) (gpu.ProgramDescriptor, error) {
	desc := gpu.ProgramDescriptor{Label: label}
	for t, name := range stages {
		s, err := load(name, t)
		if err != nil {
			return gpu.ProgramDescriptor{}, fmt.Errorf("program %q: %w", label, err)
		}
		switch t {
		case shader.ShaderTypeVertex:
			desc.Vertex = s
		case shader.ShaderTypeFragment:
			desc.Fragment = s
		default:
			desc.Compute = s
		}
	}
	return desc, nil
}

// ReloadStage re-reads a stage file and rebuilds every program built from it. Programs keep their
// identity and staged values; a stage that fails to compile leaves the previous version running.
//
// Parameters:
//   - name: the stage name
//   - t: the stage type
//
// Returns:
//   - int: the number of rebuilt programs
//   - error: the first reload error
func (c *RenderContext) ReloadStage(name string, t shader.ShaderType) (int, error) {
	if _, err := c.Shaders.Reload(name, t); err != nil {
		return 0, err
	}

	c.mu.Lock()
	var affected []*programEntry
	for _, e := range c.programs {
		if e.stages[t] == name {
			affected = append(affected, e)
		}
	}
	c.mu.Unlock()

	rebuilt := 0
	for _, e := range affected {
		desc, err := c.describe(e.program.Label(), e.stages, c.Shaders.Load)
		if err != nil {
			return rebuilt, err
		}
		next, err := c.Device.CreateProgram(desc)
		if err != nil {
			return rebuilt, fmt.Errorf("program %q: %w", e.program.Label(), err)
		}
		e.program.Adopt(next)
		rebuilt++
	}
	if rebuilt > 0 {
		common.LogInfo("shader reloaded", "stage", shader.FileName(name, t), "programs", rebuilt)
	}
	return rebuilt, nil
}

// ReloadInclude rebuilds every program whose stages pull in the named include.
func (c *RenderContext) ReloadInclude(include string) (int, error) {
	total := 0
	for _, file := range c.Shaders.Dependents(include) {
		name, t, ok := shader.ParseFileName(file)
		if !ok {
			continue
		}
		n, err := c.ReloadStage(name, t)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Release frees the shared resources and every program loaded through the context.
func (c *RenderContext) Release() {
	c.mu.Lock()
	for _, e := range c.programs {
		e.program.Release()
	}
	c.programs = nil
	c.mu.Unlock()

	for _, t := range []*gpu.Texture{c.white, c.black, c.dummyCube} {
		if t != nil {
			t.Release()
		}
	}
	if c.cube != nil {
		c.cube.Release()
	}
}

// unitCubeVertices is a cube of half extent 1, wound counter-clockwise when seen from outside.
var unitCubeVertices = [108]float32{
	// -Z
	-1, -1, -1, 1, 1, -1, 1, -1, -1,
	1, 1, -1, -1, -1, -1, -1, 1, -1,
	// +Z
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, -1, 1,
	// -X
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, 1, -1, 1, 1,
	// +X
	1, 1, 1, 1, -1, -1, 1, 1, -1,
	1, -1, -1, 1, 1, 1, 1, -1, 1,
	// -Y
	-1, -1, -1, 1, -1, -1, 1, -1, 1,
	1, -1, 1, -1, -1, 1, -1, -1, -1,
	// +Y
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, 1, -1, 1, -1, -1, 1, 1,
}
