package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// CascadeDebugSize is the edge length of the cascade preview image.
const CascadeDebugSize = 1024

// CascadeDebug renders one layer of the shadow cascade array as a greyscale image.
type CascadeDebug struct {
	ctx     *RenderContext
	program *gpu.Program
	state   pipeline.Pipeline
	fb      *gpu.Framebuffer
}

// NewCascadeDebug loads the preview program and allocates its framebuffer.
func NewCascadeDebug(ctx *RenderContext) (*CascadeDebug, error) {
	program, err := ctx.LoadProgram("Cascade Debug", "fullscreen", "cascade_debug")
	if err != nil {
		return nil, err
	}
	fb, err := ctx.Device.CreateFramebuffer(gpu.FramebufferDescriptor{
		Label:        "Cascade Debug",
		Width:        CascadeDebugSize,
		Height:       CascadeDebugSize,
		ColorFormats: []wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm},
	})
	if err != nil {
		return nil, err
	}
	return &CascadeDebug{
		ctx:     ctx,
		program: program,
		state:   pipeline.NewPipeline("Cascade Debug", pipeline.WithDepthTestEnabled(false), pipeline.WithDepthWriteEnabled(false)),
		fb:      fb,
	}, nil
}

// Render draws one cascade of array into the preview framebuffer.
//
// Parameters:
//   - array: the shadow cascade array
//   - layer: the cascade to show
//
// Returns:
//   - *gpu.Framebuffer: the preview framebuffer, owned by the CascadeDebug
//   - error: ErrCascadeOutOfRange when layer is not a layer of array
func (d *CascadeDebug) Render(array *gpu.Texture, layer int) (*gpu.Framebuffer, error) {
	if array == nil || layer < 0 || layer >= array.Layers() {
		return nil, fmt.Errorf("%w: layer %d", common.ErrCascadeOutOfRange, layer)
	}
	d.program.SetUint("layer", uint32(layer))
	d.program.SetTexture("shadow_tex", array.View())
	pass := d.ctx.Device.BeginRenderPass(d.fb.PassDescriptor("Cascade Debug",
		wgpu.LoadOpClear, wgpu.Color{A: 1}, wgpu.LoadOpClear, 1))
	pass.Draw(gpu.DrawCall{Program: d.program, State: d.state, VertexCount: 6})
	pass.End()
	return d.fb, nil
}

// Release frees the preview framebuffer.
func (d *CascadeDebug) Release() {
	d.fb.Release()
}
