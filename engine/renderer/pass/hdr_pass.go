package pass

import (
	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// HDRPass tonemaps the HDR image, adds its bloom and writes the result to the view's framebuffer or
// to the screen.
type HDRPass struct {
	ctx     *RenderContext
	program *gpu.Program
	state   pipeline.Pipeline
}

// NewHDRPass loads the tonemap program.
//
// Parameters:
//   - ctx: the shared render context
//
// Returns:
//   - *HDRPass: the pass
//   - error: a shader error
func NewHDRPass(ctx *RenderContext) (*HDRPass, error) {
	program, err := ctx.LoadProgram("Tonemap", "fullscreen", "hdr")
	if err != nil {
		return nil, err
	}
	return &HDRPass{
		ctx:     ctx,
		program: program,
		state: pipeline.NewPipeline("Tonemap",
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithDepthWriteEnabled(false),
		),
	}, nil
}

// Execute draws the tonemapped image. The target is bound for the duration of the pass; the default
// framebuffer is bound again afterwards.
//
// Parameters:
//   - in: the HDR image and its optional bloom
func (p *HDRPass) Execute(in ColorOutput) {
	if in.Color == nil {
		common.LogWarn("tonemap skipped: no HDR image")
		return
	}
	device := p.ctx.Device
	target := device.DefaultFramebuffer()
	if in.View != nil {
		if fb, ok := in.View.Framebuffer(); ok {
			target = fb
		}
	}
	device.BindFramebuffer(target)
	defer device.BindDefaultFramebuffer()

	if target.ColorTexture(0) == nil {
		common.LogWarn("tonemap skipped: target has no color attachment", "framebuffer", target.Label())
		return
	}

	cfg := p.ctx.Config.HDR
	bloom := in.Bloom
	if bloom == nil {
		bloom = p.ctx.Black().View()
	}
	p.program.SetFloat("exposure", cfg.Exposure)
	p.program.SetFloat("bloom_intensity", cfg.BloomIntensity)
	p.program.SetBool("is_bloom", in.Bloom != nil)
	p.program.SetTexture("hdr_tex", in.Color.View())
	p.program.SetTexture("bloom_tex", bloom)

	pass := device.BeginRenderPass(target.PassDescriptor("Tonemap",
		wgpu.LoadOpClear, wgpu.Color{R: 0, G: 0, B: 0, A: 1}, wgpu.LoadOpClear, 1))
	pass.SetViewport(0, 0, float32(target.Width()), float32(target.Height()))
	pass.Draw(gpu.DrawCall{Program: p.program, State: p.state, VertexCount: 6})
	pass.End()
}
