package pass

import (
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// SkyboxPass draws the environment cube behind the lit scene, into the forward framebuffer.
type SkyboxPass struct {
	ctx     *RenderContext
	output  ColorConsumer
	program *gpu.Program
	state   pipeline.Pipeline
}

// NewSkyboxPass loads the sky program.
func NewSkyboxPass(ctx *RenderContext) (*SkyboxPass, error) {
	program, err := ctx.LoadProgram("Skybox", "skybox", "skybox")
	if err != nil {
		return nil, err
	}
	return &SkyboxPass{
		ctx:     ctx,
		program: program,
		// The cube is seen from inside and written at the far plane.
		state: pipeline.NewPipeline("Skybox",
			pipeline.WithDepthCompare(wgpu.CompareFunctionLessEqual),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithCullMode(wgpu.CullModeFront),
		),
	}, nil
}

// SetOutput registers the consumer of the composed image.
func (p *SkyboxPass) SetOutput(c ColorConsumer) { p.output = c }

// Execute draws the sky where nothing was drawn by the forward pass. Frames without an environment
// are forwarded untouched.
func (p *SkyboxPass) Execute(in ForwardOutput) {
	if in.Environment != nil && in.Framebuffer != nil {
		sky := in.Environment.Environment
		if p.ctx.Config.Skybox.ShowIrradiance {
			sky = in.Environment.Irradiance
		}
		pass := p.ctx.Device.BeginRenderPass(in.Framebuffer.PassDescriptor("Skybox",
			wgpu.LoadOpLoad, wgpu.Color{}, wgpu.LoadOpLoad, 1))
		p.program.SetMat4("view_matrix", in.View.ViewMatrix())
		p.program.SetMat4("projection_matrix", in.View.ProjectionMatrix())
		p.program.SetTexture("env_tex", sky.View())
		pass.Draw(gpu.DrawCall{Program: p.program, State: p.state, VertexArray: p.ctx.UnitCube()})
		pass.End()
	}

	if p.output == nil {
		return
	}
	var color *gpu.Texture
	if in.Framebuffer != nil {
		color = in.Framebuffer.ColorTexture(0)
	}
	p.output.Execute(ColorOutput{
		Scene:       in.Scene,
		View:        in.View,
		Framebuffer: in.Framebuffer,
		Color:       color,
		Environment: in.Environment,
	})
}
