package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// HDRFormat is the color format of the lit image.
	HDRFormat = wgpu.TextureFormatRGBA16Float
	// DepthFormat is the depth format of the lit image.
	DepthFormat = wgpu.TextureFormatDepth32Float

	lineVertexStride = 24
)

// ForwardPass shades the frame's meshes into an HDR framebuffer using the shadow maps of the
// shadow pass and the image based lighting of the frame's environment.
type ForwardPass struct {
	ctx    *RenderContext
	baker  *EnvironmentBaker
	output ForwardConsumer

	pbr     *gpu.Program
	prepass *gpu.Program
	lines   *gpu.Program

	prepassState     pipeline.Pipeline
	solidState       pipeline.Pipeline
	transparentState pipeline.Pipeline
	lineState        pipeline.Pipeline

	fb         *gpu.Framebuffer
	lineBuffer *gpu.VertexArray
	persistent []frame.MeshInfo
}

// NewForwardPass loads the lighting programs. The HDR framebuffer is allocated on the first Execute.
//
// Parameters:
//   - ctx: the shared render context
//   - baker: resolves the frame's environment map into image based lighting cubes
//
// Returns:
//   - *ForwardPass: the pass
//   - error: a shader error
func NewForwardPass(ctx *RenderContext, baker *EnvironmentBaker) (*ForwardPass, error) {
	p := &ForwardPass{
		ctx:   ctx,
		baker: baker,
		prepassState: pipeline.NewPipeline("Depth Prepass",
			pipeline.WithCullMode(wgpu.CullModeBack),
			pipeline.WithWriteMask(wgpu.ColorWriteMaskNone),
		),
		solidState: pipeline.NewPipeline("PBR Solid",
			pipeline.WithDepthCompare(wgpu.CompareFunctionLessEqual),
			pipeline.WithCullMode(wgpu.CullModeBack),
		),
		transparentState: pipeline.NewPipeline("PBR Transparent",
			pipeline.WithDepthCompare(wgpu.CompareFunctionLessEqual),
			pipeline.WithCullMode(wgpu.CullModeNone),
		),
		lineState: pipeline.NewPipeline("Debug Lines",
			pipeline.WithDepthCompare(wgpu.CompareFunctionLessEqual),
			pipeline.WithTopology(wgpu.PrimitiveTopologyLineList),
		),
	}

	var err error
	if p.pbr, err = ctx.LoadProgram("PBR", "pbr", "pbr"); err != nil {
		return nil, err
	}
	if p.prepass, err = ctx.LoadProgram("Depth Prepass", "depth_prepass", "depth_prepass"); err != nil {
		return nil, err
	}
	if p.lines, err = ctx.LoadProgram("Debug Lines", "line", "line"); err != nil {
		return nil, err
	}
	return p, nil
}

// SetOutput registers the consumer of the lit image.
func (p *ForwardPass) SetOutput(c ForwardConsumer) { p.output = c }

// Framebuffer returns the HDR framebuffer, or nil before the first Execute.
func (p *ForwardPass) Framebuffer() *gpu.Framebuffer { return p.fb }

// SetPersistentMeshes replaces the meshes drawn after the frame's own meshes every frame.
func (p *ForwardPass) SetPersistentMeshes(meshes []frame.MeshInfo) {
	p.persistent = append(p.persistent[:0], meshes...)
}

// ensureFramebuffer sizes the HDR framebuffer to the viewport. The attachments are only
// reallocated when the size or the configured sample count changes.
func (p *ForwardPass) ensureFramebuffer(width, height int) error {
	samples := max(p.ctx.Config.Forward.MSAASamples, 1)
	if p.fb != nil && p.fb.SampleCount() != samples {
		p.fb.Release()
		p.fb = nil
	}
	if p.fb == nil {
		fb, err := p.ctx.Device.CreateFramebuffer(gpu.FramebufferDescriptor{
			Label:        "Forward HDR",
			Width:        width,
			Height:       height,
			ColorFormats: []wgpu.TextureFormat{HDRFormat},
			DepthFormat:  DepthFormat,
			SampleCount:  samples,
		})
		if err != nil {
			return err
		}
		p.fb = fb
		return nil
	}
	if resized, err := p.fb.Resize(width, height); err != nil {
		return err
	} else if resized {
		common.LogDebug("forward framebuffer resized", "width", width, "height", height)
	}
	return nil
}

// Execute shades the frame and forwards the HDR image. When the environment has no usable
// irradiance or prefilter cube the framebuffer is only cleared.
//
// Parameters:
//   - in: the shadow pass output
func (p *ForwardPass) Execute(in ShadowOutput) {
	vp := in.View.Viewport()
	if err := p.ensureFramebuffer(vp.Width, vp.Height); err != nil {
		common.LogError("forward pass skipped", "err", err)
		return
	}

	env := p.baker.Resolve(in.Scene.EnvironmentMap())
	pass := p.ctx.Device.BeginRenderPass(p.fb.PassDescriptor("Forward",
		wgpu.LoadOpClear, wgpu.Color{R: 0, G: 0, B: 0, A: 1}, wgpu.LoadOpClear, 1))
	if env.Complete() {
		p.stageScene(in, env)

		meshes := p.drawable(append(in.Scene.Meshes(), p.persistent...))
		if p.ctx.Config.Forward.DepthPrepass {
			for _, m := range meshes {
				p.drawMesh(pass, p.prepass, p.prepassState, m)
			}
		}
		for _, m := range meshes {
			tested, _ := material.AlphaTested(m.Material)
			state := p.solidState
			if tested {
				state = p.transparentState
			}
			material.Apply(p.pbr, m.Material, p.ctx.White())
			p.drawMesh(pass, p.pbr, state, m)
		}
		p.drawLines(pass, in)
	} else {
		env = nil
	}
	pass.End()

	if p.output != nil {
		p.output.Execute(ForwardOutput{
			Scene:       in.Scene,
			View:        in.View,
			Framebuffer: p.fb,
			Environment: env,
		})
	}
}

// stageScene uploads the camera, light and shadow values shared by every draw of the frame.
func (p *ForwardPass) stageScene(in ShadowOutput, env *frame.EnvironmentTextures) {
	cfg := p.ctx.Config.Forward
	for _, prog := range []*gpu.Program{p.pbr, p.prepass} {
		prog.SetMat4("view_matrix", in.View.ViewMatrix())
		prog.SetMat4("projection_matrix", in.View.ProjectionMatrix())
	}

	pbr := p.pbr
	pbr.SetVec3("view_position", in.View.ViewPosition())

	lights := in.Scene.PointLights()
	count := min(len(lights), light.MaxPointLights)
	pbr.SetUint("point_light_count", uint32(count))
	for i := 0; i < light.MaxPointLights; i++ {
		shadow := p.ctx.DummyShadowCube()
		if i < count {
			l := lights[i]
			prefix := fmt.Sprintf("point_lights[%d].", i)
			pbr.SetVec3(prefix+"position", l.Position)
			pbr.SetVec3(prefix+"color", l.Color)
			pbr.SetFloat(prefix+"multiplier", l.Multiplier)
			pbr.SetFloat(prefix+"radius", l.Radius)
			pbr.SetFloat(prefix+"falloff", l.Falloff)
			hasShadow := l.CastShadow && l.ShadowMap != nil && !l.ShadowMap.Released()
			pbr.SetBool(prefix+"cast_shadow", hasShadow)
			if hasShadow {
				shadow = l.ShadowMap
			}
		}
		pbr.SetTexture(fmt.Sprintf("point_light_shadow_tex_%d", i), shadow.View())
	}

	dl := in.Scene.DirectionalLight()
	dir := dl.Direction
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	pbr.SetBool("directional_light_enabled", dl.Enabled)
	pbr.SetBool("directional_light_shadow_enabled", dl.Enabled && dl.CastShadow)
	pbr.SetVec3("directional_light.direction", dir)
	pbr.SetVec3("directional_light.color", dl.Color)
	pbr.SetFloat("directional_light.multiplier", dl.Multiplier)

	distances := make([]mgl32.Vec4, len(in.CascadeSplits))
	for i, s := range in.CascadeSplits {
		distances[i] = mgl32.Vec4{s.Far, 0, 0, 0}
	}
	pbr.SetMat4Array("light_space_matrices", in.LightSpaceMatrices)
	pbr.SetVec4Array("cascades_plane_distances", distances)
	pbr.SetUint("cascade_count", uint32(len(in.LightSpaceMatrices)))
	pbr.SetBool("show_shadow_cascades", cfg.ShowShadowCascades)
	pbr.SetBool("smooth_shadows", cfg.SmoothShadows)
	pbr.SetFloat("shadow_bias_min", cfg.ShadowBiasMin)
	pbr.SetFloat("light_size", cfg.LightSize)
	pbr.SetTexture("directional_light_shadow_tex", in.ShadowArray.View())

	pbr.SetTexture("brdf_lut_tex", p.baker.BRDFLUT().View())
	pbr.SetTexture("env_tex", env.Prefilter.View())
	pbr.SetTexture("env_irradiance_tex", env.Irradiance.View())
}

// drawable uploads meshes on first use and drops those that cannot be uploaded.
func (p *ForwardPass) drawable(meshes []frame.MeshInfo) []frame.MeshInfo {
	out := meshes[:0]
	for _, m := range meshes {
		if m.Mesh == nil {
			continue
		}
		if err := m.Mesh.Upload(p.ctx.Device); err != nil {
			common.LogWarn("mesh skipped", "mesh", m.Mesh.Name(), "err", err)
			continue
		}
		out = append(out, m)
	}
	return out
}

func (p *ForwardPass) drawMesh(pass gpu.RenderPass, program *gpu.Program, state pipeline.Pipeline, m frame.MeshInfo) {
	tested, drawable := material.AlphaTested(m.Material)
	program.SetMat4("model_matrix", m.ModelMatrix)
	program.SetBool("alpha_test", tested && drawable)
	if program == p.prepass {
		albedo := p.ctx.White()
		if tested && drawable {
			albedo = m.Material.AlbedoTexture()
		}
		program.SetTexture(material.AlbedoTextureName, albedo.View())
	}
	for _, sub := range m.Mesh.SubMeshes() {
		pass.Draw(gpu.DrawCall{
			Program:     program,
			State:       state,
			VertexArray: m.Mesh.VertexArray(),
			FirstIndex:  sub.FirstIndex,
			IndexCount:  sub.IndexCount,
		})
	}
}

// drawLines draws the frame's debug lines from a vertex buffer that grows to fit them.
func (p *ForwardPass) drawLines(pass gpu.RenderPass, in ShadowOutput) {
	lines := in.Scene.DebugLines()
	if len(lines) == 0 {
		return
	}
	vertices := make([]float32, 0, len(lines)*12)
	for _, l := range lines {
		vertices = append(vertices, l.Start[:]...)
		vertices = append(vertices, l.StartColor[:]...)
		vertices = append(vertices, l.End[:]...)
		vertices = append(vertices, l.EndColor[:]...)
	}
	data := common.SliceToBytes(vertices)

	if p.lineBuffer == nil {
		va, err := p.ctx.Device.CreateVertexArray(gpu.VertexArrayDescriptor{
			Label:        "Debug Lines",
			Vertices:     data,
			VertexStride: lineVertexStride,
			VertexCount:  len(lines) * 2,
		})
		if err != nil {
			common.LogError("debug lines skipped", "err", err)
			return
		}
		p.lineBuffer = va
	} else if err := p.ctx.Device.UpdateVertexArray(p.lineBuffer, data, len(lines)*2); err != nil {
		common.LogError("debug lines skipped", "err", err)
		return
	}

	p.lines.SetMat4("view_matrix", in.View.ViewMatrix())
	p.lines.SetMat4("projection_matrix", in.View.ProjectionMatrix())
	pass.Draw(gpu.DrawCall{Program: p.lines, State: p.lineState, VertexArray: p.lineBuffer})
}

// Release frees the HDR framebuffer and the debug line buffer.
func (p *ForwardPass) Release() {
	if p.fb != nil {
		p.fb.Release()
		p.fb = nil
	}
	if p.lineBuffer != nil {
		p.lineBuffer.Release()
		p.lineBuffer = nil
	}
}
