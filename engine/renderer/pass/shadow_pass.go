package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowPass renders the directional light's cascaded shadow map and the cube shadow maps of
// shadow casting point lights.
type ShadowPass struct {
	ctx    *RenderContext
	output ShadowConsumer

	program      *gpu.Program
	pointProgram *gpu.Program

	solidState       pipeline.Pipeline
	transparentState pipeline.Pipeline
	pointState       pipeline.Pipeline

	array      *gpu.Texture
	layerViews []*gpu.TextureView
	cubes      map[int]*gpu.Texture
	persistent []frame.MeshInfo
}

// NewShadowPass loads the shadow programs and allocates the cascade array.
//
// Parameters:
//   - ctx: the shared render context
//
// Returns:
//   - *ShadowPass: the pass
//   - error: ErrZeroCascades when the configuration has no cascades, ErrCascadeOutOfRange when it has
//     more than config.MaxCascades, or a shader error
func NewShadowPass(ctx *RenderContext) (*ShadowPass, error) {
	if err := checkCascades(ctx.Config.Shadow.Cascades); err != nil {
		return nil, err
	}

	p := &ShadowPass{
		ctx:   ctx,
		cubes: make(map[int]*gpu.Texture),
		solidState: pipeline.NewPipeline("Shadow Solid",
			pipeline.WithCullMode(wgpu.CullModeFront),
		),
		transparentState: pipeline.NewPipeline("Shadow Transparent",
			pipeline.WithCullMode(wgpu.CullModeBack),
		),
		// Cube faces are rendered with a mirrored Y, which flips the winding.
		pointState: pipeline.NewPipeline("Point Shadow",
			pipeline.WithCullMode(wgpu.CullModeNone),
		),
	}

	var err error
	if p.program, err = ctx.LoadProgram("Shadow", "shadow", "shadow"); err != nil {
		return nil, err
	}
	if p.pointProgram, err = ctx.LoadProgram("Point Shadow", "point_shadow", "point_shadow"); err != nil {
		return nil, err
	}
	if err := p.ensureArray(ctx.Config.Shadow.Cascades, int(ctx.Config.Shadow.Resolution)); err != nil {
		return nil, err
	}
	return p, nil
}

// checkCascades rejects counts the lighting shaders cannot index.
func checkCascades(n int) error {
	switch {
	case n <= 0:
		return fmt.Errorf("%w: configured %d", common.ErrZeroCascades, n)
	case n > config.MaxCascades:
		return fmt.Errorf("%w: configured %d, at most %d", common.ErrCascadeOutOfRange, n, config.MaxCascades)
	}
	return nil
}

// SetOutput registers the consumer of the shadow maps.
func (p *ShadowPass) SetOutput(c ShadowConsumer) { p.output = c }

// SetPersistentMeshes replaces the casters rendered after the frame's own meshes every frame.
func (p *ShadowPass) SetPersistentMeshes(meshes []frame.MeshInfo) {
	p.persistent = append(p.persistent[:0], meshes...)
}

// ShadowArray returns the current cascade array.
func (p *ShadowPass) ShadowArray() *gpu.Texture { return p.array }

// ensureArray (re)allocates the cascade array when the layer count or resolution changed.
func (p *ShadowPass) ensureArray(cascades, resolution int) error {
	if p.array != nil && p.array.Layers() == cascades && p.array.Width() == resolution {
		return nil
	}
	tex, err := p.ctx.Device.CreateTexture(gpu.TextureDescriptor{
		Label:  "Shadow Cascades",
		Kind:   gpu.TextureKind2DArray,
		Format: wgpu.TextureFormatDepth32Float,
		Width:  resolution,
		Height: resolution,
		Layers: cascades,
		Usage:  wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("failed to allocate shadow cascades: %w", err)
	}
	views := make([]*gpu.TextureView, cascades)
	for i := range views {
		if views[i], err = p.ctx.LayerView(tex, i, 0); err != nil {
			tex.Release()
			return err
		}
	}

	p.releaseArray()
	p.array, p.layerViews = tex, views
	common.LogDebug("shadow cascades allocated", "cascades", cascades, "resolution", resolution)
	return nil
}

func (p *ShadowPass) releaseArray() {
	for _, v := range p.layerViews {
		v.Release()
	}
	p.layerViews = nil
	if p.array != nil {
		p.array.Release()
		p.array = nil
	}
}

// ensureCube returns the cube shadow map of point light slot index, reallocating it when the
// configured resolution changed.
func (p *ShadowPass) ensureCube(index, resolution int) (*gpu.Texture, error) {
	if cube, ok := p.cubes[index]; ok && cube.Width() == resolution {
		return cube, nil
	}
	cube, err := p.ctx.Device.CreateTexture(gpu.TextureDescriptor{
		Label:  fmt.Sprintf("Point Shadow %d", index),
		Kind:   gpu.TextureKindCube,
		Format: wgpu.TextureFormatDepth32Float,
		Width:  resolution,
		Height: resolution,
		Usage:  wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate point shadow cube: %w", err)
	}
	if old, ok := p.cubes[index]; ok {
		old.Release()
	}
	p.cubes[index] = cube
	return cube, nil
}

// casters splits the frame's meshes into solid and alpha-tested sets. Alpha-tested meshes without an
// albedo texture cannot be tested and are left out. Meshes are uploaded on first use.
func (p *ShadowPass) casters(meshes []frame.MeshInfo) (solid, transparent []frame.MeshInfo) {
	for _, m := range meshes {
		tested, drawable := material.AlphaTested(m.Material)
		if !drawable || m.Mesh == nil {
			continue
		}
		if err := m.Mesh.Upload(p.ctx.Device); err != nil {
			common.LogWarn("mesh skipped", "mesh", m.Mesh.Name(), "err", err)
			continue
		}
		if tested {
			transparent = append(transparent, m)
		} else {
			solid = append(solid, m)
		}
	}
	return solid, transparent
}

// Execute renders every cascade and point light shadow of the frame and forwards the result.
// It panics when the configured cascade count is not positive or exceeds config.MaxCascades.
//
// Parameters:
//   - scene: the frame's scene data
//   - view: the camera the cascades are fitted to
func (p *ShadowPass) Execute(scene *frame.SceneRenderInfo, view *frame.ViewRenderInfo) {
	cfg := p.ctx.Config.Shadow
	if err := checkCascades(cfg.Cascades); err != nil {
		panic(fmt.Sprintf("shadow pass: %v", err))
	}
	if err := p.ensureArray(cfg.Cascades, int(cfg.Resolution)); err != nil {
		common.LogError("shadow cascades unavailable", "err", err)
		return
	}

	splits, err := light.ComputeCascadeSplits(view.Near(), view.Far(), cfg.Cascades, cfg.SplitLambda)
	if err != nil {
		panic(err)
	}
	dl := scene.DirectionalLight()
	dir := dl.Direction
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, -1, 0}
	}
	matrices := light.ComputeCascadeMatrices(splits, view.ViewMatrix(), view.FOV(), view.AspectRatio(),
		dir.Normalize(), cfg.ZMultiplier, p.ctx.Parallel)

	solid, transparent := p.casters(append(scene.Meshes(), p.persistent...))
	casting := dl.Enabled && dl.CastShadow
	for i, m := range matrices {
		pass := p.ctx.Device.BeginRenderPass(gpu.RenderPassDescriptor{
			Label: fmt.Sprintf("Shadow Cascade %d", i),
			Depth: &gpu.DepthAttachment{View: p.layerViews[i], LoadOp: wgpu.LoadOpClear, Clear: 1},
		})
		if casting {
			p.program.SetMat4("light_space_matrix", m)
			p.drawCasters(pass, p.program, p.solidState, solid, false)
			p.drawCasters(pass, p.program, p.transparentState, transparent, true)
		}
		pass.End()
	}

	lights := p.renderPointShadows(scene.PointLights(), solid, transparent)

	if p.output != nil {
		p.output.Execute(ShadowOutput{
			Scene:              scene.WithPointLights(lights),
			View:               view,
			ShadowArray:        p.array,
			LightSpaceMatrices: matrices,
			CascadeSplits:      splits,
		})
	}
}

func (p *ShadowPass) drawCasters(pass gpu.RenderPass, program *gpu.Program, state pipeline.Pipeline, meshes []frame.MeshInfo, alphaTest bool) {
	for _, m := range meshes {
		program.SetMat4("model_matrix", m.ModelMatrix)
		program.SetBool("alpha_test", alphaTest)
		albedo := p.ctx.White()
		if alphaTest {
			albedo = m.Material.AlbedoTexture()
		}
		program.SetTexture(material.AlbedoTextureName, albedo.View())
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
}

// renderPointShadows renders a cube for every shadow casting light among the first MaxPointLights
// and returns a copy of lights with ShadowMap set on those lights and cleared on all others.
func (p *ShadowPass) renderPointShadows(lights []light.PointLight, solid, transparent []frame.MeshInfo) []light.PointLight {
	n := min(len(lights), light.MaxPointLights)
	faces := make([][6]mgl32.Mat4, n)
	parallel := p.ctx.Parallel
	if parallel == nil {
		parallel = light.Sequential
	}
	parallel(n, func(i int) {
		if lights[i].CastShadow {
			faces[i] = light.PointShadowMatrices(lights[i].Position, lights[i].Radius)
		}
	})

	resolution := int(p.ctx.Config.Shadow.PointLightShadowRes)
	for i := range lights {
		lights[i].ShadowMap = nil
		if i >= n || !lights[i].CastShadow {
			continue
		}
		cube, err := p.ensureCube(i, resolution)
		if err != nil {
			common.LogError("point shadow skipped", "light", i, "err", err)
			continue
		}

		p.pointProgram.SetVec3("light_position", lights[i].Position)
		p.pointProgram.SetFloat("far_plane", lights[i].Radius)
		for face, m := range faces[i] {
			view, err := p.ctx.LayerView(cube, face, 0)
			if err != nil {
				common.LogError("point shadow face skipped", "light", i, "face", face, "err", err)
				continue
			}
			pass := p.ctx.Device.BeginRenderPass(gpu.RenderPassDescriptor{
				Label: fmt.Sprintf("Point Shadow %d Face %d", i, face),
				Depth: &gpu.DepthAttachment{View: view, LoadOp: wgpu.LoadOpClear, Clear: 1},
			})
			p.pointProgram.SetMat4("light_space_matrix", m)
			p.drawCasters(pass, p.pointProgram, p.pointState, solid, false)
			p.drawCasters(pass, p.pointProgram, p.pointState, transparent, true)
			pass.End()
			view.Release()
		}
		lights[i].ShadowMap = cube
	}
	return lights
}

// Release frees the cascade array and every point shadow cube.
func (p *ShadowPass) Release() {
	p.releaseArray()
	for i, cube := range p.cubes {
		cube.Release()
		delete(p.cubes, i)
	}
}
