package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const (
	EnvironmentSize = 512
	IrradianceSize  = 32
	PrefilterSize   = 128
	// PrefilterMips is the number of roughness levels in the prefilter cube; mip m holds roughness m/(PrefilterMips-1).
	PrefilterMips = 5
	BRDFLUTSize   = 512

	captureNear = 0.1
	captureFar  = 10
)

// EnvironmentBaker turns equirectangular HDR images into the cubes used for image based lighting.
// Every environment map is baked once per ID; the result is cached until Release.
type EnvironmentBaker struct {
	ctx *RenderContext

	equirect   *gpu.Program
	irradiance *gpu.Program
	prefilter  *gpu.Program

	captureState pipeline.Pipeline

	brdfLUT *gpu.Texture
	baked   map[uuid.UUID]*frame.EnvironmentTextures
	failed  map[uuid.UUID]error
}

// NewEnvironmentBaker loads the capture programs and renders the BRDF lookup table.
//
// Parameters:
//   - ctx: the shared render context
//
// Returns:
//   - *EnvironmentBaker: the baker
//   - error: a shader or allocation error
func NewEnvironmentBaker(ctx *RenderContext) (*EnvironmentBaker, error) {
	b := &EnvironmentBaker{
		ctx: ctx,
		captureState: pipeline.NewPipeline("Capture",
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithDepthWriteEnabled(false),
		),
		baked:  make(map[uuid.UUID]*frame.EnvironmentTextures),
		failed: make(map[uuid.UUID]error),
	}

	var err error
	if b.equirect, err = ctx.LoadProgram("Equirect To Cube", "cube", "equirect_to_cube"); err != nil {
		return nil, err
	}
	if b.irradiance, err = ctx.LoadProgram("Irradiance", "cube", "irradiance"); err != nil {
		return nil, err
	}
	if b.prefilter, err = ctx.LoadProgram("Prefilter", "cube", "prefilter"); err != nil {
		return nil, err
	}
	brdf, err := ctx.LoadProgram("BRDF LUT", "fullscreen", "brdf_lut")
	if err != nil {
		return nil, err
	}

	b.brdfLUT, err = ctx.Device.CreateTexture(gpu.TextureDescriptor{
		Label:  "BRDF LUT",
		Format: wgpu.TextureFormatRG16Float,
		Width:  BRDFLUTSize,
		Height: BRDFLUTSize,
		Usage:  wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create BRDF LUT: %w", err)
	}
	pass := ctx.Device.BeginRenderPass(gpu.RenderPassDescriptor{
		Label:  "BRDF LUT",
		Colors: []gpu.ColorAttachment{{View: b.brdfLUT.View(), LoadOp: wgpu.LoadOpClear}},
	})
	pass.Draw(gpu.DrawCall{Program: brdf, State: b.captureState, VertexCount: 6})
	pass.End()
	return b, nil
}

// BRDFLUT returns the split-sum BRDF lookup table.
func (b *EnvironmentBaker) BRDFLUT() *gpu.Texture { return b.brdfLUT }

// Resolve returns the lighting cubes of env, baking them on first use. Pre-baked cubes are returned
// as is. It returns nil when env is nil, has nothing to bake, or failed to bake before.
//
// Parameters:
//   - env: the frame's environment map
//
// Returns:
//   - *frame.EnvironmentTextures: the cubes, or nil
func (b *EnvironmentBaker) Resolve(env *frame.EnvironmentMap) *frame.EnvironmentTextures {
	if env == nil {
		return nil
	}
	if env.Baked != nil {
		return env.Baked
	}
	if t, ok := b.baked[env.ID]; ok {
		return t
	}
	if _, ok := b.failed[env.ID]; ok || env.Source == nil {
		return nil
	}

	t, err := b.Bake(env.Source)
	if err != nil {
		common.LogError("environment bake failed", "environment", env.ID, "err", err)
		b.failed[env.ID] = err
		return nil
	}
	b.baked[env.ID] = t
	common.LogInfo("environment baked", "environment", env.ID, "width", env.Source.Width, "height", env.Source.Height)
	return t
}

// Bake renders the environment, irradiance and prefilter cubes of an equirectangular HDR image.
// The caller owns the returned textures.
//
// Parameters:
//   - src: the equirectangular image
//
// Returns:
//   - *frame.EnvironmentTextures: the cubes
//   - error: ErrInvalidDescriptor for an empty image, or an allocation error
func (b *EnvironmentBaker) Bake(src *common.HDRImageData) (*frame.EnvironmentTextures, error) {
	texels, err := src.RGBA16F()
	if err != nil {
		return nil, err
	}
	device := b.ctx.Device
	equirect, err := device.CreateTexture(gpu.TextureDescriptor{
		Label:  "Equirectangular Source",
		Format: wgpu.TextureFormatRGBA16Float,
		Width:  int(src.Width),
		Height: int(src.Height),
		Usage:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer equirect.Release()
	if err := device.WriteTexture(equirect, gpu.TextureRegion{}, texels); err != nil {
		return nil, err
	}

	out := &frame.EnvironmentTextures{}
	release := func() {
		for _, t := range []*gpu.Texture{out.Environment, out.Irradiance, out.Prefilter} {
			if t != nil {
				t.Release()
			}
		}
	}

	if out.Environment, err = b.newCube("Environment", EnvironmentSize, gpu.MipLevelCount(EnvironmentSize, EnvironmentSize)); err != nil {
		return nil, err
	}
	b.equirect.SetTexture("equirect_tex", equirect.View())
	for mip := 0; mip < out.Environment.MipLevels(); mip++ {
		if err := b.capture("Environment Capture", b.equirect, out.Environment, mip); err != nil {
			release()
			return nil, err
		}
	}

	if out.Irradiance, err = b.newCube("Irradiance", IrradianceSize, 1); err != nil {
		release()
		return nil, err
	}
	b.irradiance.SetTexture("env_tex", out.Environment.View())
	if err := b.capture("Irradiance Capture", b.irradiance, out.Irradiance, 0); err != nil {
		release()
		return nil, err
	}

	if out.Prefilter, err = b.newCube("Prefilter", PrefilterSize, PrefilterMips); err != nil {
		release()
		return nil, err
	}
	b.prefilter.SetTexture("env_tex", out.Environment.View())
	b.prefilter.SetFloat("env_resolution", EnvironmentSize)
	for mip := 0; mip < PrefilterMips; mip++ {
		b.prefilter.SetFloat("roughness", float32(mip)/float32(PrefilterMips-1))
		if err := b.capture("Prefilter Capture", b.prefilter, out.Prefilter, mip); err != nil {
			release()
			return nil, err
		}
	}
	return out, nil
}

func (b *EnvironmentBaker) newCube(label string, size, mips int) (*gpu.Texture, error) {
	return b.ctx.Device.CreateTexture(gpu.TextureDescriptor{
		Label:     label,
		Kind:      gpu.TextureKindCube,
		Format:    wgpu.TextureFormatRGBA16Float,
		Width:     size,
		Height:    size,
		MipLevels: mips,
		Usage:     wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
}

// capture renders the unit cube through program into the six faces of one mip of target.
func (b *EnvironmentBaker) capture(label string, program *gpu.Program, target *gpu.Texture, mip int) error {
	views := light.CubeFaceViews(mgl32.Vec3{})
	program.SetMat4("projection_matrix", light.CubeFaceProjection(captureNear, captureFar))
	for face, v := range views {
		view, err := b.ctx.LayerView(target, face, mip)
		if err != nil {
			return err
		}
		pass := b.ctx.Device.BeginRenderPass(gpu.RenderPassDescriptor{
			Label:  label,
			Colors: []gpu.ColorAttachment{{View: view, LoadOp: wgpu.LoadOpClear}},
		})
		program.SetMat4("view_matrix", v)
		pass.Draw(gpu.DrawCall{Program: program, State: b.captureState, VertexArray: b.ctx.UnitCube()})
		pass.End()
		view.Release()
	}
	return nil
}

// Evict releases the cubes baked for an environment ID so the next Resolve bakes it again.
func (b *EnvironmentBaker) Evict(id uuid.UUID) {
	if t, ok := b.baked[id]; ok {
		t.Environment.Release()
		t.Irradiance.Release()
		t.Prefilter.Release()
		delete(b.baked, id)
	}
	delete(b.failed, id)
}

// Release frees the lookup table and every baked environment.
func (b *EnvironmentBaker) Release() {
	for id := range b.baked {
		b.Evict(id)
	}
	if b.brdfLUT != nil {
		b.brdfLUT.Release()
		b.brdfLUT = nil
	}
}
