package pass_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pass"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHDRImage(width, height uint32) *common.HDRImageData {
	pixels := make([]float32, width*height*3)
	for i := range pixels {
		pixels[i] = float32(i%7) * 0.5
	}
	return &common.HDRImageData{Pixels: pixels, Width: width, Height: height}
}

// newBakedEnvironment creates ready-made cubes so tests can skip baking.
func newBakedEnvironment(t *testing.T, ctx *pass.RenderContext) *frame.EnvironmentMap {
	t.Helper()
	cube := func(label string, mips int) *gpu.Texture {
		tex, err := ctx.Device.CreateTexture(gpu.TextureDescriptor{
			Label:     label,
			Kind:      gpu.TextureKindCube,
			Format:    wgpu.TextureFormatRGBA16Float,
			Width:     16,
			Height:    16,
			MipLevels: mips,
			Usage:     wgpu.TextureUsageTextureBinding,
		})
		require.NoError(t, err)
		return tex
	}
	env := frame.NewEnvironmentMap(nil)
	env.Baked = &frame.EnvironmentTextures{
		Environment: cube("Environment", 5),
		Irradiance:  cube("Irradiance", 1),
		Prefilter:   cube("Prefilter", 5),
	}
	return env
}

func TestEnvironmentBakerRendersBRDFLUT(t *testing.T) {
	ctx, d := newTestContext(t, nil)
	b, err := pass.NewEnvironmentBaker(ctx)
	require.NoError(t, err)
	defer b.Release()

	lut := d.PassesLabeled("BRDF LUT")
	require.Len(t, lut, 1)
	require.Len(t, lut[0].Draws, 1)
	assert.Equal(t, 6, lut[0].Draws[0].VertexCount)
	assert.Equal(t, pass.BRDFLUTSize, b.BRDFLUT().Width())
	assert.Equal(t, wgpu.TextureFormatRG16Float, b.BRDFLUT().Format())
}

func TestEnvironmentBakerBakesOncePerID(t *testing.T) {
	ctx, d := newTestContext(t, nil)
	b, err := pass.NewEnvironmentBaker(ctx)
	require.NoError(t, err)
	defer b.Release()
	d.Reset()

	assert.Nil(t, b.Resolve(nil))

	env := frame.NewEnvironmentMap(newTestHDRImage(16, 8))
	baked := b.Resolve(env)
	require.True(t, baked.Complete())

	assert.Equal(t, pass.EnvironmentSize, baked.Environment.Width())
	assert.Equal(t, gpu.MipLevelCount(pass.EnvironmentSize, pass.EnvironmentSize), baked.Environment.MipLevels())
	assert.Equal(t, pass.IrradianceSize, baked.Irradiance.Width())
	assert.Equal(t, pass.PrefilterSize, baked.Prefilter.Width())
	assert.Equal(t, pass.PrefilterMips, baked.Prefilter.MipLevels())

	assert.Len(t, d.PassesLabeled("Environment Capture"), 6*baked.Environment.MipLevels())
	assert.Len(t, d.PassesLabeled("Irradiance Capture"), 6)
	assert.Len(t, d.PassesLabeled("Prefilter Capture"), 6*pass.PrefilterMips)
	require.Len(t, d.Writes, 1)
	assert.Equal(t, 16*8*8, d.Writes[0].Size)

	passes := len(d.Passes)
	assert.Same(t, baked, b.Resolve(env))
	assert.Len(t, d.Passes, passes, "a cached environment is not baked again")
}

func TestEnvironmentBakerPrefilterRoughness(t *testing.T) {
	ctx, d := newTestContext(t, nil)
	b, err := pass.NewEnvironmentBaker(ctx)
	require.NoError(t, err)
	defer b.Release()
	d.Reset()

	require.NotNil(t, b.Resolve(frame.NewEnvironmentMap(newTestHDRImage(4, 2))))

	draws := d.DrawsOf("Prefilter")
	require.Len(t, draws, 6*pass.PrefilterMips)
	for i, dr := range draws {
		roughness, ok := dr.Values.Float("roughness")
		require.True(t, ok)
		assert.InDelta(t, float32(i/6)/float32(pass.PrefilterMips-1), roughness, 1e-6)
	}
	for i, p := range d.PassesLabeled("Prefilter Capture") {
		view := p.Descriptor.Colors[0].View
		assert.Equal(t, i/6, view.BaseMipLevel())
		assert.Equal(t, i%6, view.BaseArrayLayer())
	}
}

func TestEnvironmentBakerUsesPrebakedCubes(t *testing.T) {
	ctx, d := newTestContext(t, nil)
	b, err := pass.NewEnvironmentBaker(ctx)
	require.NoError(t, err)
	defer b.Release()
	d.Reset()

	env := newBakedEnvironment(t, ctx)
	assert.Same(t, env.Baked, b.Resolve(env))
	assert.Empty(t, d.Passes)
}

func TestEnvironmentBakerRemembersFailures(t *testing.T) {
	ctx, d := newTestContext(t, nil)
	b, err := pass.NewEnvironmentBaker(ctx)
	require.NoError(t, err)
	defer b.Release()
	d.Reset()

	broken := frame.NewEnvironmentMap(&common.HDRImageData{Pixels: []float32{1, 2}, Width: 4, Height: 4})
	assert.Nil(t, b.Resolve(broken))
	assert.Nil(t, b.Resolve(broken))
	assert.Empty(t, d.Passes)

	_, err = b.Bake(broken.Source)
	assert.ErrorIs(t, err, common.ErrInvalidDescriptor)
}

func TestEnvironmentBakerEvict(t *testing.T) {
	ctx, d := newTestContext(t, nil)
	b, err := pass.NewEnvironmentBaker(ctx)
	require.NoError(t, err)
	defer b.Release()

	env := frame.NewEnvironmentMap(newTestHDRImage(4, 2))
	first := b.Resolve(env)
	require.NotNil(t, first)

	b.Evict(env.ID)
	assert.True(t, first.Environment.Released())
	assert.False(t, first.Complete())

	d.Reset()
	second := b.Resolve(env)
	require.True(t, second.Complete())
	assert.NotSame(t, first, second)
	assert.NotEmpty(t, d.Passes)
}
