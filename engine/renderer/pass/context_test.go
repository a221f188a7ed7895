package pass_test

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-cascade/assets"
	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/model"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWidth  = 320
	testHeight = 240
)

// newTestContext builds a render context over the embedded shaders and a recording device. The
// setup passes are dropped from the recording.
func newTestContext(t *testing.T, mutate func(*config.Config)) (*pass.RenderContext, *gputest.Device) {
	t.Helper()
	cfg := config.Default()
	cfg.Shadow.Resolution = 256
	cfg.Shadow.PointLightShadowRes = 64
	if mutate != nil {
		mutate(&cfg)
	}

	fsys := assets.Shaders()
	pp := shader.NewPreProcessor(fsys)
	light.RegisterIncludes(pp)
	model.RegisterIncludes(pp)
	material.RegisterIncludes(pp)

	d := gputest.NewDevice(testWidth, testHeight)
	ctx, err := pass.NewRenderContext(d, shader.NewLoader(fsys, pp), &cfg)
	require.NoError(t, err)
	t.Cleanup(ctx.Release)
	d.Reset()
	return ctx, d
}

func newTestView() *frame.ViewRenderInfo {
	v := frame.NewViewRenderInfo()
	v.SetViewMatrix(mgl32.LookAtV(mgl32.Vec3{0, 3, 8}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	v.SetViewPosition(mgl32.Vec3{0, 3, 8})
	v.SetPerspective(mgl32.DegToRad(45), float32(testWidth)/testHeight, 0.1, 100)
	v.SetViewport(frame.Viewport{Width: testWidth, Height: testHeight})
	return v
}

func newTestScene(t *testing.T) *frame.SceneRenderInfo {
	t.Helper()
	cube, err := model.NewCube(1)
	require.NoError(t, err)
	plane, err := model.NewPlane(20)
	require.NoError(t, err)

	s := frame.NewSceneRenderInfo()
	s.SetDirectionalLight(light.NewDirectionalLight(light.WithDirection(mgl32.Vec3{-1, -2, -1})))
	s.AddMesh(mgl32.Translate3D(0, 0.5, 0), cube, material.NewMaterial())
	s.AddMesh(mgl32.Ident4(), plane, nil)
	return s
}

// newTestMaterial creates a material, optionally transparent and optionally with an albedo texture.
func newTestMaterial(t *testing.T, ctx *pass.RenderContext, transparent, albedo bool) material.Material {
	t.Helper()
	opts := []material.MaterialBuilderOption{material.WithTransparent(transparent)}
	if albedo {
		tex, err := ctx.Device.CreateTexture(gpu.TextureDescriptor{
			Label:  "Albedo",
			Format: wgpu.TextureFormatRGBA8Unorm,
			Width:  4,
			Height: 4,
			Usage:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		})
		require.NoError(t, err)
		opts = append(opts, material.WithAlbedoTexture(tex))
	}
	return material.NewMaterial(opts...)
}

func TestNewRenderContextCreatesFallbacks(t *testing.T) {
	ctx, _ := newTestContext(t, nil)

	assert.Equal(t, 1, ctx.White().Width())
	assert.Equal(t, 6, ctx.DummyShadowCube().Layers())
	assert.Equal(t, 36, ctx.UnitCube().VertexCount())

	texels, err := ctx.Device.ReadTexture(ctx.White(), gpu.TextureRegion{})
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 255, 255, 255}, texels)
}

func TestNewRenderContextClearsDummyCube(t *testing.T) {
	fsys := fstest.MapFS{}
	d := gputest.NewDevice(8, 8)
	ctx, err := pass.NewRenderContext(d, shader.NewLoader(fsys, shader.NewPreProcessor(fsys)), nil)
	require.NoError(t, err)
	defer ctx.Release()

	assert.Len(t, d.PassesLabeled("Clear Dummy Shadow Cube"), 6)
	assert.Equal(t, config.Default().Shadow.Cascades, ctx.Config.Shadow.Cascades, "nil config falls back to the defaults")
}

func TestLayerViewRange(t *testing.T) {
	ctx, _ := newTestContext(t, nil)

	v, err := ctx.LayerView(ctx.DummyShadowCube(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, v.BaseArrayLayer())
	assert.Equal(t, 1, v.ArrayLayerCount())

	_, err = ctx.LayerView(ctx.DummyShadowCube(), 6, 0)
	assert.Error(t, err)
}

func TestReloadStageAdoptsInPlace(t *testing.T) {
	ctx, _ := newTestContext(t, nil)
	_, err := pass.NewHDRPass(ctx)
	require.NoError(t, err)

	n, err := ctx.ReloadStage("hdr", shader.ShaderTypeFragment)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ctx.ReloadInclude("fullscreen")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the fullscreen vertex stage and the hdr fragment stage both rebuild the program")
}
