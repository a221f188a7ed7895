package frame_test

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/model"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneRenderInfoAccessorsReturnCopies(t *testing.T) {
	cube, err := model.NewCube(1)
	require.NoError(t, err)

	s := frame.NewSceneRenderInfo()
	assert.False(t, s.DirectionalLight().Enabled)

	s.AddMesh(mgl32.Translate3D(1, 0, 0), cube, nil)
	s.AddMesh(mgl32.Ident4(), nil, nil)
	s.AddPointLight(light.NewPointLight(light.WithPosition(mgl32.Vec3{0, 2, 0})))
	s.AddDebugLines(frame.DebugLine{End: mgl32.Vec3{1, 0, 0}}, frame.DebugLine{End: mgl32.Vec3{0, 1, 0}})

	meshes := s.Meshes()
	require.Len(t, meshes, 1, "nil meshes are ignored")
	meshes[0].ModelMatrix = mgl32.Ident4()
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), s.Meshes()[0].ModelMatrix)

	lights := s.PointLights()
	lights[0].Radius = 99
	assert.Equal(t, float32(10), s.PointLights()[0].Radius)

	lines := s.DebugLines()
	require.Len(t, lines, 2)
	lines[0].Start = mgl32.Vec3{5, 5, 5}
	assert.Equal(t, mgl32.Vec3{}, s.DebugLines()[0].Start)
}

func TestWithPointLightsLeavesSourceUntouched(t *testing.T) {
	s := frame.NewSceneRenderInfo()
	s.AddPointLight(light.NewPointLight())
	s.SetDirectionalLight(light.NewDirectionalLight())

	c := s.WithPointLights(nil)
	assert.Empty(t, c.PointLights())
	assert.Len(t, s.PointLights(), 1)
	assert.True(t, c.DirectionalLight().Enabled)
}

func TestEnvironmentTexturesComplete(t *testing.T) {
	d := gputest.NewDevice(4, 4)
	cube := func() *gpu.Texture {
		tex, err := d.CreateTexture(gpu.TextureDescriptor{Kind: gpu.TextureKindCube, Format: wgpu.TextureFormatRGBA16Float, Width: 4, Height: 4})
		require.NoError(t, err)
		return tex
	}

	var nilEnv *frame.EnvironmentTextures
	assert.False(t, nilEnv.Complete())

	env := &frame.EnvironmentTextures{Environment: cube(), Irradiance: cube()}
	assert.False(t, env.Complete())
	env.Prefilter = cube()
	assert.True(t, env.Complete())
	env.Irradiance.Release()
	assert.False(t, env.Complete())

	m := frame.NewEnvironmentMap(&common.HDRImageData{Width: 2, Height: 1, Pixels: make([]float32, 6)})
	assert.NotEqual(t, frame.NewEnvironmentMap(nil).ID, m.ID)
}

func TestViewRenderInfo(t *testing.T) {
	v := frame.NewViewRenderInfo()
	_, ok := v.Framebuffer()
	assert.False(t, ok)

	v.SetPerspective(mgl32.DegToRad(45), 16.0/9.0, 0.1, 600)
	assert.Equal(t, float32(0.1), v.Near())
	assert.Equal(t, float32(600), v.Far())
	assert.Equal(t, common.PerspectiveZO(mgl32.DegToRad(45), 16.0/9.0, 0.1, 600), v.ProjectionMatrix())

	v.SetViewport(frame.Viewport{Width: 1280, Height: 720})
	assert.Equal(t, 1280, v.Viewport().Width)

	fb, err := gputest.NewDevice(4, 4).CreateFramebuffer(gpu.FramebufferDescriptor{
		Label: "Editor", Width: 4, Height: 4, ColorFormats: []wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm},
	})
	require.NoError(t, err)
	v.SetFramebuffer(fb)
	got, ok := v.Framebuffer()
	assert.True(t, ok)
	assert.Same(t, fb, got)
}

func TestViewRenderInfoDefaultFOV(t *testing.T) {
	v := frame.NewViewRenderInfo()
	assert.InDelta(t, mgl32.DegToRad(45), v.FOV(), 1e-6)

	v.SetFOV(0)
	assert.InDelta(t, mgl32.DegToRad(45), v.FOV(), 1e-6)

	// A projection set directly still yields finite cascade matrices.
	v.SetProjectionMatrix(mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 50))
	v.SetNearFar(0.1, 50)
	v.SetViewMatrix(mgl32.LookAtV(mgl32.Vec3{0, 3, 8}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	m := light.ComputeLightSpaceMatrix(light.CascadeSplit{Near: v.Near(), Far: v.Far()}, v.ViewMatrix(),
		v.FOV(), v.AspectRatio(), mgl32.Vec3{0, -1, 0}, 10)
	for _, f := range m {
		assert.False(t, math.IsNaN(float64(f)) || math.IsInf(float64(f), 0))
	}
}
