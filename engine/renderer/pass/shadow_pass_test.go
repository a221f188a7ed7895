package pass_test

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pass"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShadowPass(t *testing.T, mutate func(*config.Config)) (*pass.ShadowPass, *pass.RenderContext, *gputest.Device, *[]pass.ShadowOutput) {
	t.Helper()
	ctx, d := newTestContext(t, mutate)
	p, err := pass.NewShadowPass(ctx)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	d.Reset()

	var outputs []pass.ShadowOutput
	p.SetOutput(pass.ShadowConsumerFunc(func(out pass.ShadowOutput) { outputs = append(outputs, out) }))
	return p, ctx, d, &outputs
}

func TestShadowPassRendersEveryCascade(t *testing.T) {
	p, _, d, outputs := newShadowPass(t, nil)

	p.Execute(newTestScene(t), newTestView())

	assert.Equal(t, []string{"Shadow Cascade 0", "Shadow Cascade 1", "Shadow Cascade 2", "Shadow Cascade 3"}, d.PassLabels())
	require.Len(t, *outputs, 1)
	out := (*outputs)[0]
	assert.Len(t, out.LightSpaceMatrices, 4)
	assert.Len(t, out.CascadeSplits, 4)
	assert.Equal(t, 4, out.ShadowArray.Layers())
	assert.Equal(t, 256, out.ShadowArray.Width())
	assert.InDelta(t, 100, out.CascadeSplits[3].Far, 1e-3)
}

func TestShadowPassStagesCascadeMatrices(t *testing.T) {
	ctx, d := newTestContext(t, func(c *config.Config) { c.Shadow.Cascades = 2 })
	p, err := pass.NewShadowPass(ctx)
	require.NoError(t, err)
	defer p.Release()
	var out pass.ShadowOutput
	p.SetOutput(pass.ShadowConsumerFunc(func(o pass.ShadowOutput) { out = o }))
	d.Reset()

	p.Execute(newTestScene(t), newTestView())

	draws := d.DrawsOf("Shadow")
	require.Len(t, draws, 4, "two meshes in two cascades")
	for i, dr := range draws {
		m, ok := dr.Values.Mat4("light_space_matrix")
		require.True(t, ok)
		assert.Equal(t, out.LightSpaceMatrices[i/2], m)
		assert.Equal(t, "Shadow Solid", dr.State.Label())
	}
}

func TestShadowPassSkipsDrawsWithoutCastingLight(t *testing.T) {
	ctx, d := newTestContext(t, nil)
	p, err := pass.NewShadowPass(ctx)
	require.NoError(t, err)
	defer p.Release()
	d.Reset()

	scene := newTestScene(t)
	scene.SetDirectionalLight(light.NewDirectionalLight(light.WithDirectionalShadow(false)))
	p.Execute(scene, newTestView())

	assert.Len(t, d.Passes, 4, "cascades are still cleared")
	assert.Empty(t, d.DrawsOf("Shadow"))
}

func TestShadowPassPointLightsClampedToFive(t *testing.T) {
	ctx, d := newTestContext(t, nil)
	p, err := pass.NewShadowPass(ctx)
	require.NoError(t, err)
	defer p.Release()
	var out pass.ShadowOutput
	p.SetOutput(pass.ShadowConsumerFunc(func(o pass.ShadowOutput) { out = o }))
	d.Reset()

	scene := newTestScene(t)
	for i := 0; i < 7; i++ {
		scene.AddPointLight(light.NewPointLight(
			light.WithPosition(mgl32.Vec3{float32(i), 2, 0}),
			light.WithPointShadow(i != 1),
		))
	}
	p.Execute(scene, newTestView())

	for i := 0; i < light.MaxPointLights; i++ {
		faces := 0
		for f := 0; f < 6; f++ {
			faces += len(d.PassesLabeled(fmt.Sprintf("Point Shadow %d Face %d", i, f)))
		}
		if i == 1 {
			assert.Zero(t, faces, "light 1 casts no shadow")
		} else {
			assert.Equal(t, 6, faces, "light %d", i)
		}
	}
	assert.Empty(t, d.PassesLabeled("Point Shadow 5 Face 0"))

	lights := out.Scene.PointLights()
	require.Len(t, lights, 7)
	for i, l := range lights {
		if i < light.MaxPointLights && i != 1 {
			require.NotNil(t, l.ShadowMap, "light %d", i)
			assert.Equal(t, 64, l.ShadowMap.Width())
		} else {
			assert.Nil(t, l.ShadowMap, "light %d", i)
		}
	}
	for _, l := range scene.PointLights() {
		assert.Nil(t, l.ShadowMap, "the submitted scene is not modified")
	}

	draws := d.DrawsOf("Point Shadow")
	require.NotEmpty(t, draws)
	far, ok := draws[0].Values.Float("far_plane")
	require.True(t, ok)
	assert.Equal(t, float32(10), far)
}

func TestShadowPassWithoutPointLights(t *testing.T) {
	p, _, d, outputs := newShadowPass(t, nil)

	p.Execute(newTestScene(t), newTestView())

	assert.Len(t, d.PassLabels(), 4)
	require.Len(t, *outputs, 1)
	assert.Empty(t, (*outputs)[0].Scene.PointLights())
}

func TestShadowPassKeepsArrayUntilConfigChanges(t *testing.T) {
	p, ctx, _, _ := newShadowPass(t, nil)
	first := p.ShadowArray().ID()

	p.Execute(newTestScene(t), newTestView())
	p.Execute(newTestScene(t), newTestView())
	assert.Equal(t, first, p.ShadowArray().ID())

	ctx.Config.Shadow.Resolution = 512
	p.Execute(newTestScene(t), newTestView())
	assert.NotEqual(t, first, p.ShadowArray().ID())
	assert.Equal(t, 512, p.ShadowArray().Width())

	ctx.Config.Shadow.Cascades = 3
	p.Execute(newTestScene(t), newTestView())
	assert.Equal(t, 3, p.ShadowArray().Layers())
}

func TestShadowPassZeroCascades(t *testing.T) {
	ctx, _ := newTestContext(t, func(c *config.Config) { c.Shadow.Cascades = 0 })
	_, err := pass.NewShadowPass(ctx)
	assert.ErrorIs(t, err, common.ErrZeroCascades)

	ctx.Config.Shadow.Cascades = 2
	p, err := pass.NewShadowPass(ctx)
	require.NoError(t, err)
	defer p.Release()

	ctx.Config.Shadow.Cascades = 0
	assert.Panics(t, func() { p.Execute(newTestScene(t), newTestView()) })
}

func TestShadowPassTooManyCascades(t *testing.T) {
	ctx, _ := newTestContext(t, func(c *config.Config) { c.Shadow.Cascades = config.MaxCascades + 2 })
	_, err := pass.NewShadowPass(ctx)
	assert.ErrorIs(t, err, common.ErrCascadeOutOfRange)

	ctx.Config.Shadow.Cascades = config.MaxCascades
	p, err := pass.NewShadowPass(ctx)
	require.NoError(t, err)
	defer p.Release()

	ctx.Config.Shadow.Cascades = config.MaxCascades + 1
	assert.Panics(t, func() { p.Execute(newTestScene(t), newTestView()) })
}

func TestShadowPassPersistentCasters(t *testing.T) {
	p, _, d, _ := newShadowPass(t, func(c *config.Config) { c.Shadow.Cascades = 2 })
	p.SetPersistentMeshes(newTestScene(t).Meshes())

	scene := newTestScene(t)
	scene.AddPointLight(light.NewPointLight(light.WithPointShadow(true)))
	p.Execute(scene, newTestView())

	for i := 0; i < 2; i++ {
		passes := d.PassesLabeled(fmt.Sprintf("Shadow Cascade %d", i))
		require.Len(t, passes, 1)
		assert.Len(t, passes[0].Draws, 4, "two frame meshes and two persistent meshes")
	}
	face := d.PassesLabeled("Point Shadow 0 Face 0")
	require.Len(t, face, 1)
	assert.Len(t, face[0].Draws, 4)

	d.Reset()
	p.SetPersistentMeshes(nil)
	p.Execute(scene, newTestView())
	assert.Len(t, d.PassesLabeled("Shadow Cascade 0")[0].Draws, 2)
}

func TestShadowPassTransparentCasters(t *testing.T) {
	ctx, d := newTestContext(t, func(c *config.Config) { c.Shadow.Cascades = 1 })
	p, err := pass.NewShadowPass(ctx)
	require.NoError(t, err)
	defer p.Release()
	d.Reset()

	scene := frame.NewSceneRenderInfo()
	scene.SetDirectionalLight(light.NewDirectionalLight())
	cube := newTestScene(t).Meshes()[0]
	scene.AddMesh(cube.ModelMatrix, cube.Mesh, newTestMaterial(t, ctx, true, true))
	scene.AddMesh(cube.ModelMatrix, cube.Mesh, newTestMaterial(t, ctx, true, false))
	p.Execute(scene, newTestView())

	draws := d.DrawsOf("Shadow")
	require.Len(t, draws, 1, "a transparent material without albedo texture casts nothing")
	tested, ok := draws[0].Values.Bool("alpha_test")
	require.True(t, ok)
	assert.True(t, tested)
	assert.Equal(t, "Shadow Transparent", draws[0].State.Label())
}
