package pass_test

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pass"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forwardFixture struct {
	ctx     *pass.RenderContext
	device  *gputest.Device
	shadow  *pass.ShadowPass
	forward *pass.ForwardPass
	outputs []pass.ForwardOutput
}

func newForwardFixture(t *testing.T, mutate func(*config.Config)) *forwardFixture {
	t.Helper()
	ctx, d := newTestContext(t, mutate)
	baker, err := pass.NewEnvironmentBaker(ctx)
	require.NoError(t, err)
	t.Cleanup(baker.Release)
	shadow, err := pass.NewShadowPass(ctx)
	require.NoError(t, err)
	t.Cleanup(shadow.Release)
	forward, err := pass.NewForwardPass(ctx, baker)
	require.NoError(t, err)
	t.Cleanup(forward.Release)

	f := &forwardFixture{ctx: ctx, device: d, shadow: shadow, forward: forward}
	shadow.SetOutput(forward)
	forward.SetOutput(pass.ForwardConsumerFunc(func(out pass.ForwardOutput) { f.outputs = append(f.outputs, out) }))
	d.Reset()
	return f
}

func TestForwardPassClearsWithoutEnvironment(t *testing.T) {
	f := newForwardFixture(t, nil)

	f.shadow.Execute(newTestScene(t), newTestView())

	passes := f.device.PassesLabeled("Forward")
	require.Len(t, passes, 1)
	assert.Empty(t, passes[0].Draws)
	assert.Equal(t, wgpu.LoadOpClear, passes[0].Descriptor.Colors[0].LoadOp)
	assert.Equal(t, wgpu.Color{R: 0, G: 0, B: 0, A: 1}, passes[0].Descriptor.Colors[0].Clear)

	require.Len(t, f.outputs, 1)
	assert.Nil(t, f.outputs[0].Environment)
	assert.Same(t, f.forward.Framebuffer(), f.outputs[0].Framebuffer)
}

func TestForwardPassShadesMeshes(t *testing.T) {
	f := newForwardFixture(t, nil)
	scene := newTestScene(t)
	scene.SetEnvironmentMap(newBakedEnvironment(t, f.ctx))

	f.shadow.Execute(scene, newTestView())

	assert.Equal(t, []string{"Shadow Cascade 0", "Shadow Cascade 1", "Shadow Cascade 2", "Shadow Cascade 3", "Forward"}, f.device.PassLabels())
	assert.Len(t, f.device.DrawsOf("Depth Prepass"), 2)
	draws := f.device.DrawsOf("PBR")
	require.Len(t, draws, 2)

	values := draws[0].Values
	count, ok := values.Uint("cascade_count")
	require.True(t, ok)
	assert.Equal(t, uint32(4), count)
	assert.Same(t, f.shadow.ShadowArray().View(), values.Texture("directional_light_shadow_tex"))
	assert.Same(t, scene.EnvironmentMap().Baked.Prefilter.View(), values.Texture("env_tex"))
	assert.Same(t, scene.EnvironmentMap().Baked.Irradiance.View(), values.Texture("env_irradiance_tex"))
	enabled, _ := values.Bool("directional_light_enabled")
	assert.True(t, enabled)

	require.Len(t, f.outputs, 1)
	assert.True(t, f.outputs[0].Environment.Complete())
	color := f.outputs[0].Framebuffer.ColorTexture(0)
	assert.Equal(t, pass.HDRFormat, color.Format())
	assert.Equal(t, testWidth, color.Width())
}

func TestForwardPassPointLights(t *testing.T) {
	f := newForwardFixture(t, nil)
	scene := newTestScene(t)
	scene.SetEnvironmentMap(newBakedEnvironment(t, f.ctx))
	for i := 0; i < 7; i++ {
		scene.AddPointLight(light.NewPointLight(
			light.WithPosition(mgl32.Vec3{float32(i), 1, 0}),
			light.WithPointShadow(i != 2),
		))
	}

	f.shadow.Execute(scene, newTestView())

	draws := f.device.DrawsOf("PBR")
	require.NotEmpty(t, draws)
	values := draws[0].Values
	count, ok := values.Uint("point_light_count")
	require.True(t, ok)
	assert.Equal(t, uint32(light.MaxPointLights), count)

	pos, ok := values.Vec3("point_lights[4].position")
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{4, 1, 0}, pos)

	for i := 0; i < light.MaxPointLights; i++ {
		name := fmt.Sprintf("point_light_shadow_tex_%d", i)
		if i == 2 {
			assert.Same(t, f.ctx.DummyShadowCube().View(), values.Texture(name))
			continue
		}
		assert.NotSame(t, f.ctx.DummyShadowCube().View(), values.Texture(name), name)
	}
}

func TestForwardPassUnusedShadowSlotsUseDummyCube(t *testing.T) {
	f := newForwardFixture(t, nil)
	scene := newTestScene(t)
	scene.SetEnvironmentMap(newBakedEnvironment(t, f.ctx))

	f.shadow.Execute(scene, newTestView())

	draws := f.device.DrawsOf("PBR")
	require.NotEmpty(t, draws)
	for i := 0; i < light.MaxPointLights; i++ {
		assert.Same(t, f.ctx.DummyShadowCube().View(), draws[0].Values.Texture(fmt.Sprintf("point_light_shadow_tex_%d", i)))
	}
}

func TestForwardPassWithoutPrepass(t *testing.T) {
	f := newForwardFixture(t, func(c *config.Config) { c.Forward.DepthPrepass = false })
	scene := newTestScene(t)
	scene.SetEnvironmentMap(newBakedEnvironment(t, f.ctx))

	f.shadow.Execute(scene, newTestView())

	assert.Empty(t, f.device.DrawsOf("Depth Prepass"))
	assert.Len(t, f.device.DrawsOf("PBR"), 2)
}

func TestForwardPassDebugLinesGrow(t *testing.T) {
	f := newForwardFixture(t, nil)
	env := newBakedEnvironment(t, f.ctx)

	for _, n := range []int{3, 10} {
		f.device.Reset()
		scene := newTestScene(t)
		scene.SetEnvironmentMap(env)
		for i := 0; i < n; i++ {
			scene.AddDebugLine(frame.DebugLine{End: mgl32.Vec3{float32(i), 1, 0}, StartColor: mgl32.Vec3{1, 0, 0}})
		}
		f.shadow.Execute(scene, newTestView())

		lines := f.device.DrawsOf("Debug Lines")
		require.Len(t, lines, 1)
		assert.Equal(t, 2*n, lines[0].VertexCount)
		assert.Equal(t, wgpu.PrimitiveTopologyLineList, lines[0].State.Topology())
	}
}

func TestForwardPassKeepsFramebufferAcrossFrames(t *testing.T) {
	f := newForwardFixture(t, nil)

	f.shadow.Execute(newTestScene(t), newTestView())
	first := f.forward.Framebuffer().ColorTexture(0).ID()
	f.shadow.Execute(newTestScene(t), newTestView())
	assert.Equal(t, first, f.forward.Framebuffer().ColorTexture(0).ID())

	view := newTestView()
	view.SetViewport(frame.Viewport{Width: 640, Height: 480})
	f.shadow.Execute(newTestScene(t), view)
	assert.NotEqual(t, first, f.forward.Framebuffer().ColorTexture(0).ID())
	assert.Equal(t, 640, f.forward.Framebuffer().Width())
}

func TestForwardPassPersistentMeshes(t *testing.T) {
	f := newForwardFixture(t, nil)
	env := newBakedEnvironment(t, f.ctx)
	extra := newTestScene(t).Meshes()

	f.forward.SetPersistentMeshes(extra)
	scene := newTestScene(t)
	scene.SetEnvironmentMap(env)
	f.shadow.Execute(scene, newTestView())
	assert.Len(t, f.device.DrawsOf("PBR"), 4)

	f.device.Reset()
	f.forward.SetPersistentMeshes(nil)
	f.shadow.Execute(scene, newTestView())
	assert.Len(t, f.device.DrawsOf("PBR"), 2)
}

func TestForwardPassResolvesMultisampledTargets(t *testing.T) {
	f := newForwardFixture(t, nil)
	scene := newTestScene(t)
	scene.SetEnvironmentMap(newBakedEnvironment(t, f.ctx))

	f.shadow.Execute(scene, newTestView())

	fb := f.forward.Framebuffer()
	assert.Equal(t, 4, fb.SampleCount())
	desc := f.device.PassesLabeled("Forward")[0].Descriptor
	require.Len(t, desc.Colors, 1)
	assert.Equal(t, 4, desc.Colors[0].View.Texture().SampleCount())
	assert.Same(t, fb.ColorTexture(0).View(), desc.Colors[0].Resolve)
	assert.Equal(t, 1, fb.ColorTexture(0).SampleCount())
	assert.Equal(t, 4, fb.DepthTexture().SampleCount())
	assert.Equal(t, 4, desc.SampleCount())

	f.device.Reset()
	f.ctx.Config.Forward.MSAASamples = 1
	f.shadow.Execute(scene, newTestView())

	assert.NotSame(t, fb, f.forward.Framebuffer())
	desc = f.device.PassesLabeled("Forward")[0].Descriptor
	assert.Nil(t, desc.Colors[0].Resolve)
	assert.Same(t, f.forward.Framebuffer().ColorTexture(0).View(), desc.Colors[0].View)
	assert.Equal(t, 1, desc.SampleCount())
}

func TestSkyboxLoadsMultisampledTargets(t *testing.T) {
	f := newForwardFixture(t, nil)
	skybox, err := pass.NewSkyboxPass(f.ctx)
	require.NoError(t, err)
	f.forward.SetOutput(skybox)
	scene := newTestScene(t)
	scene.SetEnvironmentMap(newBakedEnvironment(t, f.ctx))

	f.shadow.Execute(scene, newTestView())

	passes := f.device.PassesLabeled("Skybox")
	require.Len(t, passes, 1)
	assert.Equal(t, wgpu.LoadOpLoad, passes[0].Descriptor.Colors[0].LoadOp)
	assert.Same(t, f.forward.Framebuffer().ColorTexture(0).View(), passes[0].Descriptor.Colors[0].Resolve)
}
