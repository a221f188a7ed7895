package engine

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
	"github.com/Carmen-Shannon/oxy-cascade/engine/event"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/model"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu/gputest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadlessEngine(t *testing.T, options ...EngineBuilderOption) (*engine, *gputest.Device) {
	t.Helper()
	cfg := config.Default()
	cfg.Shadow.Resolution = 256
	cfg.Shadow.PointLightShadowRes = 64
	d := gputest.NewDevice(320, 240)

	eng, err := NewEngine(append([]EngineBuilderOption{WithConfig(&cfg), WithDevice(d)}, options...)...)
	require.NoError(t, err)
	t.Cleanup(eng.Release)
	d.Reset()
	return eng.(*engine), d
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Shadow.Cascades = 0
	_, err := NewEngine(WithConfig(&cfg), WithDevice(gputest.NewDevice(8, 8)))
	assert.Error(t, err)
}

func TestRenderFrame(t *testing.T) {
	cube, err := model.NewCube(1)
	require.NoError(t, err)
	var calls int
	e, d := newHeadlessEngine(t, WithSceneCallback(func(dt float32, scene *frame.SceneRenderInfo) {
		calls++
		scene.SetDirectionalLight(light.NewDirectionalLight(light.WithDirection(mgl32.Vec3{0, -1, -1})))
		scene.AddMesh(mgl32.Ident4(), cube, nil)
	}))

	e.renderFrame(1.0 / 60)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, d.Frames)
	assert.Equal(t, 1, d.Presents)
	labels := d.PassLabels()
	require.NotEmpty(t, labels)
	assert.Equal(t, "Shadow Cascade 0", labels[0])
	assert.Equal(t, "Tonemap", labels[len(labels)-1])
	assert.Equal(t, mgl32.Vec3{0, 2, 8}, e.view.ViewPosition())
}

func TestRenderFrameAppliesResize(t *testing.T) {
	e, d := newHeadlessEngine(t)

	e.Events().Dispatch(event.ResizeEvent{Width: 640, Height: 360})
	assert.InDelta(t, 640.0/360.0, e.Camera().Aspect(), 1e-6)
	assert.Equal(t, 320, d.DefaultFramebuffer().Width(), "the device resizes on the render thread")

	e.renderFrame(0)
	assert.Equal(t, 640, d.DefaultFramebuffer().Width())
	assert.Equal(t, frame.Viewport{Width: 640, Height: 360}, e.view.Viewport())
}

func TestRunHeadlessUntilQuit(t *testing.T) {
	var e *engine
	frames := 0
	e, _ = newHeadlessEngine(t, WithSceneCallback(func(float32, *frame.SceneRenderInfo) {
		frames++
		if frames == 3 {
			e.Quit()
		}
	}))

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
	assert.GreaterOrEqual(t, frames, 3)
	e.Quit()
}

func TestCloseEventQuits(t *testing.T) {
	e, _ := newHeadlessEngine(t)

	e.Events().Dispatch(event.CloseEvent{})
	select {
	case <-e.quitChannel:
	default:
		t.Fatal("close event did not signal quit")
	}
}

func TestSetTickRate(t *testing.T) {
	e, _ := newHeadlessEngine(t)
	e.SetTickRate(0)
	assert.Equal(t, time.Second/60, e.engineTickRate)
	e.SetTickRate(120)
	assert.Equal(t, time.Second/120, e.engineTickRate)
}
