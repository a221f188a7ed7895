package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cascade/engine/event"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d of %v", i, got)
	}
}

func TestCameraZoomClampsFov(t *testing.T) {
	c := NewCamera(WithFov(90))
	assert.Equal(t, MaxFov, c.Fov())

	c.Zoom(10)
	assert.Equal(t, float32(35), c.Fov())
	c.Zoom(100)
	assert.Equal(t, MinFov, c.Fov())
	c.Zoom(-100)
	assert.Equal(t, MaxFov, c.Fov())
}

func TestCameraWithoutControllerUsesIdentityView(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, mgl32.Ident4(), c.ViewMatrix())
	c.Update(1)
}

func TestCameraFill(t *testing.T) {
	ctrl := NewCameraController(WithPosition(mgl32.Vec3{1, 2, 3}))
	c := NewCamera(WithController(ctrl), WithAspect(2), WithNear(0.5), WithFar(50))
	view := frame.NewViewRenderInfo()

	c.Fill(view)

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, view.ViewPosition())
	assert.Equal(t, ctrl.ViewMatrix(), view.ViewMatrix())
	assert.InDelta(t, mgl32.DegToRad(45), view.FOV(), 1e-6)
	assert.Equal(t, float32(2), view.AspectRatio())
	assert.Equal(t, float32(0.5), view.Near())
	assert.Equal(t, float32(50), view.Far())
	assert.Equal(t, c.ProjectionMatrix(), view.ProjectionMatrix())
}

func TestControllerDefaultBasis(t *testing.T) {
	ctrl := NewCameraController()

	assertVec3(t, mgl32.Vec3{0, 0, -1}, ctrl.Front())
	assertVec3(t, mgl32.Vec3{1, 0, 0}, ctrl.Right())
	assertVec3(t, mgl32.Vec3{0, 1, 0}, ctrl.Up())
}

func TestControllerPitchClamp(t *testing.T) {
	ctrl := NewCameraController(WithPitch(120))
	assert.Equal(t, float32(89), ctrl.Pitch())

	ctrl.Rotate(0, -1000)
	assert.Equal(t, float32(-89), ctrl.Pitch())
}

func TestControllerMovement(t *testing.T) {
	ctrl := NewCameraController(WithMaxSpeed(10))

	ctrl.SetMoving(DirectionForward, true)
	ctrl.Update(0.5)
	assertVec3(t, mgl32.Vec3{0, 0, -5}, ctrl.Position())

	ctrl.SetMoving(DirectionRight, true)
	ctrl.Update(0)
	ctrl.ClearMovement()
	ctrl.Update(1)
	assertVec3(t, mgl32.Vec3{0, 0, -5}, ctrl.Position())
}

func TestControllerAccelerationCapsSpeed(t *testing.T) {
	ctrl := NewCameraController(WithAcceleration(true), WithMaxSpeed(4))

	ctrl.SetMoving(DirectionUp, true)
	for i := 0; i < 10; i++ {
		ctrl.Update(0.1)
	}
	before := ctrl.Position()
	ctrl.Update(0.1)
	assert.InDelta(t, 0.4, ctrl.Position().Y()-before.Y(), 1e-4)

	ctrl.SetMoving(DirectionUp, false)
	before = ctrl.Position()
	ctrl.Update(0.1)
	step := ctrl.Position().Y() - before.Y()
	assert.Greater(t, step, float32(0))
	assert.Less(t, step, float32(0.4))
}

func TestCameraAttach(t *testing.T) {
	d := event.NewDispatcher()
	ctrl := NewCameraController()
	c := NewCamera(WithController(ctrl))
	subs := c.Attach(d)
	require.Len(t, subs, 5)

	d.Dispatch(event.ResizeEvent{Width: 800, Height: 400})
	assert.Equal(t, float32(2), c.Aspect())

	d.Dispatch(event.ScrollEvent{OffsetY: 5})
	assert.Equal(t, float32(40), c.Fov())

	d.Dispatch(event.KeyEvent{Key: event.KeyW, Pressed: true})
	c.Update(0.5)
	assertVec3(t, mgl32.Vec3{0, 0, -7.5}, ctrl.Position())
	d.Dispatch(event.KeyEvent{Key: event.KeyW, Pressed: false})

	d.Dispatch(event.MouseMoveEvent{X: 10, Y: 10})
	assert.Equal(t, float32(-90), ctrl.Yaw(), "cursor moves without the right button do not turn")

	d.Dispatch(event.MouseButtonEvent{Button: event.MouseButtonRight, Pressed: true})
	d.Dispatch(event.MouseMoveEvent{X: 100, Y: 100})
	d.Dispatch(event.MouseMoveEvent{X: 110, Y: 95})
	assert.InDelta(t, -88, ctrl.Yaw(), 1e-4)
	assert.InDelta(t, 1, ctrl.Pitch(), 1e-4)

	for _, s := range subs {
		assert.True(t, d.Unsubscribe(s))
	}
}
