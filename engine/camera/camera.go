package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/event"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MinFov and MaxFov bound the vertical field of view in degrees.
	MinFov float32 = 1
	MaxFov float32 = 45
)

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32 // degrees
	aspect float32
	near   float32
	far    float32

	controller CameraController
}

// Camera is a perspective camera. Position and orientation come from the attached CameraController;
// the camera owns the projection and writes both into a frame.ViewRenderInfo.
type Camera interface {
	// Fov returns the vertical field of view in degrees.
	//
	// Returns:
	//   - float32: field of view in degrees, within [MinFov, MaxFov]
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the world-to-view matrix, or identity without a controller.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the perspective projection with [0, 1] clip depth.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// Controller returns the attached CameraController, or nil.
	Controller() CameraController

	// Update advances the attached controller by dt seconds.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// Zoom narrows the field of view by offset degrees, clamped to [MinFov, MaxFov].
	//
	// Parameters:
	//   - offset: scroll offset; positive zooms in
	Zoom(offset float32)

	// SetFov sets the vertical field of view in degrees, clamped to [MinFov, MaxFov].
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height). Non-positive values are ignored.
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance.
	SetNear(near float32)

	// SetFar sets the far clipping plane distance.
	SetFar(far float32)

	// SetController attaches a CameraController to the camera.
	SetController(ctrl CameraController)

	// Fill writes the camera's view, position and projection into view.
	//
	// Parameters:
	//   - view: the per-view render info to update
	Fill(view *frame.ViewRenderInfo)

	// Attach subscribes the camera to scroll and resize events, and the controller to its input events.
	//
	// Parameters:
	//   - d: the dispatcher to subscribe to
	//
	// Returns:
	//   - []event.Subscription: the subscriptions, for Unsubscribe
	Attach(d *event.Dispatcher) []event.Subscription
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with a 45 degree field of view.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		fov:    MaxFov,
		aspect: 1280.0 / 1024.0,
		near:   0.1,
		far:    500,
	}
	for _, option := range options {
		option(c)
	}
	c.fov = common.Clamp(c.fov, MinFov, MaxFov)
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	ctrl := c.controller
	c.mu.Unlock()
	if ctrl == nil {
		return mgl32.Ident4()
	}
	return ctrl.ViewMatrix()
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.PerspectiveZO(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far)
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update(dt float32) {
	if ctrl := c.Controller(); ctrl != nil {
		ctrl.Update(dt)
	}
}

func (c *cameraImpl) Zoom(offset float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = common.Clamp(c.fov-offset, MinFov, MaxFov)
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = common.Clamp(fov, MinFov, MaxFov)
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

func (c *cameraImpl) Fill(view *frame.ViewRenderInfo) {
	view.SetViewMatrix(c.ViewMatrix())
	if ctrl := c.Controller(); ctrl != nil {
		view.SetViewPosition(ctrl.Position())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	view.SetPerspective(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far)
}

func (c *cameraImpl) Attach(d *event.Dispatcher) []event.Subscription {
	subs := []event.Subscription{
		d.Subscribe(event.KindScroll, func(ev event.Event) bool {
			c.Zoom(float32(ev.(event.ScrollEvent).OffsetY))
			return false
		}),
		d.Subscribe(event.KindResize, func(ev event.Event) bool {
			r := ev.(event.ResizeEvent)
			if r.Height > 0 {
				c.SetAspect(float32(r.Width) / float32(r.Height))
			}
			return false
		}),
	}
	if ctrl := c.Controller(); ctrl != nil {
		subs = append(subs, ctrl.Attach(d)...)
	}
	return subs
}
