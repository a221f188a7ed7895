package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/event"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const maxPitch float32 = 89

var worldUp = mgl32.Vec3{0, 1, 0}

// cameraControllerImpl is the fly-camera implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	yaw      float32
	pitch    float32

	// Derived from yaw and pitch by updateVectors.
	front         mgl32.Vec3
	frontMovement mgl32.Vec3
	right         mgl32.Vec3
	up            mgl32.Vec3

	moving   [6]bool
	velocity mgl32.Vec3

	freeFly          bool
	acceleration     bool
	accelerationRate float32
	damping          float32
	maxSpeed         float32
	mouseSensitivity float32

	// Mouse look state.
	looking      bool
	haveCursor   bool
	lastX, lastY float64
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a fly controller at the origin looking down -Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:               &sync.Mutex{},
		yaw:              -90,
		freeFly:          true,
		accelerationRate: 150,
		damping:          0.2,
		maxSpeed:         15,
		mouseSensitivity: 0.2,
	}

	for _, option := range options {
		option(cc)
	}

	cc.pitch = common.Clamp(cc.pitch, -maxPitch, maxPitch)
	cc.updateVectors()
	return cc
}

// updateVectors recomputes the basis from yaw and pitch. Caller must hold the mutex.
func (cc *cameraControllerImpl) updateVectors() {
	yaw := mgl32.DegToRad(cc.yaw)
	pitch := mgl32.DegToRad(cc.pitch)

	cc.front = mgl32.Vec3{
		math32.Cos(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Sin(yaw) * math32.Cos(pitch),
	}.Normalize()
	cc.frontMovement = mgl32.Vec3{math32.Cos(yaw), 0, math32.Sin(yaw)}.Normalize()
	cc.right = cc.front.Cross(worldUp).Normalize()
	cc.up = cc.right.Cross(cc.front).Normalize()
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(p mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = p
}

func (cc *cameraControllerImpl) Front() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.front
}

func (cc *cameraControllerImpl) Right() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.right
}

func (cc *cameraControllerImpl) Up() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.up
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) SetYaw(yaw float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = yaw
	cc.updateVectors()
}

func (cc *cameraControllerImpl) SetPitch(pitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pitch = common.Clamp(pitch, -maxPitch, maxPitch)
	cc.updateVectors()
}

func (cc *cameraControllerImpl) ViewMatrix() mgl32.Mat4 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return mgl32.LookAtV(cc.position, cc.position.Add(cc.front), cc.up)
}

func (cc *cameraControllerImpl) Rotate(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw += dx * cc.mouseSensitivity
	cc.pitch = common.Clamp(cc.pitch+dy*cc.mouseSensitivity, -maxPitch, maxPitch)
	cc.updateVectors()
}

func (cc *cameraControllerImpl) SetMoving(dir Direction, moving bool) {
	if dir < DirectionForward || dir > DirectionDown {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.moving[dir] = moving
}

func (cc *cameraControllerImpl) ClearMovement() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.moving = [6]bool{}
	cc.velocity = mgl32.Vec3{}
}

func (cc *cameraControllerImpl) Update(dt float32) {
	if dt <= 0 {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()

	front := cc.frontMovement
	if cc.freeFly {
		front = cc.front
	}
	var wish mgl32.Vec3
	if cc.moving[DirectionForward] {
		wish = wish.Add(front)
	}
	if cc.moving[DirectionBackward] {
		wish = wish.Sub(front)
	}
	if cc.moving[DirectionRight] {
		wish = wish.Add(cc.right)
	}
	if cc.moving[DirectionLeft] {
		wish = wish.Sub(cc.right)
	}
	if cc.moving[DirectionUp] {
		wish = wish.Add(worldUp)
	}
	if cc.moving[DirectionDown] {
		wish = wish.Sub(worldUp)
	}
	if wish.Len() > 1e-6 {
		wish = wish.Normalize()
	}

	if !cc.acceleration {
		cc.velocity = wish.Mul(cc.maxSpeed)
	} else {
		cc.velocity = cc.velocity.Add(wish.Mul(cc.accelerationRate * dt))
		if wish.Len() == 0 {
			cc.velocity = cc.velocity.Mul(math32.Pow(cc.damping, dt*10))
		}
		if speed := cc.velocity.Len(); speed > cc.maxSpeed {
			cc.velocity = cc.velocity.Mul(cc.maxSpeed / speed)
		}
	}
	cc.position = cc.position.Add(cc.velocity.Mul(dt))
}

func (cc *cameraControllerImpl) MaxSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maxSpeed
}

var keyDirections = map[event.Key]Direction{
	event.KeyW:         DirectionForward,
	event.KeyS:         DirectionBackward,
	event.KeyA:         DirectionLeft,
	event.KeyD:         DirectionRight,
	event.KeySpace:     DirectionUp,
	event.KeyLeftShift: DirectionDown,
}

func (cc *cameraControllerImpl) Attach(d *event.Dispatcher) []event.Subscription {
	return []event.Subscription{
		d.Subscribe(event.KindKey, func(ev event.Event) bool {
			k := ev.(event.KeyEvent)
			dir, ok := keyDirections[k.Key]
			if !ok {
				return false
			}
			cc.SetMoving(dir, k.Pressed)
			return true
		}),
		d.Subscribe(event.KindMouseButton, func(ev event.Event) bool {
			b := ev.(event.MouseButtonEvent)
			if b.Button != event.MouseButtonRight {
				return false
			}
			cc.mu.Lock()
			cc.looking = b.Pressed
			cc.haveCursor = false
			cc.mu.Unlock()
			return true
		}),
		d.Subscribe(event.KindMouseMove, func(ev event.Event) bool {
			m := ev.(event.MouseMoveEvent)
			cc.mu.Lock()
			if !cc.looking {
				cc.mu.Unlock()
				return false
			}
			dx, dy := m.X-cc.lastX, cc.lastY-m.Y
			first := !cc.haveCursor
			cc.lastX, cc.lastY, cc.haveCursor = m.X, m.Y, true
			cc.mu.Unlock()

			if !first {
				cc.Rotate(float32(dx), float32(dy))
			}
			return true
		}),
	}
}
