package camera

import (
	"github.com/Carmen-Shannon/oxy-cascade/engine/event"
	"github.com/go-gl/mathgl/mgl32"
)

// Direction is a movement direction relative to the camera.
type Direction int

const (
	DirectionForward Direction = iota
	DirectionBackward
	DirectionLeft
	DirectionRight
	DirectionUp
	DirectionDown
)

// CameraController owns the camera's position and orientation and moves it from input.
// Orientation is stored as yaw and pitch in degrees; a yaw of -90 looks down -Z.
type CameraController interface {
	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// SetPosition moves the camera.
	//
	// Parameters:
	//   - p: world-space position
	SetPosition(p mgl32.Vec3)

	// Front returns the unit view direction.
	Front() mgl32.Vec3

	// Right returns the unit right vector.
	Right() mgl32.Vec3

	// Up returns the unit up vector, perpendicular to Front and Right.
	Up() mgl32.Vec3

	// Yaw returns the horizontal angle in degrees.
	Yaw() float32

	// Pitch returns the vertical angle in degrees.
	Pitch() float32

	// SetYaw sets the horizontal angle in degrees.
	SetYaw(yaw float32)

	// SetPitch sets the vertical angle in degrees, clamped to [-89, 89].
	SetPitch(pitch float32)

	// ViewMatrix returns the world-to-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the look-at matrix from Position along Front
	ViewMatrix() mgl32.Mat4

	// Rotate turns the camera by a cursor offset scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx: horizontal offset in pixels, positive turns right
	//   - dy: vertical offset in pixels, positive looks up
	Rotate(dx, dy float32)

	// SetMoving starts or stops movement in one direction.
	//
	// Parameters:
	//   - dir: the direction
	//   - moving: true while the direction is held
	SetMoving(dir Direction, moving bool)

	// ClearMovement stops all movement and drops the current velocity.
	ClearMovement()

	// Update moves the camera by dt seconds of the held directions.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// MaxSpeed returns the movement speed cap in units per second.
	MaxSpeed() float32

	// Attach subscribes the controller to key, mouse button and mouse move events.
	// WASD moves, Space and Left Shift rise and sink, and dragging with the right button looks around.
	//
	// Parameters:
	//   - d: the dispatcher
	//
	// Returns:
	//   - []event.Subscription: the subscriptions, for Unsubscribe
	Attach(d *event.Dispatcher) []event.Subscription
}
