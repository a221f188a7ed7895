package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - p: the position
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(p mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = p
	}
}

// WithYaw sets the initial horizontal angle.
//
// Parameters:
//   - yaw: horizontal angle in degrees (-90 looks down -Z)
//
// Returns:
//   - CameraControllerOption: functional option to set the yaw
func WithYaw(yaw float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw = yaw
	}
}

// WithPitch sets the initial vertical angle, clamped to [-89, 89].
//
// Parameters:
//   - pitch: vertical angle in degrees
//
// Returns:
//   - CameraControllerOption: functional option to set the pitch
func WithPitch(pitch float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.pitch = pitch
	}
}

// WithMaxSpeed sets the movement speed cap.
//
// Parameters:
//   - speed: units per second
//
// Returns:
//   - CameraControllerOption: functional option to set the speed
func WithMaxSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.maxSpeed = speed
	}
}

// WithAcceleration makes movement ramp up to the speed cap and decay when released, instead of
// moving at full speed immediately.
//
// Parameters:
//   - enabled: true to accelerate
//
// Returns:
//   - CameraControllerOption: functional option to set acceleration
func WithAcceleration(enabled bool) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.acceleration = enabled
	}
}

// WithFreeFly chooses whether forward movement follows the pitch (true) or stays horizontal.
func WithFreeFly(enabled bool) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.freeFly = enabled
	}
}

// WithMouseSensitivity sets the mouse look sensitivity.
//
// Parameters:
//   - sensitivity: degrees per pixel of cursor movement
//
// Returns:
//   - CameraControllerOption: functional option to set mouse sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}
