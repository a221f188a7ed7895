package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-cascade/engine/camera"
	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
	"github.com/Carmen-Shannon/oxy-cascade/engine/event"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig sets the configuration for the window, device and renderer.
// The engine keeps the pointer; edits between frames apply to the next frame.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg *config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally. The window should publish to the engine's dispatcher; see WithEvents.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
		if e.events == nil {
			e.events = w.Events()
		}
	}
}

// WithEvents sets the dispatcher the camera and engine subscribe to.
//
// Parameters:
//   - d: the dispatcher
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEvents(d *event.Dispatcher) EngineBuilderOption {
	return func(e *engine) {
		e.events = d
	}
}

// WithDevice renders on an existing device. The engine does not release it, and no window is created
// unless WithWindow is also given.
//
// Parameters:
//   - d: the device
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDevice(d gpu.Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = d
	}
}

// WithCamera replaces the default fly camera.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithSceneCallback registers the function that fills each frame's scene.
//
// Parameters:
//   - callback: the scene callback
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSceneCallback(callback SceneFunc) EngineBuilderOption {
	return func(e *engine) {
		e.sceneCallback = callback
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}
