package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/camera"
	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
	"github.com/Carmen-Shannon/oxy-cascade/engine/event"
	"github.com/Carmen-Shannon/oxy-cascade/engine/profiler"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// SceneFunc fills the scene for one frame. It runs on the render goroutine.
type SceneFunc func(deltaTime float32, scene *frame.SceneRenderInfo)

// engine implements the Engine interface.
// Coordinates the tick, render and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	cfg      *config.Config
	events   *event.Dispatcher
	window   window.Window
	device   gpu.Device
	renderer renderer.SceneRenderer
	camera   camera.Camera
	view     *frame.ViewRenderInfo

	// ownsDevice is set when the engine created the device and must release it.
	ownsDevice bool

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	sceneCallback  SceneFunc

	// pendingResize carries the latest framebuffer size from the window thread to the render thread.
	resizeMu      sync.Mutex
	pendingResize *[2]int

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It owns the window, the device, the scene renderer and the camera, and runs the tick and render loops.
type Engine interface {
	// Window returns the underlying window, or nil for a headless engine.
	Window() window.Window

	// Device returns the device frames are recorded on.
	Device() gpu.Device

	// Renderer returns the scene renderer.
	Renderer() renderer.SceneRenderer

	// Camera returns the camera that drives the view.
	Camera() camera.Camera

	// Events returns the dispatcher window input is published to.
	Events() *event.Dispatcher

	// Config returns the live configuration.
	Config() *config.Config

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, after the camera has moved.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetSceneCallback registers the function that fills each frame's scene.
	//
	// Parameters:
	//   - callback: function called once per render frame with a fresh SceneRenderInfo
	SetSceneCallback(callback SceneFunc)

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the engine loops and blocks until the window closes or Quit is called.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Release frees the renderer, the device when the engine created it, and the window.
	Release()
}

// NewEngine creates the window, device, renderer and camera.
// Options are applied directly to the engine struct via the option-builder pattern; anything an
// option does not supply is created from the config.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if the window, device or renderer could not be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		engineTickRate:  time.Second / 60,
		view:            frame.NewViewRenderInfo(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.cfg == nil {
		def := config.Default()
		e.cfg = &def
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	common.SetLogLevel(e.cfg.LogLevel)
	if e.events == nil {
		e.events = event.NewDispatcher()
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(time.Second)
	}

	if err := e.init(); err != nil {
		e.Release()
		return nil, err
	}
	return e, nil
}

func (e *engine) init() error {
	if e.device == nil {
		if e.window == nil {
			w, err := window.NewWindow(window.WithConfig(e.cfg.Window), window.WithDispatcher(e.events))
			if err != nil {
				return err
			}
			e.window = w
		}
		d, err := gpu.NewWGPUDevice(e.window.SurfaceDescriptor(), e.window.Width(), e.window.Height(),
			gpu.WithVSync(e.cfg.Window.VSync))
		if err != nil {
			return fmt.Errorf("failed to create device: %w", err)
		}
		e.device = d
		e.ownsDevice = true
	}

	if e.renderer == nil {
		r, err := renderer.NewSceneRenderer(e.device, renderer.WithConfig(e.cfg))
		if err != nil {
			return err
		}
		e.renderer = r
	}

	fb := e.device.DefaultFramebuffer()
	e.view.SetViewport(frame.Viewport{Width: fb.Width(), Height: fb.Height()})
	if e.camera == nil {
		e.camera = camera.NewCamera(
			camera.WithAspect(float32(fb.Width())/float32(fb.Height())),
			camera.WithController(camera.NewCameraController(camera.WithPosition(mgl32.Vec3{0, 2, 8}))),
		)
	}
	e.camera.Attach(e.events)

	e.events.Subscribe(event.KindResize, func(ev event.Event) bool {
		r := ev.(event.ResizeEvent)
		e.resizeMu.Lock()
		e.pendingResize = &[2]int{r.Width, r.Height}
		e.resizeMu.Unlock()
		return false
	})
	e.events.Subscribe(event.KindClose, func(event.Event) bool {
		e.signalQuit()
		return false
	})
	return nil
}

func (e *engine) Window() window.Window            { return e.window }
func (e *engine) Device() gpu.Device               { return e.device }
func (e *engine) Renderer() renderer.SceneRenderer { return e.renderer }
func (e *engine) Camera() camera.Camera            { return e.camera }
func (e *engine) Events() *event.Dispatcher        { return e.events }
func (e *engine) Config() *config.Config           { return e.cfg }

func (e *engine) Run() {
	e.running = true
	e.handle()
	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				_ = e.window.Close()
			default:
			}
		})
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the engine and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Moves the camera, fires the tick callback at the configured tick rate and listens for dynamic rate
// changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.camera.Update(dt)
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.LogError("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.renderFrame(dt)

			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame applies a pending resize, builds the frame's scene and view, renders and presents.
func (e *engine) renderFrame(dt float32) {
	e.resizeMu.Lock()
	size := e.pendingResize
	e.pendingResize = nil
	e.resizeMu.Unlock()
	if size != nil {
		e.device.Resize(size[0], size[1])
		e.view.SetViewport(frame.Viewport{Width: size[0], Height: size[1]})
	}

	if err := e.device.BeginFrame(); err != nil {
		common.LogWarn("frame skipped", "err", err)
		return
	}

	stop := e.profiler.Measure("scene")
	scene := frame.NewSceneRenderInfo()
	if e.sceneCallback != nil {
		e.sceneCallback(dt, scene)
	}
	e.camera.Fill(e.view)
	stop()

	stop = e.profiler.Measure("render")
	e.renderer.Render(scene, e.view)
	e.device.Present()
	stop()

	if e.profilingEnabled {
		e.profiler.Tick()
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Non-blocking send - if the channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetSceneCallback(callback SceneFunc) {
	e.sceneCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}

func (e *engine) Release() {
	if e.renderer != nil {
		e.renderer.Release()
		e.renderer = nil
	}
	if e.ownsDevice && e.device != nil {
		e.device.Release()
		e.device = nil
	}
	if e.window != nil && e.window.IsRunning() {
		if err := e.window.Close(); err != nil {
			common.LogWarn("window close failed", "err", err)
		}
	}
}
