package renderer

import (
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cascade/assets"
	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/model"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// RenderObject is a mesh drawn every frame until it is unregistered, in addition to the frame's own meshes.
type RenderObject struct {
	ID          uuid.UUID
	ModelMatrix mgl32.Mat4
	Mesh        *model.Mesh
	Material    material.Material
}

// NewRenderObject creates a RenderObject with a fresh ID.
//
// Parameters:
//   - mesh: the geometry
//   - mat: the material, or nil for the default material
//   - modelMatrix: the model-to-world transform
//
// Returns:
//   - RenderObject: the object
func NewRenderObject(mesh *model.Mesh, mat material.Material, modelMatrix mgl32.Mat4) RenderObject {
	return RenderObject{ID: uuid.New(), ModelMatrix: modelMatrix, Mesh: mesh, Material: mat}
}

// sceneRenderer is the implementation of the SceneRenderer interface.
type sceneRenderer struct {
	mu sync.Mutex

	device  gpu.Device
	cfg     *config.Config
	ctx     *pass.RenderContext
	watcher *shader.Watcher
	pool    worker.DynamicWorkerPool

	baker   *pass.EnvironmentBaker
	shadow  *pass.ShadowPass
	forward *pass.ForwardPass
	skybox  *pass.SkyboxPass
	bloom   *pass.BloomPass
	hdr     *pass.HDRPass
	debug   *pass.CascadeDebug

	objects map[uuid.UUID]RenderObject
	order   []uuid.UUID

	// Pre-creation config collected from builder options
	shaderFS fs.FS
}

// SceneRenderer draws frames through the shadow, forward, skybox, bloom and tonemap passes.
//
// The passes are wired once at construction; every Render call runs the whole chain on the calling
// goroutine and submits the recorded work. Tunables are read from the Config every frame.
type SceneRenderer interface {
	// Render draws one frame.
	//
	// Parameters:
	//   - scene: the meshes, lights and environment of the frame
	//   - view: the camera, viewport and output target
	Render(scene *frame.SceneRenderInfo, view *frame.ViewRenderInfo)

	// RegisterObject adds a persistent object.
	//
	// Parameters:
	//   - obj: the object
	//
	// Returns:
	//   - error: ErrObjectExists when an object with the same ID is registered
	RegisterObject(obj RenderObject) error

	// UnregisterObject removes a persistent object.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - error: ErrObjectNotFound when no object has this ID
	UnregisterObject(id uuid.UUID) error

	// ObjectCount returns the number of registered objects.
	ObjectCount() int

	// CascadeDebugView renders one layer of the last frame's shadow cascades as a grey image.
	//
	// Parameters:
	//   - cascade: the cascade index
	//
	// Returns:
	//   - *gpu.Framebuffer: the preview framebuffer
	//   - error: ErrCascadeOutOfRange for an invalid index
	CascadeDebugView(cascade int) (*gpu.Framebuffer, error)

	// Config returns the live tunables. Edits take effect on the next frame.
	Config() *config.Config

	// Context returns the context shared by the passes.
	Context() *pass.RenderContext

	// Release frees every pass and GPU resource owned by the renderer. The device is not released.
	Release()
}

var _ SceneRenderer = &sceneRenderer{}

// NewSceneRenderer compiles the pass programs and wires the pass chain on device.
//
// Parameters:
//   - device: the device to record on
//   - options: variadic list of SceneRendererBuilderOption functions
//
// Returns:
//   - SceneRenderer: the renderer
//   - error: a shader, configuration or allocation error
func NewSceneRenderer(device gpu.Device, options ...SceneRendererBuilderOption) (SceneRenderer, error) {
	r := &sceneRenderer{
		device:  device,
		objects: make(map[uuid.UUID]RenderObject),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.cfg == nil {
		def := config.Default()
		r.cfg = &def
	}

	if r.shaderFS == nil {
		if r.cfg.Shaders.Dir != "" {
			r.shaderFS = os.DirFS(r.cfg.Shaders.Dir)
		} else {
			r.shaderFS = assets.Shaders()
		}
	}
	pp := shader.NewPreProcessor(r.shaderFS)
	light.RegisterIncludes(pp)
	model.RegisterIncludes(pp)
	material.RegisterIncludes(pp)

	ctx, err := pass.NewRenderContext(device, shader.NewLoader(r.shaderFS, pp), r.cfg)
	if err != nil {
		return nil, err
	}
	r.ctx = ctx
	if workers := r.cfg.Renderer.Workers; workers > 1 {
		r.pool = worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)
		ctx.Parallel = poolParallel(r.pool)
	}

	if err := r.buildPasses(); err != nil {
		r.Release()
		return nil, err
	}
	if len(r.order) > 0 {
		r.syncObjects()
	}

	if r.cfg.Shaders.HotReload && r.cfg.Shaders.Dir != "" {
		w, err := shader.NewWatcher(r.cfg.Shaders.Dir)
		if err != nil {
			common.LogWarn("shader hot reload disabled", "err", err)
		} else {
			r.watcher = w
		}
	}

	common.LogInfo("scene renderer ready",
		"cascades", r.cfg.Shadow.Cascades,
		"shadow_resolution", r.cfg.Shadow.Resolution,
		"bloom", r.cfg.Bloom.Enabled,
		"workers", r.cfg.Renderer.Workers,
	)
	return r, nil
}

func (r *sceneRenderer) buildPasses() error {
	var err error
	if r.baker, err = pass.NewEnvironmentBaker(r.ctx); err != nil {
		return fmt.Errorf("environment baker: %w", err)
	}
	if r.shadow, err = pass.NewShadowPass(r.ctx); err != nil {
		return fmt.Errorf("shadow pass: %w", err)
	}
	if r.forward, err = pass.NewForwardPass(r.ctx, r.baker); err != nil {
		return fmt.Errorf("forward pass: %w", err)
	}
	if r.skybox, err = pass.NewSkyboxPass(r.ctx); err != nil {
		return fmt.Errorf("skybox pass: %w", err)
	}
	if r.bloom, err = pass.NewBloomPass(r.ctx); err != nil {
		return fmt.Errorf("bloom pass: %w", err)
	}
	if r.hdr, err = pass.NewHDRPass(r.ctx); err != nil {
		return fmt.Errorf("hdr pass: %w", err)
	}

	r.shadow.SetOutput(r.forward)
	r.forward.SetOutput(r.skybox)
	r.skybox.SetOutput(r.bloom)
	r.bloom.SetOutput(r.hdr)
	return nil
}

// poolParallel runs fn over [0, n) on the pool and waits for every index.
func poolParallel(pool worker.DynamicWorkerPool) light.Parallel {
	return func(n int, fn func(i int)) {
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			idx := i
			pool.SubmitTask(worker.Task{
				ID: idx,
				Do: func() (any, error) {
					defer wg.Done()
					fn(idx)
					return nil, nil
				},
			})
		}
		wg.Wait()
	}
}

func (r *sceneRenderer) Render(scene *frame.SceneRenderInfo, view *frame.ViewRenderInfo) {
	if scene == nil || view == nil {
		common.LogWarn("render skipped: missing scene or view")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.applyShaderChanges()
	r.shadow.Execute(scene, view)
	r.device.Submit()
}

// applyShaderChanges rebuilds the programs touched by shader edits since the last frame. A stage that
// fails to compile is logged and the previous program keeps running.
func (r *sceneRenderer) applyShaderChanges() {
	if r.watcher == nil {
		return
	}
	for _, c := range r.watcher.Poll() {
		var err error
		if c.Include {
			_, err = r.ctx.ReloadInclude(c.Name)
		} else {
			_, err = r.ctx.ReloadStage(c.Name, c.Type)
		}
		if err != nil {
			common.LogError("shader reload failed", "shader", c.Name, "err", err)
		}
	}
}

func (r *sceneRenderer) RegisterObject(obj RenderObject) error {
	if obj.Mesh == nil {
		return fmt.Errorf("%w: render object %s has no mesh", common.ErrInvalidDescriptor, obj.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.objects[obj.ID]; ok {
		return fmt.Errorf("%w: %s", common.ErrObjectExists, obj.ID)
	}
	r.objects[obj.ID] = obj
	r.order = append(r.order, obj.ID)
	r.syncObjects()
	return nil
}

func (r *sceneRenderer) UnregisterObject(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.objects[id]; !ok {
		return fmt.Errorf("%w: %s", common.ErrObjectNotFound, id)
	}
	delete(r.objects, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.syncObjects()
	return nil
}

// syncObjects hands the registered objects to the shadow and forward passes in registration order.
func (r *sceneRenderer) syncObjects() {
	meshes := make([]frame.MeshInfo, 0, len(r.order))
	for _, id := range r.order {
		o := r.objects[id]
		meshes = append(meshes, frame.MeshInfo{ModelMatrix: o.ModelMatrix, Mesh: o.Mesh, Material: o.Material})
	}
	r.shadow.SetPersistentMeshes(meshes)
	r.forward.SetPersistentMeshes(meshes)
}

func (r *sceneRenderer) ObjectCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

func (r *sceneRenderer) CascadeDebugView(cascade int) (*gpu.Framebuffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.debug == nil {
		d, err := pass.NewCascadeDebug(r.ctx)
		if err != nil {
			return nil, err
		}
		r.debug = d
	}
	fb, err := r.debug.Render(r.shadow.ShadowArray(), cascade)
	if err != nil {
		return nil, err
	}
	r.device.Submit()
	return fb, nil
}

func (r *sceneRenderer) Config() *config.Config { return r.cfg }

func (r *sceneRenderer) Context() *pass.RenderContext { return r.ctx }

func (r *sceneRenderer) Release() {
	if r.watcher != nil {
		if err := r.watcher.Close(); err != nil {
			common.LogWarn("shader watcher close failed", "err", err)
		}
		r.watcher = nil
	}
	if r.debug != nil {
		r.debug.Release()
	}
	if r.bloom != nil {
		r.bloom.Release()
	}
	if r.forward != nil {
		r.forward.Release()
	}
	if r.shadow != nil {
		r.shadow.Release()
	}
	if r.baker != nil {
		r.baker.Release()
	}
	if r.ctx != nil {
		r.ctx.Release()
	}
}
