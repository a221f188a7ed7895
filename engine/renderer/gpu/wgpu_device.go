package gpu

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// wgpuDevice is the WebGPU implementation of Device.
type wgpuDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surface        *wgpu.Surface
	surfaceFormat  wgpu.TextureFormat
	alphaMode      wgpu.CompositeAlphaMode
	presentMode    wgpu.PresentMode
	forceFallback  bool
	headlessFormat wgpu.TextureFormat

	defaultFramebuffer *Framebuffer
	boundFramebuffer   *Framebuffer
	surfaceTexture     *Texture

	encoder *wgpu.CommandEncoder

	arena            *uniformArena
	bindGroups       *bindGroupCache
	renderPipelines  map[string]*wgpu.RenderPipeline
	computePipelines map[string]*wgpu.ComputePipeline

	linearSampler     *Sampler
	comparisonSampler *Sampler

	skipWarned map[uuid.UUID]struct{}
}

var _ Device = &wgpuDevice{}

// NewWGPUDevice creates a device rendering to the window surface described by surfaceDescriptor.
// The calling goroutine is locked to its OS thread, which must be the windowing thread.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, e.g. from wgpuglfw.GetSurfaceDescriptor
//   - width, height: the framebuffer size of the window in pixels
//   - opts: device options
//
// Returns:
//   - Device: the device
//   - error: when no adapter or device is available
func NewWGPUDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, opts ...WGPUDeviceOption) (Device, error) {
	runtime.LockOSThread()
	d := newWGPUDevice(opts...)
	d.surface = d.instance.CreateSurface(surfaceDescriptor)
	if err := d.requestDevice(); err != nil {
		d.Release()
		return nil, err
	}

	capabilities := d.surface.GetCapabilities(d.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		d.Release()
		return nil, fmt.Errorf("%w: surface reports no formats", common.ErrUnsupportedFormat)
	}
	d.surfaceFormat = capabilities.Formats[0]
	d.alphaMode = capabilities.AlphaModes[0]
	d.configureSurface(width, height)
	d.defaultFramebuffer = NewSurfaceFramebuffer("Surface", width, height, d.surfaceFormat)
	d.boundFramebuffer = d.defaultFramebuffer

	if err := d.createDefaultSamplers(); err != nil {
		d.Release()
		return nil, err
	}
	common.LogInfo("wgpu device ready", "format", d.surfaceFormat, "width", width, "height", height)
	return d, nil
}

// NewHeadlessWGPUDevice creates a device without a surface. Its default framebuffer is an offscreen
// color texture that can be read back with ReadTexture.
//
// Parameters:
//   - width, height: the size of the offscreen default framebuffer
//   - opts: device options
//
// Returns:
//   - Device: the device
//   - error: when no adapter or device is available
func NewHeadlessWGPUDevice(width, height int, opts ...WGPUDeviceOption) (Device, error) {
	d := newWGPUDevice(opts...)
	if err := d.requestDevice(); err != nil {
		d.Release()
		return nil, err
	}
	if err := d.createDefaultSamplers(); err != nil {
		d.Release()
		return nil, err
	}
	fb, err := NewFramebuffer(d, FramebufferDescriptor{
		Label:        "Headless",
		Width:        width,
		Height:       height,
		ColorFormats: []wgpu.TextureFormat{d.headlessFormat},
	})
	if err != nil {
		d.Release()
		return nil, err
	}
	d.defaultFramebuffer = fb
	d.boundFramebuffer = fb
	return d, nil
}

func newWGPUDevice(opts ...WGPUDeviceOption) *wgpuDevice {
	d := &wgpuDevice{
		instance:         wgpu.CreateInstance(nil),
		presentMode:      wgpu.PresentModeFifo,
		headlessFormat:   wgpu.TextureFormatRGBA8Unorm,
		renderPipelines:  make(map[string]*wgpu.RenderPipeline),
		computePipelines: make(map[string]*wgpu.ComputePipeline),
		skipWarned:       make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *wgpuDevice) requestDevice() error {
	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallback,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		return fmt.Errorf("failed to request adapter: %w", err)
	}
	d.adapter = a

	// Forward and shadow programs use up to four groups; leave headroom for debug programs.
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()
	d.arena = newUniformArena(dev)
	d.bindGroups = newBindGroupCache(dev)
	return nil
}

func (d *wgpuDevice) configureSurface(width, height int) {
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: d.presentMode,
		AlphaMode:   d.alphaMode,
	})
}

func (d *wgpuDevice) createDefaultSamplers() error {
	var err error
	d.linearSampler, err = d.CreateSampler(SamplerDescriptor{Label: "Default Linear Sampler"})
	if err != nil {
		return err
	}
	d.comparisonSampler, err = d.CreateSampler(SamplerDescriptor{
		Label:        "Default Comparison Sampler",
		MipmapFilter: wgpu.MipmapFilterModeNearest,
		Compare:      wgpu.CompareFunctionLess,
	})
	return err
}

// frameEncoder returns the command encoder of the current submission, creating it on first use.
func (d *wgpuDevice) frameEncoder() (*wgpu.CommandEncoder, error) {
	if d.encoder != nil {
		return d.encoder, nil
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %w", err)
	}
	d.encoder = encoder
	return encoder, nil
}

func (d *wgpuDevice) DefaultFramebuffer() *Framebuffer {
	return d.defaultFramebuffer
}

func (d *wgpuDevice) BindFramebuffer(fb *Framebuffer) {
	if fb == nil {
		fb = d.defaultFramebuffer
	}
	d.boundFramebuffer = fb
}

func (d *wgpuDevice) BindDefaultFramebuffer() {
	d.boundFramebuffer = d.defaultFramebuffer
}

func (d *wgpuDevice) BoundFramebuffer() *Framebuffer {
	return d.boundFramebuffer
}

func (d *wgpuDevice) Submit() {
	if d.encoder == nil {
		return
	}
	d.arena.flush(d.queue)
	cmdBuffer, err := d.encoder.Finish(nil)
	d.encoder.Release()
	d.encoder = nil
	d.arena.reset()
	if err != nil {
		common.LogError("failed to finish command encoder", "err", err)
		return
	}
	d.queue.Submit(cmdBuffer)
	cmdBuffer.Release()
}

func (d *wgpuDevice) BeginFrame() error {
	if d.surface == nil {
		return nil
	}
	d.releaseSurfaceTexture()

	surfaceTexture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("failed to create surface texture view: %w", err)
	}

	fb := d.defaultFramebuffer
	tex := NewTexture(TextureDescriptor{
		Label:     "Surface Texture",
		Kind:      TextureKind2D,
		Format:    d.surfaceFormat,
		Width:     fb.Width(),
		Height:    fb.Height(),
		Layers:    1,
		MipLevels: 1,
		Usage:     wgpu.TextureUsageRenderAttachment,
	}, surfaceTexture, surfaceTexture.Release)
	tex.SetView(NewTextureView(tex, tex.ViewDescriptor(TextureViewDescriptor{}), view, view.Release))
	d.surfaceTexture = tex
	fb.AttachSurfaceTexture(tex)
	return nil
}

func (d *wgpuDevice) releaseSurfaceTexture() {
	if d.surfaceTexture == nil {
		return
	}
	d.surfaceTexture.Release()
	d.surfaceTexture = nil
	if d.defaultFramebuffer.IsSurface() {
		d.defaultFramebuffer.AttachSurfaceTexture(nil)
	}
}

func (d *wgpuDevice) Present() {
	d.Submit()
	if d.surface == nil || d.surfaceTexture == nil {
		return
	}
	d.surface.Present()
	d.releaseSurfaceTexture()
}

func (d *wgpuDevice) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if d.surface != nil {
		d.releaseSurfaceTexture()
		d.configureSurface(width, height)
	}
	if _, err := d.defaultFramebuffer.Resize(width, height); err != nil {
		common.LogError("failed to resize default framebuffer", "err", err)
	}
}

func (d *wgpuDevice) Release() {
	if d.encoder != nil {
		d.encoder.Release()
		d.encoder = nil
	}
	d.releaseSurfaceTexture()
	if d.defaultFramebuffer != nil {
		d.defaultFramebuffer.Release()
	}
	if d.bindGroups != nil {
		d.bindGroups.clear()
	}
	for k, p := range d.renderPipelines {
		p.Release()
		delete(d.renderPipelines, k)
	}
	for k, p := range d.computePipelines {
		p.Release()
		delete(d.computePipelines, k)
	}
	if d.arena != nil {
		d.arena.release()
	}
	d.linearSampler.Release()
	d.comparisonSampler.Release()
	if d.queue != nil {
		d.queue.Release()
	}
	if d.device != nil {
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.surface != nil {
		d.surface.Release()
	}
	d.instance.Release()
}
