package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUDeviceOption is a functional option used to configure the wgpu device during construction.
type WGPUDeviceOption func(*wgpuDevice)

// WithVSync selects FIFO presentation when enabled and immediate presentation otherwise.
func WithVSync(enabled bool) WGPUDeviceOption {
	return func(d *wgpuDevice) {
		if enabled {
			d.presentMode = wgpu.PresentModeFifo
			return
		}
		d.presentMode = wgpu.PresentModeImmediate
	}
}

// WithForceFallbackAdapter requests the software fallback adapter, e.g. for CI machines without a GPU.
func WithForceFallbackAdapter(force bool) WGPUDeviceOption {
	return func(d *wgpuDevice) {
		d.forceFallback = force
	}
}

// WithHeadlessFormat sets the color format of the offscreen default framebuffer of a headless device.
//
// Parameters:
//   - format: the color format, wgpu.TextureFormatRGBA8Unorm by default
//
// Returns:
//   - WGPUDeviceOption: a function that sets the headless framebuffer format
func WithHeadlessFormat(format wgpu.TextureFormat) WGPUDeviceOption {
	return func(d *wgpuDevice) {
		d.headlessFormat = format
	}
}
