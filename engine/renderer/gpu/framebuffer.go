package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// FramebufferDescriptor describes the attachments of an offscreen framebuffer.
type FramebufferDescriptor struct {
	Label        string
	Width        int
	Height       int
	ColorFormats []wgpu.TextureFormat
	// DepthFormat is wgpu.TextureFormatUndefined for framebuffers without depth.
	DepthFormat wgpu.TextureFormat
	// SampleCount above 1 renders into multisampled color and depth attachments. The color
	// samples are resolved into the single sampled color textures at the end of every pass.
	SampleCount int
}

// Framebuffer groups color attachments and an optional depth attachment of one size.
// Offscreen framebuffers own their textures; the default framebuffer borrows the surface
// texture of the current frame.
type Framebuffer struct {
	id      uuid.UUID
	device  Device
	desc    FramebufferDescriptor
	colors  []*Texture
	msaa    []*Texture
	depth   *Texture
	surface bool
}

// NewFramebuffer allocates an offscreen framebuffer on device. Color textures can be rendered to,
// sampled and copied from; the depth texture can additionally be sampled as a depth texture.
//
// Parameters:
//   - device: the device that allocates the attachments
//   - desc: the attachment formats and size
//
// Returns:
//   - *Framebuffer: the framebuffer
//   - error: ErrInvalidDescriptor for an empty or zero-sized description, or an allocation error
func NewFramebuffer(device Device, desc FramebufferDescriptor) (*Framebuffer, error) {
	if len(desc.ColorFormats) == 0 && desc.DepthFormat == wgpu.TextureFormatUndefined {
		return nil, fmt.Errorf("%w: framebuffer %q has no attachments", common.ErrInvalidDescriptor, desc.Label)
	}
	desc.SampleCount = max(desc.SampleCount, 1)
	fb := &Framebuffer{
		id:     uuid.New(),
		device: device,
		desc:   desc,
	}
	if err := fb.allocate(); err != nil {
		return nil, err
	}
	return fb, nil
}

// NewSurfaceFramebuffer creates the framebuffer that stands for a presentation surface. Its single
// color attachment is swapped in every frame with AttachSurfaceTexture.
func NewSurfaceFramebuffer(label string, width, height int, format wgpu.TextureFormat) *Framebuffer {
	return &Framebuffer{
		id: uuid.New(),
		desc: FramebufferDescriptor{
			Label:        label,
			Width:        width,
			Height:       height,
			ColorFormats: []wgpu.TextureFormat{format},
			SampleCount:  1,
		},
		colors:  make([]*Texture, 1),
		surface: true,
	}
}

func (f *Framebuffer) allocate() error {
	f.colors = make([]*Texture, 0, len(f.desc.ColorFormats))
	for i, format := range f.desc.ColorFormats {
		tex, err := f.device.CreateTexture(TextureDescriptor{
			Label:  fmt.Sprintf("%s Color %d", f.desc.Label, i),
			Kind:   TextureKind2D,
			Format: format,
			Width:  f.desc.Width,
			Height: f.desc.Height,
			Usage:  wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
		})
		if err != nil {
			f.releaseAttachments()
			return fmt.Errorf("framebuffer %q color %d: %w", f.desc.Label, i, err)
		}
		f.colors = append(f.colors, tex)

		if f.desc.SampleCount == 1 {
			continue
		}
		ms, err := f.device.CreateTexture(TextureDescriptor{
			Label:       fmt.Sprintf("%s Color %d MSAA", f.desc.Label, i),
			Kind:        TextureKind2D,
			Format:      format,
			Width:       f.desc.Width,
			Height:      f.desc.Height,
			Usage:       wgpu.TextureUsageRenderAttachment,
			SampleCount: f.desc.SampleCount,
		})
		if err != nil {
			f.releaseAttachments()
			return fmt.Errorf("framebuffer %q multisampled color %d: %w", f.desc.Label, i, err)
		}
		f.msaa = append(f.msaa, ms)
	}

	if f.desc.DepthFormat != wgpu.TextureFormatUndefined {
		usage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding
		if f.desc.SampleCount == 1 {
			usage |= wgpu.TextureUsageCopySrc
		}
		tex, err := f.device.CreateTexture(TextureDescriptor{
			Label:       f.desc.Label + " Depth",
			Kind:        TextureKind2D,
			Format:      f.desc.DepthFormat,
			Width:       f.desc.Width,
			Height:      f.desc.Height,
			Usage:       usage,
			SampleCount: f.desc.SampleCount,
		})
		if err != nil {
			f.releaseAttachments()
			return fmt.Errorf("framebuffer %q depth: %w", f.desc.Label, err)
		}
		f.depth = tex
	}
	return nil
}

func (f *Framebuffer) releaseAttachments() {
	for _, c := range f.colors {
		c.Release()
	}
	for _, c := range f.msaa {
		c.Release()
	}
	f.colors, f.msaa = nil, nil
	f.depth.Release()
	f.depth = nil
}

// Resize reallocates the attachments when the size differs from the current one. Calling it again
// with the same size keeps every attachment texture.
//
// Parameters:
//   - width, height: the new size in pixels
//
// Returns:
//   - bool: whether the attachments were reallocated
//   - error: an allocation error
func (f *Framebuffer) Resize(width, height int) (bool, error) {
	if width == f.desc.Width && height == f.desc.Height {
		return false, nil
	}
	if width <= 0 || height <= 0 {
		return false, fmt.Errorf("%w: framebuffer %q resized to %dx%d", common.ErrInvalidDescriptor, f.desc.Label, width, height)
	}
	f.desc.Width = width
	f.desc.Height = height
	if f.surface {
		return true, nil
	}
	f.releaseAttachments()
	if err := f.allocate(); err != nil {
		return true, err
	}
	return true, nil
}

// AttachSurfaceTexture installs the surface texture of the current frame.
func (f *Framebuffer) AttachSurfaceTexture(tex *Texture) {
	f.colors[0] = tex
}

func (f *Framebuffer) ID() uuid.UUID { return f.id }
func (f *Framebuffer) Label() string { return f.desc.Label }
func (f *Framebuffer) Width() int { return f.desc.Width }
func (f *Framebuffer) Height() int { return f.desc.Height }
func (f *Framebuffer) ColorFormats() []wgpu.TextureFormat { return f.desc.ColorFormats }
func (f *Framebuffer) DepthFormat() wgpu.TextureFormat { return f.desc.DepthFormat }
func (f *Framebuffer) IsSurface() bool { return f.surface }
func (f *Framebuffer) SampleCount() int { return f.desc.SampleCount }

// ColorTexture returns color attachment i, or nil when out of range or not yet acquired.
func (f *Framebuffer) ColorTexture(i int) *Texture {
	if i < 0 || i >= len(f.colors) {
		return nil
	}
	return f.colors[i]
}

// DepthTexture returns the depth attachment, or nil.
func (f *Framebuffer) DepthTexture() *Texture {
	return f.depth
}

// PassDescriptor builds a render pass targeting every attachment of the framebuffer. Multisampled
// framebuffers render into their multisampled attachments and resolve into the color textures.
//
// Parameters:
//   - label: the pass label
//   - colorLoad: wgpu.LoadOpClear or wgpu.LoadOpLoad for the color attachments
//   - clear: the clear color
//   - depthLoad: wgpu.LoadOpClear or wgpu.LoadOpLoad for the depth attachment
//   - clearDepth: the depth clear value
//
// Returns:
//   - RenderPassDescriptor: the pass description
func (f *Framebuffer) PassDescriptor(label string, colorLoad wgpu.LoadOp, clear wgpu.Color, depthLoad wgpu.LoadOp, clearDepth float32) RenderPassDescriptor {
	desc := RenderPassDescriptor{Label: label}
	for i, c := range f.colors {
		if c == nil {
			continue
		}
		attachment := ColorAttachment{View: c.View(), LoadOp: colorLoad, Clear: clear}
		if i < len(f.msaa) {
			attachment.View, attachment.Resolve = f.msaa[i].View(), c.View()
		}
		desc.Colors = append(desc.Colors, attachment)
	}
	if f.depth != nil {
		desc.Depth = &DepthAttachment{View: f.depth.View(), LoadOp: depthLoad, Clear: clearDepth}
	}
	return desc
}

// Release frees owned attachments. The default framebuffer's surface texture is owned by the device.
func (f *Framebuffer) Release() {
	if f.surface {
		return
	}
	f.releaseAttachments()
}
