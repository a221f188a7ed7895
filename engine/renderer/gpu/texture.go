package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// Texture owns one native texture. Every texture carries a default view covering all of it.
// A reallocation always produces a new Texture, so comparing IDs tells whether storage changed.
type Texture struct {
	id       uuid.UUID
	desc     TextureDescriptor
	view     *TextureView
	handle   any
	release  func()
	released bool
}

// NewTexture wraps a texture created by a Device backend. desc must already be validated.
//
// Parameters:
//   - desc: the texture description
//   - handle: the backend's native object
//   - release: frees the native object; may be nil
//
// Returns:
//   - *Texture: the wrapper
func NewTexture(desc TextureDescriptor, handle any, release func()) *Texture {
	return &Texture{
		id:      uuid.New(),
		desc:    desc,
		handle:  handle,
		release: release,
	}
}

func (t *Texture) ID() uuid.UUID { return t.id }
func (t *Texture) Label() string { return t.desc.Label }
func (t *Texture) Kind() TextureKind { return t.desc.Kind }
func (t *Texture) Format() wgpu.TextureFormat { return t.desc.Format }
func (t *Texture) Width() int { return t.desc.Width }
func (t *Texture) Height() int { return t.desc.Height }
func (t *Texture) Layers() int { return t.desc.Layers }
func (t *Texture) MipLevels() int { return t.desc.MipLevels }
func (t *Texture) Usage() wgpu.TextureUsage { return t.desc.Usage }
func (t *Texture) SampleCount() int { return max(t.desc.SampleCount, 1) }
func (t *Texture) Descriptor() TextureDescriptor { return t.desc }

// Handle returns the backend's native object.
func (t *Texture) Handle() any { return t.handle }

// View returns the default view of the whole texture.
func (t *Texture) View() *TextureView { return t.view }

// SetView installs the default view. Backends call it right after creation; the texture takes ownership.
func (t *Texture) SetView(v *TextureView) { t.view = v }

// MipSize returns the size of mip level, never smaller than 1x1.
func (t *Texture) MipSize(level int) (int, int) {
	return max(t.desc.Width>>level, 1), max(t.desc.Height>>level, 1)
}

// Released reports whether Release has been called.
func (t *Texture) Released() bool { return t.released }

// Release frees the default view and the native texture. Releasing twice is a no-op.
func (t *Texture) Release() {
	if t == nil || t.released {
		return
	}
	t.released = true
	if t.view != nil {
		t.view.Release()
	}
	if t.release != nil {
		t.release()
	}
}

// ViewDescriptor resolves defaulted fields of desc against this texture.
//
// Parameters:
//   - desc: the requested view
//
// Returns:
//   - TextureViewDescriptor: desc with dimension, counts and aspect filled in
func (t *Texture) ViewDescriptor(desc TextureViewDescriptor) TextureViewDescriptor {
	if desc.Dimension == wgpu.TextureViewDimensionUndefined {
		switch t.desc.Kind {
		case TextureKindCube:
			desc.Dimension = wgpu.TextureViewDimensionCube
		case TextureKind2DArray:
			desc.Dimension = wgpu.TextureViewDimension2DArray
		default:
			desc.Dimension = wgpu.TextureViewDimension2D
		}
	}
	if desc.MipLevelCount == 0 {
		desc.MipLevelCount = t.desc.MipLevels - desc.BaseMipLevel
	}
	if desc.ArrayLayerCount == 0 {
		desc.ArrayLayerCount = t.desc.Layers - desc.BaseArrayLayer
	}
	if desc.Aspect == wgpu.TextureAspectAll && IsDepthFormat(t.desc.Format) {
		desc.Aspect = wgpu.TextureAspectDepthOnly
	}
	if desc.Label == "" {
		desc.Label = t.desc.Label + " View"
	}
	return desc
}

// TextureView reinterprets a subset of a texture's mips and layers.
type TextureView struct {
	id       uuid.UUID
	texture  *Texture
	desc     TextureViewDescriptor
	handle   any
	release  func()
	released bool
}

// NewTextureView wraps a view created by a Device backend. desc must come from Texture.ViewDescriptor.
func NewTextureView(texture *Texture, desc TextureViewDescriptor, handle any, release func()) *TextureView {
	return &TextureView{
		id:      uuid.New(),
		texture: texture,
		desc:    desc,
		handle:  handle,
		release: release,
	}
}

func (v *TextureView) ID() uuid.UUID { return v.id }
func (v *TextureView) Texture() *Texture { return v.texture }
func (v *TextureView) Dimension() wgpu.TextureViewDimension { return v.desc.Dimension }
func (v *TextureView) BaseMipLevel() int { return v.desc.BaseMipLevel }
func (v *TextureView) MipLevelCount() int { return v.desc.MipLevelCount }
func (v *TextureView) BaseArrayLayer() int { return v.desc.BaseArrayLayer }
func (v *TextureView) ArrayLayerCount() int { return v.desc.ArrayLayerCount }
func (v *TextureView) Descriptor() TextureViewDescriptor { return v.desc }
func (v *TextureView) Handle() any { return v.handle }

// Width returns the width of the view's base mip level.
func (v *TextureView) Width() int {
	w, _ := v.texture.MipSize(v.desc.BaseMipLevel)
	return w
}

// Height returns the height of the view's base mip level.
func (v *TextureView) Height() int {
	_, h := v.texture.MipSize(v.desc.BaseMipLevel)
	return h
}

// Release frees the native view. Releasing twice is a no-op.
func (v *TextureView) Release() {
	if v == nil || v.released {
		return
	}
	v.released = true
	if v.release != nil {
		v.release()
	}
}

// Sampler owns one native sampler.
type Sampler struct {
	id       uuid.UUID
	desc     SamplerDescriptor
	handle   any
	release  func()
	released bool
}

// NewSampler wraps a sampler created by a Device backend.
func NewSampler(desc SamplerDescriptor, handle any, release func()) *Sampler {
	return &Sampler{
		id:      uuid.New(),
		desc:    desc,
		handle:  handle,
		release: release,
	}
}

func (s *Sampler) ID() uuid.UUID { return s.id }
func (s *Sampler) Descriptor() SamplerDescriptor { return s.desc }
func (s *Sampler) Handle() any { return s.handle }

// IsComparison reports whether the sampler performs depth comparison.
func (s *Sampler) IsComparison() bool {
	return s.desc.Compare != wgpu.CompareFunctionUndefined
}

// Release frees the native sampler. Releasing twice is a no-op.
func (s *Sampler) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	if s.release != nil {
		s.release()
	}
}
