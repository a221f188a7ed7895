package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureKind identifies the shape of a texture resource.
type TextureKind int

const (
	// TextureKind2D is a single 2D image with optional mips.
	TextureKind2D TextureKind = iota

	// TextureKind2DArray is a stack of 2D layers, e.g. one shadow cascade per layer.
	TextureKind2DArray

	// TextureKindCube is six 2D faces addressed by direction.
	TextureKindCube
)

func (k TextureKind) String() string {
	switch k {
	case TextureKind2DArray:
		return "2d-array"
	case TextureKindCube:
		return "cube"
	default:
		return "2d"
	}
}

// TextureDescriptor describes a texture to allocate.
type TextureDescriptor struct {
	Label  string
	Kind   TextureKind
	Format wgpu.TextureFormat
	Width  int
	Height int
	// Layers is the array layer count of a 2D array. Cubes always have 6, 2D textures 1.
	Layers int
	// MipLevels defaults to 1.
	MipLevels int
	Usage     wgpu.TextureUsage
	// SampleCount defaults to 1. Multisampled textures are 2D render targets with a single mip level.
	SampleCount int
}

// normalize fills defaulted fields and validates the descriptor.
func (d TextureDescriptor) normalize() (TextureDescriptor, error) {
	if d.Width <= 0 || d.Height <= 0 {
		return d, fmt.Errorf("%w: texture %q has size %dx%d", common.ErrInvalidDescriptor, d.Label, d.Width, d.Height)
	}
	if d.Format == wgpu.TextureFormatUndefined {
		return d, fmt.Errorf("%w: texture %q has no format", common.ErrInvalidDescriptor, d.Label)
	}
	switch d.Kind {
	case TextureKindCube:
		if d.Width != d.Height {
			return d, fmt.Errorf("%w: cube texture %q is not square", common.ErrInvalidDescriptor, d.Label)
		}
		d.Layers = 6
	case TextureKind2DArray:
		d.Layers = max(d.Layers, 1)
	default:
		d.Layers = 1
	}
	d.MipLevels = max(d.MipLevels, 1)
	d.SampleCount = max(d.SampleCount, 1)
	if d.SampleCount > 1 && (d.Kind != TextureKind2D || d.MipLevels > 1) {
		return d, fmt.Errorf("%w: multisampled texture %q must be 2D with one mip", common.ErrInvalidDescriptor, d.Label)
	}
	if limit := MipLevelCount(d.Width, d.Height); d.MipLevels > limit {
		return d, fmt.Errorf("%w: texture %q requests %d mips, at most %d fit", common.ErrInvalidDescriptor, d.Label, d.MipLevels, limit)
	}
	return d, nil
}

// TextureViewDescriptor selects a subset of a texture. Zero counts select every remaining level or layer.
type TextureViewDescriptor struct {
	Label string
	// Dimension defaults to the natural dimension of the texture kind.
	Dimension       wgpu.TextureViewDimension
	BaseMipLevel    int
	MipLevelCount   int
	BaseArrayLayer  int
	ArrayLayerCount int
	Aspect          wgpu.TextureAspect
}

// SamplerDescriptor describes a sampler. Zero fields fall back to clamp-to-edge, linear filtering.
type SamplerDescriptor struct {
	Label        string
	AddressMode  wgpu.AddressMode
	MagFilter    wgpu.FilterMode
	MinFilter    wgpu.FilterMode
	MipmapFilter wgpu.MipmapFilterMode
	// Compare makes this a comparison sampler when set.
	Compare     wgpu.CompareFunction
	LodMaxClamp float32
}

func (d SamplerDescriptor) normalize() SamplerDescriptor {
	d.AddressMode = common.Coalesce(d.AddressMode, wgpu.AddressModeClampToEdge)
	d.MagFilter = common.Coalesce(d.MagFilter, wgpu.FilterModeLinear)
	d.MinFilter = common.Coalesce(d.MinFilter, wgpu.FilterModeLinear)
	d.MipmapFilter = common.Coalesce(d.MipmapFilter, wgpu.MipmapFilterModeLinear)
	d.LodMaxClamp = common.Coalesce(d.LodMaxClamp, 32)
	return d
}

// TextureRegion addresses a rectangle of one mip level of one layer. A zero Width or Height covers the
// rest of the mip level.
type TextureRegion struct {
	MipLevel int
	Layer    int
	X, Y     int
	Width    int
	Height   int
}

// resolve clamps the region against the texture's mip size.
func (r TextureRegion) resolve(t *Texture) (TextureRegion, error) {
	if r.MipLevel < 0 || r.MipLevel >= t.MipLevels() || r.Layer < 0 || r.Layer >= t.Layers() {
		return r, fmt.Errorf("%w: region mip %d layer %d outside texture %q", common.ErrInvalidDescriptor, r.MipLevel, r.Layer, t.Label())
	}
	w, h := t.MipSize(r.MipLevel)
	if r.Width == 0 {
		r.Width = w - r.X
	}
	if r.Height == 0 {
		r.Height = h - r.Y
	}
	if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 || r.X+r.Width > w || r.Y+r.Height > h {
		return r, fmt.Errorf("%w: region %+v outside %dx%d mip of %q", common.ErrInvalidDescriptor, r, w, h, t.Label())
	}
	return r, nil
}

// ColorAttachment is one color target of a render pass.
type ColorAttachment struct {
	View *TextureView
	// Resolve receives the resolved samples when View is multisampled.
	Resolve *TextureView
	LoadOp  wgpu.LoadOp
	Clear   wgpu.Color
}

// DepthAttachment is the depth target of a render pass.
type DepthAttachment struct {
	View   *TextureView
	LoadOp wgpu.LoadOp
	Clear  float32
}

// RenderPassDescriptor describes the targets of a render pass.
type RenderPassDescriptor struct {
	Label  string
	Colors []ColorAttachment
	Depth  *DepthAttachment
}

// ColorFormats returns the formats of the color targets, in attachment order.
func (d RenderPassDescriptor) ColorFormats() []wgpu.TextureFormat {
	formats := make([]wgpu.TextureFormat, 0, len(d.Colors))
	for _, c := range d.Colors {
		formats = append(formats, c.View.Texture().Format())
	}
	return formats
}

// DepthFormat returns the depth target format or wgpu.TextureFormatUndefined.
func (d RenderPassDescriptor) DepthFormat() wgpu.TextureFormat {
	if d.Depth == nil || d.Depth.View == nil {
		return wgpu.TextureFormatUndefined
	}
	return d.Depth.View.Texture().Format()
}

// SampleCount returns the sample count of the attachments, which every attachment must share.
func (d RenderPassDescriptor) SampleCount() int {
	switch {
	case len(d.Colors) > 0:
		return d.Colors[0].View.Texture().SampleCount()
	case d.Depth != nil && d.Depth.View != nil:
		return d.Depth.View.Texture().SampleCount()
	}
	return 1
}

// Size returns the size of the first attachment, which every attachment must share.
func (d RenderPassDescriptor) Size() (int, int) {
	switch {
	case len(d.Colors) > 0:
		return d.Colors[0].View.Width(), d.Colors[0].View.Height()
	case d.Depth != nil && d.Depth.View != nil:
		return d.Depth.View.Width(), d.Depth.View.Height()
	}
	return 0, 0
}

// MipLevelCount returns the length of a full mip chain for a width x height image.
func MipLevelCount(width, height int) int {
	largest := max(width, height, 1)
	return int(math32.Floor(math32.Log2(float32(largest)))) + 1
}

// TexelSize returns the size in bytes of one texel of format.
//
// Parameters:
//   - format: the texture format
//
// Returns:
//   - int: bytes per texel
//   - error: ErrUnsupportedFormat for compressed or unknown formats
func TexelSize(format wgpu.TextureFormat) (int, error) {
	switch format {
	case wgpu.TextureFormatR8Unorm:
		return 1, nil
	case wgpu.TextureFormatR16Float, wgpu.TextureFormatRG8Unorm:
		return 2, nil
	case wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatBGRA8Unorm,
		wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatRG16Float, wgpu.TextureFormatR32Float,
		wgpu.TextureFormatDepth32Float:
		return 4, nil
	case wgpu.TextureFormatRGBA16Float, wgpu.TextureFormatRG32Float:
		return 8, nil
	case wgpu.TextureFormatRGBA32Float:
		return 16, nil
	}
	return 0, fmt.Errorf("%w: %v", common.ErrUnsupportedFormat, format)
}

// IsDepthFormat reports whether format is a depth format.
func IsDepthFormat(format wgpu.TextureFormat) bool {
	switch format {
	case wgpu.TextureFormatDepth16Unorm, wgpu.TextureFormatDepth24Plus, wgpu.TextureFormatDepth24PlusStencil8,
		wgpu.TextureFormatDepth32Float, wgpu.TextureFormatDepth32FloatStencil8:
		return true
	}
	return false
}
