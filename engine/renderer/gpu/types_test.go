package gpu

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMipLevelCount(t *testing.T) {
	assert.Equal(t, 1, MipLevelCount(1, 1))
	assert.Equal(t, 10, MipLevelCount(512, 512))
	assert.Equal(t, 11, MipLevelCount(1280, 720))
	assert.Equal(t, 8, MipLevelCount(128, 2))
}

func TestTextureDescriptorNormalize(t *testing.T) {
	cube, err := TextureDescriptor{Label: "Env", Kind: TextureKindCube, Format: wgpu.TextureFormatRGBA16Float, Width: 512, Height: 512, Layers: 2}.normalize()
	require.NoError(t, err)
	assert.Equal(t, 6, cube.Layers)
	assert.Equal(t, 1, cube.MipLevels)

	array, err := TextureDescriptor{Kind: TextureKind2DArray, Format: wgpu.TextureFormatDepth32Float, Width: 64, Height: 64}.normalize()
	require.NoError(t, err)
	assert.Equal(t, 1, array.Layers)

	flat, err := TextureDescriptor{Format: wgpu.TextureFormatR8Unorm, Width: 4, Height: 4, Layers: 3}.normalize()
	require.NoError(t, err)
	assert.Equal(t, 1, flat.Layers)

	for name, desc := range map[string]TextureDescriptor{
		"zero size":     {Format: wgpu.TextureFormatRGBA8Unorm, Width: 0, Height: 4},
		"no format":     {Width: 4, Height: 4},
		"non-square":    {Kind: TextureKindCube, Format: wgpu.TextureFormatRGBA8Unorm, Width: 4, Height: 8},
		"too many mips": {Format: wgpu.TextureFormatRGBA8Unorm, Width: 4, Height: 4, MipLevels: 4},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := desc.normalize()
			assert.ErrorIs(t, err, common.ErrInvalidDescriptor)
		})
	}
}

func TestTextureViewDescriptorDefaults(t *testing.T) {
	shadow := NewTexture(TextureDescriptor{Label: "Shadow", Kind: TextureKind2DArray, Format: wgpu.TextureFormatDepth32Float, Width: 64, Height: 64, Layers: 4, MipLevels: 1}, nil, nil)

	all := shadow.ViewDescriptor(TextureViewDescriptor{})
	assert.Equal(t, wgpu.TextureViewDimension2DArray, all.Dimension)
	assert.Equal(t, 4, all.ArrayLayerCount)
	assert.Equal(t, wgpu.TextureAspectDepthOnly, all.Aspect)
	assert.Equal(t, "Shadow View", all.Label)

	layer := shadow.ViewDescriptor(TextureViewDescriptor{Dimension: wgpu.TextureViewDimension2D, BaseArrayLayer: 2, ArrayLayerCount: 1})
	assert.Equal(t, 2, layer.BaseArrayLayer)
	assert.Equal(t, 1, layer.ArrayLayerCount)

	prefilter := NewTexture(TextureDescriptor{Kind: TextureKindCube, Format: wgpu.TextureFormatRGBA16Float, Width: 128, Height: 128, Layers: 6, MipLevels: 5}, nil, nil)
	mip := prefilter.ViewDescriptor(TextureViewDescriptor{BaseMipLevel: 3})
	assert.Equal(t, wgpu.TextureViewDimensionCube, mip.Dimension)
	assert.Equal(t, 2, mip.MipLevelCount)

	view := NewTextureView(prefilter, mip, nil, nil)
	assert.Equal(t, 16, view.Width())
}

func TestTextureRegionResolve(t *testing.T) {
	tex := NewTexture(TextureDescriptor{Label: "Bloom", Format: wgpu.TextureFormatRGBA16Float, Width: 100, Height: 60, Layers: 1, MipLevels: 3}, nil, nil)

	r, err := TextureRegion{MipLevel: 2}.resolve(tex)
	require.NoError(t, err)
	assert.Equal(t, 25, r.Width)
	assert.Equal(t, 15, r.Height)

	_, err = TextureRegion{MipLevel: 3}.resolve(tex)
	assert.ErrorIs(t, err, common.ErrInvalidDescriptor)
	_, err = TextureRegion{X: 90, Width: 20}.resolve(tex)
	assert.ErrorIs(t, err, common.ErrInvalidDescriptor)
}

func TestTexelSize(t *testing.T) {
	size, err := TexelSize(wgpu.TextureFormatRGBA16Float)
	require.NoError(t, err)
	assert.Equal(t, 8, size)

	size, err = TexelSize(wgpu.TextureFormatRG16Float)
	require.NoError(t, err)
	assert.Equal(t, 4, size)

	_, err = TexelSize(wgpu.TextureFormatBC1RGBAUnorm)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestSamplerDescriptorDefaults(t *testing.T) {
	d := SamplerDescriptor{Compare: wgpu.CompareFunctionLess}.normalize()
	assert.Equal(t, wgpu.AddressModeClampToEdge, d.AddressMode)
	assert.Equal(t, wgpu.FilterModeLinear, d.MagFilter)
	assert.Equal(t, float32(32), d.LodMaxClamp)
	assert.True(t, NewSampler(d, nil, nil).IsComparison())
}
