package gpu_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHDRFramebuffer(t *testing.T, d gpu.Device) *gpu.Framebuffer {
	t.Helper()
	fb, err := d.CreateFramebuffer(gpu.FramebufferDescriptor{
		Label:        "HDR",
		Width:        320,
		Height:       200,
		ColorFormats: []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float},
		DepthFormat:  wgpu.TextureFormatDepth32Float,
	})
	require.NoError(t, err)
	return fb
}

func TestFramebufferResizeSameSizeKeepsTextures(t *testing.T) {
	fb := newHDRFramebuffer(t, gputest.NewDevice(320, 200))
	color, depth := fb.ColorTexture(0).ID(), fb.DepthTexture().ID()

	changed, err := fb.Resize(320, 200)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, color, fb.ColorTexture(0).ID())
	assert.Equal(t, depth, fb.DepthTexture().ID())
}

func TestFramebufferResizeReallocates(t *testing.T) {
	fb := newHDRFramebuffer(t, gputest.NewDevice(320, 200))
	old := fb.ColorTexture(0)

	changed, err := fb.Resize(640, 400)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, old.Released())
	assert.NotEqual(t, old.ID(), fb.ColorTexture(0).ID())
	assert.Equal(t, 640, fb.ColorTexture(0).Width())
	assert.Equal(t, 400, fb.DepthTexture().Height())

	_, err = fb.Resize(0, 400)
	assert.ErrorIs(t, err, common.ErrInvalidDescriptor)
}

func TestFramebufferRequiresAttachments(t *testing.T) {
	_, err := gputest.NewDevice(8, 8).CreateFramebuffer(gpu.FramebufferDescriptor{Label: "Empty", Width: 8, Height: 8})
	assert.ErrorIs(t, err, common.ErrInvalidDescriptor)
}

func TestFramebufferPassDescriptor(t *testing.T) {
	fb := newHDRFramebuffer(t, gputest.NewDevice(320, 200))
	desc := fb.PassDescriptor("Forward", wgpu.LoadOpClear, wgpu.Color{R: 1}, wgpu.LoadOpLoad, 1)

	require.Len(t, desc.Colors, 1)
	require.NotNil(t, desc.Depth)
	assert.Same(t, fb.ColorTexture(0).View(), desc.Colors[0].View)
	assert.Equal(t, wgpu.LoadOpLoad, desc.Depth.LoadOp)
	assert.Equal(t, []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float}, desc.ColorFormats())
	assert.Equal(t, wgpu.TextureFormatDepth32Float, desc.DepthFormat())
	w, h := desc.Size()
	assert.Equal(t, 320, w)
	assert.Equal(t, 200, h)
}

func TestMultisampledFramebuffer(t *testing.T) {
	fb, err := gputest.NewDevice(320, 200).CreateFramebuffer(gpu.FramebufferDescriptor{
		Label:        "HDR",
		Width:        320,
		Height:       200,
		ColorFormats: []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float},
		DepthFormat:  wgpu.TextureFormatDepth32Float,
		SampleCount:  4,
	})
	require.NoError(t, err)

	desc := fb.PassDescriptor("Forward", wgpu.LoadOpClear, wgpu.Color{}, wgpu.LoadOpClear, 1)
	require.Len(t, desc.Colors, 1)
	assert.Equal(t, 4, desc.SampleCount())
	assert.Same(t, fb.ColorTexture(0).View(), desc.Colors[0].Resolve)
	assert.Equal(t, 4, desc.Colors[0].View.Texture().SampleCount())
	assert.Equal(t, 4, desc.Depth.View.Texture().SampleCount())
	assert.Equal(t, 1, fb.ColorTexture(0).SampleCount())

	old := desc.Colors[0].View.Texture()
	_, err = fb.Resize(640, 400)
	require.NoError(t, err)
	assert.True(t, old.Released())
	resized := fb.PassDescriptor("Forward", wgpu.LoadOpClear, wgpu.Color{}, wgpu.LoadOpClear, 1)
	assert.Equal(t, 640, resized.Colors[0].View.Width())
}

func TestMultisampledTextureMustBeSingleMip2D(t *testing.T) {
	_, err := gputest.NewDevice(8, 8).CreateTexture(gpu.TextureDescriptor{
		Label:       "Cube",
		Kind:        gpu.TextureKindCube,
		Format:      wgpu.TextureFormatRGBA16Float,
		Width:       8,
		Height:      8,
		SampleCount: 4,
	})
	assert.ErrorIs(t, err, common.ErrInvalidDescriptor)
}

func TestDeviceResizeUpdatesDefaultFramebuffer(t *testing.T) {
	d := gputest.NewDevice(100, 50)
	d.Resize(200, 80)
	assert.Equal(t, 200, d.DefaultFramebuffer().Width())
	assert.Equal(t, 80, d.DefaultFramebuffer().Height())

	d.Resize(0, 0)
	assert.Equal(t, 200, d.DefaultFramebuffer().Width())
}

func TestDrawCallResolve(t *testing.T) {
	d := gputest.NewDevice(8, 8)
	va, err := d.CreateVertexArray(gpu.VertexArrayDescriptor{
		Label:        "Quad",
		Vertices:     make([]byte, 4*12),
		VertexStride: 12,
		VertexCount:  4,
		Indices:      []uint32{0, 1, 2, 2, 3, 0},
	})
	require.NoError(t, err)

	call := gpu.DrawCall{VertexArray: va, FirstIndex: 3}.Resolve()
	assert.Equal(t, 1, call.InstanceCount)
	assert.Equal(t, 3, call.IndexCount)

	plain, err := d.CreateVertexArray(gpu.VertexArrayDescriptor{Label: "Lines", Vertices: make([]byte, 24), VertexStride: 12, VertexCount: 2})
	require.NoError(t, err)
	assert.False(t, plain.Indexed())
	assert.Equal(t, 2, gpu.DrawCall{VertexArray: plain}.Resolve().VertexCount)
}
