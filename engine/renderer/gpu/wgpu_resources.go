package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/cogentcore/webgpu/wgpu"
)

func (d *wgpuDevice) CreateTexture(desc TextureDescriptor) (*Texture, error) {
	desc, err := desc.normalize()
	if err != nil {
		return nil, err
	}
	native, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: uint32(desc.Layers),
		},
		MipLevelCount: uint32(desc.MipLevels),
		SampleCount:   uint32(desc.SampleCount),
		Dimension:     wgpu.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}

	tex := NewTexture(desc, native, native.Release)
	view, err := d.CreateTextureView(tex, TextureViewDescriptor{})
	if err != nil {
		tex.Release()
		return nil, err
	}
	tex.SetView(view)
	return tex, nil
}

func (d *wgpuDevice) CreateTextureView(tex *Texture, desc TextureViewDescriptor) (*TextureView, error) {
	desc = tex.ViewDescriptor(desc)
	if desc.BaseMipLevel < 0 || desc.MipLevelCount <= 0 || desc.BaseMipLevel+desc.MipLevelCount > tex.MipLevels() ||
		desc.BaseArrayLayer < 0 || desc.ArrayLayerCount <= 0 || desc.BaseArrayLayer+desc.ArrayLayerCount > tex.Layers() {
		return nil, fmt.Errorf("%w: view %q selects mips %d+%d layers %d+%d of %q", common.ErrInvalidDescriptor,
			desc.Label, desc.BaseMipLevel, desc.MipLevelCount, desc.BaseArrayLayer, desc.ArrayLayerCount, tex.Label())
	}
	native, err := tex.Handle().(*wgpu.Texture).CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          tex.Format(),
		Dimension:       desc.Dimension,
		BaseMipLevel:    uint32(desc.BaseMipLevel),
		MipLevelCount:   uint32(desc.MipLevelCount),
		BaseArrayLayer:  uint32(desc.BaseArrayLayer),
		ArrayLayerCount: uint32(desc.ArrayLayerCount),
		Aspect:          desc.Aspect,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create view %q: %w", desc.Label, err)
	}
	return NewTextureView(tex, desc, native, native.Release), nil
}

func (d *wgpuDevice) CreateSampler(desc SamplerDescriptor) (*Sampler, error) {
	desc = desc.normalize()
	native, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  desc.AddressMode,
		AddressModeV:  desc.AddressMode,
		AddressModeW:  desc.AddressMode,
		MagFilter:     desc.MagFilter,
		MinFilter:     desc.MinFilter,
		MipmapFilter:  desc.MipmapFilter,
		LodMinClamp:   0,
		LodMaxClamp:   desc.LodMaxClamp,
		Compare:       desc.Compare,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler %q: %w", desc.Label, err)
	}
	return NewSampler(desc, native, native.Release), nil
}

func (d *wgpuDevice) CreateFramebuffer(desc FramebufferDescriptor) (*Framebuffer, error) {
	return NewFramebuffer(d, desc)
}

func (d *wgpuDevice) CreateVertexArray(desc VertexArrayDescriptor) (*VertexArray, error) {
	if desc.VertexStride == 0 {
		return nil, fmt.Errorf("%w: vertex array %q has no stride", common.ErrInvalidDescriptor, desc.Label)
	}
	va := NewVertexArray(desc.Label, desc.VertexStride)
	capacity := max(desc.Capacity, uint64(len(desc.Vertices)), desc.VertexStride)
	vertexBuf, err := d.createFilledBuffer(desc.Label+" Vertices", capacity, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, desc.Vertices)
	if err != nil {
		return nil, err
	}

	if len(desc.Indices) == 0 {
		va.Attach(vertexBuf, nil, capacity, vertexBuf.Release)
		va.SetCounts(desc.VertexCount, 0)
		return va, nil
	}

	indexBytes := common.SliceToBytes(desc.Indices)
	indexBuf, err := d.createFilledBuffer(desc.Label+" Indices", uint64(len(indexBytes)), wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, indexBytes)
	if err != nil {
		vertexBuf.Release()
		return nil, err
	}
	va.Attach(vertexBuf, indexBuf, capacity, func() {
		vertexBuf.Release()
		indexBuf.Release()
	})
	va.SetCounts(desc.VertexCount, len(desc.Indices))
	return va, nil
}

// createFilledBuffer creates a buffer of at least size bytes (rounded to 4) and uploads data to its start.
func (d *wgpuDevice) createFilledBuffer(label string, size uint64, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  common.AlignUp(size, 4),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", label, err)
	}
	if len(data) > 0 {
		if err := d.queue.WriteBuffer(buf, 0, padTo4(data)); err != nil {
			buf.Release()
			return nil, fmt.Errorf("failed to upload buffer %q: %w", label, err)
		}
	}
	return buf, nil
}

// padTo4 returns data extended to a multiple of four bytes, as WriteBuffer requires.
func padTo4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, common.AlignUp(uint64(len(data)), 4))
	copy(out, data)
	return out
}

func (d *wgpuDevice) UpdateVertexArray(va *VertexArray, vertices []byte, vertexCount int) error {
	size := uint64(len(vertices))
	if size > va.Capacity() || va.VertexHandle() == nil {
		capacity := max(common.AlignUp(size, 4), va.Capacity()*2)
		buf, err := d.createFilledBuffer(va.Label()+" Vertices", capacity, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, vertices)
		if err != nil {
			return err
		}
		va.Attach(buf, nil, capacity, buf.Release)
		va.SetCounts(vertexCount, 0)
		return nil
	}
	if size > 0 {
		if err := d.queue.WriteBuffer(va.VertexHandle().(*wgpu.Buffer), 0, padTo4(vertices)); err != nil {
			return fmt.Errorf("failed to update vertex array %q: %w", va.Label(), err)
		}
	}
	va.SetCounts(vertexCount, 0)
	return nil
}

func (d *wgpuDevice) WriteTexture(tex *Texture, region TextureRegion, data []byte) error {
	region, err := region.resolve(tex)
	if err != nil {
		return err
	}
	texel, err := TexelSize(tex.Format())
	if err != nil {
		return err
	}
	bytesPerRow := region.Width * texel
	if len(data) < bytesPerRow*region.Height {
		return fmt.Errorf("%w: %d bytes for a %dx%d region of %q", common.ErrInvalidDescriptor, len(data), region.Width, region.Height, tex.Label())
	}
	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex.Handle().(*wgpu.Texture),
			MipLevel: uint32(region.MipLevel),
			Origin:   wgpu.Origin3D{X: uint32(region.X), Y: uint32(region.Y), Z: uint32(region.Layer)},
			Aspect:   wgpu.TextureAspectAll,
		},
		data[:bytesPerRow*region.Height],
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(bytesPerRow),
			RowsPerImage: uint32(region.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(region.Width),
			Height:             uint32(region.Height),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (d *wgpuDevice) ReadTexture(tex *Texture, region TextureRegion) ([]byte, error) {
	region, err := region.resolve(tex)
	if err != nil {
		return nil, err
	}
	texel, err := TexelSize(tex.Format())
	if err != nil {
		return nil, err
	}
	d.Submit()

	rowBytes := uint64(region.Width * texel)
	paddedRow := common.AlignUp(rowBytes, 256)
	size := paddedRow * uint64(region.Height)
	readback, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: tex.Label() + " Readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readback buffer: %w", err)
	}
	defer readback.Release()

	aspect := wgpu.TextureAspectAll
	if IsDepthFormat(tex.Format()) {
		aspect = wgpu.TextureAspectDepthOnly
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create readback encoder: %w", err)
	}
	defer encoder.Release()
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  tex.Handle().(*wgpu.Texture),
			MipLevel: uint32(region.MipLevel),
			Origin:   wgpu.Origin3D{X: uint32(region.X), Y: uint32(region.Y), Z: uint32(region.Layer)},
			Aspect:   aspect,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: readback,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(paddedRow),
				RowsPerImage: uint32(region.Height),
			},
		},
		&wgpu.Extent3D{
			Width:              uint32(region.Width),
			Height:             uint32(region.Height),
			DepthOrArrayLayers: 1,
		},
	)
	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to finish readback encoder: %w", err)
	}
	d.queue.Submit(cmdBuffer)
	cmdBuffer.Release()

	var status wgpu.BufferMapAsyncStatus
	if err := readback.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	}); err != nil {
		return nil, fmt.Errorf("failed to map readback buffer: %w", err)
	}
	d.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("readback of %q failed with status %v", tex.Label(), status)
	}

	mapped := readback.GetMappedRange(0, uint(size))
	out := make([]byte, rowBytes*uint64(region.Height))
	for y := 0; y < region.Height; y++ {
		copy(out[uint64(y)*rowBytes:], mapped[uint64(y)*paddedRow:uint64(y)*paddedRow+rowBytes])
	}
	readback.Unmap()
	return out, nil
}
