// Package gputest provides a recording gpu.Device for tests that cannot open a GPU adapter.
package gputest

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// Draw is one recorded draw call with the program values at the time it was recorded.
type Draw struct {
	Program       *gpu.Program
	Values        gpu.ProgramSnapshot
	State         pipeline.Pipeline
	VertexArray   *gpu.VertexArray
	VertexCount   int
	InstanceCount int
	FirstIndex    int
	IndexCount    int
	Viewport      [4]float32
}

// Dispatch is one recorded compute dispatch.
type Dispatch struct {
	Program *gpu.Program
	Values  gpu.ProgramSnapshot
	X, Y, Z uint32
}

// Pass is one recorded render or compute pass.
type Pass struct {
	Label      string
	Compute    bool
	Descriptor gpu.RenderPassDescriptor
	Draws      []Draw
	Dispatches []Dispatch
	// Skipped counts draws and dispatches dropped because a texture was unbound.
	Skipped int
	Ended   bool

	viewport [4]float32
}

// Write is one recorded texture upload.
type Write struct {
	Texture *gpu.Texture
	Region  gpu.TextureRegion
	Size    int
}

type texelKey struct {
	texture    uuid.UUID
	mip, layer int
}

// Device records everything a renderer asks of it. Its default framebuffer is an offscreen
// BGRA8 color target of the requested size.
type Device struct {
	Passes   []*Pass
	Programs []*gpu.Program
	Textures []*gpu.Texture
	Writes   []Write
	Submits  int
	Frames   int
	Presents int
	// ProgramErr, when set, is returned by CreateProgram.
	ProgramErr error

	defaultFB *gpu.Framebuffer
	bound     *gpu.Framebuffer
	texels    map[texelKey][]byte
	released  bool
}

var _ gpu.Device = &Device{}

// NewDevice creates a recording device with a default framebuffer of width x height.
func NewDevice(width, height int) *Device {
	d := &Device{texels: make(map[texelKey][]byte)}
	fb, err := gpu.NewFramebuffer(d, gpu.FramebufferDescriptor{
		Label:        "Default",
		Width:        width,
		Height:       height,
		ColorFormats: []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm},
	})
	if err != nil {
		panic(err)
	}
	d.defaultFB = fb
	d.bound = fb
	return d
}

// Reset forgets recorded passes, writes and counters but keeps created resources.
func (d *Device) Reset() {
	d.Passes = nil
	d.Writes = nil
	d.Submits = 0
	d.Frames = 0
	d.Presents = 0
}

// PassLabels returns the label of every recorded pass in recording order.
func (d *Device) PassLabels() []string {
	labels := make([]string, 0, len(d.Passes))
	for _, p := range d.Passes {
		labels = append(labels, p.Label)
	}
	return labels
}

// PassesLabeled returns the recorded passes with the given label.
func (d *Device) PassesLabeled(label string) []*Pass {
	var out []*Pass
	for _, p := range d.Passes {
		if p.Label == label {
			out = append(out, p)
		}
	}
	return out
}

// DrawsOf returns every draw recorded with the program labeled label, across all passes.
func (d *Device) DrawsOf(label string) []Draw {
	var out []Draw
	for _, p := range d.Passes {
		for _, dr := range p.Draws {
			if dr.Program.Label() == label {
				out = append(out, dr)
			}
		}
	}
	return out
}

// Released reports whether Release was called.
func (d *Device) Released() bool { return d.released }

func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (*gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.Format == wgpu.TextureFormatUndefined {
		return nil, fmt.Errorf("%w: texture %q", common.ErrInvalidDescriptor, desc.Label)
	}
	switch desc.Kind {
	case gpu.TextureKindCube:
		if desc.Width != desc.Height {
			return nil, fmt.Errorf("%w: cube texture %q is not square", common.ErrInvalidDescriptor, desc.Label)
		}
		desc.Layers = 6
	case gpu.TextureKind2DArray:
		desc.Layers = max(desc.Layers, 1)
	default:
		desc.Layers = 1
	}
	desc.MipLevels = max(desc.MipLevels, 1)
	desc.SampleCount = max(desc.SampleCount, 1)
	if desc.SampleCount > 1 && (desc.Kind != gpu.TextureKind2D || desc.MipLevels > 1) {
		return nil, fmt.Errorf("%w: multisampled texture %q", common.ErrInvalidDescriptor, desc.Label)
	}
	if desc.MipLevels > gpu.MipLevelCount(desc.Width, desc.Height) {
		return nil, fmt.Errorf("%w: texture %q has too many mips", common.ErrInvalidDescriptor, desc.Label)
	}

	tex := gpu.NewTexture(desc, nil, nil)
	view, err := d.CreateTextureView(tex, gpu.TextureViewDescriptor{})
	if err != nil {
		return nil, err
	}
	tex.SetView(view)
	d.Textures = append(d.Textures, tex)
	return tex, nil
}

func (d *Device) CreateTextureView(tex *gpu.Texture, desc gpu.TextureViewDescriptor) (*gpu.TextureView, error) {
	desc = tex.ViewDescriptor(desc)
	if desc.BaseMipLevel < 0 || desc.MipLevelCount <= 0 || desc.BaseMipLevel+desc.MipLevelCount > tex.MipLevels() ||
		desc.BaseArrayLayer < 0 || desc.ArrayLayerCount <= 0 || desc.BaseArrayLayer+desc.ArrayLayerCount > tex.Layers() {
		return nil, fmt.Errorf("%w: view %q out of range", common.ErrInvalidDescriptor, desc.Label)
	}
	return gpu.NewTextureView(tex, desc, nil, nil), nil
}

func (d *Device) CreateSampler(desc gpu.SamplerDescriptor) (*gpu.Sampler, error) {
	return gpu.NewSampler(desc, nil, nil), nil
}

func (d *Device) CreateFramebuffer(desc gpu.FramebufferDescriptor) (*gpu.Framebuffer, error) {
	return gpu.NewFramebuffer(d, desc)
}

func (d *Device) CreateVertexArray(desc gpu.VertexArrayDescriptor) (*gpu.VertexArray, error) {
	if desc.VertexStride == 0 {
		return nil, fmt.Errorf("%w: vertex array %q has no stride", common.ErrInvalidDescriptor, desc.Label)
	}
	va := gpu.NewVertexArray(desc.Label, desc.VertexStride)
	capacity := max(desc.Capacity, uint64(len(desc.Vertices)))
	if len(desc.Indices) > 0 {
		va.Attach(desc.Vertices, desc.Indices, capacity, nil)
	} else {
		va.Attach(desc.Vertices, nil, capacity, nil)
	}
	va.SetCounts(desc.VertexCount, len(desc.Indices))
	return va, nil
}

func (d *Device) UpdateVertexArray(va *gpu.VertexArray, vertices []byte, vertexCount int) error {
	va.Attach(vertices, nil, max(va.Capacity(), uint64(len(vertices))), nil)
	va.SetCounts(vertexCount, 0)
	return nil
}

func (d *Device) CreateProgram(desc gpu.ProgramDescriptor) (*gpu.Program, error) {
	if d.ProgramErr != nil {
		return nil, d.ProgramErr
	}
	p, err := gpu.NewProgram(desc)
	if err != nil {
		return nil, err
	}
	p.Attach(struct{}{}, nil)
	d.Programs = append(d.Programs, p)
	return p, nil
}

func (d *Device) regionSize(tex *gpu.Texture, region gpu.TextureRegion) (int, int, error) {
	if region.MipLevel < 0 || region.MipLevel >= tex.MipLevels() || region.Layer < 0 || region.Layer >= tex.Layers() {
		return 0, 0, fmt.Errorf("%w: region outside %q", common.ErrInvalidDescriptor, tex.Label())
	}
	w, h := tex.MipSize(region.MipLevel)
	return common.Coalesce(region.Width, w-region.X), common.Coalesce(region.Height, h-region.Y), nil
}

func (d *Device) WriteTexture(tex *gpu.Texture, region gpu.TextureRegion, data []byte) error {
	if _, _, err := d.regionSize(tex, region); err != nil {
		return err
	}
	d.Writes = append(d.Writes, Write{Texture: tex, Region: region, Size: len(data)})
	d.texels[texelKey{tex.ID(), region.MipLevel, region.Layer}] = append([]byte(nil), data...)
	return nil
}

// ReadTexture returns the bytes last written to the region's mip and layer, or zeros.
func (d *Device) ReadTexture(tex *gpu.Texture, region gpu.TextureRegion) ([]byte, error) {
	w, h, err := d.regionSize(tex, region)
	if err != nil {
		return nil, err
	}
	texel, err := gpu.TexelSize(tex.Format())
	if err != nil {
		return nil, err
	}
	out := make([]byte, w*h*texel)
	copy(out, d.texels[texelKey{tex.ID(), region.MipLevel, region.Layer}])
	return out, nil
}

func (d *Device) DefaultFramebuffer() *gpu.Framebuffer { return d.defaultFB }

func (d *Device) BindFramebuffer(fb *gpu.Framebuffer) {
	if fb == nil {
		fb = d.defaultFB
	}
	d.bound = fb
}

func (d *Device) BindDefaultFramebuffer() { d.bound = d.defaultFB }

func (d *Device) BoundFramebuffer() *gpu.Framebuffer { return d.bound }

func (d *Device) BeginRenderPass(desc gpu.RenderPassDescriptor) gpu.RenderPass {
	w, h := desc.Size()
	p := &Pass{Label: desc.Label, Descriptor: desc, viewport: [4]float32{0, 0, float32(w), float32(h)}}
	d.Passes = append(d.Passes, p)
	return p
}

func (d *Device) BeginComputePass(label string) gpu.ComputePass {
	p := &Pass{Label: label, Compute: true}
	d.Passes = append(d.Passes, p)
	return p
}

func (d *Device) Submit() { d.Submits++ }

func (d *Device) BeginFrame() error {
	d.Frames++
	return nil
}

func (d *Device) Present() {
	d.Submit()
	d.Presents++
}

func (d *Device) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if _, err := d.defaultFB.Resize(width, height); err != nil {
		panic(err)
	}
}

func (d *Device) Release() {
	d.defaultFB.Release()
	d.released = true
}

func (p *Pass) SetViewport(x, y, width, height float32) {
	p.viewport = [4]float32{x, y, width, height}
}

func (p *Pass) Draw(call gpu.DrawCall) {
	call = call.Resolve()
	if call.Program == nil || call.State == nil {
		return
	}
	if len(call.Program.MissingResources()) > 0 {
		p.Skipped++
		return
	}
	p.Draws = append(p.Draws, Draw{
		Program:       call.Program,
		Values:        call.Program.Snapshot(),
		State:         call.State,
		VertexArray:   call.VertexArray,
		VertexCount:   call.VertexCount,
		InstanceCount: call.InstanceCount,
		FirstIndex:    call.FirstIndex,
		IndexCount:    call.IndexCount,
		Viewport:      p.viewport,
	})
}

func (p *Pass) Dispatch(program *gpu.Program, x, y, z uint32) {
	if program == nil || x == 0 || y == 0 || z == 0 {
		return
	}
	if len(program.MissingResources()) > 0 {
		p.Skipped++
		return
	}
	p.Dispatches = append(p.Dispatches, Dispatch{Program: program, Values: program.Snapshot(), X: x, Y: y, Z: z})
}

func (p *Pass) End() { p.Ended = true }
