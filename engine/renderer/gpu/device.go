package gpu

import (
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pipeline"
)

// DrawCall is one draw recorded into a render pass. The program's currently staged values are
// captured when the draw is recorded, so a program can be restaged between draws of the same pass.
type DrawCall struct {
	Program *Program
	State   pipeline.Pipeline
	// VertexArray is nil for draws that generate vertices from the vertex index, e.g. fullscreen triangles.
	VertexArray *VertexArray
	// VertexCount is used for non-indexed draws; zero draws every vertex of VertexArray.
	VertexCount int
	// InstanceCount defaults to 1.
	InstanceCount int
	// FirstIndex and IndexCount select a submesh of an indexed array; a zero IndexCount draws every index.
	FirstIndex int
	IndexCount int
}

// Resolve fills defaulted counts from the vertex array.
func (c DrawCall) Resolve() DrawCall {
	c.InstanceCount = max(c.InstanceCount, 1)
	if c.VertexArray == nil {
		return c
	}
	if c.VertexArray.Indexed() {
		if c.IndexCount == 0 {
			c.IndexCount = c.VertexArray.IndexCount() - c.FirstIndex
		}
		return c
	}
	if c.VertexCount == 0 {
		c.VertexCount = c.VertexArray.VertexCount()
	}
	return c
}

// RenderPass records draws into one set of attachments.
type RenderPass interface {
	// SetViewport restricts rasterization to a rectangle of the attachments, in pixels.
	//
	// Parameters:
	//   - x, y: the top-left corner
	//   - width, height: the size
	SetViewport(x, y, width, height float32)

	// Draw records a draw call. Draws whose program has unbound textures are skipped with a warning.
	//
	// Parameters:
	//   - call: the draw to record
	Draw(call DrawCall)

	// End finishes the pass. The pass must not be used afterwards.
	End()
}

// ComputePass records compute dispatches.
type ComputePass interface {
	// Dispatch runs a compute program over x*y*z workgroups with its currently staged values.
	//
	// Parameters:
	//   - program: a compute program
	//   - x, y, z: the workgroup counts
	Dispatch(program *Program, x, y, z uint32)

	// End finishes the pass. The pass must not be used afterwards.
	End()
}

// Device creates GPU resources and records work. It is used from a single goroutine; recorded
// work is queued until Submit.
type Device interface {
	// CreateTexture allocates a texture together with its default view.
	//
	// Parameters:
	//   - desc: the texture description
	//
	// Returns:
	//   - *Texture: the texture
	//   - error: ErrInvalidDescriptor for an invalid description, or an allocation error
	CreateTexture(desc TextureDescriptor) (*Texture, error)

	// CreateTextureView creates a view of a subset of a texture.
	//
	// Parameters:
	//   - tex: the viewed texture
	//   - desc: the subset; zero counts select all remaining mips or layers
	//
	// Returns:
	//   - *TextureView: the view, owned by the caller
	//   - error: ErrInvalidDescriptor when the subset is out of range
	CreateTextureView(tex *Texture, desc TextureViewDescriptor) (*TextureView, error)

	// CreateSampler creates a sampler.
	CreateSampler(desc SamplerDescriptor) (*Sampler, error)

	// CreateFramebuffer allocates an offscreen framebuffer.
	CreateFramebuffer(desc FramebufferDescriptor) (*Framebuffer, error)

	// CreateVertexArray uploads vertex and index data.
	CreateVertexArray(desc VertexArrayDescriptor) (*VertexArray, error)

	// UpdateVertexArray replaces the vertex data of a non-indexed array, growing its buffer when needed.
	//
	// Parameters:
	//   - va: the array to update
	//   - vertices: the packed vertex bytes
	//   - vertexCount: the number of vertices in vertices
	//
	// Returns:
	//   - error: an allocation error
	UpdateVertexArray(va *VertexArray, vertices []byte, vertexCount int) error

	// CreateProgram links shader stages into a program and compiles its native modules.
	//
	// Parameters:
	//   - desc: the stages
	//
	// Returns:
	//   - *Program: the program
	//   - error: a wrapped ErrShaderCompile or ErrInvalidDescriptor
	CreateProgram(desc ProgramDescriptor) (*Program, error)

	// WriteTexture uploads tightly packed texels into a region of a texture.
	WriteTexture(tex *Texture, region TextureRegion, data []byte) error

	// ReadTexture submits pending work, waits for it and returns the tightly packed texels of a region.
	ReadTexture(tex *Texture, region TextureRegion) ([]byte, error)

	// DefaultFramebuffer returns the framebuffer of the window surface (or the offscreen stand-in of
	// a headless device).
	DefaultFramebuffer() *Framebuffer

	// BindFramebuffer marks fb as the current output target.
	BindFramebuffer(fb *Framebuffer)

	// BindDefaultFramebuffer marks the default framebuffer as the current output target.
	BindDefaultFramebuffer()

	// BoundFramebuffer returns the current output target.
	BoundFramebuffer() *Framebuffer

	// BeginRenderPass starts a render pass on the attachments of desc.
	BeginRenderPass(desc RenderPassDescriptor) RenderPass

	// BeginComputePass starts a compute pass.
	BeginComputePass(label string) ComputePass

	// Submit sends all recorded work to the GPU queue.
	Submit()

	// BeginFrame acquires the surface texture of the next frame.
	BeginFrame() error

	// Present submits pending work and presents the surface texture.
	Present()

	// Resize resizes the surface and the default framebuffer.
	Resize(width, height int)

	// Release frees every device-owned object.
	Release()
}
