package gpu

import (
	"github.com/google/uuid"
)

// VertexArrayDescriptor describes vertex data to upload. Indices are optional.
type VertexArrayDescriptor struct {
	Label        string
	Vertices     []byte
	VertexStride uint64
	VertexCount  int
	Indices      []uint32
	// Capacity reserves room for this many vertex bytes so later updates can grow in place.
	Capacity uint64
}

// VertexArray owns a vertex buffer and an optional uint32 index buffer.
type VertexArray struct {
	id           uuid.UUID
	label        string
	stride       uint64
	vertexCount  int
	indexCount   int
	capacity     uint64
	vertexHandle any
	indexHandle  any
	release      func()
	released     bool
}

// NewVertexArray creates an empty vertex array; a backend attaches its buffers with Attach.
func NewVertexArray(label string, stride uint64) *VertexArray {
	return &VertexArray{
		id:     uuid.New(),
		label:  label,
		stride: stride,
	}
}

// Attach installs native buffers, replacing and releasing any previous ones.
//
// Parameters:
//   - vertex: the native vertex buffer
//   - index: the native index buffer, or nil
//   - capacity: the vertex buffer size in bytes
//   - release: frees both buffers
func (v *VertexArray) Attach(vertex, index any, capacity uint64, release func()) {
	if v.release != nil {
		v.release()
	}
	v.vertexHandle = vertex
	v.indexHandle = index
	v.capacity = capacity
	v.release = release
	v.released = false
}

// SetCounts records how many vertices and indices the buffers hold.
func (v *VertexArray) SetCounts(vertexCount, indexCount int) {
	v.vertexCount = vertexCount
	v.indexCount = indexCount
}

func (v *VertexArray) ID() uuid.UUID { return v.id }
func (v *VertexArray) Label() string { return v.label }
func (v *VertexArray) Stride() uint64 { return v.stride }
func (v *VertexArray) VertexCount() int { return v.vertexCount }
func (v *VertexArray) IndexCount() int { return v.indexCount }
func (v *VertexArray) Capacity() uint64 { return v.capacity }
func (v *VertexArray) VertexHandle() any { return v.vertexHandle }
func (v *VertexArray) IndexHandle() any { return v.indexHandle }

// Indexed reports whether the array draws through an index buffer.
func (v *VertexArray) Indexed() bool {
	return v.indexHandle != nil && v.indexCount > 0
}

// Release frees the buffers. Releasing twice is a no-op.
func (v *VertexArray) Release() {
	if v == nil || v.released {
		return
	}
	v.released = true
	if v.release != nil {
		v.release()
		v.release = nil
	}
}
