package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/shader"
)

// VertexIncludeName is the name under which the vertex input struct is included into WGSL:
//
//	//@oxy:include vertex
const VertexIncludeName = "vertex"

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for mesh pipelines.
// Matches Vertex layout exactly (48 bytes, tightly packed).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// VertexSize is the size in bytes of one packed Vertex.
const VertexSize = 48

// Vertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
type Vertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Tangent  [4]float32 // offset 32: tangent vector (xyz) + handedness (w) for normal mapping (16 bytes)
}

// Size returns the size of the Vertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *Vertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the Vertex into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, VertexSize)
	v.put(buf)
	return buf
}

func (v *Vertex) put(buf []byte) {
	fields := [12]float32{
		v.Position[0], v.Position[1], v.Position[2],
		v.Normal[0], v.Normal[1], v.Normal[2],
		v.TexCoord[0], v.TexCoord[1],
		v.Tangent[0], v.Tangent[1], v.Tangent[2], v.Tangent[3],
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(f))
	}
}

// MarshalVertices packs vertices back to back.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices)*VertexSize bytes
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexSize)
	for i := range vertices {
		vertices[i].put(buf[i*VertexSize:])
	}
	return buf
}

// RegisterIncludes makes the vertex input struct available to shaders processed by pp.
func RegisterIncludes(pp shader.PreProcessor) {
	pp.Register(VertexIncludeName, GPUVertexSource)
}
