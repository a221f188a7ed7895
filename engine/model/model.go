package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/chewxy/math32"
	"github.com/google/uuid"
)

// SubMesh is a contiguous index range of a mesh drawn with one material.
type SubMesh struct {
	Name       string
	FirstIndex int
	IndexCount int
}

// Mesh holds indexed triangle geometry on the CPU and, once uploaded, on the GPU.
// A Mesh is created by NewMesh or one of the primitive generators and uploaded once with Upload.
type Mesh struct {
	id          uuid.UUID
	name        string
	vertices    []Vertex
	indices     []uint32
	subMeshes   []SubMesh
	boundsMin   [3]float32
	boundsMax   [3]float32
	radius      float32
	vertexArray *gpu.VertexArray
}

// NewMesh creates a new Mesh with the specified options applied.
// Without WithSubMeshes the mesh has one submesh covering every index.
//
// Parameters:
//   - options: a variadic list of MeshBuilderOption functions to configure the Mesh
//
// Returns:
//   - *Mesh: the mesh
//   - error: ErrInvalidDescriptor when an index or submesh is out of range
func NewMesh(options ...MeshBuilderOption) (*Mesh, error) {
	m := &Mesh{id: uuid.New()}
	for _, opt := range options {
		opt(m)
	}

	for _, idx := range m.indices {
		if int(idx) >= len(m.vertices) {
			return nil, fmt.Errorf("%w: mesh %q index %d out of %d vertices", common.ErrInvalidDescriptor, m.name, idx, len(m.vertices))
		}
	}
	if len(m.subMeshes) == 0 && len(m.indices) > 0 {
		m.subMeshes = []SubMesh{{Name: m.name, IndexCount: len(m.indices)}}
	}
	for _, s := range m.subMeshes {
		if s.FirstIndex < 0 || s.IndexCount <= 0 || s.FirstIndex+s.IndexCount > len(m.indices) {
			return nil, fmt.Errorf("%w: submesh %q of %q selects indices %d+%d of %d", common.ErrInvalidDescriptor,
				s.Name, m.name, s.FirstIndex, s.IndexCount, len(m.indices))
		}
	}
	m.computeBounds()
	return m, nil
}

func (m *Mesh) computeBounds() {
	if len(m.vertices) == 0 {
		return
	}
	m.boundsMin = m.vertices[0].Position
	m.boundsMax = m.vertices[0].Position
	var maxDistSq float32
	for _, v := range m.vertices {
		p := v.Position
		for i := 0; i < 3; i++ {
			m.boundsMin[i] = min(m.boundsMin[i], p[i])
			m.boundsMax[i] = max(m.boundsMax[i], p[i])
		}
		maxDistSq = max(maxDistSq, p[0]*p[0]+p[1]*p[1]+p[2]*p[2])
	}
	m.radius = math32.Sqrt(maxDistSq)
}

func (m *Mesh) ID() uuid.UUID { return m.id }
func (m *Mesh) Name() string { return m.name }

// Vertices returns the CPU-side vertices. The slice must not be modified.
func (m *Mesh) Vertices() []Vertex { return m.vertices }

// Indices returns the CPU-side triangle indices. The slice must not be modified.
func (m *Mesh) Indices() []uint32 { return m.indices }

// SubMeshes returns the index ranges of the mesh.
func (m *Mesh) SubMeshes() []SubMesh { return m.subMeshes }

// Bounds returns the axis-aligned bounding box in model space.
func (m *Mesh) Bounds() (lo, hi [3]float32) { return m.boundsMin, m.boundsMax }

// BoundingRadius returns the largest vertex distance from the model origin.
func (m *Mesh) BoundingRadius() float32 { return m.radius }

// VertexArray returns the uploaded GPU geometry, or nil before Upload.
func (m *Mesh) VertexArray() *gpu.VertexArray { return m.vertexArray }

// Uploaded reports whether the mesh has live GPU geometry.
func (m *Mesh) Uploaded() bool { return m.vertexArray != nil }

// Upload creates the GPU vertex and index buffers. Uploading an already uploaded mesh is a no-op.
//
// Parameters:
//   - device: the device that owns the buffers
//
// Returns:
//   - error: an allocation error
func (m *Mesh) Upload(device gpu.Device) error {
	if m.vertexArray != nil {
		return nil
	}
	if len(m.vertices) == 0 {
		return fmt.Errorf("%w: mesh %q has no vertices", common.ErrInvalidDescriptor, m.name)
	}
	va, err := device.CreateVertexArray(gpu.VertexArrayDescriptor{
		Label:        m.name,
		Vertices:     MarshalVertices(m.vertices),
		VertexStride: VertexSize,
		VertexCount:  len(m.vertices),
		Indices:      m.indices,
	})
	if err != nil {
		return fmt.Errorf("failed to upload mesh %q: %w", m.name, err)
	}
	m.vertexArray = va
	common.LogDebug("mesh uploaded", "mesh", m.name, "vertices", len(m.vertices), "indices", len(m.indices))
	return nil
}

// Release frees the GPU geometry. The CPU data is kept so the mesh can be uploaded again.
func (m *Mesh) Release() {
	if m.vertexArray == nil {
		return
	}
	m.vertexArray.Release()
	m.vertexArray = nil
}
