package model

// MeshBuilderOption is a function that configures a Mesh during construction.
type MeshBuilderOption func(*Mesh)

// WithName sets the mesh name, used for GPU object labels and logs.
func WithName(name string) MeshBuilderOption {
	return func(m *Mesh) {
		m.name = name
	}
}

// WithVertices sets the mesh vertices.
//
// Parameters:
//   - vertices: the vertices; the slice is retained, not copied
//
// Returns:
//   - MeshBuilderOption: the option
func WithVertices(vertices []Vertex) MeshBuilderOption {
	return func(m *Mesh) {
		m.vertices = vertices
	}
}

// WithIndices sets the triangle list indices.
func WithIndices(indices []uint32) MeshBuilderOption {
	return func(m *Mesh) {
		m.indices = indices
	}
}

// WithSubMeshes splits the index list into ranges drawn with separate materials.
//
// Parameters:
//   - subMeshes: the ranges, each inside the index list
//
// Returns:
//   - MeshBuilderOption: the option
func WithSubMeshes(subMeshes ...SubMesh) MeshBuilderOption {
	return func(m *Mesh) {
		m.subMeshes = append(m.subMeshes, subMeshes...)
	}
}
