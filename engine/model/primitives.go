package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// face is one side of a box: its outward normal plus the tangent and bitangent spanning it,
// ordered so tangent x bitangent == normal and quads wind counter-clockwise from outside.
type face struct {
	normal, tangent, bitangent mgl32.Vec3
}

var cubeFaces = [6]face{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// appendQuad appends the four vertices and six indices of a quad centered at center.
func appendQuad(vertices []Vertex, indices []uint32, center mgl32.Vec3, f face, halfU, halfV float32) ([]Vertex, []uint32) {
	base := uint32(len(vertices))
	corners := [4]struct{ u, v float32 }{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, c := range corners {
		p := center.Add(f.tangent.Mul(c.u * halfU)).Add(f.bitangent.Mul(c.v * halfV))
		vertices = append(vertices, Vertex{
			Position: p,
			Normal:   f.normal,
			TexCoord: [2]float32{(c.u + 1) / 2, (1 - c.v) / 2},
			Tangent:  [4]float32{f.tangent[0], f.tangent[1], f.tangent[2], 1},
		})
	}
	indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	return vertices, indices
}

// NewCube creates an axis-aligned cube centered at the origin with 24 vertices, so each face has its
// own normals and UVs.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - *Mesh: the cube
//   - error: ErrInvalidDescriptor when size is not positive
func NewCube(size float32) (*Mesh, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: cube size %v", common.ErrInvalidDescriptor, size)
	}
	h := size / 2
	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range cubeFaces {
		vertices, indices = appendQuad(vertices, indices, f.normal.Mul(h), f, h, h)
	}
	return NewMesh(WithName("Cube"), WithVertices(vertices), WithIndices(indices))
}

// NewPlane creates a square in the XZ plane facing +Y, centered at the origin.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - *Mesh: the plane
//   - error: ErrInvalidDescriptor when size is not positive
func NewPlane(size float32) (*Mesh, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: plane size %v", common.ErrInvalidDescriptor, size)
	}
	vertices, indices := appendQuad(nil, nil, mgl32.Vec3{}, cubeFaces[2], size/2, size/2)
	return NewMesh(WithName("Plane"), WithVertices(vertices), WithIndices(indices))
}

// NewSphere creates a UV sphere centered at the origin.
//
// Parameters:
//   - radius: the sphere radius
//   - rings: the number of latitude bands, at least 2
//   - segments: the number of longitude bands, at least 3
//
// Returns:
//   - *Mesh: the sphere
//   - error: ErrInvalidDescriptor for a non-positive radius or too few bands
func NewSphere(radius float32, rings, segments int) (*Mesh, error) {
	if radius <= 0 || rings < 2 || segments < 3 {
		return nil, fmt.Errorf("%w: sphere radius %v with %d rings and %d segments", common.ErrInvalidDescriptor, radius, rings, segments)
	}

	vertices := make([]Vertex, 0, (rings+1)*(segments+1))
	for i := 0; i <= rings; i++ {
		phi := math32.Pi * float32(i) / float32(rings)
		sinPhi, cosPhi := math32.Sincos(phi)
		for j := 0; j <= segments; j++ {
			theta := 2 * math32.Pi * float32(j) / float32(segments)
			sinTheta, cosTheta := math32.Sincos(theta)
			n := mgl32.Vec3{sinPhi * cosTheta, cosPhi, sinPhi * sinTheta}
			vertices = append(vertices, Vertex{
				Position: n.Mul(radius),
				Normal:   n,
				TexCoord: [2]float32{float32(j) / float32(segments), float32(i) / float32(rings)},
				Tangent:  [4]float32{-sinTheta, 0, cosTheta, 1},
			})
		}
	}

	stride := uint32(segments + 1)
	indices := make([]uint32, 0, rings*segments*6)
	for i := 0; i < rings; i++ {
		for j := 0; j < segments; j++ {
			a := uint32(i)*stride + uint32(j)
			b := a + stride
			if i != 0 {
				indices = append(indices, a, a+1, b)
			}
			if i != rings-1 {
				indices = append(indices, a+1, b+1, b)
			}
		}
	}
	return NewMesh(WithName("Sphere"), WithVertices(vertices), WithIndices(indices))
}
