package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPerspectiveZOMapsNearAndFarToUnitDepth(t *testing.T) {
	proj := PerspectiveZO(mgl32.DegToRad(60), 16.0/9.0, 0.5, 50)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -0.5, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -50, 1})

	assert.InDelta(t, 0.0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1.0, far.Z()/far.W(), 1e-5)
}

func TestOrthoZOMapsBoxToClipVolume(t *testing.T) {
	proj := OrthoZO(-2, 4, -1, 3, 1, 11)

	minCorner := proj.Mul4x1(mgl32.Vec4{-2, -1, -1, 1})
	maxCorner := proj.Mul4x1(mgl32.Vec4{4, 3, -11, 1})

	assert.InDelta(t, -1.0, minCorner.X(), 1e-5)
	assert.InDelta(t, -1.0, minCorner.Y(), 1e-5)
	assert.InDelta(t, 0.0, minCorner.Z(), 1e-5)
	assert.InDelta(t, 1.0, maxCorner.X(), 1e-5)
	assert.InDelta(t, 1.0, maxCorner.Y(), 1e-5)
	assert.InDelta(t, 1.0, maxCorner.Z(), 1e-5)
}

func TestNormalMatrixUndoesNonUniformScale(t *testing.T) {
	model := BuildModelMatrix(mgl32.Vec3{3, 0, 0}, mgl32.Vec3{}, mgl32.Vec3{2, 1, 1})
	n := NormalMatrix(model).Mul4x1(mgl32.Vec4{1, 1, 0, 0}).Vec3()

	assert.InDelta(t, 0.5, n.X(), 1e-5)
	assert.InDelta(t, 1.0, n.Y(), 1e-5)
}

func TestAlignHelpers(t *testing.T) {
	assert.Equal(t, uint64(256), AlignUp(1, 256))
	assert.Equal(t, uint64(512), AlignUp(257, 256))
	assert.Equal(t, uint64(256), AlignUp(256, 256))
	assert.Equal(t, uint32(3), CeilDiv(9, 4))
	assert.Equal(t, uint32(2), CeilDiv(8, 4))
}

func TestFloat32ToFloat16(t *testing.T) {
	cases := map[float32]uint16{
		0:       0x0000,
		1:       0x3c00,
		-2:      0xc000,
		0.5:     0x3800,
		65504:   0x7bff,
		1e9:     0x7c00,
		0.00001: 0x00a8,
	}
	for in, want := range cases {
		assert.Equal(t, want, Float32ToFloat16(in), "input %v", in)
	}
}
