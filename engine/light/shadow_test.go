package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCascadeSplitsContiguous(t *testing.T) {
	cases := []struct {
		near, far float32
		count     int
	}{
		{0.1, 600, 4},
		{0.1, 600, 1},
		{0.5, 50, 3},
		{1, 1000, 8},
	}
	for _, c := range cases {
		splits, err := ComputeCascadeSplits(c.near, c.far, c.count, DefaultSplitLambda)
		require.NoError(t, err)
		require.Len(t, splits, c.count)

		assert.Equal(t, c.near, splits[0].Near)
		assert.Equal(t, c.far, splits[c.count-1].Far)
		for i := 0; i < c.count-1; i++ {
			assert.InEpsilon(t, splits[i+1].Near*CascadeOverlap, splits[i].Far, 1e-6)
			assert.Greater(t, splits[i+1].Near, splits[i].Near)
		}
	}
}

func TestComputeCascadeSplitsExample(t *testing.T) {
	splits, err := ComputeCascadeSplits(0.1, 600, 4, 0.75)
	require.NoError(t, err)

	// lambda-weighted blend of 0.1*6000^0.25 and 0.1+599.9*0.25 for the first boundary
	assert.InDelta(t, 0.75*0.1*8.8011+0.25*150.075, splits[1].Near, 0.01)
	assert.Equal(t, float32(0.1), splits[0].Near)
	assert.Equal(t, float32(600), splits[3].Far)
}

func TestComputeCascadeSplitsRejectsZero(t *testing.T) {
	_, err := ComputeCascadeSplits(0.1, 600, 0, DefaultSplitLambda)
	assert.ErrorIs(t, err, common.ErrZeroCascades)
}

func TestLightSpaceMatrixFitsCascade(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{3, 4, 10}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	fov := mgl32.DegToRad(45)
	aspect := float32(1280) / 1024

	splits, err := ComputeCascadeSplits(0.1, 600, 4, DefaultSplitLambda)
	require.NoError(t, err)

	for _, dir := range []mgl32.Vec3{
		{0, -1, 0},
		mgl32.Vec3{-1, -2, -0.5}.Normalize(),
		mgl32.Vec3{1, -0.2, 0}.Normalize(),
	} {
		for _, split := range splits {
			m := ComputeLightSpaceMatrix(split, view, fov, aspect, dir, DefaultZMultiplier)
			for _, corner := range FrustumCornersWorld(common.PerspectiveZO(fov, aspect, split.Near, split.Far), view) {
				p := m.Mul4x1(corner)
				p = p.Mul(1 / p.W())
				assert.InDelta(t, 0, p.X(), 1+1e-3)
				assert.InDelta(t, 0, p.Y(), 1+1e-3)
				assert.GreaterOrEqual(t, p.Z(), float32(-1e-4))
				assert.LessOrEqual(t, p.Z(), float32(1+1e-4))
			}
		}
	}
}

func TestLightUpAvoidsParallelDirection(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, lightUp(mgl32.Vec3{0, -1, 0}))
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, lightUp(mgl32.Vec3{0, 1, 0}))
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, lightUp(mgl32.Vec3{1, 0, 0}))
}

func TestFrustumCornersWorld(t *testing.T) {
	proj := common.PerspectiveZO(mgl32.DegToRad(90), 1, 1, 10)
	corners := FrustumCornersWorld(proj, mgl32.Ident4())

	// near face at z = -1 with half extent 1, far face at z = -10 with half extent 10
	assert.InDelta(t, -1, corners[0].Z(), 1e-4)
	assert.InDelta(t, -1, corners[0].X(), 1e-4)
	assert.InDelta(t, -10, corners[7].Z(), 1e-3)
	assert.InDelta(t, 10, corners[7].X(), 1e-3)
	assert.InDelta(t, 1, corners[7].W(), 1e-6)
}

func TestComputeCascadeMatricesMatchesSequential(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 2, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	splits, err := ComputeCascadeSplits(0.1, 100, 4, DefaultSplitLambda)
	require.NoError(t, err)
	dir := mgl32.Vec3{0.3, -1, 0.2}.Normalize()

	calls := 0
	counting := func(n int, fn func(i int)) {
		for i := n - 1; i >= 0; i-- {
			calls++
			fn(i)
		}
	}
	got := ComputeCascadeMatrices(splits, view, 1, 1.5, dir, DefaultZMultiplier, counting)
	want := ComputeCascadeMatrices(splits, view, 1, 1.5, dir, DefaultZMultiplier, nil)
	assert.Equal(t, 4, calls)
	assert.Equal(t, want, got)
}

func TestPointShadowMatricesProjectFaceCenters(t *testing.T) {
	pos := mgl32.Vec3{1, 2, 3}
	matrices := PointShadowMatrices(pos, 20)
	for i, face := range CubeFaces {
		p := matrices[i].Mul4x1(pos.Add(face.Dir.Mul(5)).Vec4(1))
		p = p.Mul(1 / p.W())
		assert.InDelta(t, 0, p.X(), 1e-4, "face %d", i)
		assert.InDelta(t, 0, p.Y(), 1e-4, "face %d", i)
		assert.Greater(t, p.Z(), float32(0))
		assert.Less(t, p.Z(), float32(1))
	}
}

func TestLightConstructors(t *testing.T) {
	p := NewPointLight(WithPosition(mgl32.Vec3{1, 2, 3}), WithRadius(25, 2), WithPointShadow(true))
	assert.Equal(t, float32(25), p.Radius)
	assert.True(t, p.CastShadow)
	assert.Equal(t, float32(1), p.Multiplier)

	d := NewDirectionalLight(WithDirection(mgl32.Vec3{0, -10, 0}), WithDirectionalShadow(false))
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, d.Direction)
	assert.False(t, d.CastShadow)
	assert.True(t, d.Enabled)

	d.SetDirection(mgl32.Vec3{})
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, d.Direction)
}
