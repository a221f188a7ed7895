package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultCascades is the number of directional shadow cascades.
	DefaultCascades = 4

	// DefaultSplitLambda blends logarithmic (1) and linear (0) cascade distribution.
	DefaultSplitLambda float32 = 0.75

	// DefaultZMultiplier stretches the light-space depth range of each cascade so casters outside
	// the camera frustum still land in the map. The right value depends on the scene.
	DefaultZMultiplier float32 = 10

	// CascadeOverlap widens every cascade's far plane so neighbouring cascades overlap by 0.5%.
	CascadeOverlap float32 = 1.005

	// PointShadowNear is the near plane of point light cube shadow projections.
	PointShadowNear float32 = 0.1
)

// CascadeSplit is the view-space depth range covered by one shadow cascade.
type CascadeSplit struct {
	Near float32
	Far  float32
}

// ComputeCascadeSplits divides [near, far] into count contiguous ranges using the practical split
// scheme, a blend of logarithmic and uniform distribution.
//
// Parameters:
//   - near, far: the camera's clip planes
//   - count: the number of cascades
//   - lambda: 1 for a purely logarithmic distribution, 0 for a uniform one
//
// Returns:
//   - []CascadeSplit: count splits, the first starting at near and the last ending at far
//   - error: ErrZeroCascades when count is not positive
func ComputeCascadeSplits(near, far float32, count int, lambda float32) ([]CascadeSplit, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: got %d", common.ErrZeroCascades, count)
	}

	splits := make([]CascadeSplit, count)
	splits[0].Near = near
	ratio := far / near
	for i := 1; i < count; i++ {
		si := float32(i) / float32(count)
		d := lambda*(near*math32.Pow(ratio, si)) + (1-lambda)*(near+(far-near)*si)
		splits[i-1].Far = d * CascadeOverlap
		splits[i].Near = d
	}
	splits[count-1].Far = far
	return splits, nil
}

// FrustumCornersWorld unprojects the eight NDC corners of a view volume into world space.
// WebGPU clip depth is [0, 1], so the near corners use z = 0.
//
// Parameters:
//   - proj: the projection matrix of the volume
//   - view: the view matrix
//
// Returns:
//   - [8]mgl32.Vec4: the corners with w = 1, near face first
func FrustumCornersWorld(proj, view mgl32.Mat4) [8]mgl32.Vec4 {
	inv := proj.Mul4(view).Inv()
	var corners [8]mgl32.Vec4
	i := 0
	for _, z := range [2]float32{0, 1} {
		for _, y := range [2]float32{-1, 1} {
			for _, x := range [2]float32{-1, 1} {
				p := inv.Mul4x1(mgl32.Vec4{x, y, z, 1})
				corners[i] = p.Mul(1 / p.W())
				i++
			}
		}
	}
	return corners
}

// lightUp returns the up vector for a light view, avoiding one parallel to the light direction.
func lightUp(dir mgl32.Vec3) mgl32.Vec3 {
	up := mgl32.Vec3{0, 1, 0}
	if math32.Abs(math32.Abs(up.Dot(dir))-1) < 1e-4 {
		return mgl32.Vec3{0, 0, 1}
	}
	return up
}

// ComputeLightSpaceMatrix fits an orthographic light projection around one cascade of the camera
// frustum.
//
// Parameters:
//   - split: the cascade's depth range
//   - view: the camera view matrix
//   - fovY: the camera's vertical field of view in radians
//   - aspect: the camera's aspect ratio
//   - dir: the normalized light direction
//   - zMultiplier: how far the depth range is stretched beyond the cascade bounds
//
// Returns:
//   - mgl32.Mat4: the light view-projection mapping the cascade into [-1,1]x[-1,1]x[0,1]
func ComputeLightSpaceMatrix(split CascadeSplit, view mgl32.Mat4, fovY, aspect float32, dir mgl32.Vec3, zMultiplier float32) mgl32.Mat4 {
	corners := FrustumCornersWorld(common.PerspectiveZO(fovY, aspect, split.Near, split.Far), view)

	var center mgl32.Vec3
	for _, c := range corners {
		center = center.Add(c.Vec3())
	}
	center = center.Mul(1.0 / float32(len(corners)))

	eye := center.Sub(dir)
	lightView := mgl32.LookAtV(eye, center, lightUp(dir))

	minX, minY, minZ := float32(math32.MaxFloat32), float32(math32.MaxFloat32), float32(math32.MaxFloat32)
	maxX, maxY, maxZ := -float32(math32.MaxFloat32), -float32(math32.MaxFloat32), -float32(math32.MaxFloat32)
	for _, c := range corners {
		p := lightView.Mul4x1(c)
		minX, maxX = min(minX, p.X()), max(maxX, p.X())
		minY, maxY = min(minY, p.Y()), max(maxY, p.Y())
		minZ, maxZ = min(minZ, p.Z()), max(maxZ, p.Z())
	}

	if minZ < 0 {
		minZ *= zMultiplier
	} else {
		minZ /= zMultiplier
	}
	if maxZ < 0 {
		maxZ /= zMultiplier
	} else {
		maxZ *= zMultiplier
	}

	// The light looks down -Z, so the nearest point has the largest z.
	proj := common.OrthoZO(minX, maxX, minY, maxY, -maxZ, -minZ)
	return proj.Mul4(lightView)
}

// Parallel runs fn for every index in [0, n) and returns once all calls have finished.
type Parallel func(n int, fn func(i int))

// Sequential is the Parallel that runs every call on the calling goroutine.
func Sequential(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		fn(i)
	}
}

// ComputeCascadeMatrices computes the light-space matrix of every cascade.
//
// Parameters:
//   - splits: the cascade depth ranges
//   - view: the camera view matrix
//   - fovY, aspect: the camera projection parameters
//   - dir: the normalized light direction
//   - zMultiplier: the depth range stretch
//   - parallel: spreads the per-cascade work; nil runs sequentially
//
// Returns:
//   - []mgl32.Mat4: one matrix per split, index-aligned with splits
func ComputeCascadeMatrices(splits []CascadeSplit, view mgl32.Mat4, fovY, aspect float32, dir mgl32.Vec3, zMultiplier float32, parallel Parallel) []mgl32.Mat4 {
	if parallel == nil {
		parallel = Sequential
	}
	out := make([]mgl32.Mat4, len(splits))
	parallel(len(splits), func(i int) {
		out[i] = ComputeLightSpaceMatrix(splits[i], view, fovY, aspect, dir, zMultiplier)
	})
	return out
}

// CubeFace is the look direction and up vector of one cube map face.
type CubeFace struct {
	Dir, Up mgl32.Vec3
}

// CubeFaces lists the faces in cube layer order: +X, -X, +Y, -Y, +Z, -Z.
var CubeFaces = [6]CubeFace{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}},
}

// CubeFaceViews returns the view matrices that look out of position through each cube face.
//
// Parameters:
//   - position: the cube center
//
// Returns:
//   - [6]mgl32.Mat4: one view matrix per face in layer order
func CubeFaceViews(position mgl32.Vec3) [6]mgl32.Mat4 {
	var views [6]mgl32.Mat4
	for i, f := range CubeFaces {
		views[i] = mgl32.LookAtV(position, position.Add(f.Dir), f.Up)
	}
	return views
}

// CubeFaceProjection is the 90 degree square projection used for every cube face, with Y mirrored so
// faces rendered into WebGPU framebuffers match cube sampling.
//
// Parameters:
//   - near, far: the clip planes
//
// Returns:
//   - mgl32.Mat4: the projection
func CubeFaceProjection(near, far float32) mgl32.Mat4 {
	return common.FlipY().Mul4(common.PerspectiveZO(mgl32.DegToRad(90), 1, near, far))
}

// PointShadowMatrices returns the six view-projection matrices of a point light's cube shadow map.
//
// Parameters:
//   - position: the light position
//   - radius: the light radius, used as the far plane
//
// Returns:
//   - [6]mgl32.Mat4: one matrix per cube face in layer order
func PointShadowMatrices(position mgl32.Vec3, radius float32) [6]mgl32.Mat4 {
	proj := CubeFaceProjection(PointShadowNear, radius)
	views := CubeFaceViews(position)
	var out [6]mgl32.Mat4
	for i, v := range views {
		out[i] = proj.Mul4(v)
	}
	return out
}
