package frame

import (
	"math"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultFOV is the vertical field of view, in radians, of a view whose projection was set without
// SetPerspective or SetFOV. Cascade fitting needs a non-zero value.
const DefaultFOV = math.Pi / 4

// Viewport is a pixel rectangle of a render target.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// ViewRenderInfo describes one camera view of a frame. A nil framebuffer renders to the default
// framebuffer.
type ViewRenderInfo struct {
	view        mgl32.Mat4
	projection  mgl32.Mat4
	position    mgl32.Vec3
	near, far   float32
	fovY        float32
	aspect      float32
	viewport    Viewport
	framebuffer *gpu.Framebuffer
}

// NewViewRenderInfo creates a view with identity matrices and a DefaultFOV field of view.
func NewViewRenderInfo() *ViewRenderInfo {
	return &ViewRenderInfo{
		view:       mgl32.Ident4(),
		projection: mgl32.Ident4(),
		near:       0.1,
		far:        100,
		fovY:       DefaultFOV,
		aspect:     1,
	}
}

func (v *ViewRenderInfo) SetViewMatrix(m mgl32.Mat4) { v.view = m }
func (v *ViewRenderInfo) ViewMatrix() mgl32.Mat4 { return v.view }
func (v *ViewRenderInfo) SetProjectionMatrix(m mgl32.Mat4) { v.projection = m }
func (v *ViewRenderInfo) ProjectionMatrix() mgl32.Mat4 { return v.projection }
func (v *ViewRenderInfo) SetViewPosition(p mgl32.Vec3) { v.position = p }
func (v *ViewRenderInfo) ViewPosition() mgl32.Vec3 { return v.position }
func (v *ViewRenderInfo) Near() float32 { return v.near }
func (v *ViewRenderInfo) Far() float32 { return v.far }
func (v *ViewRenderInfo) FOV() float32 { return v.fovY }
func (v *ViewRenderInfo) AspectRatio() float32 { return v.aspect }
func (v *ViewRenderInfo) SetViewport(vp Viewport) { v.viewport = vp }
func (v *ViewRenderInfo) Viewport() Viewport { return v.viewport }

// SetNearFar sets the clip planes without touching the projection matrix.
func (v *ViewRenderInfo) SetNearFar(near, far float32) {
	v.near, v.far = near, far
}

// SetFOV sets the vertical field of view in radians without touching the projection matrix.
// Non-positive values are ignored.
func (v *ViewRenderInfo) SetFOV(fovY float32) {
	if fovY > 0 {
		v.fovY = fovY
	}
}

// SetAspectRatio sets the aspect ratio without touching the projection matrix.
func (v *ViewRenderInfo) SetAspectRatio(aspect float32) { v.aspect = aspect }

// SetPerspective sets the projection parameters and rebuilds the projection matrix with [0,1] depth.
//
// Parameters:
//   - fovY: the vertical field of view in radians
//   - aspect: width / height
//   - near, far: the clip planes
func (v *ViewRenderInfo) SetPerspective(fovY, aspect, near, far float32) {
	v.fovY, v.aspect, v.near, v.far = fovY, aspect, near, far
	v.projection = common.PerspectiveZO(fovY, aspect, near, far)
}

// SetFramebuffer overrides the output target; nil selects the default framebuffer.
func (v *ViewRenderInfo) SetFramebuffer(fb *gpu.Framebuffer) { v.framebuffer = fb }

// Framebuffer returns the output override and whether one is set.
func (v *ViewRenderInfo) Framebuffer() (*gpu.Framebuffer, bool) {
	return v.framebuffer, v.framebuffer != nil
}
