// Package light holds the scene's light sources and the math that fits shadow maps to them.
package light

import (
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxPointLights is the number of point lights the forward shader evaluates. Lights past this count
// are dropped in scene order.
const MaxPointLights = 5

// PointLight emits in all directions from a position and fades out at Radius.
type PointLight struct {
	Position   mgl32.Vec3
	Color      mgl32.Vec3
	Multiplier float32
	// Radius is the distance at which the light contributes nothing; it is also the far plane of
	// the light's cube shadow map.
	Radius  float32
	Falloff float32

	CastShadow bool
	// ShadowMap is the depth cube rendered for this light during the current frame. Scene code
	// leaves it nil; the shadow pass fills it on the copy it forwards.
	ShadowMap *gpu.Texture
}

// DirectionalLight is an infinitely distant light such as the sun.
type DirectionalLight struct {
	// Direction points from the light towards the scene and is kept normalized.
	Direction  mgl32.Vec3
	Color      mgl32.Vec3
	Multiplier float32
	Enabled    bool
	CastShadow bool
}

// NewPointLight creates a white point light at the origin with any provided options applied.
//
// Parameters:
//   - opts: variadic list of PointLightOption functions
//
// Returns:
//   - PointLight: the light
func NewPointLight(opts ...PointLightOption) PointLight {
	l := PointLight{
		Color:      mgl32.Vec3{1, 1, 1},
		Multiplier: 1,
		Radius:     10,
		Falloff:    0.2,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// NewDirectionalLight creates an enabled, shadow casting white light pointing straight down.
//
// Parameters:
//   - opts: variadic list of DirectionalLightOption functions
//
// Returns:
//   - DirectionalLight: the light
func NewDirectionalLight(opts ...DirectionalLightOption) DirectionalLight {
	l := DirectionalLight{
		Direction:  mgl32.Vec3{0, -1, 0},
		Color:      mgl32.Vec3{1, 1, 1},
		Multiplier: 1,
		Enabled:    true,
		CastShadow: true,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// SetDirection sets and normalizes the light direction. A zero vector is ignored.
func (l *DirectionalLight) SetDirection(dir mgl32.Vec3) {
	if dir.Len() == 0 {
		return
	}
	l.Direction = dir.Normalize()
}
