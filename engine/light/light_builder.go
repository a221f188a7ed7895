package light

import "github.com/go-gl/mathgl/mgl32"

// PointLightOption configures a PointLight during construction.
type PointLightOption func(*PointLight)

// DirectionalLightOption configures a DirectionalLight during construction.
type DirectionalLightOption func(*DirectionalLight)

// WithPosition sets the world-space position of a point light.
//
// Parameters:
//   - position: the position
//
// Returns:
//   - PointLightOption: a function that applies the position to a PointLight
func WithPosition(position mgl32.Vec3) PointLightOption {
	return func(l *PointLight) {
		l.Position = position
	}
}

// WithPointColor sets the color and multiplier of a point light.
//
// Parameters:
//   - color: the linear RGB color
//   - multiplier: the intensity multiplier
//
// Returns:
//   - PointLightOption: a function that applies the color to a PointLight
func WithPointColor(color mgl32.Vec3, multiplier float32) PointLightOption {
	return func(l *PointLight) {
		l.Color = color
		l.Multiplier = multiplier
	}
}

// WithRadius sets the radius of a point light and its quadratic falloff factor.
func WithRadius(radius, falloff float32) PointLightOption {
	return func(l *PointLight) {
		l.Radius = radius
		l.Falloff = falloff
	}
}

// WithPointShadow makes the point light render a cube shadow map.
func WithPointShadow(cast bool) PointLightOption {
	return func(l *PointLight) {
		l.CastShadow = cast
	}
}

// WithDirection sets the direction of a directional light. The direction is normalized; a zero
// vector keeps the default.
//
// Parameters:
//   - dir: the direction the light travels in
//
// Returns:
//   - DirectionalLightOption: a function that applies the direction to a DirectionalLight
func WithDirection(dir mgl32.Vec3) DirectionalLightOption {
	return func(l *DirectionalLight) {
		l.SetDirection(dir)
	}
}

// WithDirectionalColor sets the color and multiplier of a directional light.
func WithDirectionalColor(color mgl32.Vec3, multiplier float32) DirectionalLightOption {
	return func(l *DirectionalLight) {
		l.Color = color
		l.Multiplier = multiplier
	}
}

// WithDirectionalShadow enables or disables cascaded shadows for a directional light.
func WithDirectionalShadow(cast bool) DirectionalLightOption {
	return func(l *DirectionalLight) {
		l.CastShadow = cast
	}
}

// WithEnabled enables or disables a directional light.
func WithEnabled(enabled bool) DirectionalLightOption {
	return func(l *DirectionalLight) {
		l.Enabled = enabled
	}
}
