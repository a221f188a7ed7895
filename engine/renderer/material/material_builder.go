package material

import (
	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithAlbedoColor is an option builder that sets the linear RGBA base color of the material.
//
// Parameters:
//   - color: the base color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the albedo color option to a material
func WithAlbedoColor(color mgl32.Vec4) MaterialBuilderOption {
	return func(m *material) {
		m.albedoColor = color
	}
}

// WithRoughness is an option builder that sets the roughness factor, clamped to [0, 1].
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = common.Clamp(roughness, 0, 1)
	}
}

// WithMetalness is an option builder that sets the metalness factor, clamped to [0, 1].
func WithMetalness(metalness float32) MaterialBuilderOption {
	return func(m *material) {
		m.metalness = common.Clamp(metalness, 0, 1)
	}
}

// WithEmissive sets the emitted radiance.
func WithEmissive(emissive mgl32.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = emissive
	}
}

// WithTransparent marks the material as alpha tested. Alpha testing needs an albedo texture; shadow
// passes skip transparent materials without one.
func WithTransparent(transparent bool) MaterialBuilderOption {
	return func(m *material) {
		m.transparent = transparent
	}
}

// WithAlbedoTexture is an option builder that sets the base color texture.
//
// Parameters:
//   - tex: the texture, sampled in linear space
//
// Returns:
//   - MaterialBuilderOption: a function that applies the albedo texture option to a material
func WithAlbedoTexture(tex *gpu.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.albedoTexture = tex
	}
}

// WithMetalnessRoughnessTexture sets the texture holding roughness in G and metalness in B.
func WithMetalnessRoughnessTexture(tex *gpu.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.metalnessRoughnessTexture = tex
	}
}

// WithAmbientOcclusionTexture sets the ambient occlusion texture.
func WithAmbientOcclusionTexture(tex *gpu.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.ambientOcclusionTexture = tex
	}
}

// WithEmissiveTexture sets the emissive texture.
func WithEmissiveTexture(tex *gpu.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.emissiveTexture = tex
	}
}

// WithNormalTexture is an option builder that sets the tangent-space normal map.
//
// Parameters:
//   - tex: the normal map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the normal texture option to a material
func WithNormalTexture(tex *gpu.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.normalTexture = tex
	}
}
