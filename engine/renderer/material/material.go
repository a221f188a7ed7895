package material

import (
	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// material is the implementation of the Material interface.
type material struct {
	name                      string
	albedoColor               mgl32.Vec4
	roughness                 float32
	metalness                 float32
	emissive                  mgl32.Vec3
	transparent               bool
	albedoTexture             *gpu.Texture
	metalnessRoughnessTexture *gpu.Texture
	ambientOcclusionTexture   *gpu.Texture
	emissiveTexture           *gpu.Texture
	normalTexture             *gpu.Texture
}

// Material defines the interface for a PBR surface description.
//
// Scalar factors multiply their texture when one is set. Textures are borrowed: the material never
// releases them.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// AlbedoColor retrieves the linear RGBA base color of the material.
	//
	// Returns:
	//   - mgl32.Vec4: the base color
	AlbedoColor() mgl32.Vec4

	// Roughness retrieves the roughness factor.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// Metalness retrieves the metalness factor.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metalness factor
	Metalness() float32

	// Emissive retrieves the emitted linear RGB radiance.
	//
	// Returns:
	//   - mgl32.Vec3: the emissive color
	Emissive() mgl32.Vec3

	// Transparent reports whether the material is alpha tested against its albedo texture.
	//
	// Returns:
	//   - bool: true for alpha tested materials
	Transparent() bool

	// AlbedoTexture retrieves the base color texture, or nil.
	AlbedoTexture() *gpu.Texture

	// MetalnessRoughnessTexture retrieves the texture holding roughness in G and metalness in B, or nil.
	MetalnessRoughnessTexture() *gpu.Texture

	// AmbientOcclusionTexture retrieves the ambient occlusion texture, or nil.
	AmbientOcclusionTexture() *gpu.Texture

	// EmissiveTexture retrieves the emissive texture, or nil.
	EmissiveTexture() *gpu.Texture

	// NormalTexture retrieves the tangent-space normal map, or nil.
	NormalTexture() *gpu.Texture

	// SetAlbedoColor replaces the base color.
	//
	// Parameters:
	//   - color: the linear RGBA color
	SetAlbedoColor(color mgl32.Vec4)

	// SetRoughness replaces the roughness factor, clamped to [0, 1].
	SetRoughness(roughness float32)

	// SetMetalness replaces the metalness factor, clamped to [0, 1].
	SetMetalness(metalness float32)

	// SetEmissive replaces the emissive color.
	SetEmissive(emissive mgl32.Vec3)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
// Defaults: white albedo, roughness 1, metalness 0, no emission, opaque, no textures.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		albedoColor: mgl32.Vec4{1, 1, 1, 1},
		roughness:   1.0,
		metalness:   0.0,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) AlbedoColor() mgl32.Vec4 {
	return m.albedoColor
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) Metalness() float32 {
	return m.metalness
}

func (m *material) Emissive() mgl32.Vec3 {
	return m.emissive
}

func (m *material) Transparent() bool {
	return m.transparent
}

func (m *material) AlbedoTexture() *gpu.Texture {
	return m.albedoTexture
}

func (m *material) MetalnessRoughnessTexture() *gpu.Texture {
	return m.metalnessRoughnessTexture
}

func (m *material) AmbientOcclusionTexture() *gpu.Texture {
	return m.ambientOcclusionTexture
}

func (m *material) EmissiveTexture() *gpu.Texture {
	return m.emissiveTexture
}

func (m *material) NormalTexture() *gpu.Texture {
	return m.normalTexture
}

func (m *material) SetAlbedoColor(color mgl32.Vec4) {
	m.albedoColor = color
}

func (m *material) SetRoughness(roughness float32) {
	m.roughness = common.Clamp(roughness, 0, 1)
}

func (m *material) SetMetalness(metalness float32) {
	m.metalness = common.Clamp(metalness, 0, 1)
}

func (m *material) SetEmissive(emissive mgl32.Vec3) {
	m.emissive = emissive
}
