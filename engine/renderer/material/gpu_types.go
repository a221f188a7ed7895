package material

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/shader"
)

// IncludeName is the name under which the material uniform struct is included into WGSL:
//
//	//@oxy:include material
const IncludeName = "material"

// GPUMaterialParamsSource is the canonical WGSL definition of the MaterialParams uniform struct.
// Member names match the names staged by Apply.
//
//go:embed assets/material.wgsl
var GPUMaterialParamsSource string

// Texture binding names staged by Apply.
const (
	AlbedoTextureName             = "albedo_tex"
	MetalnessRoughnessTextureName = "metalness_roughness_tex"
	AmbientOcclusionTextureName   = "ao_tex"
	EmissiveTextureName           = "emissive_tex"
	NormalTextureName             = "normal_tex"
)

// RegisterIncludes makes the material struct available to shaders processed by pp.
func RegisterIncludes(pp shader.PreProcessor) {
	pp.Register(IncludeName, GPUMaterialParamsSource)
}

// usable reports whether tex can be bound.
func usable(tex *gpu.Texture) bool {
	return tex != nil && !tex.Released() && tex.View() != nil
}

// Apply stages the material's factors and textures on program. Missing textures are bound to
// fallback, and the ao, normal and emissive flags are cleared for them. A nil material stages
// the defaults of NewMaterial.
//
// Parameters:
//   - program: a program declaring MaterialParams and the material texture bindings
//   - m: the material, or nil
//   - fallback: a 1x1 white texture
func Apply(program *gpu.Program, m Material, fallback *gpu.Texture) {
	if m == nil {
		m = NewMaterial()
	}
	program.SetVec4("albedo_color", m.AlbedoColor())
	program.SetVec3("emissive", m.Emissive())
	program.SetFloat("roughness", m.Roughness())
	program.SetFloat("metalness", m.Metalness())

	bind := func(name string, tex *gpu.Texture) bool {
		if usable(tex) {
			program.SetTexture(name, tex.View())
			return true
		}
		program.SetTexture(name, fallback.View())
		return false
	}
	bind(AlbedoTextureName, m.AlbedoTexture())
	bind(MetalnessRoughnessTextureName, m.MetalnessRoughnessTexture())
	program.SetBool("ao_tex_enabled", bind(AmbientOcclusionTextureName, m.AmbientOcclusionTexture()))
	program.SetBool("normal_tex_enabled", bind(NormalTextureName, m.NormalTexture()))
	program.SetBool("emissive_tex_enabled", bind(EmissiveTextureName, m.EmissiveTexture()))
}

// AlphaTested reports whether m is drawn with an alpha test, which requires an albedo texture.
//
// Returns:
//   - tested: the material is transparent
//   - drawable: tested is false, or the albedo texture is present
func AlphaTested(m Material) (tested, drawable bool) {
	if m == nil || !m.Transparent() {
		return false, true
	}
	return true, usable(m.AlbedoTexture())
}
