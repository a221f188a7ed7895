package light

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/shader"
)

// IncludeName is the name under which the light structs are included into WGSL:
//
//	//@oxy:include lights
const IncludeName = "lights"

// WGSLSource declares the PointLight and DirectionalLight structs as uniform members. Member names
// match the staging names used by the forward pass, e.g. "point_lights[2].radius".
//
//go:embed assets/lights.wgsl
var WGSLSource string

// RegisterIncludes makes the light structs available to shaders processed by pp.
//
// Parameters:
//   - pp: the pre-processor shared by the renderer's shader loader
func RegisterIncludes(pp shader.PreProcessor) {
	pp.Register(IncludeName, WGSLSource)
}
