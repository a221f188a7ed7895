// Package frame holds the per-frame data handed from scene traversal to the renderer. The renderer
// only reads it.
package frame

import (
	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/model"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// MeshInfo is one mesh instance of a frame.
type MeshInfo struct {
	ModelMatrix mgl32.Mat4
	Mesh        *model.Mesh
	// Material is applied to every submesh; nil draws with the default material.
	Material material.Material
}

// DebugLine is a colored line segment in world space.
type DebugLine struct {
	Start, End           mgl32.Vec3
	StartColor, EndColor mgl32.Vec3
}

// EnvironmentTextures are the baked image based lighting cubes of an environment.
type EnvironmentTextures struct {
	Environment *gpu.Texture
	Irradiance  *gpu.Texture
	Prefilter   *gpu.Texture
}

// Complete reports whether every cube is present and alive.
func (e *EnvironmentTextures) Complete() bool {
	if e == nil {
		return false
	}
	for _, t := range []*gpu.Texture{e.Environment, e.Irradiance, e.Prefilter} {
		if t == nil || t.Released() {
			return false
		}
	}
	return true
}

// EnvironmentMap references the sky of a frame. Either Source is baked by the renderer (once per ID),
// or Baked supplies ready cubes.
type EnvironmentMap struct {
	ID     uuid.UUID
	Source *common.HDRImageData
	Baked  *EnvironmentTextures
}

// NewEnvironmentMap wraps an equirectangular HDR image with a fresh identity.
func NewEnvironmentMap(source *common.HDRImageData) *EnvironmentMap {
	return &EnvironmentMap{ID: uuid.New(), Source: source}
}

// SceneRenderInfo is everything drawn in one frame, in submission order.
type SceneRenderInfo struct {
	meshes      []MeshInfo
	pointLights []light.PointLight
	directional light.DirectionalLight
	environment *EnvironmentMap
	debugLines  []DebugLine
}

// NewSceneRenderInfo creates an empty frame. The directional light starts disabled.
func NewSceneRenderInfo() *SceneRenderInfo {
	return &SceneRenderInfo{directional: light.NewDirectionalLight(light.WithEnabled(false))}
}

// AddMesh appends a mesh instance.
//
// Parameters:
//   - modelMatrix: the model-to-world transform
//   - mesh: the geometry; nil meshes are ignored
//   - mat: the material, or nil for the default material
func (s *SceneRenderInfo) AddMesh(modelMatrix mgl32.Mat4, mesh *model.Mesh, mat material.Material) {
	if mesh == nil {
		return
	}
	s.meshes = append(s.meshes, MeshInfo{ModelMatrix: modelMatrix, Mesh: mesh, Material: mat})
}

// Meshes returns a copy of the mesh instances in submission order.
func (s *SceneRenderInfo) Meshes() []MeshInfo {
	return append([]MeshInfo(nil), s.meshes...)
}

// AddPointLight copies a point light into the frame.
func (s *SceneRenderInfo) AddPointLight(l light.PointLight) {
	s.pointLights = append(s.pointLights, l)
}

// PointLights returns a copy of the point lights in submission order.
func (s *SceneRenderInfo) PointLights() []light.PointLight {
	return append([]light.PointLight(nil), s.pointLights...)
}

// SetDirectionalLight copies the directional light into the frame.
func (s *SceneRenderInfo) SetDirectionalLight(l light.DirectionalLight) {
	s.directional = l
}

// DirectionalLight returns a copy of the directional light.
func (s *SceneRenderInfo) DirectionalLight() light.DirectionalLight {
	return s.directional
}

// SetEnvironmentMap sets the sky of the frame.
func (s *SceneRenderInfo) SetEnvironmentMap(env *EnvironmentMap) {
	s.environment = env
}

// EnvironmentMap returns the sky of the frame, or nil.
func (s *SceneRenderInfo) EnvironmentMap() *EnvironmentMap {
	return s.environment
}

// AddDebugLine appends one debug line.
func (s *SceneRenderInfo) AddDebugLine(line DebugLine) {
	s.debugLines = append(s.debugLines, line)
}

// AddDebugLines appends debug lines.
func (s *SceneRenderInfo) AddDebugLines(lines ...DebugLine) {
	s.debugLines = append(s.debugLines, lines...)
}

// DebugLines returns a copy of the debug lines.
func (s *SceneRenderInfo) DebugLines() []DebugLine {
	return append([]DebugLine(nil), s.debugLines...)
}

// WithPointLights returns a shallow copy of s whose point lights are replaced by lights. Passes use
// it to forward per-frame additions such as shadow cubes without touching the caller's frame.
func (s *SceneRenderInfo) WithPointLights(lights []light.PointLight) *SceneRenderInfo {
	c := *s
	c.pointLights = lights
	return &c
}
