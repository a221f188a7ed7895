package renderer

import (
	"io/fs"

	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
)

// SceneRendererBuilderOption is a functional option applied to a scene renderer during construction via NewSceneRenderer.
type SceneRendererBuilderOption func(*sceneRenderer)

// WithConfig sets the tunables the renderer reads every frame.
// The renderer keeps the pointer, so later edits to cfg apply to the next frame.
//
// Parameters:
//   - cfg: the configuration to use
//
// Returns:
//   - SceneRendererBuilderOption: a function that applies the config option to a scene renderer
func WithConfig(cfg *config.Config) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		r.cfg = cfg
	}
}

// WithShaderFS replaces the shader source tree. When not specified the embedded shaders are used,
// or the Shaders.Dir directory when the config names one.
//
// Parameters:
//   - fsys: the filesystem holding the shader sources
//
// Returns:
//   - SceneRendererBuilderOption: a function that applies the shader filesystem option to a scene renderer
func WithShaderFS(fsys fs.FS) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		r.shaderFS = fsys
	}
}

// WithRenderObjects pre-registers persistent objects. Objects sharing an ID keep the first one.
//
// Parameters:
//   - objs: the objects to register
//
// Returns:
//   - SceneRendererBuilderOption: a function that applies the objects option to a scene renderer
func WithRenderObjects(objs ...RenderObject) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		for _, o := range objs {
			if _, ok := r.objects[o.ID]; ok || o.Mesh == nil {
				continue
			}
			r.objects[o.ID] = o
			r.order = append(r.order, o.ID)
		}
	}
}
