package pass

import (
	"github.com/Carmen-Shannon/oxy-cascade/engine/light"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowOutput is what the shadow pass hands to the lighting pass. Scene carries point lights with
// their ShadowMap filled in.
type ShadowOutput struct {
	Scene *frame.SceneRenderInfo
	View  *frame.ViewRenderInfo
	// ShadowArray is the depth32float array with one layer per cascade. It is owned by the shadow
	// pass and only valid until its next Execute.
	ShadowArray        *gpu.Texture
	LightSpaceMatrices []mgl32.Mat4
	CascadeSplits      []light.CascadeSplit
}

// ForwardOutput is the lit HDR image of a frame.
type ForwardOutput struct {
	Scene       *frame.SceneRenderInfo
	View        *frame.ViewRenderInfo
	Framebuffer *gpu.Framebuffer
	// Environment is nil when the frame had no usable environment.
	Environment *frame.EnvironmentTextures
}

// ColorOutput is an HDR color image on its way to the screen.
type ColorOutput struct {
	Scene       *frame.SceneRenderInfo
	View        *frame.ViewRenderInfo
	Framebuffer *gpu.Framebuffer
	// Color is the HDR color texture to present.
	Color       *gpu.Texture
	Environment *frame.EnvironmentTextures
	// Bloom is the blurred highlight image, or nil when bloom did not run.
	Bloom *gpu.TextureView
}

// ShadowConsumer receives the output of a shadow pass.
type ShadowConsumer interface {
	Execute(out ShadowOutput)
}

// ForwardConsumer receives the output of a forward pass.
type ForwardConsumer interface {
	Execute(out ForwardOutput)
}

// ColorConsumer receives an HDR color image.
type ColorConsumer interface {
	Execute(out ColorOutput)
}

// ShadowConsumerFunc adapts a function to a ShadowConsumer.
type ShadowConsumerFunc func(out ShadowOutput)

func (f ShadowConsumerFunc) Execute(out ShadowOutput) { f(out) }

// ForwardConsumerFunc adapts a function to a ForwardConsumer.
type ForwardConsumerFunc func(out ForwardOutput)

func (f ForwardConsumerFunc) Execute(out ForwardOutput) { f(out) }

// ColorConsumerFunc adapts a function to a ColorConsumer.
type ColorConsumerFunc func(out ColorOutput)

func (f ColorConsumerFunc) Execute(out ColorOutput) { f(out) }
