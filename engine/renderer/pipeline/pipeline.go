package pipeline

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It describes the fixed-function state of a render pipeline; the device combines it with a program
// and the bound attachment formats to build and cache the native pipeline object.
type pipeline struct {
	// label is a human readable name used for native object labels and logs
	label string

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthCompare        wgpu.CompareFunction
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline defines the render state of a draw: depth, blend, cull and topology settings.
// Two pipelines with the same Key produce identical native pipeline state for the same program.
type Pipeline interface {
	// Label returns the human readable name of the render state.
	//
	// Returns:
	//   - string: the label
	Label() string

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthCompare returns the depth comparison used when depth testing is enabled.
	//
	// Returns:
	//   - wgpu.CompareFunction: the comparison function
	DepthCompare() wgpu.CompareFunction

	// DepthBias returns the depth bias value configured for this pipeline.
	//
	// Returns:
	//   - int32: the depth bias value for this pipeline
	DepthBias() int32

	// DepthBiasSlopeScale returns the depth bias slope scale configured for this pipeline.
	//
	// Returns:
	//   - float32: the depth bias slope scale for this pipeline
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline (e.g., wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack)
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline (e.g., wgpu.PrimitiveTopologyTriangleList)
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline (e.g., wgpu.FrontFaceCCW, wgpu.FrontFaceCW)
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline (e.g., wgpu.ColorWriteMaskAll)
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state for this pipeline, or nil if blending is not enabled
	BlendState() *wgpu.BlendState

	// Primitive returns the primitive assembly state for a native pipeline descriptor.
	//
	// Returns:
	//   - wgpu.PrimitiveState: topology, winding and culling
	Primitive() wgpu.PrimitiveState

	// DepthStencil returns the depth-stencil state for an attachment of the given format.
	//
	// Parameters:
	//   - format: the depth attachment format, or wgpu.TextureFormatUndefined when the target has no depth
	//
	// Returns:
	//   - *wgpu.DepthStencilState: the state, or nil when format is undefined
	DepthStencil(format wgpu.TextureFormat) *wgpu.DepthStencilState

	// ColorTargets returns one color target state per color attachment format.
	//
	// Parameters:
	//   - formats: the color attachment formats of the bound framebuffer
	//
	// Returns:
	//   - []wgpu.ColorTargetState: the color targets
	ColorTargets(formats []wgpu.TextureFormat) []wgpu.ColorTargetState

	// Key returns a string uniquely describing the state, for use in pipeline cache keys.
	//
	// Returns:
	//   - string: the cache key
	Key() string
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new render state.
// Defaults: depth test and write on with Less, no blending, no culling, CCW triangle lists.
//
// Parameters:
//   - label: the human readable name of the state
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(label string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		label:             label,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      wgpu.CompareFunctionLess,
		blendEnabled:      false,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Label() string {
	return p.label
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Primitive() wgpu.PrimitiveState {
	return wgpu.PrimitiveState{
		Topology:  p.topology,
		FrontFace: p.frontFace,
		CullMode:  p.cullMode,
	}
}

func (p *pipeline) DepthStencil(format wgpu.TextureFormat) *wgpu.DepthStencilState {
	if format == wgpu.TextureFormatUndefined {
		return nil
	}
	depthCompare := p.depthCompare
	if !p.depthTestEnabled {
		depthCompare = wgpu.CompareFunctionAlways
	}
	return &wgpu.DepthStencilState{
		Format:              format,
		DepthWriteEnabled:   p.depthWriteEnabled,
		DepthCompare:        depthCompare,
		DepthBias:           p.depthBias,
		DepthBiasSlopeScale: p.depthBiasSlopeScale,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
}

func (p *pipeline) ColorTargets(formats []wgpu.TextureFormat) []wgpu.ColorTargetState {
	targets := make([]wgpu.ColorTargetState, 0, len(formats))
	for _, format := range formats {
		state := wgpu.ColorTargetState{
			Format:    format,
			WriteMask: p.writeMask,
		}
		if p.blendEnabled {
			state.Blend = p.blendState
		}
		targets = append(targets, state)
	}
	return targets
}

func (p *pipeline) Key() string {
	key := fmt.Sprintf("dt%t:dw%t:dc%d:db%d:%g:c%d:t%d:f%d:w%d",
		p.depthTestEnabled, p.depthWriteEnabled, p.depthCompare,
		p.depthBias, p.depthBiasSlopeScale,
		p.cullMode, p.topology, p.frontFace, p.writeMask)
	if p.blendEnabled && p.blendState != nil {
		c, a := p.blendState.Color, p.blendState.Alpha
		key += fmt.Sprintf(":b%d,%d,%d/%d,%d,%d",
			c.SrcFactor, c.DstFactor, c.Operation, a.SrcFactor, a.DstFactor, a.Operation)
	}
	return key
}
