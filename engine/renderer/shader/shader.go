package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader module provides.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// Suffix returns the file name suffix used for the stage: "comp", "vert" or "frag".
func (t ShaderType) Suffix() string {
	switch t {
	case ShaderTypeVertex:
		return "vert"
	case ShaderTypeFragment:
		return "frag"
	default:
		return "comp"
	}
}

// Stage returns the wgpu stage flag of the shader type.
func (t ShaderType) Stage() wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageNone
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	shaderType    ShaderType
	entryPoint    string
	resources     []Resource
	layouts       map[int]wgpu.BindGroupLayoutDescriptor
	uniformBlocks []UniformBlock
	vertexLayouts []wgpu.VertexBufferLayout
	workGroupSize [3]uint32
	includes      []string
	module        *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader is a pre-processed and parsed WGSL stage. It exposes everything needed to build
// pipeline layouts and to stage uniforms by member name.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// Resources returns every @group/@binding declaration in (group, binding) order.
	//
	// Returns:
	//   - []Resource: the declared resources
	Resources() []Resource

	// BindGroupLayoutDescriptors retrieves the bind group layouts declared by this stage.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// UniformBlocks returns the flattened layout of each var<uniform> struct binding.
	//
	// Returns:
	//   - []UniformBlock: the uniform blocks in resource order
	UniformBlocks() []UniformBlock

	// VertexLayouts returns the vertex buffer layouts consumed by a vertex entry point.
	// Vertex shaders that only read builtins, and all other stages, return nil.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: zero or one layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// WorkgroupSize returns the workgroup size dimensions for compute shaders.
	// Returns [0, 0, 0] for non-compute shaders.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Includes returns the @oxy:include names resolved while pre-processing.
	//
	// Returns:
	//   - []string: include names in injection order
	Includes() []string

	// Module returns the wgpu.ShaderModuleDescriptor used to compile the shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader pre-processes and parses WGSL source into a Shader.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage the source provides
//   - source: the raw WGSL source
//   - opts: builder options
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrShaderCompile wrapping the cause if pre-processing fails or no entry point is found
func NewShader(key string, shaderType ShaderType, source string, opts ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pp == nil {
		s.pp = NewPreProcessor(nil)
	}

	processed, includes, err := s.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrShaderCompile, key, err)
	}
	s.source = processed
	s.includes = includes

	s.entryPoint = parseEntryPoint(s.source, s.shaderType)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("%w: %s: no @%s entry point", common.ErrShaderCompile, key, stageAttribute(shaderType))
	}

	s.resources = parseResources(s.source, shaderType.Stage())
	s.layouts = groupLayouts(s.resources)
	s.uniformBlocks = parseUniformBlocks(s.source, s.resources)
	switch shaderType {
	case ShaderTypeVertex:
		s.vertexLayouts = parseVertexLayouts(s.source, s.entryPoint)
	case ShaderTypeCompute:
		s.workGroupSize = parseWorkgroupSize(s.source)
	}

	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	return s, nil
}

func stageAttribute(t ShaderType) string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "compute"
	}
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Resources() []Resource {
	return s.resources
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.layouts
}

func (s *shader) UniformBlocks() []UniformBlock {
	return s.uniformBlocks
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Includes() []string {
	return s.includes
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
