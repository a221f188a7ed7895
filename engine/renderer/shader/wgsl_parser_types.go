package shader

import "github.com/cogentcore/webgpu/wgpu"

// vertexFormatInfo holds the wgpu vertex format and its byte size for offset calculation
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// sampledTextureInfo holds the view dimension and multisampled flag for a sampled texture type
type sampledTextureInfo struct {
	viewDimension wgpu.TextureViewDimension
	multisampled  bool
}

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// Resource is one @group/@binding declaration of a shader.
type Resource struct {
	// Group and Binding are the indices from @group(N) @binding(M).
	Group, Binding int
	// Name is the WGSL variable name.
	Name string
	// TypeName is the declared WGSL type, e.g. "texture_2d<f32>" or "FrameUniforms".
	TypeName string
	// AddressSpace is the var<> qualifier ("uniform", "storage, read") or empty for handle types.
	AddressSpace string
	// Entry is the bind group layout entry derived from the declaration.
	Entry wgpu.BindGroupLayoutEntry
}

// IsUniformBuffer reports whether the resource is a var<uniform> buffer.
func (r Resource) IsUniformBuffer() bool {
	return r.Entry.Buffer.Type == wgpu.BufferBindingTypeUniform
}

// IsTexture reports whether the resource is a sampled or depth texture.
func (r Resource) IsTexture() bool {
	return r.Entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
}

// IsStorageTexture reports whether the resource is a storage texture.
func (r Resource) IsStorageTexture() bool {
	return r.Entry.StorageTexture.Access != wgpu.StorageTextureAccessUndefined
}

// IsSampler reports whether the resource is a sampler or comparison sampler.
func (r Resource) IsSampler() bool {
	return r.Entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined
}

// UniformField locates one addressable member of a uniform block.
type UniformField struct {
	// Offset is the byte offset from the start of the block.
	Offset uint64
	// Size is the byte size of the member.
	Size uint64
	// Type is the WGSL type of the member.
	Type string
}

// UniformBlock is the flattened layout of a var<uniform> struct. Fields are keyed by the member
// path without the variable name: "view_matrix", "point_lights[2].color", "light_space_matrices[0]".
// Array and struct members are also addressable as a whole under their own path.
type UniformBlock struct {
	Group, Binding int
	VarName        string
	TypeName       string
	Size           uint64
	Fields         map[string]UniformField
}
