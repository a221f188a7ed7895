package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lightingSource = `
struct PointLightData {
    position: vec3<f32>,
    radius: f32,
    color: vec3<f32>,
    multiplier: f32,
    cast_shadow: u32,
}

struct FrameUniforms {
    view_matrix: mat4x4<f32>,
    view_position: vec3<f32>,
    point_light_count: u32,
    point_lights: array<PointLightData, 2>,
    light_space_matrices: array<mat4x4<f32>, 3>,
    cascades_plane_distances: array<vec4<f32>, 3>,
}

@group(0) @binding(0) var<uniform> frame: FrameUniforms;
@group(1) @binding(1) var albedo_tex: texture_2d<f32>;
@group(1) @binding(0) var linear_sampler: sampler;
@group(2) @binding(0) var shadow_tex: texture_depth_2d_array;
@group(2) @binding(1) var shadow_sampler: sampler_comparison;
@group(3) @binding(0) var bloom_out: texture_storage_2d<rgba16float, write>;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`

func TestParseUniformBlocksFlattensMembers(t *testing.T) {
	resources := parseResources(lightingSource, wgpu.ShaderStageFragment)
	blocks := parseUniformBlocks(lightingSource, resources)
	require.Len(t, blocks, 1)

	block := blocks[0]
	assert.Equal(t, "frame", block.VarName)
	// 64 + 16 + 2*48 + 3*64 + 3*16
	assert.Equal(t, uint64(416), block.Size)

	cases := map[string]UniformField{
		"view_matrix":                 {Offset: 0, Size: 64, Type: "mat4x4<f32>"},
		"view_position":               {Offset: 64, Size: 12, Type: "vec3<f32>"},
		"point_light_count":           {Offset: 76, Size: 4, Type: "u32"},
		"point_lights[0].position":    {Offset: 80, Size: 12, Type: "vec3<f32>"},
		"point_lights[1].radius":      {Offset: 128 + 12, Size: 4, Type: "f32"},
		"point_lights[1].cast_shadow": {Offset: 128 + 32, Size: 4, Type: "u32"},
		"light_space_matrices[2]":     {Offset: 176 + 128, Size: 64, Type: "mat4x4<f32>"},
		"cascades_plane_distances[1]": {Offset: 368 + 16, Size: 16, Type: "vec4<f32>"},
	}
	for name, want := range cases {
		got, ok := block.Fields[name]
		if assert.True(t, ok, name) {
			assert.Equal(t, want, got, name)
		}
	}

	whole := block.Fields["light_space_matrices"]
	assert.Equal(t, uint64(192), whole.Size)
}

func TestParseResourcesClassifiesBindings(t *testing.T) {
	resources := parseResources(lightingSource, wgpu.ShaderStageFragment)
	require.Len(t, resources, 6)

	assert.Equal(t, "frame", resources[0].Name)
	assert.True(t, resources[0].IsUniformBuffer())
	assert.Equal(t, uint64(416), resources[0].Entry.Buffer.MinBindingSize)

	// sorted by binding within a group
	assert.Equal(t, "linear_sampler", resources[1].Name)
	assert.True(t, resources[1].IsSampler())
	assert.Equal(t, "albedo_tex", resources[2].Name)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, resources[2].Entry.Texture.SampleType)

	assert.Equal(t, wgpu.TextureSampleTypeDepth, resources[3].Entry.Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2DArray, resources[3].Entry.Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, resources[4].Entry.Sampler.Type)

	assert.True(t, resources[5].IsStorageTexture())
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, resources[5].Entry.StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, resources[5].Entry.StorageTexture.Access)

	layouts := groupLayouts(resources)
	assert.Len(t, layouts, 4)
	assert.Len(t, layouts[1].Entries, 2)
}

func TestParseVertexLayoutsFromStructParameter(t *testing.T) {
	src := `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) uv: vec2<f32>,
    @location(3) tangent: vec4<f32>,
}

struct VertexOutput {
    @builtin(position) @invariant clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(in: VertexInput, @builtin(instance_index) instance: u32) -> VertexOutput {
    var out: VertexOutput;
    return out;
}
`
	layouts := parseVertexLayouts(src, "vs_main")
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(48), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 4)
	assert.Equal(t, uint64(32), layouts[0].Attributes[3].Offset)
	assert.Equal(t, uint32(3), layouts[0].Attributes[3].ShaderLocation)
}

func TestParseVertexLayoutsFromLocationParameters(t *testing.T) {
	src := `
@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) color: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 1.0);
}
`
	layouts := parseVertexLayouts(src, "vs_main")
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(24), layouts[0].ArrayStride)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layouts[0].Attributes[1].Format)
}

func TestParseVertexLayoutsBuiltinOnly(t *testing.T) {
	src := `
@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0);
}
`
	assert.Nil(t, parseVertexLayouts(src, "vs_main"))
}

func TestParseWorkgroupSize(t *testing.T) {
	assert.Equal(t, [3]uint32{4, 4, 1}, parseWorkgroupSize("@compute @workgroup_size(4, 4)\nfn main() {}"))
	assert.Equal(t, [3]uint32{64, 1, 1}, parseWorkgroupSize("@compute @workgroup_size(64) fn main() {}"))
	assert.Equal(t, [3]uint32{1, 1, 1}, parseWorkgroupSize("fn main() {}"))
}

func TestStripCommentsHandlesNesting(t *testing.T) {
	src := "a /* outer /* inner */ still */ b // tail\nc"
	assert.Equal(t, "a  b \nc\n", stripComments(src))
}

func TestMergeBindGroupLayoutsOrsVisibility(t *testing.T) {
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageVertex}}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 1, Visibility: wgpu.ShaderStageFragment}, {Binding: 0, Visibility: wgpu.ShaderStageFragment}}},
		1: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageFragment}}},
	}

	merged := MergeBindGroupLayouts(vertex, fragment)
	require.Len(t, merged, 2)
	require.Len(t, merged[0].Entries, 2)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, merged[0].Entries[0].Visibility)
	assert.Equal(t, uint32(1), merged[0].Entries[1].Binding)

	// inputs are untouched
	assert.Equal(t, wgpu.ShaderStageVertex, vertex[0].Entries[0].Visibility)
}
