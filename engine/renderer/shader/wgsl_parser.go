package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps WGSL type names to their corresponding wgpu vertex format and byte size
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"vec4u":     {wgpu.VertexFormatUint32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
}

// wgslSampledTextureMap maps WGSL sampled texture base names to their view dimension and multisampled flag
var wgslSampledTextureMap = map[string]sampledTextureInfo{
	"texture_2d":             {wgpu.TextureViewDimension2D, false},
	"texture_2d_array":       {wgpu.TextureViewDimension2DArray, false},
	"texture_3d":             {wgpu.TextureViewDimension3D, false},
	"texture_cube":           {wgpu.TextureViewDimensionCube, false},
	"texture_depth_2d":       {wgpu.TextureViewDimension2D, false},
	"texture_depth_2d_array": {wgpu.TextureViewDimension2DArray, false},
	"texture_depth_cube":     {wgpu.TextureViewDimensionCube, false},
}

// wgslStorageTextureDimMap maps WGSL storage texture base names to their view dimension
var wgslStorageTextureDimMap = map[string]wgpu.TextureViewDimension{
	"texture_storage_2d":       wgpu.TextureViewDimension2D,
	"texture_storage_2d_array": wgpu.TextureViewDimension2DArray,
}

// wgslSampleTypeMap maps WGSL scalar type parameters to their wgpu texture sample type
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// wgslStorageAccessMap maps WGSL access mode keywords to their wgpu storage texture access
var wgslStorageAccessMap = map[string]wgpu.StorageTextureAccess{
	"write":      wgpu.StorageTextureAccessWriteOnly,
	"read":       wgpu.StorageTextureAccessReadOnly,
	"read_write": wgpu.StorageTextureAccessReadWrite,
}

// wgslTexelFormatMap maps WGSL texel format strings to the wgpu formats the renderer writes from compute.
var wgslTexelFormatMap = map[string]wgpu.TextureFormat{
	"rgba8unorm":  wgpu.TextureFormatRGBA8Unorm,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
	"r32float":    wgpu.TextureFormatR32Float,
	"rg32float":   wgpu.TextureFormatRG32Float,
	"rgba32float": wgpu.TextureFormatRGBA32Float,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field or parameter: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+(?:\([^)]*\))?\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// computeEntryRegex matches @compute functions and captures the entry point name
	computeEntryRegex = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures 1-3 integer dimensions from @workgroup_size(x[, y[, z]])
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> frame: FrameUniforms;
	// or handle types: @group(2) @binding(0) var albedo_tex: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseResources extracts all @group(N) @binding(M) resource declarations from WGSL source in
// (group, binding) order. The provided visibility flag is applied to every entry. Uniform and
// storage buffers get MinBindingSize from the resolved struct size.
//
// Parameters:
//   - source: the WGSL source code string
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - []Resource: the declared resources
func parseResources(source string, visibility wgpu.ShaderStage) []Resource {
	cleaned := stripComments(source)
	structSizes := computeStructSizes(parseStructBlocks(cleaned))

	matches := bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1)
	resources := make([]Resource, 0, len(matches))
	for _, match := range matches {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		typeName := strings.TrimSpace(match[5])

		entry := classifyResource(uint32(binding), visibility, addressSpace, typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(typeName, structSizes); ok && layout.size > 0 {
				entry.Buffer.MinBindingSize = layout.size
			}
		}

		resources = append(resources, Resource{
			Group:        group,
			Binding:      binding,
			Name:         strings.TrimSpace(match[4]),
			TypeName:     typeName,
			AddressSpace: addressSpace,
			Entry:        entry,
		})
	}

	sort.Slice(resources, func(i, j int) bool {
		if resources[i].Group != resources[j].Group {
			return resources[i].Group < resources[j].Group
		}
		return resources[i].Binding < resources[j].Binding
	})
	return resources
}

// groupLayouts folds resources into bind group layout descriptors keyed by group index.
//
// Parameters:
//   - resources: resources sorted by group and binding
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
func groupLayouts(resources []Resource) map[int]wgpu.BindGroupLayoutDescriptor {
	result := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, r := range resources {
		desc := result[r.Group]
		desc.Entries = append(desc.Entries, r.Entry)
		result[r.Group] = desc
	}
	return result
}

// parseUniformBlocks computes the flattened member layout of every var<uniform> resource whose
// type is a struct declared in source.
//
// Parameters:
//   - source: the WGSL source code string
//   - resources: the resources parsed from the same source
//
// Returns:
//   - []UniformBlock: one block per uniform struct binding, in resource order
func parseUniformBlocks(source string, resources []Resource) []UniformBlock {
	structs := parseStructBlocks(stripComments(source))
	layouts := computeStructSizes(structs)
	byName := make(map[string]parsedStruct, len(structs))
	for _, ps := range structs {
		byName[ps.name] = ps
	}

	var blocks []UniformBlock
	for _, r := range resources {
		if !r.IsUniformBuffer() {
			continue
		}
		layout, ok := resolveTypeLayout(r.TypeName, layouts)
		if !ok {
			continue
		}
		block := UniformBlock{
			Group:    r.Group,
			Binding:  r.Binding,
			VarName:  r.Name,
			TypeName: r.TypeName,
			Size:     layout.size,
			Fields:   make(map[string]UniformField),
		}
		if ps, isStruct := byName[r.TypeName]; isStruct {
			flattenStruct("", ps, 0, byName, layouts, block.Fields)
		} else {
			flattenType(r.Name, r.TypeName, 0, byName, layouts, block.Fields)
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// parseVertexLayouts derives the vertex buffer layout consumed by the vertex entry point. A struct
// parameter that is a pure vertex input struct is used as is; otherwise @location parameters are
// packed in declaration order. Entry points that only read builtins return nil.
//
// Parameters:
//   - source: the WGSL source code string
//   - entryPoint: the vertex entry point name
//
// Returns:
//   - []wgpu.VertexBufferLayout: zero or one buffer layouts
func parseVertexLayouts(source, entryPoint string) []wgpu.VertexBufferLayout {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)

	params := parseEntryParams(cleaned, entryPoint)
	var locParams []parsedField
	for _, p := range params {
		if p.isBuiltin {
			continue
		}
		if p.location >= 0 {
			locParams = append(locParams, p)
			continue
		}
		for _, ps := range structs {
			if ps.name == p.typeName && isVertexInputStruct(ps) {
				if layout, ok := buildVertexBufferLayout(ps); ok {
					return []wgpu.VertexBufferLayout{layout}
				}
			}
		}
	}

	if len(locParams) == 0 {
		return nil
	}
	layout, ok := buildVertexBufferLayout(parsedStruct{name: entryPoint, fields: locParams})
	if !ok {
		return nil
	}
	return []wgpu.VertexBufferLayout{layout}
}

// parseEntryParams returns the parameters of function name, with attributes parsed like struct fields.
func parseEntryParams(source, name string) []parsedField {
	re := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(name) + `\s*\(`)
	loc := re.FindStringIndex(source)
	if loc == nil {
		return nil
	}

	depth := 1
	start := loc[1]
	end := start
	for end < len(source) && depth > 0 {
		switch source[end] {
		case '(':
			depth++
		case ')':
			depth--
		}
		end++
	}
	if depth != 0 {
		return nil
	}
	return parseStructFields(source[start : end-1])
}

// parseWorkgroupSize extracts the @workgroup_size(x, y, z) dimensions from WGSL source.
// Omitted dimensions default to 1 per the WGSL specification.
// Returns [1, 1, 1] if no @workgroup_size annotation is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - [3]uint32: the workgroup size as [x, y, z]
func parseWorkgroupSize(source string) [3]uint32 {
	result := [3]uint32{1, 1, 1}

	match := workgroupSizeRegex.FindStringSubmatch(stripComments(source))
	if match == nil {
		return result
	}
	for i := 0; i < 3; i++ {
		if match[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(match[i+1], 10, 32); err == nil {
			result[i] = uint32(v)
		}
	}
	return result
}

// parseEntryPoint extracts the entry point function name for the given shader type
// from WGSL source. Returns an empty string if no matching entry point annotation is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - shaderType: the shader type to search for
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, shaderType ShaderType) string {
	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	case ShaderTypeCompute:
		re = computeEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}

	return structs
}

// parseStructFields parses a comma separated member or parameter list into individual fields,
// extracting @location and @builtin attributes along with the field name and type
//
// Parameters:
//   - body: the content between { and } of a struct declaration, or a parameter list
//
// Returns:
//   - []parsedField: all fields found in the body
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])

		fields = append(fields, field)
	}

	return fields
}
