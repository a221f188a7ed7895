package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ProgramDescriptor names the stages of a program: a vertex stage with an optional fragment
// stage, or a single compute stage.
type ProgramDescriptor struct {
	Label    string
	Vertex   shader.Shader
	Fragment shader.Shader
	Compute  shader.Shader
}

// uniformBlock is the CPU staging copy of one var<uniform> binding.
type uniformBlock struct {
	group, binding int
	size           uint64
	data           []byte
	dirty          bool

	// arena placement of the last upload, valid while epoch matches the arena epoch
	page   int
	offset uint64
	epoch  uint64
}

type fieldRef struct {
	block int
	field shader.UniformField
}

// Program is a linked set of shader stages together with the values staged for its uniforms,
// textures and samplers. Values are addressed by name: uniform struct members by their member path
// ("view_matrix", "point_lights[2].color"), textures and samplers by their WGSL variable name.
// Setting a name the program does not declare logs one warning per name and is otherwise ignored.
type Program struct {
	id         uuid.UUID
	label      string
	generation uint64

	vertex, fragment, compute shader.Shader

	layouts   map[int]wgpu.BindGroupLayoutDescriptor
	resources []shader.Resource
	byName    map[string]shader.Resource
	blocks    []*uniformBlock
	fields    map[string][]fieldRef

	textures map[string]*TextureView
	samplers map[string]*Sampler
	warned   map[string]struct{}

	handle  any
	release func()
}

// NewProgram links shader stages and builds the uniform staging layout.
//
// Parameters:
//   - desc: the program stages
//
// Returns:
//   - *Program: the program, without a native handle until a Device attaches one
//   - error: ErrInvalidDescriptor for an invalid stage combination, ErrShaderCompile when two stages
//     declare the same uniform binding with different sizes
func NewProgram(desc ProgramDescriptor) (*Program, error) {
	switch {
	case desc.Compute != nil && (desc.Vertex != nil || desc.Fragment != nil):
		return nil, fmt.Errorf("%w: program %q mixes compute and render stages", common.ErrInvalidDescriptor, desc.Label)
	case desc.Compute == nil && desc.Vertex == nil:
		return nil, fmt.Errorf("%w: program %q has no vertex or compute stage", common.ErrInvalidDescriptor, desc.Label)
	case desc.Vertex != nil && desc.Vertex.ShaderType() != shader.ShaderTypeVertex,
		desc.Fragment != nil && desc.Fragment.ShaderType() != shader.ShaderTypeFragment,
		desc.Compute != nil && desc.Compute.ShaderType() != shader.ShaderTypeCompute:
		return nil, fmt.Errorf("%w: program %q has a stage in the wrong slot", common.ErrInvalidDescriptor, desc.Label)
	}

	p := &Program{
		id:       uuid.New(),
		label:    desc.Label,
		vertex:   desc.Vertex,
		fragment: desc.Fragment,
		compute:  desc.Compute,
		textures: make(map[string]*TextureView),
		samplers: make(map[string]*Sampler),
		warned:   make(map[string]struct{}),
	}
	if err := p.link(); err != nil {
		return nil, err
	}
	return p, nil
}

// link merges the reflection data of every stage.
func (p *Program) link() error {
	p.layouts = map[int]wgpu.BindGroupLayoutDescriptor{}
	p.byName = make(map[string]shader.Resource)
	p.resources = nil
	p.blocks = nil
	p.fields = make(map[string][]fieldRef)

	type slot struct{ group, binding int }
	seen := make(map[slot]int)
	blockIndex := make(map[slot]int)

	for _, s := range p.Stages() {
		p.layouts = shader.MergeBindGroupLayouts(p.layouts, s.BindGroupLayoutDescriptors())

		for _, r := range s.Resources() {
			key := slot{r.Group, r.Binding}
			if i, ok := seen[key]; ok {
				p.resources[i].Entry.Visibility |= r.Entry.Visibility
				continue
			}
			seen[key] = len(p.resources)
			p.resources = append(p.resources, r)
			p.byName[r.Name] = r
		}

		for _, b := range s.UniformBlocks() {
			key := slot{b.Group, b.Binding}
			if i, ok := blockIndex[key]; ok {
				if p.blocks[i].size != b.Size {
					return fmt.Errorf("%w: program %q: uniform @group(%d) @binding(%d) is %d bytes in one stage and %d in another",
						common.ErrShaderCompile, p.label, b.Group, b.Binding, p.blocks[i].size, b.Size)
				}
				continue
			}
			blockIndex[key] = len(p.blocks)
			for name, f := range b.Fields {
				p.fields[name] = append(p.fields[name], fieldRef{block: len(p.blocks), field: f})
			}
			p.blocks = append(p.blocks, &uniformBlock{
				group:   b.Group,
				binding: b.Binding,
				size:    b.Size,
				data:    make([]byte, b.Size),
				dirty:   true,
			})
		}
	}

	sort.Slice(p.resources, func(i, j int) bool {
		if p.resources[i].Group != p.resources[j].Group {
			return p.resources[i].Group < p.resources[j].Group
		}
		return p.resources[i].Binding < p.resources[j].Binding
	})
	return nil
}

func (p *Program) ID() uuid.UUID { return p.id }
func (p *Program) Label() string { return p.label }

// Generation increases every time the program adopts recompiled stages.
func (p *Program) Generation() uint64 { return p.generation }

// IsCompute reports whether the program is a compute program.
func (p *Program) IsCompute() bool { return p.compute != nil }

// Stage returns the shader of a stage, or nil.
func (p *Program) Stage(t shader.ShaderType) shader.Shader {
	switch t {
	case shader.ShaderTypeVertex:
		return p.vertex
	case shader.ShaderTypeFragment:
		return p.fragment
	default:
		return p.compute
	}
}

// Stages returns the non-nil stages in pipeline order.
func (p *Program) Stages() []shader.Shader {
	var out []shader.Shader
	for _, s := range []shader.Shader{p.vertex, p.fragment, p.compute} {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// BindGroupLayouts returns the merged bind group layouts of every stage.
func (p *Program) BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor { return p.layouts }

// Resources returns the merged resources in (group, binding) order.
func (p *Program) Resources() []shader.Resource { return p.resources }

// GroupCount returns one past the highest bind group index the program uses.
func (p *Program) GroupCount() int {
	n := 0
	for g := range p.layouts {
		n = max(n, g+1)
	}
	return n
}

// Handle returns the backend's native program object.
func (p *Program) Handle() any { return p.handle }

// Attach installs the backend's native program object, releasing the previous one.
func (p *Program) Attach(handle any, release func()) {
	if p.release != nil {
		p.release()
	}
	p.handle = handle
	p.release = release
}

// Release frees the native program object.
func (p *Program) Release() {
	if p.release != nil {
		p.release()
	}
	p.handle = nil
	p.release = nil
}

// Adopt replaces the stages of p with those of next, keeping p's identity so holders of p pick up a
// hot-reloaded shader. Staged values whose names survive with the same size are carried over. next
// must not be used afterwards.
//
// Parameters:
//   - next: a freshly built program with the recompiled stages
func (p *Program) Adopt(next *Program) {
	oldBlocks, oldFields := p.blocks, p.fields
	oldTextures, oldSamplers := p.textures, p.samplers

	p.Attach(next.handle, next.release)
	next.handle, next.release = nil, nil

	p.vertex, p.fragment, p.compute = next.vertex, next.fragment, next.compute
	p.layouts, p.resources, p.byName = next.layouts, next.resources, next.byName
	p.blocks, p.fields = next.blocks, next.fields
	p.textures = make(map[string]*TextureView)
	p.samplers = make(map[string]*Sampler)
	p.warned = make(map[string]struct{})
	p.generation++

	for name, refs := range p.fields {
		old, ok := oldFields[name]
		if !ok || len(old) == 0 {
			continue
		}
		src := oldBlocks[old[0].block].data[old[0].field.Offset : old[0].field.Offset+old[0].field.Size]
		for _, ref := range refs {
			if ref.field.Size == old[0].field.Size {
				copy(p.blocks[ref.block].data[ref.field.Offset:], src)
			}
		}
	}
	for name, v := range oldTextures {
		if r, ok := p.byName[name]; ok && (r.IsTexture() || r.IsStorageTexture()) {
			p.textures[name] = v
		}
	}
	for name, s := range oldSamplers {
		if r, ok := p.byName[name]; ok && r.IsSampler() {
			p.samplers[name] = s
		}
	}
}

func (p *Program) warnOnce(kind, name string) {
	if _, ok := p.warned[name]; ok {
		return
	}
	p.warned[name] = struct{}{}
	common.LogWarn("program has no "+kind+" with this name, value skipped", "program", p.label, "name", name)
}

// HasUniform reports whether name addresses a uniform member of the program.
func (p *Program) HasUniform(name string) bool {
	_, ok := p.fields[name]
	return ok
}

func (p *Program) set(name string, data []byte) {
	refs, ok := p.fields[name]
	if !ok {
		p.warnOnce("uniform", name)
		return
	}
	for _, ref := range refs {
		n := min(uint64(len(data)), ref.field.Size)
		block := p.blocks[ref.block]
		copy(block.data[ref.field.Offset:ref.field.Offset+n], data[:n])
		block.dirty = true
	}
}

// SetFloat stages an f32 uniform.
func (p *Program) SetFloat(name string, v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	p.set(name, b[:])
}

// SetUint stages a u32 uniform.
func (p *Program) SetUint(name string, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	p.set(name, b[:])
}

// SetInt stages an i32 uniform.
func (p *Program) SetInt(name string, v int32) {
	p.SetUint(name, uint32(v))
}

// SetBool stages a flag. WGSL uniforms cannot hold bool, so flags are declared u32.
func (p *Program) SetBool(name string, v bool) {
	if v {
		p.SetUint(name, 1)
		return
	}
	p.SetUint(name, 0)
}

// SetVec2 stages a vec2<f32> uniform.
func (p *Program) SetVec2(name string, v mgl32.Vec2) {
	p.set(name, common.SliceToBytes(v[:]))
}

// SetVec3 stages a vec3<f32> uniform.
func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	p.set(name, common.SliceToBytes(v[:]))
}

// SetVec4 stages a vec4<f32> uniform.
func (p *Program) SetVec4(name string, v mgl32.Vec4) {
	p.set(name, common.SliceToBytes(v[:]))
}

// SetMat4 stages a mat4x4<f32> uniform.
func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	p.set(name, common.SliceToBytes(m[:]))
}

// SetMat4Array stages the leading elements of an array<mat4x4<f32>, N> uniform. Elements beyond N
// are dropped; elements not supplied keep their previous value.
func (p *Program) SetMat4Array(name string, ms []mgl32.Mat4) {
	p.set(name, common.SliceToBytes(ms))
}

// SetVec4Array stages the leading elements of an array<vec4<f32>, N> uniform.
func (p *Program) SetVec4Array(name string, vs []mgl32.Vec4) {
	p.set(name, common.SliceToBytes(vs))
}

// SetTexture binds a texture view to a texture or storage texture variable.
func (p *Program) SetTexture(name string, view *TextureView) {
	r, ok := p.byName[name]
	if !ok || !(r.IsTexture() || r.IsStorageTexture()) {
		p.warnOnce("texture", name)
		return
	}
	p.textures[name] = view
}

// SetSampler binds a sampler. Samplers left unset fall back to the device defaults.
func (p *Program) SetSampler(name string, s *Sampler) {
	r, ok := p.byName[name]
	if !ok || !r.IsSampler() {
		p.warnOnce("sampler", name)
		return
	}
	p.samplers[name] = s
}

// TextureBinding returns the view staged for a texture variable.
func (p *Program) TextureBinding(name string) *TextureView { return p.textures[name] }

// SamplerBinding returns the sampler staged for a sampler variable.
func (p *Program) SamplerBinding(name string) *Sampler { return p.samplers[name] }

// MissingResources returns the texture variables that have no view bound, sorted by name.
func (p *Program) MissingResources() []string {
	var missing []string
	for _, r := range p.resources {
		if !(r.IsTexture() || r.IsStorageTexture()) {
			continue
		}
		if v := p.textures[r.Name]; v == nil || v.released {
			missing = append(missing, r.Name)
		}
	}
	sort.Strings(missing)
	return missing
}

// uniformBlockAt returns the staging block of a uniform binding, or nil.
func (p *Program) uniformBlockAt(group, binding int) *uniformBlock {
	for _, b := range p.blocks {
		if b.group == group && b.binding == binding {
			return b
		}
	}
	return nil
}

// Snapshot copies every staged value.
func (p *Program) Snapshot() ProgramSnapshot {
	s := ProgramSnapshot{
		Label:    p.label,
		fields:   p.fields,
		blocks:   make([][]byte, len(p.blocks)),
		Textures: make(map[string]*TextureView, len(p.textures)),
		Samplers: make(map[string]*Sampler, len(p.samplers)),
	}
	for i, b := range p.blocks {
		s.blocks[i] = append([]byte(nil), b.data...)
	}
	for k, v := range p.textures {
		s.Textures[k] = v
	}
	for k, v := range p.samplers {
		s.Samplers[k] = v
	}
	return s
}
