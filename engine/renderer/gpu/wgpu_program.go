package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuProgram holds the native objects of a Program.
type wgpuProgram struct {
	vertex, fragment, compute *wgpu.ShaderModule
	groupLayouts              []*wgpu.BindGroupLayout
	layout                    *wgpu.PipelineLayout
}

func (w *wgpuProgram) release() {
	for _, m := range []*wgpu.ShaderModule{w.vertex, w.fragment, w.compute} {
		if m != nil {
			m.Release()
		}
	}
	for _, l := range w.groupLayouts {
		l.Release()
	}
	if w.layout != nil {
		w.layout.Release()
	}
}

func (d *wgpuDevice) CreateProgram(desc ProgramDescriptor) (*Program, error) {
	p, err := NewProgram(desc)
	if err != nil {
		return nil, err
	}

	native := &wgpuProgram{}
	compile := func(s shader.Shader) (*wgpu.ShaderModule, error) {
		if s == nil {
			return nil, nil
		}
		m, err := d.device.CreateShaderModule(s.Module())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", common.ErrShaderCompile, s.Key(), err)
		}
		return m, nil
	}
	if native.vertex, err = compile(desc.Vertex); err != nil {
		native.release()
		return nil, err
	}
	if native.fragment, err = compile(desc.Fragment); err != nil {
		native.release()
		return nil, err
	}
	if native.compute, err = compile(desc.Compute); err != nil {
		native.release()
		return nil, err
	}

	// Every group index up to the highest used one gets a layout, empty ones included, so
	// the pipeline layout has no holes.
	layouts := p.BindGroupLayouts()
	for g := 0; g < p.GroupCount(); g++ {
		layoutDesc := wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s Group %d Layout", p.Label(), g),
			Entries: append([]wgpu.BindGroupLayoutEntry(nil), layouts[g].Entries...),
		}
		for i := range layoutDesc.Entries {
			entry := &layoutDesc.Entries[i]
			if entry.Buffer.Type != wgpu.BufferBindingTypeUniform {
				continue
			}
			entry.Buffer.HasDynamicOffset = true
			if block := p.uniformBlockAt(g, int(entry.Binding)); block != nil {
				entry.Buffer.MinBindingSize = block.size
			}
		}
		layout, err := d.device.CreateBindGroupLayout(&layoutDesc)
		if err != nil {
			native.release()
			return nil, fmt.Errorf("failed to create bind group layout %d of %q: %w", g, p.Label(), err)
		}
		native.groupLayouts = append(native.groupLayouts, layout)
	}

	native.layout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Label() + " Layout",
		BindGroupLayouts: native.groupLayouts,
	})
	if err != nil {
		native.release()
		return nil, fmt.Errorf("failed to create pipeline layout of %q: %w", p.Label(), err)
	}

	p.Attach(native, native.release)
	common.LogDebug("program created", "label", p.Label(), "groups", len(native.groupLayouts))
	return p, nil
}

// renderPipeline returns the cached native pipeline for a program, render state, target formats and
// sample count.
func (d *wgpuDevice) renderPipeline(p *Program, state pipeline.Pipeline, colorFormats []wgpu.TextureFormat, depthFormat wgpu.TextureFormat, samples int) (*wgpu.RenderPipeline, error) {
	key := fmt.Sprintf("%s#%d|%s|%v|%d|x%d", p.ID(), p.Generation(), state.Key(), colorFormats, depthFormat, samples)
	if rp, ok := d.renderPipelines[key]; ok {
		return rp, nil
	}

	native := p.Handle().(*wgpuProgram)
	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.Label() + " " + state.Label(),
		Layout: native.layout,
		Vertex: wgpu.VertexState{
			Module:     native.vertex,
			EntryPoint: p.vertex.EntryPoint(),
			Buffers:    p.vertex.VertexLayouts(),
		},
		Primitive:    state.Primitive(),
		DepthStencil: state.DepthStencil(depthFormat),
		Multisample: wgpu.MultisampleState{
			Count: uint32(max(samples, 1)),
			Mask:  0xFFFFFFFF,
		},
	}
	if p.fragment != nil {
		desc.Fragment = &wgpu.FragmentState{
			Module:     native.fragment,
			EntryPoint: p.fragment.EntryPoint(),
			Targets:    state.ColorTargets(colorFormats),
		}
	}

	created, err := d.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", desc.Label, err)
	}
	d.renderPipelines[key] = created
	return created, nil
}

// computePipeline returns the cached native pipeline of a compute program.
func (d *wgpuDevice) computePipeline(p *Program) (*wgpu.ComputePipeline, error) {
	key := fmt.Sprintf("%s#%d", p.ID(), p.Generation())
	if cp, ok := d.computePipelines[key]; ok {
		return cp, nil
	}
	native := p.Handle().(*wgpuProgram)
	created, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.Label() + " Compute Pipeline",
		Layout: native.layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     native.compute,
			EntryPoint: p.compute.EntryPoint(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create compute pipeline %q: %w", p.Label(), err)
	}
	d.computePipelines[key] = created
	return created, nil
}

// warnSkip logs once per program that its draws are skipped.
func (d *wgpuDevice) warnSkip(p *Program, reason string, keyvals ...any) {
	if _, ok := d.skipWarned[p.ID()]; ok {
		return
	}
	d.skipWarned[p.ID()] = struct{}{}
	common.LogWarn(reason, append([]any{"program", p.Label()}, keyvals...)...)
}
