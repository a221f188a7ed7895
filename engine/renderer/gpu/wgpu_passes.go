package gpu

import (
	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuRenderPass records draws into one native render pass.
type wgpuRenderPass struct {
	d            *wgpuDevice
	label        string
	pass         *wgpu.RenderPassEncoder
	colorFormats []wgpu.TextureFormat
	depthFormat  wgpu.TextureFormat
	sampleCount  int
}

// noopPass stands in for a pass that could not be started; the failure has been logged.
type noopPass struct{}

func (noopPass) SetViewport(x, y, width, height float32) {}
func (noopPass) Draw(call DrawCall)                        {}
func (noopPass) Dispatch(program *Program, x, y, z uint32) {}
func (noopPass) End()                                      {}

func (d *wgpuDevice) BeginRenderPass(desc RenderPassDescriptor) RenderPass {
	encoder, err := d.frameEncoder()
	if err != nil {
		common.LogError("render pass skipped", "pass", desc.Label, "err", err)
		return noopPass{}
	}

	native := &wgpu.RenderPassDescriptor{Label: desc.Label}
	for _, c := range desc.Colors {
		attachment := wgpu.RenderPassColorAttachment{
			View:       c.View.Handle().(*wgpu.TextureView),
			LoadOp:     c.LoadOp,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: c.Clear,
		}
		if c.Resolve != nil {
			attachment.ResolveTarget = c.Resolve.Handle().(*wgpu.TextureView)
		}
		native.ColorAttachments = append(native.ColorAttachments, attachment)
	}
	if desc.Depth != nil {
		native.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            desc.Depth.View.Handle().(*wgpu.TextureView),
			DepthLoadOp:     desc.Depth.LoadOp,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: desc.Depth.Clear,
		}
	}

	return &wgpuRenderPass{
		d:            d,
		label:        desc.Label,
		pass:         encoder.BeginRenderPass(native),
		colorFormats: desc.ColorFormats(),
		depthFormat:  desc.DepthFormat(),
		sampleCount:  desc.SampleCount(),
	}
}

func (r *wgpuRenderPass) SetViewport(x, y, width, height float32) {
	r.pass.SetViewport(x, y, width, height, 0, 1)
}

func (r *wgpuRenderPass) Draw(call DrawCall) {
	call = call.Resolve()
	p := call.Program
	if p == nil || call.State == nil {
		return
	}
	if missing := p.MissingResources(); len(missing) > 0 {
		r.d.warnSkip(p, "draw skipped, textures not bound", "missing", missing)
		return
	}

	rp, err := r.d.renderPipeline(p, call.State, r.colorFormats, r.depthFormat, r.sampleCount)
	if err != nil {
		r.d.warnSkip(p, "draw skipped, pipeline unavailable", "err", err)
		return
	}
	groups, err := r.d.bindGroups.resolve(r.d, p, p.Handle().(*wgpuProgram))
	if err != nil {
		r.d.warnSkip(p, "draw skipped, bind groups unavailable", "err", err)
		return
	}

	r.pass.SetPipeline(rp)
	for i, g := range groups {
		r.pass.SetBindGroup(uint32(i), g.group, g.offsets)
	}

	instances := uint32(call.InstanceCount)
	va := call.VertexArray
	if va == nil {
		r.pass.Draw(uint32(call.VertexCount), instances, 0, 0)
		return
	}
	r.pass.SetVertexBuffer(0, va.VertexHandle().(*wgpu.Buffer), 0, wgpu.WholeSize)
	if va.Indexed() {
		r.pass.SetIndexBuffer(va.IndexHandle().(*wgpu.Buffer), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		r.pass.DrawIndexed(uint32(call.IndexCount), instances, uint32(call.FirstIndex), 0, 0)
		return
	}
	r.pass.Draw(uint32(call.VertexCount), instances, 0, 0)
}

func (r *wgpuRenderPass) End() {
	r.pass.End()
	r.pass.Release()
}

// wgpuComputePass records dispatches into one native compute pass.
type wgpuComputePass struct {
	d     *wgpuDevice
	label string
	pass  *wgpu.ComputePassEncoder
}

func (d *wgpuDevice) BeginComputePass(label string) ComputePass {
	encoder, err := d.frameEncoder()
	if err != nil {
		common.LogError("compute pass skipped", "pass", label, "err", err)
		return noopPass{}
	}
	return &wgpuComputePass{
		d:     d,
		label: label,
		pass:  encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label}),
	}
}

func (c *wgpuComputePass) Dispatch(p *Program, x, y, z uint32) {
	if p == nil || !p.IsCompute() || x == 0 || y == 0 || z == 0 {
		return
	}
	if missing := p.MissingResources(); len(missing) > 0 {
		c.d.warnSkip(p, "dispatch skipped, textures not bound", "missing", missing)
		return
	}
	cp, err := c.d.computePipeline(p)
	if err != nil {
		c.d.warnSkip(p, "dispatch skipped, pipeline unavailable", "err", err)
		return
	}
	groups, err := c.d.bindGroups.resolve(c.d, p, p.Handle().(*wgpuProgram))
	if err != nil {
		c.d.warnSkip(p, "dispatch skipped, bind groups unavailable", "err", err)
		return
	}
	c.pass.SetPipeline(cp)
	for i, g := range groups {
		c.pass.SetBindGroup(uint32(i), g.group, g.offsets)
	}
	c.pass.DispatchWorkgroups(x, y, z)
}

func (c *wgpuComputePass) End() {
	c.pass.End()
	c.pass.Release()
}
