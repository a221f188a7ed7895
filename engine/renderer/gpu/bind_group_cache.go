package gpu

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// maxCachedBindGroups bounds the bind group cache; the whole cache is dropped when it is exceeded.
const maxCachedBindGroups = 512

// boundGroup is a resolved bind group and the dynamic offsets of its uniform bindings.
type boundGroup struct {
	group   *wgpu.BindGroup
	offsets []uint32
}

// bindGroupCache keeps native bind groups keyed by the identities of the resources they reference.
// Uniform bindings reference whole arena pages, so a group stays valid across draws and frames
// while only the dynamic offsets change.
type bindGroupCache struct {
	device *wgpu.Device
	groups map[string]*wgpu.BindGroup
}

func newBindGroupCache(device *wgpu.Device) *bindGroupCache {
	return &bindGroupCache{
		device: device,
		groups: make(map[string]*wgpu.BindGroup),
	}
}

// resolve builds or fetches every bind group of a program for one draw, staging uniform blocks
// into the arena.
//
// Parameters:
//   - d: the owning device, for the arena and default samplers
//   - p: the program with its staged values
//   - native: the native program objects
//
// Returns:
//   - []boundGroup: one entry per group index
//   - error: a staging or creation error
func (c *bindGroupCache) resolve(d *wgpuDevice, p *Program, native *wgpuProgram) ([]boundGroup, error) {
	out := make([]boundGroup, len(native.groupLayouts))
	for g := range native.groupLayouts {
		var key strings.Builder
		fmt.Fprintf(&key, "%s#%d/%d", p.id, p.generation, g)

		var entries []wgpu.BindGroupEntry
		var offsets []uint32
		for _, r := range p.resources {
			if r.Group != g {
				continue
			}
			entry := wgpu.BindGroupEntry{Binding: uint32(r.Binding)}
			switch {
			case r.IsUniformBuffer():
				block := p.uniformBlockAt(r.Group, r.Binding)
				if block == nil {
					return nil, fmt.Errorf("%w: uniform %q of %q has no resolvable layout", common.ErrShaderCompile, r.Name, p.label)
				}
				if block.dirty || block.epoch != d.arena.epoch {
					page, offset, err := d.arena.alloc(block.data)
					if err != nil {
						return nil, err
					}
					block.page, block.offset, block.epoch, block.dirty = page, offset, d.arena.epoch, false
				}
				entry.Buffer = d.arena.pages[block.page].buffer
				entry.Size = block.size
				offsets = append(offsets, uint32(block.offset))
				fmt.Fprintf(&key, "|u%d", block.page)
			case r.IsTexture() || r.IsStorageTexture():
				view := p.textures[r.Name]
				entry.TextureView = view.handle.(*wgpu.TextureView)
				fmt.Fprintf(&key, "|t%s", view.id)
			case r.IsSampler():
				s := p.samplers[r.Name]
				if s == nil {
					s = d.linearSampler
					if r.Entry.Sampler.Type == wgpu.SamplerBindingTypeComparison {
						s = d.comparisonSampler
					}
				}
				entry.Sampler = s.handle.(*wgpu.Sampler)
				fmt.Fprintf(&key, "|s%s", s.id)
			default:
				return nil, fmt.Errorf("%w: storage buffer %q of %q is not supported", common.ErrInvalidDescriptor, r.Name, p.label)
			}
			entries = append(entries, entry)
		}

		k := key.String()
		bg, ok := c.groups[k]
		if !ok {
			if len(c.groups) >= maxCachedBindGroups {
				c.clear()
			}
			var err error
			bg, err = c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:   fmt.Sprintf("%s Group %d", p.label, g),
				Layout:  native.groupLayouts[g],
				Entries: entries,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create bind group %d of %q: %w", g, p.label, err)
			}
			c.groups[k] = bg
		}
		out[g] = boundGroup{group: bg, offsets: offsets}
	}
	return out, nil
}

// clear releases every cached group. Command buffers already recorded keep their own references.
func (c *bindGroupCache) clear() {
	for k, bg := range c.groups {
		bg.Release()
		delete(c.groups, k)
	}
}
