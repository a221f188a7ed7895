package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/Carmen-Shannon/oxy-cascade/engine/renderer/gpu"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	bloomFormat    = wgpu.TextureFormatRGBA16Float
	bloomWorkgroup = 4

	bloomModePrefilter     uint32 = 0
	bloomModeDownsample    uint32 = 1
	bloomModeUpsampleFirst uint32 = 2
	bloomModeUpsample      uint32 = 3

	minBloomKnee = 1e-4
)

// bloomChain is one mip chain with a view per level.
type bloomChain struct {
	texture *gpu.Texture
	mips    []*gpu.TextureView
}

func (c *bloomChain) release() {
	for _, v := range c.mips {
		v.Release()
	}
	c.mips = nil
	if c.texture != nil {
		c.texture.Release()
		c.texture = nil
	}
}

// BloomPass extracts the bright parts of the HDR image and blurs them through a downsample and
// upsample mip chain on the compute queue.
type BloomPass struct {
	ctx     *RenderContext
	output  ColorConsumer
	program *gpu.Program

	down bloomChain
	up   bloomChain
}

// NewBloomPass loads the bloom compute program. The mip chains are allocated on the first Execute.
func NewBloomPass(ctx *RenderContext) (*BloomPass, error) {
	program, err := ctx.LoadComputeProgram("Bloom", "bloom")
	if err != nil {
		return nil, err
	}
	return &BloomPass{ctx: ctx, program: program}, nil
}

// SetOutput registers the consumer of the image and its bloom.
func (p *BloomPass) SetOutput(c ColorConsumer) { p.output = c }

// BloomMipCount returns the number of levels in the bloom chain of a width x height image. The
// smallest level is no smaller than 8 pixels on its short side.
func BloomMipCount(width, height int) int {
	short := max(min(width, height), 1)
	return max(int(math32.Floor(math32.Log2(float32(short))))-3, 1)
}

// ensureChains allocates both chains for an image of width x height, padded to whole workgroups.
func (p *BloomPass) ensureChains(width, height int) error {
	width = int(common.AlignUp(uint64(width), bloomWorkgroup))
	height = int(common.AlignUp(uint64(height), bloomWorkgroup))
	if t := p.down.texture; t != nil && t.Width() == width && t.Height() == height {
		return nil
	}

	mips := BloomMipCount(width, height)
	down, err := p.newChain("Bloom Downsample", width, height, mips)
	if err != nil {
		return err
	}
	up, err := p.newChain("Bloom Upsample", width, height, mips)
	if err != nil {
		down.release()
		return err
	}
	p.down.release()
	p.up.release()
	p.down, p.up = down, up
	common.LogDebug("bloom chain allocated", "width", width, "height", height, "mips", mips)
	return nil
}

func (p *BloomPass) newChain(label string, width, height, mips int) (bloomChain, error) {
	tex, err := p.ctx.Device.CreateTexture(gpu.TextureDescriptor{
		Label:     label,
		Format:    bloomFormat,
		Width:     width,
		Height:    height,
		MipLevels: mips,
		Usage:     wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return bloomChain{}, fmt.Errorf("failed to allocate %s: %w", label, err)
	}
	chain := bloomChain{texture: tex, mips: make([]*gpu.TextureView, 0, mips)}
	for m := 0; m < mips; m++ {
		v, err := p.ctx.LayerView(tex, 0, m)
		if err != nil {
			chain.release()
			return bloomChain{}, err
		}
		chain.mips = append(chain.mips, v)
	}
	return chain, nil
}

// MipCount returns the number of levels of the current chain, or 0 before the first Execute.
func (p *BloomPass) MipCount() int { return len(p.down.mips) }

// Execute blurs the bright parts of in.Color and forwards the image with its bloom. When bloom is
// disabled the input is forwarded unchanged.
func (p *BloomPass) Execute(in ColorOutput) {
	cfg := p.ctx.Config.Bloom
	if cfg.Enabled && in.Color != nil {
		if err := p.ensureChains(in.Color.Width(), in.Color.Height()); err != nil {
			common.LogError("bloom skipped", "err", err)
		} else {
			p.record(in.Color, cfg.Threshold, cfg.Knee)
			in.Bloom = p.up.mips[0]
		}
	}
	if p.output != nil {
		p.output.Execute(in)
	}
}

func (p *BloomPass) record(src *gpu.Texture, threshold, knee float32) {
	knee = max(knee, minBloomKnee)
	p.program.SetVec4("params", mgl32.Vec4{threshold, threshold - knee, 2 * knee, 0.25 / knee})
	black := p.ctx.Black().View()
	n := len(p.down.mips)

	pass := p.ctx.Device.BeginComputePass("Bloom")
	p.dispatch(pass, bloomModePrefilter, src.View(), black, p.down, 0)
	for i := 1; i < n; i++ {
		p.dispatch(pass, bloomModeDownsample, p.down.mips[i-1], black, p.down, i)
	}
	if n == 1 {
		p.dispatch(pass, bloomModeUpsampleFirst, p.down.mips[0], black, p.up, 0)
	} else {
		p.dispatch(pass, bloomModeUpsampleFirst, p.down.mips[n-2], p.down.mips[n-1], p.up, n-2)
		for i := n - 3; i >= 0; i-- {
			p.dispatch(pass, bloomModeUpsample, p.down.mips[i], p.up.mips[i+1], p.up, i)
		}
	}
	pass.End()
}

// dispatch runs one step of the chain, writing level mip of target.
func (p *BloomPass) dispatch(pass gpu.ComputePass, mode uint32, input, bloom *gpu.TextureView, target bloomChain, mip int) {
	p.program.SetUint("mode", mode)
	p.program.SetTexture("input_tex", input)
	p.program.SetTexture("bloom_tex", bloom)
	p.program.SetTexture("output_tex", target.mips[mip])
	w, h := target.texture.MipSize(mip)
	pass.Dispatch(p.program, common.CeilDiv(uint32(w), bloomWorkgroup), common.CeilDiv(uint32(h), bloomWorkgroup), 1)
}

// Release frees both mip chains.
func (p *BloomPass) Release() {
	p.down.release()
	p.up.release()
}
