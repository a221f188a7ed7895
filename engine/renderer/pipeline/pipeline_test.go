package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("default")

	assert.Equal(t, "default", p.Label())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.CompareFunctionLess, p.DepthCompare())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.False(t, p.BlendEnabled())
}

func TestDepthStencilState(t *testing.T) {
	p := NewPipeline("skybox",
		WithDepthCompare(wgpu.CompareFunctionLessEqual),
		WithDepthWriteEnabled(false),
	)

	assert.Nil(t, p.DepthStencil(wgpu.TextureFormatUndefined))

	ds := p.DepthStencil(wgpu.TextureFormatDepth32Float)
	require.NotNil(t, ds)
	assert.Equal(t, wgpu.TextureFormatDepth32Float, ds.Format)
	assert.Equal(t, wgpu.CompareFunctionLessEqual, ds.DepthCompare)
	assert.False(t, ds.DepthWriteEnabled)

	off := NewPipeline("fullscreen", WithDepthTestEnabled(false))
	assert.Equal(t, wgpu.CompareFunctionAlways, off.DepthStencil(wgpu.TextureFormatDepth32Float).DepthCompare)
}

func TestColorTargetsApplyBlendOnlyWhenEnabled(t *testing.T) {
	formats := []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float, wgpu.TextureFormatBGRA8Unorm}

	opaque := NewPipeline("opaque").ColorTargets(formats)
	require.Len(t, opaque, 2)
	assert.Nil(t, opaque[0].Blend)
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, opaque[1].Format)

	blended := NewPipeline("blended", WithBlendEnabled(true)).ColorTargets(formats)
	assert.NotNil(t, blended[0].Blend)

	assert.Empty(t, NewPipeline("depth-only").ColorTargets(nil))
}

func TestKeyDistinguishesState(t *testing.T) {
	a := NewPipeline("a", WithCullMode(wgpu.CullModeFront))
	b := NewPipeline("b", WithCullMode(wgpu.CullModeFront))
	c := NewPipeline("c", WithCullMode(wgpu.CullModeBack))
	d := NewPipeline("d", WithCullMode(wgpu.CullModeFront), WithBlendEnabled(true))

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.NotEqual(t, a.Key(), d.Key())
}
