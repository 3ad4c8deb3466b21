package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stages() Stages {
	return Stages{
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		DepthFormat:   wgpu.TextureFormatDepth24Plus,
		ColorTargets:  []wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatR32Uint},
	}
}

func TestDefaultStateIsOpaqueAndDepthTested(t *testing.T) {
	d := NewRenderState().Descriptor("lit", nil, stages())

	assert.Equal(t, "lit", d.Label)
	assert.Equal(t, "vs_main", d.Vertex.EntryPoint)
	require.NotNil(t, d.Fragment)
	assert.Equal(t, "fs_main", d.Fragment.EntryPoint)
	require.Len(t, d.Fragment.Targets, 2)
	for _, target := range d.Fragment.Targets {
		assert.Nil(t, target.Blend)
		assert.Equal(t, wgpu.ColorWriteMaskAll, target.WriteMask)
	}
	assert.Equal(t, wgpu.CullModeBack, d.Primitive.CullMode)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, d.Primitive.Topology)
	require.NotNil(t, d.DepthStencil)
	assert.True(t, d.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, wgpu.CompareFunctionLess, d.DepthStencil.DepthCompare)
	assert.Equal(t, wgpu.TextureFormatDepth24Plus, d.DepthStencil.Format)
}

func TestMaskedTargetsAreNotWritten(t *testing.T) {
	st := stages()
	st.Masked = map[int]bool{1: true}
	d := NewRenderState().Descriptor("no-id", nil, st)

	assert.Equal(t, wgpu.ColorWriteMaskAll, d.Fragment.Targets[0].WriteMask)
	assert.Equal(t, wgpu.ColorWriteMask(0), d.Fragment.Targets[1].WriteMask)
}

func TestBlendingAppliesToFirstTargetOnly(t *testing.T) {
	s := NewRenderState(
		WithBlendEnabled(true),
		WithDepthTestEnabled(false),
		WithDepthWriteEnabled(false),
		WithCullMode(wgpu.CullModeNone),
		WithDepthBias(2, 1.5),
	)
	d := s.Descriptor("overlay", nil, stages())

	assert.NotNil(t, d.Fragment.Targets[0].Blend)
	assert.Nil(t, d.Fragment.Targets[1].Blend)
	assert.Equal(t, wgpu.CompareFunctionAlways, d.DepthStencil.DepthCompare)
	assert.False(t, d.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, int32(2), d.DepthStencil.DepthBias)
	assert.Equal(t, wgpu.CullModeNone, s.CullMode())
}
