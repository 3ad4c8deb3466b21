package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RenderStateBuilderOption is a functional option used to configure a RenderState during construction.
type RenderStateBuilderOption func(*renderState)

// WithDepthTestEnabled sets whether depth testing is enabled.
//
// Parameters:
//   - enabled: a boolean indicating whether depth testing should be enabled
//
// Returns:
//   - RenderStateBuilderOption: a function that sets the depth test enabled state
func WithDepthTestEnabled(enabled bool) RenderStateBuilderOption {
	return func(s *renderState) {
		s.depthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled sets whether depth writing is enabled.
//
// Parameters:
//   - enabled: a boolean indicating whether depth writing should be enabled
//
// Returns:
//   - RenderStateBuilderOption: a function that sets the depth write enabled state
func WithDepthWriteEnabled(enabled bool) RenderStateBuilderOption {
	return func(s *renderState) {
		s.depthWriteEnabled = enabled
	}
}

// WithDepthBias sets the depth bias parameters.
//
// Parameters:
//   - bias: the constant depth bias to apply
//   - slopeScale: the slope scale depth bias to apply
//
// Returns:
//   - RenderStateBuilderOption: a function that sets the depth bias parameters
func WithDepthBias(bias int32, slopeScale float32) RenderStateBuilderOption {
	return func(s *renderState) {
		s.depthBias = bias
		s.depthBiasSlopeScale = slopeScale
	}
}

// WithBlendEnabled sets whether the first color target is alpha blended.
//
// Parameters:
//   - enabled: a boolean indicating whether blending should be enabled
//
// Returns:
//   - RenderStateBuilderOption: a function that sets the blend enabled state
func WithBlendEnabled(enabled bool) RenderStateBuilderOption {
	return func(s *renderState) {
		s.blendEnabled = enabled
	}
}

// WithCullMode sets the cull mode (e.g., wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack).
func WithCullMode(mode wgpu.CullMode) RenderStateBuilderOption {
	return func(s *renderState) {
		s.cullMode = mode
	}
}

// WithTopology sets the primitive topology.
func WithTopology(topology wgpu.PrimitiveTopology) RenderStateBuilderOption {
	return func(s *renderState) {
		s.topology = topology
	}
}

// WithFrontFace sets the front face winding order.
func WithFrontFace(frontFace wgpu.FrontFace) RenderStateBuilderOption {
	return func(s *renderState) {
		s.frontFace = frontFace
	}
}

// WithWriteMask sets the color write mask of targets that are not masked out.
func WithWriteMask(writeMask wgpu.ColorWriteMask) RenderStateBuilderOption {
	return func(s *renderState) {
		s.writeMask = writeMask
	}
}

// WithBlendState sets the blend state used when blending is enabled.
//
// Parameters:
//   - blendState: the blend state to use
//
// Returns:
//   - RenderStateBuilderOption: a function that sets the blend state
func WithBlendState(blendState *wgpu.BlendState) RenderStateBuilderOption {
	return func(s *renderState) {
		if blendState != nil {
			s.blendState = blendState
		}
	}
}
