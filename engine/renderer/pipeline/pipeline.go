package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Stages names the compiled module and entry points a render pipeline runs.
type Stages struct {
	Module         *wgpu.ShaderModule
	VertexEntry    string
	FragmentEntry  string
	VertexBuffers  []wgpu.VertexBufferLayout
	DepthFormat    wgpu.TextureFormat
	ColorTargets   []wgpu.TextureFormat
	// Masked lists color targets, by index, that the pipeline must not write.
	Masked map[int]bool
}

// renderState is the implementation of the RenderState interface.
type renderState struct {
	// The following properties configure the fixed-function stages and can be toggled/set with the builder options.

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// RenderState holds the fixed-function configuration every render pipeline of a backend shares:
// depth, blend, cull and topology settings. Shader variants differ only in their Stages.
type RenderState interface {
	// DepthTestEnabled returns whether depth testing is enabled.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled.
	DepthWriteEnabled() bool

	// BlendEnabled returns whether blending is enabled.
	BlendEnabled() bool

	// CullMode returns the cull mode.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology.
	Topology() wgpu.PrimitiveTopology

	// Descriptor builds the descriptor for one render pipeline.
	//
	// Parameters:
	//   - label: debug label of the pipeline
	//   - layout: the pipeline layout
	//   - stages: module, entry points and attachment formats
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor to create the pipeline from
	Descriptor(label string, layout *wgpu.PipelineLayout, stages Stages) *wgpu.RenderPipelineDescriptor
}

var _ RenderState = &renderState{}

// NewRenderState creates the state for opaque, depth-tested, back-face culled triangle lists.
//
// Parameters:
//   - opts: a variadic list of RenderStateBuilderOption functions to configure the state
//
// Returns:
//   - RenderState: the configured state
func NewRenderState(opts ...RenderStateBuilderOption) RenderState {
	s := &renderState{
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeBack,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *renderState) DepthTestEnabled() bool {
	return s.depthTestEnabled
}

func (s *renderState) DepthWriteEnabled() bool {
	return s.depthWriteEnabled
}

func (s *renderState) BlendEnabled() bool {
	return s.blendEnabled
}

func (s *renderState) CullMode() wgpu.CullMode {
	return s.cullMode
}

func (s *renderState) Topology() wgpu.PrimitiveTopology {
	return s.topology
}

func (s *renderState) Descriptor(label string, layout *wgpu.PipelineLayout, stages Stages) *wgpu.RenderPipelineDescriptor {
	targets := make([]wgpu.ColorTargetState, len(stages.ColorTargets))
	for i, format := range stages.ColorTargets {
		targets[i] = wgpu.ColorTargetState{Format: format, WriteMask: s.writeMask}
		if stages.Masked[i] {
			targets[i].WriteMask = wgpu.ColorWriteMask(0)
		}
	}
	// Blending applies to the first target only; the others hold integer data.
	if s.blendEnabled && len(targets) > 0 {
		targets[0].Blend = s.blendState
	}

	compare := wgpu.CompareFunctionAlways
	if s.depthTestEnabled {
		compare = wgpu.CompareFunctionLess
	}

	return &wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     stages.Module,
			EntryPoint: stages.VertexEntry,
			Buffers:    stages.VertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     stages.Module,
			EntryPoint: stages.FragmentEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  s.topology,
			FrontFace: s.frontFace,
			CullMode:  s.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              stages.DepthFormat,
			DepthWriteEnabled:   s.depthWriteEnabled,
			DepthCompare:        compare,
			DepthBias:           s.depthBias,
			DepthBiasSlopeScale: s.depthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	}
}
