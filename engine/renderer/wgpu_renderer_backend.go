package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/light"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/pipeline"
)

const (
	colorTargetFormat = wgpu.TextureFormatRGBA8Unorm
	idTargetFormat    = wgpu.TextureFormatR32Uint
	depthTargetFormat = wgpu.TextureFormatDepth24Plus

	// copyRowAlignment is the WebGPU requirement on bytesPerRow for texture-to-buffer copies.
	copyRowAlignment = 256
)

// releaser is any wgpu object that must be released at the end of a frame.
type releaser interface {
	Release()
}

type wgpuShader struct {
	shader   Shader
	module   *wgpu.ShaderModule
	layout   *wgpu.PipelineLayout
	pipeline *wgpu.RenderPipeline
}

type wgpuMesh struct {
	mesh   Mesh
	vertex *wgpu.Buffer
	index  *wgpu.Buffer
}

type wgpuTexture struct {
	texture Texture
	tex     *wgpu.Texture
	view    *wgpu.TextureView
}

// wgpuRendererBackendImpl renders offscreen into a color target and an object-id target.
// There is no surface: windowing belongs to the host application.
type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	logger *slog.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	width, height int
	colorTex      *wgpu.Texture
	colorView     *wgpu.TextureView
	idTex         *wgpu.Texture
	idView        *wgpu.TextureView
	depthTex      *wgpu.Texture
	depthView     *wgpu.TextureView
	readback      *wgpu.Buffer
	readbackRow   uint32

	renderState    pipeline.RenderState
	sampler        *wgpu.Sampler
	frameLayout    *wgpu.BindGroupLayout
	drawLayout     *wgpu.BindGroupLayout
	textureLayouts map[[TextureSlotCount]bool]*wgpu.BindGroupLayout

	nextID   uint64
	shaders  map[uint64]*wgpuShader
	meshes   map[uint64]*wgpuMesh
	textures map[uint64]*wgpuTexture

	// Frame state for the draw calls recorded between BeginFrame and EndFrame.
	frameEncoder   *wgpu.CommandEncoder
	framePass      *wgpu.RenderPassEncoder
	frameBindings  bind_group_provider.BindGroupProvider
	frameBindGroup *wgpu.BindGroup
	frameGarbage   []releaser

	// idPixels caches the id target of the last frame once it has been read back.
	idPixels   []uint32
	idReadable bool
	idFresh    bool
}

var _ Backend = &wgpuRendererBackendImpl{}

func newWGPUBackend(cfg backendConfig) (Backend, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:             &sync.Mutex{},
		logger:         cfg.logger,
		instance:       wgpu.CreateInstance(nil),
		renderState:    pipeline.NewRenderState(),
		textureLayouts: make(map[[TextureSlotCount]bool]*wgpu.BindGroupLayout),
		shaders:        make(map[uint64]*wgpuShader),
		meshes:         make(map[uint64]*wgpuMesh),
		textures:       make(map[uint64]*wgpuTexture),
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Editor Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if err := b.createSharedLayouts(); err != nil {
		return nil, err
	}
	if err := b.createTargets(cfg.width, cfg.height); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *wgpuRendererBackendImpl) createSharedLayouts() error {
	var err error
	b.frameLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Frame Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create frame layout: %w", err)
	}
	b.frameBindings = bind_group_provider.NewBindGroupProvider("Frame Bind Group", b.frameLayout,
		bind_group_provider.WithBindings(frameBindingUniforms, frameBindingLights))

	b.drawLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Draw Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create draw layout: %w", err)
	}

	b.sampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Material Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create sampler: %w", err)
	}
	return nil
}

// textureLayout returns the bind group layout for one combination of sampled texture slots.
func (b *wgpuRendererBackendImpl) textureLayout(slots [TextureSlotCount]bool) (*wgpu.BindGroupLayout, error) {
	if l, ok := b.textureLayouts[slots]; ok {
		return l, nil
	}
	entries := []wgpu.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: wgpu.ShaderStageFragment,
		Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
	}}
	for slot, on := range slots {
		if !on {
			continue
		}
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(slot) + 1,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		})
	}
	l, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Texture Bind Group Layout",
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	b.textureLayouts[slots] = l
	return l, nil
}

func (b *wgpuRendererBackendImpl) createTargets(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid framebuffer size %dx%d", width, height)
	}
	b.releaseTargets()

	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	create := func(label string, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*wgpu.Texture, *wgpu.TextureView, error) {
		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         label,
			Usage:         usage,
			Dimension:     wgpu.TextureDimension2D,
			Size:          size,
			Format:        format,
			MipLevelCount: 1,
			SampleCount:   1,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s: %w", label, err)
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return nil, nil, fmt.Errorf("failed to create %s view: %w", label, err)
		}
		return tex, view, nil
	}

	var err error
	if b.colorTex, b.colorView, err = create("Color Target", colorTargetFormat, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageCopySrc); err != nil {
		return err
	}
	if b.idTex, b.idView, err = create("Object ID Target", idTargetFormat, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageCopySrc); err != nil {
		return err
	}
	if b.depthTex, b.depthView, err = create("Depth Target", depthTargetFormat, wgpu.TextureUsageRenderAttachment); err != nil {
		return err
	}

	b.readbackRow = alignUp(uint32(width)*4, copyRowAlignment)
	b.readback, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Object ID Readback",
		Size:  uint64(b.readbackRow) * uint64(height),
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create readback buffer: %w", err)
	}

	b.width, b.height = width, height
	b.idPixels = make([]uint32, width*height)
	b.idReadable = false
	b.idFresh = false
	return nil
}

func (b *wgpuRendererBackendImpl) releaseTargets() {
	for _, r := range []releaser{b.colorView, b.colorTex, b.idView, b.idTex, b.depthView, b.depthTex, b.readback} {
		if r != nil && !isNilReleaser(r) {
			r.Release()
		}
	}
	b.colorView, b.colorTex, b.idView, b.idTex, b.depthView, b.depthTex, b.readback = nil, nil, nil, nil, nil, nil, nil
}

func (b *wgpuRendererBackendImpl) CompileShader(src ShaderSource) (Shader, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: src.Key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: src.Code,
		},
	})
	if err != nil {
		return Shader{}, fmt.Errorf("%w: %s: %w", common.ErrShaderCompileFailure, src.Key, err)
	}

	layouts := []*wgpu.BindGroupLayout{b.frameLayout, b.drawLayout}
	textured := false
	for _, on := range src.Textures {
		textured = textured || on
	}
	if textured {
		tl, err := b.textureLayout(src.Textures)
		if err != nil {
			module.Release()
			return Shader{}, fmt.Errorf("%w: %s: %w", common.ErrShaderCompileFailure, src.Key, err)
		}
		layouts = append(layouts, tl)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            src.Key,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		module.Release()
		return Shader{}, fmt.Errorf("%w: %s: %w", common.ErrShaderCompileFailure, src.Key, err)
	}

	created, err := b.device.CreateRenderPipeline(b.renderState.Descriptor(src.Key+" Render Pipeline", pipelineLayout, pipeline.Stages{
		Module:        module,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		VertexBuffers: []wgpu.VertexBufferLayout{vertexLayout()},
		DepthFormat:   depthTargetFormat,
		ColorTargets:  []wgpu.TextureFormat{colorTargetFormat, idTargetFormat},
		Masked:        map[int]bool{1: !src.ObjectID},
	}))
	if err != nil {
		pipelineLayout.Release()
		module.Release()
		return Shader{}, fmt.Errorf("%w: %s: %w", common.ErrShaderCompileFailure, src.Key, err)
	}

	b.nextID++
	s := Shader{
		ID:         b.nextID,
		Key:        src.Key,
		Textures:   src.Textures,
		ObjectID:   src.ObjectID,
		LightCount: src.LightCount,
	}
	b.shaders[s.ID] = &wgpuShader{shader: s, module: module, layout: pipelineLayout, pipeline: created}
	return s, nil
}

func vertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: model.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3},
		},
	}
}

func (b *wgpuRendererBackendImpl) UploadMesh(vertices []byte, stride int, indices []uint32) (Mesh, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if stride != model.VertexStride || len(vertices) == 0 || len(vertices)%stride != 0 {
		return Mesh{}, fmt.Errorf("vertex data of %d bytes does not match stride %d", len(vertices), stride)
	}
	if len(indices) == 0 {
		return Mesh{}, errors.New("mesh has no indices")
	}

	b.nextID++
	label := fmt.Sprintf("Mesh %d", b.nextID)
	vbuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(len(vertices)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return Mesh{}, err
	}
	b.queue.WriteBuffer(vbuf, 0, vertices)

	ibuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Index Buffer",
		Size:  uint64(len(indices) * 4),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vbuf.Release()
		return Mesh{}, err
	}
	b.queue.WriteBuffer(ibuf, 0, common.SliceToBytes(indices))

	m := Mesh{ID: b.nextID, VertexCount: len(vertices) / stride, IndexCount: len(indices)}
	b.meshes[m.ID] = &wgpuMesh{mesh: m, vertex: vbuf, index: ibuf}
	return m, nil
}

func (b *wgpuRendererBackendImpl) UploadTexture(pixels []byte, format TextureFormat, width, height int) (Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if format != TextureFormatRGBA8 {
		return Texture{}, fmt.Errorf("unsupported texture format %d", format)
	}
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return Texture{}, fmt.Errorf("texture data is %d bytes for %dx%d", len(pixels), width, height)
	}

	extent := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Material Texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return Texture{}, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width) * 4,
			RowsPerImage: uint32(height),
		},
		&extent,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return Texture{}, err
	}

	b.nextID++
	t := Texture{ID: b.nextID, Width: width, Height: height, Format: format}
	b.textures[t.ID] = &wgpuTexture{texture: t, tex: tex, view: view}
	return t, nil
}

func (b *wgpuRendererBackendImpl) ReleaseShader(s Shader) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ws, ok := b.shaders[s.ID]; ok {
		ws.pipeline.Release()
		ws.layout.Release()
		ws.module.Release()
		delete(b.shaders, s.ID)
	}
}

func (b *wgpuRendererBackendImpl) ReleaseMesh(m Mesh) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if wm, ok := b.meshes[m.ID]; ok {
		wm.vertex.Release()
		wm.index.Release()
		delete(b.meshes, m.ID)
	}
}

func (b *wgpuRendererBackendImpl) ReleaseTexture(t Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if wt, ok := b.textures[t.ID]; ok {
		wt.view.Release()
		wt.tex.Release()
		delete(b.textures, t.ID)
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame(params FrameParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		return errors.New("frame already in progress")
	}

	err := b.frameBindings.Write(wgpuAllocator{b.device, b.queue}, []bind_group_provider.BufferWrite{
		{Binding: frameBindingUniforms, Data: marshalFrameUniforms(params)},
		{Binding: frameBindingLights, Data: light.MarshalLights(params.Lights)},
	})
	if err != nil {
		return err
	}
	b.frameBindGroup = b.frameBindings.BindGroup()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		b.releaseFrameGarbage()
		return err
	}

	c := params.ClearColor
	b.framePass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.colorView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])},
			},
			{
				View:       b.idView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	b.frameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) Draw(cmd DrawCommand) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return errors.New("draw outside of a frame")
	}
	ws, ok := b.shaders[cmd.Shader.ID]
	if !ok {
		return fmt.Errorf("unknown shader %d (%s)", cmd.Shader.ID, cmd.Shader.Key)
	}
	wm, ok := b.meshes[cmd.Mesh.ID]
	if !ok {
		return fmt.Errorf("unknown mesh %d", cmd.Mesh.ID)
	}

	drawBuf, err := b.uniformBuffer("Draw Uniforms", marshalDrawUniforms(cmd))
	if err != nil {
		return err
	}
	b.frameGarbage = append(b.frameGarbage, drawBuf)
	drawGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Draw Bind Group",
		Layout:  b.drawLayout,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: drawBuf, Offset: 0, Size: wgpu.WholeSize}},
	})
	if err != nil {
		return err
	}
	b.frameGarbage = append(b.frameGarbage, drawGroup)

	var textureGroup *wgpu.BindGroup
	entries := []wgpu.BindGroupEntry{{Binding: 0, Sampler: b.sampler}}
	for slot, on := range ws.shader.Textures {
		if !on {
			continue
		}
		wt, ok := b.textures[cmd.Textures[slot].ID]
		if !ok {
			return fmt.Errorf("unknown %s texture %d", TextureSlot(slot), cmd.Textures[slot].ID)
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(slot) + 1, TextureView: wt.view})
	}
	if len(entries) > 1 {
		layout, err := b.textureLayout(ws.shader.Textures)
		if err != nil {
			return err
		}
		textureGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   "Texture Bind Group",
			Layout:  layout,
			Entries: entries,
		})
		if err != nil {
			return err
		}
		b.frameGarbage = append(b.frameGarbage, textureGroup)
	}

	b.framePass.SetPipeline(ws.pipeline)
	b.framePass.SetBindGroup(0, b.frameBindGroup, nil)
	b.framePass.SetBindGroup(1, drawGroup, nil)
	if textureGroup != nil {
		b.framePass.SetBindGroup(2, textureGroup, nil)
	}
	b.framePass.SetVertexBuffer(0, wm.vertex, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(wm.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(wm.mesh.IndexCount), 1, 0, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errors.New("no frame in progress")
	}
	defer func() {
		b.frameEncoder.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameBindGroup = nil
		b.releaseFrameGarbage()
	}()

	b.framePass.End()
	b.frameEncoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  b.idTex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: b.readback,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  b.readbackRow,
				RowsPerImage: uint32(b.height),
			},
		},
		&wgpu.Extent3D{Width: uint32(b.width), Height: uint32(b.height), DepthOrArrayLayers: 1},
	)

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish frame: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.idReadable = true
	b.idFresh = false
	return nil
}

func (b *wgpuRendererBackendImpl) ReadPixel(x, y int) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, fmt.Errorf("pixel (%d, %d) outside %dx%d framebuffer", x, y, b.width, b.height)
	}
	if !b.idReadable {
		return 0, nil
	}
	if !b.idFresh {
		if err := b.readIDTarget(); err != nil {
			return 0, err
		}
	}
	// Texture rows run top to bottom.
	return b.idPixels[(b.height-1-y)*b.width+x], nil
}

// readIDTarget maps the readback buffer and unpacks its padded rows into idPixels.
func (b *wgpuRendererBackendImpl) readIDTarget() error {
	size := uint64(b.readbackRow) * uint64(b.height)
	var status wgpu.BufferMapAsyncStatus
	err := b.readback.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if err != nil {
		return fmt.Errorf("failed to map id readback: %w", err)
	}
	b.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return errors.New("id readback map was not successful")
	}

	data := b.readback.GetMappedRange(0, uint(size))
	for row := 0; row < b.height; row++ {
		src := data[row*int(b.readbackRow):]
		for col := 0; col < b.width; col++ {
			o := col * 4
			b.idPixels[row*b.width+col] = uint32(src[o]) | uint32(src[o+1])<<8 | uint32(src[o+2])<<16 | uint32(src[o+3])<<24
		}
	}
	b.readback.Unmap()
	b.idFresh = true
	return nil
}

func (b *wgpuRendererBackendImpl) FramebufferSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuRendererBackendImpl) Resize(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		return errors.New("cannot resize during a frame")
	}
	return b.createTargets(width, height)
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ws := range b.shaders {
		ws.pipeline.Release()
		ws.layout.Release()
		ws.module.Release()
	}
	for _, wm := range b.meshes {
		wm.vertex.Release()
		wm.index.Release()
	}
	for _, wt := range b.textures {
		wt.view.Release()
		wt.tex.Release()
	}
	clear(b.shaders)
	clear(b.meshes)
	clear(b.textures)
	for _, l := range b.textureLayouts {
		l.Release()
	}
	clear(b.textureLayouts)
	b.releaseTargets()
	b.sampler.Release()
	b.frameBindings.Release()
	b.drawLayout.Release()
	b.frameLayout.Release()
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.instance.Release()
	b.logger.Debug("wgpu backend released")
}

func (b *wgpuRendererBackendImpl) uniformBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuRendererBackendImpl) releaseFrameGarbage() {
	for _, r := range b.frameGarbage {
		r.Release()
	}
	b.frameGarbage = b.frameGarbage[:0]
}

func alignUp(n, align uint32) uint32 {
	return (n + align - 1) / align * align
}

// isNilReleaser reports whether r wraps a typed nil pointer.
func isNilReleaser(r releaser) bool {
	switch v := r.(type) {
	case *wgpu.Texture:
		return v == nil
	case *wgpu.TextureView:
		return v == nil
	case *wgpu.Buffer:
		return v == nil
	default:
		return false
	}
}

// Bindings of the frame bind group.
const (
	frameBindingUniforms = 0
	frameBindingLights   = 1
)

// wgpuAllocator hands the device and queue to bind group providers.
type wgpuAllocator struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

func (a wgpuAllocator) CreateUniformBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	return a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
}

func (a wgpuAllocator) CreateBindGroup(label string, layout *wgpu.BindGroupLayout, buffers map[int]*wgpu.Buffer) (*wgpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(buffers))
	for binding, buf := range buffers {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(binding), Buffer: buf, Offset: 0, Size: wgpu.WholeSize})
	}
	return a.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: entries,
	})
}

func (a wgpuAllocator) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	a.queue.WriteBuffer(buf, offset, data)
}
