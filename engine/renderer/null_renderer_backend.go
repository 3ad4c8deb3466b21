package renderer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-editor/common"
)

// NullBackend is a Backend that records what it is asked to do instead of talking to a GPU.
// It keeps a CPU-side id target so picking works end to end without a device.
type NullBackend struct {
	width, height int
	nextID        uint64
	logger        *slog.Logger
	compileHook   func(ShaderSource) error
	coverage      func(DrawCommand) image.Rectangle

	shaders  map[uint64]Shader
	meshes   map[uint64]Mesh
	textures map[uint64]Texture

	inFrame   bool
	frame     FrameParams
	draws     []DrawCommand
	lastDraws []DrawCommand
	idTarget  []uint32
	compiles  int
	frames    int
}

var _ Backend = &NullBackend{}

// NewNullBackend creates a recording backend.
//
// Parameters:
//   - options: variadic list of BackendBuilderOption functions
//
// Returns:
//   - *NullBackend: the new backend
func NewNullBackend(options ...BackendBuilderOption) *NullBackend {
	cfg := defaultBackendConfig()
	for _, opt := range options {
		opt(&cfg)
	}
	return newNullBackend(cfg)
}

func newNullBackend(cfg backendConfig) *NullBackend {
	return &NullBackend{
		width:       cfg.width,
		height:      cfg.height,
		logger:      cfg.logger,
		compileHook: cfg.compileHook,
		coverage:    cfg.coverage,
		shaders:     make(map[uint64]Shader),
		meshes:      make(map[uint64]Mesh),
		textures:    make(map[uint64]Texture),
		idTarget:    make([]uint32, cfg.width*cfg.height),
	}
}

func (b *NullBackend) CompileShader(src ShaderSource) (Shader, error) {
	b.compiles++
	if src.Code == "" {
		return Shader{}, fmt.Errorf("%w: %s: empty source", common.ErrShaderCompileFailure, src.Key)
	}
	if b.compileHook != nil {
		if err := b.compileHook(src); err != nil {
			return Shader{}, fmt.Errorf("%w: %s: %w", common.ErrShaderCompileFailure, src.Key, err)
		}
	}
	b.nextID++
	s := Shader{
		ID:         b.nextID,
		Key:        src.Key,
		Textures:   src.Textures,
		ObjectID:   src.ObjectID,
		LightCount: src.LightCount,
	}
	b.shaders[s.ID] = s
	return s, nil
}

func (b *NullBackend) UploadMesh(vertices []byte, stride int, indices []uint32) (Mesh, error) {
	if stride <= 0 || len(vertices)%stride != 0 {
		return Mesh{}, fmt.Errorf("vertex data of %d bytes is not a multiple of stride %d", len(vertices), stride)
	}
	b.nextID++
	m := Mesh{ID: b.nextID, VertexCount: len(vertices) / stride, IndexCount: len(indices)}
	b.meshes[m.ID] = m
	return m, nil
}

func (b *NullBackend) UploadTexture(pixels []byte, format TextureFormat, width, height int) (Texture, error) {
	if width <= 0 || height <= 0 {
		return Texture{}, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return Texture{}, fmt.Errorf("texture data is %d bytes, want %d", len(pixels), width*height*4)
	}
	b.nextID++
	t := Texture{ID: b.nextID, Width: width, Height: height, Format: format}
	b.textures[t.ID] = t
	return t, nil
}

func (b *NullBackend) ReleaseShader(s Shader) {
	delete(b.shaders, s.ID)
}

func (b *NullBackend) ReleaseMesh(m Mesh) {
	delete(b.meshes, m.ID)
}

func (b *NullBackend) ReleaseTexture(t Texture) {
	delete(b.textures, t.ID)
}

func (b *NullBackend) BeginFrame(params FrameParams) error {
	if b.inFrame {
		return errors.New("frame already in progress")
	}
	b.inFrame = true
	b.frame = params
	b.draws = b.draws[:0]
	clear(b.idTarget)
	return nil
}

func (b *NullBackend) Draw(cmd DrawCommand) error {
	if !b.inFrame {
		return errors.New("draw outside of a frame")
	}
	if _, ok := b.shaders[cmd.Shader.ID]; !ok {
		return fmt.Errorf("unknown shader %d (%s)", cmd.Shader.ID, cmd.Shader.Key)
	}
	if _, ok := b.meshes[cmd.Mesh.ID]; !ok {
		return fmt.Errorf("unknown mesh %d", cmd.Mesh.ID)
	}
	for slot, t := range cmd.Textures {
		if cmd.Shader.Textures[slot] {
			if _, ok := b.textures[t.ID]; !ok {
				return fmt.Errorf("unknown %s texture %d", TextureSlot(slot), t.ID)
			}
		}
	}
	b.draws = append(b.draws, cmd)

	if b.coverage != nil && cmd.Shader.ObjectID && cmd.ObjectID != 0 {
		r := b.coverage(cmd).Intersect(image.Rect(0, 0, b.width, b.height))
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				b.idTarget[y*b.width+x] = cmd.ObjectID
			}
		}
	}
	return nil
}

func (b *NullBackend) EndFrame() error {
	if !b.inFrame {
		return errors.New("no frame in progress")
	}
	b.inFrame = false
	b.frames++
	b.lastDraws = append(b.lastDraws[:0], b.draws...)
	return nil
}

func (b *NullBackend) ReadPixel(x, y int) (uint32, error) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, fmt.Errorf("pixel (%d, %d) outside %dx%d framebuffer", x, y, b.width, b.height)
	}
	return b.idTarget[y*b.width+x], nil
}

func (b *NullBackend) FramebufferSize() (int, int) {
	return b.width, b.height
}

func (b *NullBackend) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid framebuffer size %dx%d", width, height)
	}
	b.width, b.height = width, height
	b.idTarget = make([]uint32, width*height)
	return nil
}

func (b *NullBackend) Release() {
	clear(b.shaders)
	clear(b.meshes)
	clear(b.textures)
}

// Draws returns the draws submitted in the last completed frame, in submission order.
func (b *NullBackend) Draws() []DrawCommand {
	return b.lastDraws
}

// Frame returns the parameters of the most recently begun frame.
func (b *NullBackend) Frame() FrameParams {
	return b.frame
}

// Frames returns the number of completed frames.
func (b *NullBackend) Frames() int {
	return b.frames
}

// Compiles returns the number of CompileShader calls, including failed ones.
func (b *NullBackend) Compiles() int {
	return b.compiles
}

// LiveShaders returns the number of compiled shaders that have not been released.
func (b *NullBackend) LiveShaders() int {
	return len(b.shaders)
}

// LiveMeshes returns the number of uploaded meshes that have not been released.
func (b *NullBackend) LiveMeshes() int {
	return len(b.meshes)
}

// LiveTextures returns the number of uploaded textures that have not been released.
func (b *NullBackend) LiveTextures() int {
	return len(b.textures)
}
