package renderer

import "fmt"

// BackendType identifies the GPU backend implementation.
type BackendType int

const (
	// BackendTypeNull selects the recording backend that never touches a GPU.
	BackendTypeNull BackendType = iota

	// BackendTypeWGPU selects the headless WebGPU backend.
	BackendTypeWGPU
)

// ParseBackendType maps a configuration name onto a BackendType.
//
// Parameters:
//   - name: "null" or "wgpu"
//
// Returns:
//   - BackendType: the parsed type
//   - error: error if the name is unknown
func ParseBackendType(name string) (BackendType, error) {
	switch name {
	case "null", "":
		return BackendTypeNull, nil
	case "wgpu":
		return BackendTypeWGPU, nil
	default:
		return 0, fmt.Errorf("unknown backend %q", name)
	}
}

// Backend is the boundary between the editor core and the graphics API.
// The core never issues graphics calls itself; every resource it draws with is an opaque
// handle created here. All methods are called from the frame loop only.
type Backend interface {
	// CompileShader builds a shader variant.
	//
	// Parameters:
	//   - src: the variant's source and flags
	//
	// Returns:
	//   - Shader: the compiled variant
	//   - error: an error wrapping common.ErrShaderCompileFailure when compilation fails
	CompileShader(src ShaderSource) (Shader, error)

	// UploadMesh uploads vertex and index data.
	//
	// Parameters:
	//   - vertices: tightly packed vertex data
	//   - stride: size of one vertex in bytes
	//   - indices: triangle list indices
	//
	// Returns:
	//   - Mesh: the uploaded mesh
	//   - error: error if the upload fails
	UploadMesh(vertices []byte, stride int, indices []uint32) (Mesh, error)

	// UploadTexture uploads pixel data.
	//
	// Parameters:
	//   - pixels: pixel data in the given format, top row first
	//   - format: the pixel format
	//   - width, height: dimensions in pixels
	//
	// Returns:
	//   - Texture: the uploaded texture
	//   - error: error if the upload fails
	UploadTexture(pixels []byte, format TextureFormat, width, height int) (Texture, error)

	// ReleaseShader frees a compiled shader variant.
	ReleaseShader(s Shader)

	// ReleaseMesh frees uploaded geometry.
	ReleaseMesh(m Mesh)

	// ReleaseTexture frees an uploaded texture.
	ReleaseTexture(t Texture)

	// BeginFrame clears the color, depth and id targets and starts recording draws.
	//
	// Parameters:
	//   - params: per-frame camera and light state
	//
	// Returns:
	//   - error: error if a frame is already in progress
	BeginFrame(params FrameParams) error

	// Draw records one draw into the current frame.
	//
	// Parameters:
	//   - cmd: the draw
	//
	// Returns:
	//   - error: error if no frame is in progress or a handle is unknown
	Draw(cmd DrawCommand) error

	// EndFrame submits the recorded draws. After EndFrame the id target can be read.
	//
	// Returns:
	//   - error: error if no frame is in progress
	EndFrame() error

	// ReadPixel reads one texel of the id target written by the last frame.
	//
	// Parameters:
	//   - x, y: framebuffer pixel coordinates, origin at the bottom-left
	//
	// Returns:
	//   - uint32: the object id, 0 for background
	//   - error: error if the coordinate is out of bounds
	ReadPixel(x, y int) (uint32, error)

	// FramebufferSize returns the size of the render targets in pixels.
	FramebufferSize() (int, int)

	// Resize recreates the render targets.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	//
	// Returns:
	//   - error: error if the size is invalid
	Resize(width, height int) error

	// Release frees every backend resource.
	Release()
}

// NewBackend creates a backend of the requested type.
//
// Parameters:
//   - backendType: which implementation to create
//   - options: variadic list of BackendBuilderOption functions
//
// Returns:
//   - Backend: the new backend
//   - error: error if the backend cannot be created
func NewBackend(backendType BackendType, options ...BackendBuilderOption) (Backend, error) {
	cfg := defaultBackendConfig()
	for _, opt := range options {
		opt(&cfg)
	}
	switch backendType {
	case BackendTypeNull:
		return newNullBackend(cfg), nil
	case BackendTypeWGPU:
		return newWGPUBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown backend type %d", backendType)
	}
}
