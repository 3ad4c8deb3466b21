package renderer

import (
	"image"
	"log/slog"
)

// backendConfig collects construction options shared by every backend.
type backendConfig struct {
	width, height        int
	forceFallbackAdapter bool
	logger               *slog.Logger
	compileHook          func(ShaderSource) error
	coverage             func(DrawCommand) image.Rectangle
}

func defaultBackendConfig() backendConfig {
	return backendConfig{
		width:  1280,
		height: 720,
		logger: slog.Default(),
	}
}

type BackendBuilderOption func(*backendConfig)

// WithFramebufferSize sets the initial size of the render targets.
//
// Parameters:
//   - width, height: size in pixels
//
// Returns:
//   - BackendBuilderOption: a function that sets the framebuffer size
func WithFramebufferSize(width, height int) BackendBuilderOption {
	return func(c *backendConfig) {
		c.width = width
		c.height = height
	}
}

// WithForceSoftwareRenderer forces the wgpu backend onto the fallback (software) adapter.
//
// Parameters:
//   - force: true to request the fallback adapter
//
// Returns:
//   - BackendBuilderOption: a function that sets the adapter preference
func WithForceSoftwareRenderer(force bool) BackendBuilderOption {
	return func(c *backendConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithLogger sets the logger used by the backend.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - BackendBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) BackendBuilderOption {
	return func(c *backendConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCompileHook installs a check that the null backend runs before accepting a shader.
// A non-nil error fails the compile.
//
// Parameters:
//   - hook: the check
//
// Returns:
//   - BackendBuilderOption: a function that sets the hook
func WithCompileHook(hook func(ShaderSource) error) BackendBuilderOption {
	return func(c *backendConfig) {
		c.compileHook = hook
	}
}

// WithCoverage tells the null backend which framebuffer pixels a draw covers, so it can fill the
// id target the way a rasterizer would. Rectangles use ReadPixel's bottom-left origin.
// Later draws overwrite earlier ones.
//
// Parameters:
//   - coverage: returns the covered rectangle for a draw
//
// Returns:
//   - BackendBuilderOption: a function that sets the coverage function
func WithCoverage(coverage func(DrawCommand) image.Rectangle) BackendBuilderOption {
	return func(c *backendConfig) {
		c.coverage = coverage
	}
}
