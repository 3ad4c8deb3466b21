package editor

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/camera"
	"github.com/Carmen-Shannon/oxy-editor/engine/config"
	"github.com/Carmen-Shannon/oxy-editor/engine/primitive"
	"github.com/Carmen-Shannon/oxy-editor/engine/profiler"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/Carmen-Shannon/oxy-editor/engine/serializer"
	"github.com/Carmen-Shannon/oxy-editor/engine/texture"
)

// Open builds an editor from a configuration: the backend and its resource caches, the mesh
// factory, the shader resolver, the texture library, an empty scene with its serializer, and the
// camera. Close releases all of it.
//
// Parameters:
//   - cfg: a validated configuration
//   - logger: the logger every component writes to; nil uses slog.Default()
//   - options: further EditorBuilderOption functions, applied after the configured ones
//
// Returns:
//   - Editor: the editor, its scene empty
//   - error: error if the backend or the texture watcher cannot be created
func Open(cfg config.Config, logger *slog.Logger, options ...EditorBuilderOption) (Editor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backendType, err := renderer.ParseBackendType(cfg.Backend)
	if err != nil {
		return nil, err
	}
	backend, err := renderer.NewBackend(backendType,
		renderer.WithFramebufferSize(cfg.Viewport.Width, cfg.Viewport.Height),
		renderer.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", cfg.Backend, err)
	}

	meshes := cache.NewCache(
		cache.WithEvictFunc(func(_ string, m renderer.Mesh) { backend.ReleaseMesh(m) }),
		cache.WithLogger[renderer.Mesh](logger),
	)
	shaders := cache.NewCache(
		cache.WithEvictFunc(func(_ string, s renderer.Shader) { backend.ReleaseShader(s) }),
		cache.WithLogger[renderer.Shader](logger),
	)
	textures := cache.NewCache(
		cache.WithEvictFunc(func(_ string, t renderer.Texture) { backend.ReleaseTexture(t) }),
		cache.WithLogger[renderer.Texture](logger),
	)

	closers := []func(){backend.Release}
	libOpts := []texture.LibraryBuilderOption{
		texture.WithRoot(cfg.TextureRoot),
		texture.WithWorkers(cfg.TextureWorkers),
		texture.WithLogger(logger),
	}
	var watcher *texture.Watcher
	if cfg.WatchTextures {
		watcher, err = texture.NewWatcher(cfg.TextureRoot, logger)
		if err != nil {
			backend.Release()
			return nil, err
		}
		libOpts = append(libOpts, texture.WithWatcher(watcher))
		closers = append(closers, func() {
			if err := watcher.Close(); err != nil {
				logger.Warn("failed to close texture watcher", "error", err)
			}
		})
	}
	lib := texture.NewLibrary(textures, backend, libOpts...)
	closers = append(closers, lib.Close)

	sc := scene.NewScene(backend,
		primitive.NewFactory(meshes, backend, primitive.WithLogger(logger)),
		shader.NewResolver(shaders, backend, shader.WithLogger(logger)),
		scene.WithTextureSource(lib),
		scene.WithPicking(cfg.Picking),
		scene.WithLogger(logger),
	)
	closers = append(closers, sc.Clear)

	cam := camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(cfg.Camera.FOV)),
		camera.WithAspect(float32(cfg.Viewport.Width)/float32(cfg.Viewport.Height)),
		camera.WithClipPlanes(cfg.Camera.Near, cfg.Camera.Far),
		camera.WithLookFrom(mgl32.Vec3(cfg.Camera.Position), mgl32.Vec3(cfg.Camera.Target)),
	)

	base := []EditorBuilderOption{
		WithTextures(lib),
		WithProfiler(profiler.NewProfiler(profiler.WithLogger(logger))),
		WithFrameRate(float64(cfg.FrameRate)),
		WithClearColor(cfg.ClearColor),
		WithLogger(logger),
	}
	if watcher != nil {
		base = append(base, WithWatcher(watcher))
	}
	for _, c := range closers {
		base = append(base, withCloser(c))
	}
	return NewEditor(sc, serializer.NewSerializer(sc, serializer.WithLogger(logger)), cam, append(base, options...)...), nil
}
