package scene

import "log/slog"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithTextureSource sets where texture handles come from.
// Without one, every textured drawable stays not ready.
//
// Parameters:
//   - src: the texture source
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTextureSource(src TextureSource) SceneBuilderOption {
	return func(s *scene) {
		s.textures = src
	}
}

// WithPicking enables or disables object-id output. Enabled by default.
//
// Parameters:
//   - enabled: whether drawables write object ids
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPicking(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.pickable = enabled
	}
}

// WithBehavior registers a script behaviour, replacing any built-in of the same name.
//
// Parameters:
//   - name: the name script features refer to
//   - b: the behaviour
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBehavior(name string, b Behavior) SceneBuilderOption {
	return func(s *scene) {
		s.behaviors[name] = b
	}
}

// WithLogger sets the logger used for skipped features and script failures.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}
