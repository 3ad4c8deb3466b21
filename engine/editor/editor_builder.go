package editor

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-editor/engine/profiler"
	"github.com/Carmen-Shannon/oxy-editor/engine/texture"
)

// EditorBuilderOption is a functional option for configuring an Editor.
// Use the With* functions to create options that are applied directly to the editor instance.
type EditorBuilderOption func(*editor)

// WithTextures hands finished texture loads to the scene at the start of every frame.
//
// Parameters:
//   - lib: the library the scene acquires textures from
//
// Returns:
//   - EditorBuilderOption: option function to apply
func WithTextures(lib texture.Library) EditorBuilderOption {
	return func(e *editor) {
		e.textures = lib
	}
}

// WithWatcher reloads textures whose files changed on disk. It has no effect without WithTextures.
func WithWatcher(w *texture.Watcher) EditorBuilderOption {
	return func(e *editor) {
		e.watcher = w
	}
}

// WithProfiler feeds every frame's draw statistics to p.
func WithProfiler(p *profiler.Profiler) EditorBuilderOption {
	return func(e *editor) {
		e.profiler = p
	}
}

// WithFrameRate sets the rate Run draws frames at.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target frames per second (default 60)
//
// Returns:
//   - EditorBuilderOption: option function to apply
func WithFrameRate(fps float64) EditorBuilderOption {
	return func(e *editor) {
		if fps <= 0 {
			fps = 60
		}
		e.frameRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithClearColor sets the color frames are cleared to.
func WithClearColor(c [4]float32) EditorBuilderOption {
	return func(e *editor) {
		e.clearColor = c
	}
}

// WithLogger sets the logger for the editor.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - EditorBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EditorBuilderOption {
	return func(e *editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func withCloser(fn func()) EditorBuilderOption {
	return func(e *editor) {
		e.closers = append(e.closers, fn)
	}
}
