package texture

import (
	"io/fs"
	"log/slog"
)

// LibraryBuilderOption is a functional option for configuring a Library.
type LibraryBuilderOption func(l *library)

// WithRoot sets the directory texture paths are resolved against. Defaults to the working directory.
//
// Parameters:
//   - dir: the texture root
//
// Returns:
//   - LibraryBuilderOption: option function to apply
func WithRoot(dir string) LibraryBuilderOption {
	return func(l *library) {
		if dir != "" {
			l.root = dir
		}
	}
}

// WithFS reads textures from fsys instead of the root directory.
func WithFS(fsys fs.FS) LibraryBuilderOption {
	return func(l *library) {
		l.fsys = fsys
	}
}

// WithWorkers sets how many files are decoded at once.
func WithWorkers(n int) LibraryBuilderOption {
	return func(l *library) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithWatcher registers the directory of every requested texture with w, so that Dispatch can
// reload it when the file changes.
func WithWatcher(w *Watcher) LibraryBuilderOption {
	return func(l *library) {
		l.watcher = w
	}
}

// WithLogger sets the logger used for load failures.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - LibraryBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) LibraryBuilderOption {
	return func(l *library) {
		if logger != nil {
			l.logger = logger
		}
	}
}
