package picking

import "log/slog"

type BufferBuilderOption[F comparable] func(*buffer[F])

// WithLogger sets the logger used for failed id reads.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - BufferBuilderOption[F]: a function that sets the logger
func WithLogger[F comparable](logger *slog.Logger) BufferBuilderOption[F] {
	return func(b *buffer[F]) {
		if logger != nil {
			b.logger = logger
		}
	}
}
