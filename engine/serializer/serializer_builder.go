package serializer

import "log/slog"

// SerializerBuilderOption is a functional option for configuring a Serializer.
type SerializerBuilderOption func(s *serializer)

// WithLogger sets the logger used for load diagnostics.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - SerializerBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) SerializerBuilderOption {
	return func(s *serializer) {
		if logger != nil {
			s.logger = logger
		}
	}
}
