package primitive

import "log/slog"

type FactoryBuilderOption func(*factory)

// WithLogger sets the logger used for build traces.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - FactoryBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) FactoryBuilderOption {
	return func(f *factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}
