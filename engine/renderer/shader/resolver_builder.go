package shader

import "log/slog"

type ResolverBuilderOption func(*resolver)

// WithTemplate replaces the embedded Phong template.
//
// Parameters:
//   - source: annotated WGSL source
//
// Returns:
//   - ResolverBuilderOption: a function that sets the template
func WithTemplate(source string) ResolverBuilderOption {
	return func(r *resolver) {
		r.template = source
	}
}

// WithPreProcessor replaces the default pre-processor.
//
// Parameters:
//   - p: the pre-processor to use
//
// Returns:
//   - ResolverBuilderOption: a function that sets the pre-processor
func WithPreProcessor(p PreProcessor) ResolverBuilderOption {
	return func(r *resolver) {
		r.pre = p
	}
}

// WithLightCount sets the light count variants are initially built for.
//
// Parameters:
//   - n: the initial light count
//
// Returns:
//   - ResolverBuilderOption: a function that sets the initial light count
func WithLightCount(n int) ResolverBuilderOption {
	return func(r *resolver) {
		r.lightCount = n
	}
}

// WithLogger sets the logger used for build and failure reports.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ResolverBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) ResolverBuilderOption {
	return func(r *resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}
