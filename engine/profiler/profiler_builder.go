package profiler

import (
	"log/slog"
	"time"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(p *Profiler)

// WithInterval sets how often a report is logged. Values <= 0 keep the default.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger reports are written to.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}
