package common

import (
	"fmt"
	"log/slog"
)

// Invariant reports a violated invariant.
// In builds tagged oxydebug it panics. Otherwise the violation is logged at error level and
// returned wrapped in ErrInvariantViolation, and the caller is expected to turn the offending
// operation into a no-op.
//
// Parameters:
//   - logger: the logger used in release builds; slog.Default() when nil
//   - format: fmt-style description of the violation
//   - args: arguments for format
//
// Returns:
//   - error: an error wrapping ErrInvariantViolation
func Invariant(logger *slog.Logger, format string, args ...any) error {
	err := fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
	if failFast {
		panic(err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("invariant violated", "err", err)
	return err
}

// FailFast reports whether invariant violations panic in this build.
func FailFast() bool {
	return failFast
}
