package cache

import "log/slog"

type CacheBuilderOption[T any] func(*cache[T])

// WithEvictFunc sets a hook that is called with the payload of every entry that leaves the cache
// and is no longer held, so the GPU resource behind it can be released.
//
// Parameters:
//   - fn: the eviction hook
//
// Returns:
//   - CacheBuilderOption[T]: a function that sets the eviction hook
func WithEvictFunc[T any](fn func(key string, payload T)) CacheBuilderOption[T] {
	return func(c *cache[T]) {
		c.onEvict = fn
	}
}

// WithLogger sets the logger used for eviction traces and invariant reports.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - CacheBuilderOption[T]: a function that sets the logger
func WithLogger[T any](logger *slog.Logger) CacheBuilderOption[T] {
	return func(c *cache[T]) {
		if logger != nil {
			c.logger = logger
		}
	}
}
