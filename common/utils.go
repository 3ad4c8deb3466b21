package common

// Coalesce returns the first non-zero value, or the zero value if all are zero.
// Configuration uses it to fall back to defaults for fields left empty.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
