package cache

// Handle is one holder's reference to a cache entry.
// Every handle returned by Get, Set or Clone must be released exactly once.
type Handle[T any] struct {
	owner    *cache[T]
	entry    *entry[T]
	released bool
}

// Key returns the key the handle was created for.
func (h *Handle[T]) Key() string {
	return h.entry.key
}

// Payload returns the resource the entry currently holds.
func (h *Handle[T]) Payload() T {
	return h.entry.payload
}

// Generation returns the generation stamped on the entry when it was set.
// Two handles with the same generation refer to the same entry.
func (h *Handle[T]) Generation() uint64 {
	return h.entry.generation
}

// State returns the entry's mutability state.
func (h *Handle[T]) State() State {
	return h.entry.state
}

// Policy returns the entry's eviction policy.
func (h *Handle[T]) Policy() Policy {
	return h.entry.policy
}

// Released reports whether this handle has been released.
func (h *Handle[T]) Released() bool {
	return h.released
}

// Live reports whether the entry behind the handle is still the one stored under its key.
func (h *Handle[T]) Live() bool {
	return !h.released && !h.entry.detached
}

// Clone returns a second handle to the same entry.
//
// Returns:
//   - *Handle[T]: the new handle, or nil if h was already released
func (h *Handle[T]) Clone() *Handle[T] {
	if h.released {
		_ = h.owner.violation("clone of released handle %q", h.entry.key)
		return nil
	}
	h.entry.refs++
	return &Handle[T]{owner: h.owner, entry: h.entry}
}

// Release drops this holder. Releasing the last handle of a reference-counted entry evicts it.
//
// Returns:
//   - error: an invariant violation if the handle was already released
func (h *Handle[T]) Release() error {
	if h.released {
		return h.owner.violation("double release of %q", h.entry.key)
	}
	h.released = true
	h.owner.release(h.entry)
	return nil
}

// Replace swaps the payload of a Mutable entry in place. Every handle to the entry observes
// the new payload.
//
// Parameters:
//   - payload: the replacement resource
//
// Returns:
//   - T: the payload that was replaced, so the caller can free it
//   - error: an invariant violation if the entry is Final or the handle was released
func (h *Handle[T]) Replace(payload T) (T, error) {
	var zero T
	if h.released {
		return zero, h.owner.violation("replace through released handle %q", h.entry.key)
	}
	if h.entry.state == StateFinal {
		return zero, h.owner.violation("replace of final entry %q", h.entry.key)
	}
	old := h.entry.payload
	h.entry.payload = payload
	return old, nil
}

// Finalize moves a Mutable entry to Final. Finalizing a Final entry is a no-op.
func (h *Handle[T]) Finalize() {
	h.entry.state = StateFinal
}
