package cache

import (
	"log/slog"
	"sort"

	"github.com/Carmen-Shannon/oxy-editor/common"
)

// Cache is a keyed store of shared GPU resources.
//
// A Cache has a single writer: it is only touched from the frame loop, so it carries no locks.
// Background collaborators hand their results to the frame loop instead of calling Set.
type Cache[T any] interface {
	// Get looks up a live entry. It never creates one.
	// A hit returns a new handle that the caller must Release.
	//
	// Parameters:
	//   - key: the cache key
	//
	// Returns:
	//   - *Handle[T]: a new handle to the entry, or nil on a miss
	//   - bool: true if the key was present
	Get(key string) (*Handle[T], bool)

	// Set stores payload under key, replacing any existing entry.
	// Handles to a replaced entry keep their old payload and no longer affect the key.
	//
	// Parameters:
	//   - key: the cache key
	//   - payload: the resource to store
	//   - state: whether the payload may later be replaced in place
	//   - policy: whether the entry is evicted when its last handle is released
	//
	// Returns:
	//   - *Handle[T]: a live handle to the new entry
	Set(key string, payload T, state State, policy Policy) *Handle[T]

	// Contains reports whether key currently maps to a live entry.
	//
	// Parameters:
	//   - key: the cache key
	//
	// Returns:
	//   - bool: true if present
	Contains(key string) bool

	// RefCount returns the number of outstanding handles for key, or 0 when absent.
	//
	// Parameters:
	//   - key: the cache key
	//
	// Returns:
	//   - int: the outstanding handle count
	RefCount(key string) int

	// Len returns the number of live entries.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Keys returns the live keys in sorted order.
	//
	// Returns:
	//   - []string: the sorted keys
	Keys() []string
}

type cache[T any] struct {
	entries    map[string]*entry[T]
	generation uint64
	onEvict    func(key string, payload T)
	logger     *slog.Logger
}

var _ Cache[int] = &cache[int]{}

// NewCache creates an empty Cache configured with the provided options.
//
// Parameters:
//   - options: variadic list of CacheBuilderOption functions
//
// Returns:
//   - Cache[T]: the new cache
func NewCache[T any](options ...CacheBuilderOption[T]) Cache[T] {
	c := &cache[T]{
		entries: make(map[string]*entry[T]),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *cache[T]) Get(key string) (*Handle[T], bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e.refs++
	return &Handle[T]{owner: c, entry: e}, true
}

func (c *cache[T]) Set(key string, payload T, state State, policy Policy) *Handle[T] {
	if old, ok := c.entries[key]; ok {
		old.detached = true
		delete(c.entries, key)
		if old.refs == 0 {
			c.evict(old)
		}
	}

	c.generation++
	e := &entry[T]{
		key:        key,
		payload:    payload,
		state:      state,
		policy:     policy,
		refs:       1,
		generation: c.generation,
	}
	c.entries[key] = e
	return &Handle[T]{owner: c, entry: e}
}

func (c *cache[T]) Contains(key string) bool {
	_, ok := c.entries[key]
	return ok
}

func (c *cache[T]) RefCount(key string) int {
	if e, ok := c.entries[key]; ok {
		return e.refs
	}
	return 0
}

func (c *cache[T]) Len() int {
	return len(c.entries)
}

func (c *cache[T]) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// release drops one holder of e and evicts it when nothing holds it any more.
func (c *cache[T]) release(e *entry[T]) {
	e.refs--
	if e.refs > 0 {
		return
	}
	if e.detached {
		c.evict(e)
		return
	}
	if e.policy == PolicyReferenceCounted {
		delete(c.entries, e.key)
		c.evict(e)
	}
}

func (c *cache[T]) evict(e *entry[T]) {
	c.logger.Debug("cache entry evicted", "key", e.key, "generation", e.generation)
	if c.onEvict != nil {
		c.onEvict(e.key, e.payload)
	}
}

func (c *cache[T]) violation(format string, args ...any) error {
	return common.Invariant(c.logger, format, args...)
}
