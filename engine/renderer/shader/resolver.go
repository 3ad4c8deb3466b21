package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
)

// PhongTemplate is the annotated WGSL source every variant is specialised from.
//
//go:embed assets/phong.wgsl
var PhongTemplate string

// Resolver owns the shader variant registry.
//
// The registry depends on one piece of global state, the scene's light count. All changes to it
// go through InvalidateAll, either directly or via Resolve, so that every live variant is rebuilt
// in one place. Like the cache it sits on, a Resolver has a single writer: the frame loop.
type Resolver interface {
	// Resolve returns a handle to the shader for a flag set, building it on first use.
	// A light count that differs from the current one is routed through InvalidateAll first.
	// The caller owns the returned handle and must Release it.
	//
	// Parameters:
	//   - flags: the variant flags derived from the feature
	//   - lightCount: the scene's current light count
	//
	// Returns:
	//   - *cache.Handle[renderer.Shader]: the shared variant
	//   - error: an error wrapping common.ErrShaderCompileFailure if the variant cannot be built
	Resolve(flags Flags, lightCount int) (*cache.Handle[renderer.Shader], error)

	// InvalidateAll rebuilds every variant that is still referenced for a new light count,
	// replacing each entry's payload in place so existing handles see the rebuilt shader,
	// and forgets keys whose entries have been evicted. A failed rebuild is local to its variant.
	//
	// Parameters:
	//   - newLightCount: the light count to build against
	//
	// Returns:
	//   - error: the joined compile failures, or nil
	InvalidateAll(newLightCount int) error

	// Current reports whether a handle's shader was built for the current light count and may be drawn.
	//
	// Parameters:
	//   - h: a handle returned by Resolve
	//
	// Returns:
	//   - bool: true if the shader is up to date
	Current(h *cache.Handle[renderer.Shader]) bool

	// LightCount returns the light count variants are currently built for.
	LightCount() int

	// KnownKeys returns the keys in the registry in sorted order.
	KnownKeys() []string

	// Invalidations returns how many times InvalidateAll has run.
	Invalidations() int
}

type resolver struct {
	shaders       cache.Cache[renderer.Shader]
	backend       renderer.Backend
	pre           PreProcessor
	template      string
	logger        *slog.Logger
	lightCount    int
	known         map[string]Flags
	failures      map[string]error
	invalidations int
}

var _ Resolver = &resolver{}

// NewResolver creates a Resolver backed by a shader cache and a GPU backend.
// The shader cache should release evicted shaders through the same backend.
//
// Parameters:
//   - shaders: the process-wide shader cache
//   - backend: the GPU backend variants are compiled on
//   - options: variadic list of ResolverBuilderOption functions
//
// Returns:
//   - Resolver: the new resolver
func NewResolver(shaders cache.Cache[renderer.Shader], backend renderer.Backend, options ...ResolverBuilderOption) Resolver {
	if shaders == nil || backend == nil {
		panic("shader: NewResolver requires a cache and a backend")
	}
	r := &resolver{
		shaders:  shaders,
		backend:  backend,
		pre:      NewPreProcessor(),
		template: PhongTemplate,
		logger:   slog.Default(),
		known:    make(map[string]Flags),
		failures: make(map[string]error),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *resolver) Resolve(flags Flags, lightCount int) (*cache.Handle[renderer.Shader], error) {
	if lightCount != r.lightCount {
		// Failures are already logged and memoised per variant.
		_ = r.InvalidateAll(lightCount)
	}

	key := flags.Key()
	if err, failed := r.failures[key]; failed {
		return nil, err
	}

	if h, ok := r.shaders.Get(key); ok {
		return h, nil
	}

	s, err := r.compile(flags, r.lightCount)
	if err != nil {
		r.failures[key] = err
		r.logger.Error("shader variant failed to compile", "key", key, "light_count", r.lightCount, "err", err)
		return nil, err
	}
	r.known[key] = flags
	r.logger.Debug("shader variant built", "key", key, "light_count", r.lightCount)
	return r.shaders.Set(key, s, cache.StateMutable, cache.PolicyReferenceCounted), nil
}

func (r *resolver) InvalidateAll(newLightCount int) error {
	r.lightCount = newLightCount
	r.invalidations++
	clear(r.failures)

	var errs []error
	for _, key := range r.KnownKeys() {
		h, ok := r.shaders.Get(key)
		if !ok {
			delete(r.known, key)
			r.logger.Debug("shader variant pruned", "key", key)
			continue
		}

		s, err := r.compile(r.known[key], newLightCount)
		if err != nil {
			r.failures[key] = err
			r.logger.Error("shader variant failed to rebuild", "key", key, "light_count", newLightCount, "err", err)
			errs = append(errs, err)
			_ = h.Release()
			continue
		}
		old, err := h.Replace(s)
		if err != nil {
			r.backend.ReleaseShader(s)
			errs = append(errs, err)
		} else {
			r.backend.ReleaseShader(old)
		}
		_ = h.Release()
	}

	r.logger.Debug("shader variants invalidated", "light_count", newLightCount, "variants", len(r.known))
	return errors.Join(errs...)
}

func (r *resolver) Current(h *cache.Handle[renderer.Shader]) bool {
	return h != nil && h.Live() && h.Payload().LightCount == r.lightCount
}

func (r *resolver) LightCount() int {
	return r.lightCount
}

func (r *resolver) KnownKeys() []string {
	keys := make([]string, 0, len(r.known))
	for k := range r.known {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (r *resolver) Invalidations() int {
	return r.invalidations
}

func (r *resolver) compile(flags Flags, lightCount int) (renderer.Shader, error) {
	key := flags.Key()
	code, err := r.pre.Process(r.template, flags, lightCount)
	if err != nil {
		return renderer.Shader{}, fmt.Errorf("%w: %s: %w", common.ErrShaderCompileFailure, key, err)
	}
	return r.backend.CompileShader(renderer.ShaderSource{
		Key:        key,
		Code:       code,
		Textures:   flags.Textures(),
		ObjectID:   flags.Has(FlagObjectID),
		LightCount: lightCount,
	})
}
