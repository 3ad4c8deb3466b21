package primitive

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
)

// Factory builds primitive meshes on the GPU backend and shares them through the mesh cache.
type Factory interface {
	// Build returns a handle to the mesh for a primitive, generating and uploading it on first use.
	// Calls with the same type and effective parameters share one cache entry.
	// An unknown type or an invalid parameter leaves the cache untouched.
	// The caller owns the returned handle and must Release it.
	//
	// Parameters:
	//   - t: the primitive type
	//   - params: the caller's parameters, possibly partial
	//
	// Returns:
	//   - *cache.Handle[renderer.Mesh]: the shared mesh
	//   - error: common.ErrUnsupportedPrimitive, common.ErrInvalidParameter or an upload failure
	Build(t Type, params Params) (*cache.Handle[renderer.Mesh], error)

	// Builds returns how many meshes have been generated and uploaded, cache hits excluded.
	Builds() int
}

type factory struct {
	meshes  cache.Cache[renderer.Mesh]
	backend renderer.Backend
	logger  *slog.Logger
	builds  int
}

var _ Factory = &factory{}

// NewFactory creates a Factory over a mesh cache and a GPU backend.
// The mesh cache should release evicted meshes through the same backend.
//
// Parameters:
//   - meshes: the process-wide mesh cache
//   - backend: the GPU backend meshes are uploaded to
//   - options: variadic list of FactoryBuilderOption functions
//
// Returns:
//   - Factory: the new factory
func NewFactory(meshes cache.Cache[renderer.Mesh], backend renderer.Backend, options ...FactoryBuilderOption) Factory {
	if meshes == nil || backend == nil {
		panic("primitive: NewFactory requires a cache and a backend")
	}
	f := &factory{
		meshes:  meshes,
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *factory) Build(t Type, params Params) (*cache.Handle[renderer.Mesh], error) {
	resolved, err := Resolve(t, params)
	if err != nil {
		return nil, err
	}
	schema, _ := Schema(t)
	k := key(t, schema, resolved)

	if h, ok := f.meshes.Get(k); ok {
		return h, nil
	}

	data := generate(t, resolved)
	mesh, err := f.backend.UploadMesh(data.VertexBytes(), model.VertexStride, data.Indices)
	if err != nil {
		return nil, fmt.Errorf("failed to upload primitive %s: %w", k, err)
	}
	f.builds++
	f.logger.Debug("primitive built", "key", k, "vertices", len(data.Vertices), "indices", len(data.Indices))
	return f.meshes.Set(k, mesh, cache.StateFinal, cache.PolicyReferenceCounted), nil
}

func (f *factory) Builds() int {
	return f.builds
}
