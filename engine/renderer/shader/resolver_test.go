package shader

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, options ...renderer.BackendBuilderOption) (Resolver, cache.Cache[renderer.Shader], *renderer.NullBackend) {
	t.Helper()
	backend := renderer.NewNullBackend(options...)
	shaders := cache.NewCache(cache.WithEvictFunc(func(key string, s renderer.Shader) {
		backend.ReleaseShader(s)
	}))
	return NewResolver(shaders, backend), shaders, backend
}

func TestIdenticalFlagsShareOneVariant(t *testing.T) {
	r, shaders, backend := newTestResolver(t)

	// Two unrelated materials that happen to need the same inputs share a program.
	a, err := r.Resolve(FlagDiffuseTexture, 1)
	require.NoError(t, err)
	b, err := r.Resolve(FlagDiffuseTexture, 1)
	require.NoError(t, err)

	assert.Equal(t, a.Generation(), b.Generation())
	assert.Equal(t, 1, backend.Compiles())
	assert.Equal(t, 2, shaders.RefCount("phong+diffuse"))

	c, err := r.Resolve(FlagDiffuseTexture|FlagObjectID, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, []string{"phong+diffuse", "phong+diffuse+objectid"}, r.KnownKeys())
}

func TestInvalidateAllRebuildsInPlace(t *testing.T) {
	r, shaders, backend := newTestResolver(t)

	held, err := r.Resolve(FlagObjectID, 1)
	require.NoError(t, err)
	dropped, err := r.Resolve(FlagNormalTexture, 1)
	require.NoError(t, err)
	require.NoError(t, dropped.Release())
	assert.False(t, shaders.Contains("phong+normal"))

	gen := held.Generation()
	before := r.Invalidations()
	require.NoError(t, r.InvalidateAll(2))

	assert.Equal(t, 2, r.LightCount())
	assert.Equal(t, 2, held.Payload().LightCount)
	assert.Equal(t, gen, held.Generation())
	assert.True(t, r.Current(held))
	assert.Equal(t, []string{"phong+objectid"}, r.KnownKeys())
	assert.Equal(t, 1, backend.LiveShaders())
	assert.Equal(t, before+1, r.Invalidations())

	again, err := r.Resolve(FlagObjectID, 2)
	require.NoError(t, err)
	assert.Equal(t, gen, again.Generation())
}

func TestResolveWithNewLightCountInvalidates(t *testing.T) {
	r, _, _ := newTestResolver(t)

	first, err := r.Resolve(0, 1)
	require.NoError(t, err)

	second, err := r.Resolve(FlagDiffuseTexture, 3)
	require.NoError(t, err)

	// One invalidation for the first non-zero count, one for the change to three.
	assert.Equal(t, 2, r.Invalidations())
	assert.Equal(t, 3, first.Payload().LightCount)
	assert.Equal(t, 3, second.Payload().LightCount)
}

func TestCompileFailureIsLocal(t *testing.T) {
	r, shaders, _ := newTestResolver(t, renderer.WithCompileHook(func(src renderer.ShaderSource) error {
		if src.Textures[renderer.TextureSlotNormal] {
			return errors.New("normal maps unsupported")
		}
		return nil
	}))

	_, err := r.Resolve(FlagNormalTexture, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrShaderCompileFailure))
	assert.False(t, shaders.Contains("phong+normal"))

	ok, err := r.Resolve(FlagDiffuseTexture, 0)
	require.NoError(t, err)
	assert.True(t, r.Current(ok))

	// The failure is remembered until the next invalidation.
	_, err = r.Resolve(FlagNormalTexture, 0)
	assert.Error(t, err)
}

func TestFailedRebuildLeavesStaleShaderUndrawable(t *testing.T) {
	failing := false
	r, _, _ := newTestResolver(t, renderer.WithCompileHook(func(src renderer.ShaderSource) error {
		if failing {
			return errors.New("too many lights")
		}
		return nil
	}))

	h, err := r.Resolve(FlagObjectID, 1)
	require.NoError(t, err)

	failing = true
	assert.Error(t, r.InvalidateAll(5))
	assert.False(t, r.Current(h))
	_, err = r.Resolve(FlagObjectID, 5)
	assert.Error(t, err)

	failing = false
	require.NoError(t, r.InvalidateAll(5))
	assert.True(t, r.Current(h))
}
