package cache

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNeverCreates(t *testing.T) {
	c := NewCache[string]()

	h, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, h)
	assert.Equal(t, 0, c.Len())
}

func TestReferenceCountedEviction(t *testing.T) {
	var evicted []string
	c := NewCache(WithEvictFunc(func(key string, payload int) {
		evicted = append(evicted, key)
	}))

	first := c.Set("mesh", 7, StateFinal, PolicyReferenceCounted)
	second, ok := c.Get("mesh")
	require.True(t, ok)
	assert.Equal(t, 7, second.Payload())
	assert.Equal(t, 2, c.RefCount("mesh"))

	require.NoError(t, first.Release())
	assert.True(t, c.Contains("mesh"))

	require.NoError(t, second.Release())
	assert.False(t, c.Contains("mesh"))
	_, ok = c.Get("mesh")
	assert.False(t, ok)
	assert.Equal(t, []string{"mesh"}, evicted)
}

func TestResidentSurvivesRelease(t *testing.T) {
	c := NewCache[int]()

	h := c.Set("white", 1, StateFinal, PolicyResident)
	require.NoError(t, h.Release())

	again, ok := c.Get("white")
	require.True(t, ok)
	assert.Equal(t, h.Generation(), again.Generation())
	require.NoError(t, again.Release())
}

func TestSetOverwritesAndDetaches(t *testing.T) {
	var evicted []int
	c := NewCache(WithEvictFunc(func(key string, payload int) {
		evicted = append(evicted, payload)
	}))

	old := c.Set("k", 1, StateMutable, PolicyReferenceCounted)
	fresh := c.Set("k", 2, StateMutable, PolicyReferenceCounted)

	assert.NotEqual(t, old.Generation(), fresh.Generation())
	assert.Equal(t, 1, old.Payload())
	assert.False(t, old.Live())
	assert.True(t, fresh.Live())

	require.NoError(t, old.Release())
	assert.Equal(t, []int{1}, evicted)
	assert.True(t, c.Contains("k"))
	assert.Equal(t, 1, c.RefCount("k"))

	require.NoError(t, fresh.Release())
	assert.Equal(t, []int{1, 2}, evicted)
	assert.Equal(t, 0, c.Len())
}

func TestReplaceMutable(t *testing.T) {
	c := NewCache[string]()

	a := c.Set("shader", "v1", StateMutable, PolicyReferenceCounted)
	b := a.Clone()

	old, err := a.Replace("v2")
	require.NoError(t, err)
	assert.Equal(t, "v1", old)
	assert.Equal(t, "v2", b.Payload())
	assert.Equal(t, a.Generation(), b.Generation())
}

func TestReplaceFinalIsViolation(t *testing.T) {
	if common.FailFast() {
		t.Skip("invariant violations panic in this build")
	}
	c := NewCache[string]()
	h := c.Set("mesh", "v1", StateFinal, PolicyReferenceCounted)

	_, err := h.Replace("v2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvariantViolation))
	assert.Equal(t, "v1", h.Payload())
}

func TestFinalize(t *testing.T) {
	if common.FailFast() {
		t.Skip("invariant violations panic in this build")
	}
	c := NewCache[int]()
	h := c.Set("k", 1, StateMutable, PolicyResident)
	h.Finalize()
	assert.Equal(t, StateFinal, h.State())

	_, err := h.Replace(2)
	assert.ErrorIs(t, err, common.ErrInvariantViolation)
}

func TestDoubleReleaseIsViolation(t *testing.T) {
	if common.FailFast() {
		t.Skip("invariant violations panic in this build")
	}
	c := NewCache[int]()
	h := c.Set("k", 1, StateFinal, PolicyResident)
	other := h.Clone()

	require.NoError(t, h.Release())
	assert.ErrorIs(t, h.Release(), common.ErrInvariantViolation)
	assert.Equal(t, 1, c.RefCount("k"))
	require.NoError(t, other.Release())
}

func TestKeysSorted(t *testing.T) {
	c := NewCache[int]()
	c.Set("b", 1, StateFinal, PolicyResident)
	c.Set("a", 2, StateFinal, PolicyResident)
	c.Set("c", 3, StateFinal, PolicyResident)

	assert.Equal(t, []string{"a", "b", "c"}, c.Keys())
	assert.Equal(t, "resident", PolicyResident.String())
	assert.Equal(t, "final", StateFinal.String())
}
