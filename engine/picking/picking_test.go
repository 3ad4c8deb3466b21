package picking

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	w, h   int
	pixels map[image.Point]uint32
	reads  []image.Point
	err    error
}

func (f *fakeTarget) FramebufferSize() (int, int) { return f.w, f.h }

func (f *fakeTarget) ReadPixel(x, y int) (uint32, error) {
	f.reads = append(f.reads, image.Pt(x, y))
	if f.err != nil {
		return 0, f.err
	}
	return f.pixels[image.Pt(x, y)], nil
}

func TestAssignIDsIsDenseAndOrdered(t *testing.T) {
	b := NewBuffer[string]()
	assert.Equal(t, StateUnassigned, b.State())

	ids := b.AssignIDs([]string{"a", "b", "c"})
	assert.Equal(t, []uint32{1, 2, 3}, ids)
	assert.Equal(t, StateAssigned, b.State())

	id, ok := b.IDOf("b")
	require.True(t, ok)
	assert.Equal(t, uint32(2), id)

	f, ok := b.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, "c", f)

	_, ok = b.Lookup(0)
	assert.False(t, ok)
	_, ok = b.Lookup(4)
	assert.False(t, ok)
}

func TestReassignmentRenumbers(t *testing.T) {
	b := NewBuffer[string]()
	b.AssignIDs([]string{"a", "b", "c"})

	// "b" was removed: "c" must take id 2 and id 3 must stop resolving.
	ids := b.AssignIDs([]string{"a", "c"})
	assert.Equal(t, []uint32{1, 2}, ids)
	_, ok := b.IDOf("b")
	assert.False(t, ok)
	_, ok = b.Lookup(3)
	assert.False(t, ok)
}

func TestInvalidateBlocksResolution(t *testing.T) {
	b := NewBuffer[string]()
	b.AssignIDs([]string{"a"})
	b.Invalidate()

	assert.Equal(t, StateUnassigned, b.State())
	_, ok := b.Lookup(1)
	assert.False(t, ok)
	_, ok = b.IDOf("a")
	assert.False(t, ok)

	target := &fakeTarget{w: 4, h: 4, pixels: map[image.Point]uint32{{0, 3}: 1}}
	_, ok = b.Resolve(image.Pt(0, 0), image.Pt(4, 4), target)
	assert.False(t, ok)
	assert.Empty(t, target.reads)
}

func TestAppendContinuesNumbering(t *testing.T) {
	b := NewBuffer[int]()
	assert.Equal(t, uint32(1), b.Append(10))
	assert.Equal(t, uint32(2), b.Append(20))
	assert.Equal(t, uint32(1), b.Append(10))
	assert.Equal(t, 2, b.Len())
}

func TestResolveScalesAndFlips(t *testing.T) {
	b := NewBuffer[string]()
	b.AssignIDs([]string{"a", "b", "c"})

	// Framebuffer is twice the window size, as on a high-DPI display.
	target := &fakeTarget{w: 200, h: 100, pixels: map[image.Point]uint32{
		{20, 99}: 1,
		{180, 1}: 3,
	}}
	window := image.Pt(100, 50)

	f, ok := b.Resolve(image.Pt(10, 0), window, target)
	require.True(t, ok)
	assert.Equal(t, "a", f)

	f, ok = b.Resolve(image.Pt(90, 49), window, target)
	require.True(t, ok)
	assert.Equal(t, "c", f)

	// Background.
	_, ok = b.Resolve(image.Pt(50, 25), window, target)
	assert.False(t, ok)
	assert.Equal(t, image.Pt(100, 49), target.reads[2])
}

func TestResolveOutOfBoundsAndReadErrors(t *testing.T) {
	b := NewBuffer[string]()
	b.AssignIDs([]string{"a"})
	target := &fakeTarget{w: 10, h: 10, pixels: map[image.Point]uint32{}}

	_, ok := b.Resolve(image.Pt(-1, 0), image.Pt(10, 10), target)
	assert.False(t, ok)
	_, ok = b.Resolve(image.Pt(10, 0), image.Pt(10, 10), target)
	assert.False(t, ok)
	_, ok = b.Resolve(image.Pt(0, 0), image.Pt(0, 10), target)
	assert.False(t, ok)
	assert.Empty(t, target.reads)

	target.err = errors.New("device lost")
	_, ok = b.Resolve(image.Pt(0, 0), image.Pt(10, 10), target)
	assert.False(t, ok)
}
