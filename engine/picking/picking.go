package picking

import (
	"image"
	"log/slog"
)

// State is the lifecycle state of a picking buffer.
type State int

const (
	// StateUnassigned means ids are stale or were never assigned; resolution always misses.
	StateUnassigned State = iota
	// StateAssigned means ids match the features submitted in the last draw.
	StateAssigned
)

func (s State) String() string {
	if s == StateAssigned {
		return "assigned"
	}
	return "unassigned"
}

// PixelReader reads one texel of the object-id target.
type PixelReader interface {
	FramebufferSize() (int, int)
	ReadPixel(x, y int) (uint32, error)
}

// Buffer maps drawable features to dense, 1-based object ids. Id 0 means no object.
type Buffer[F comparable] interface {
	// AssignIDs numbers features 1..n in submission order and moves the buffer to StateAssigned.
	//
	// Parameters:
	//   - order: the drawable features in the order they are submitted to the opaque pass
	//
	// Returns:
	//   - []uint32: the id of each feature, parallel to order
	AssignIDs(order []F) []uint32

	// Append assigns the next id to one more feature without renumbering the others.
	// Used by the draw pass, which learns the order one feature at a time.
	//
	// Parameters:
	//   - f: the feature being submitted
	//
	// Returns:
	//   - uint32: the feature's id
	Append(f F) uint32

	// IDOf returns the id assigned to a feature.
	//
	// Parameters:
	//   - f: the feature
	//
	// Returns:
	//   - uint32: its id, or 0 if it has none
	//   - bool: true if the buffer is assigned and the feature has an id
	IDOf(f F) (uint32, bool)

	// Lookup maps an id back to its feature.
	//
	// Parameters:
	//   - id: an object id read from the id target
	//
	// Returns:
	//   - F: the feature, or the zero value
	//   - bool: true if the buffer is assigned and id names a feature
	Lookup(id uint32) (F, bool)

	// Invalidate drops every assignment after a structural change. Resolution misses until the next assignment.
	Invalidate()

	// State returns the buffer's lifecycle state.
	State() State

	// Len returns how many features hold ids.
	Len() int

	// Resolve maps a window coordinate to the feature drawn at that pixel.
	// The coordinate is scaled from window to framebuffer pixels per axis and flipped vertically,
	// since window coordinates grow downward and the id target's rows grow upward.
	//
	// Parameters:
	//   - coord: the position in window coordinates, origin top-left
	//   - window: the window size in window coordinates
	//   - reader: the id target
	//
	// Returns:
	//   - F: the feature under the cursor, or the zero value
	//   - bool: true if a live feature was hit
	Resolve(coord image.Point, window image.Point, reader PixelReader) (F, bool)
}

type buffer[F comparable] struct {
	state  State
	ids    map[F]uint32
	order  []F
	logger *slog.Logger
}

var _ Buffer[int] = &buffer[int]{}

// NewBuffer creates an unassigned picking buffer.
//
// Parameters:
//   - options: variadic list of BufferBuilderOption functions
//
// Returns:
//   - Buffer[F]: the new buffer
func NewBuffer[F comparable](options ...BufferBuilderOption[F]) Buffer[F] {
	b := &buffer[F]{
		ids:    make(map[F]uint32),
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *buffer[F]) AssignIDs(order []F) []uint32 {
	b.Invalidate()
	out := make([]uint32, len(order))
	for i, f := range order {
		out[i] = b.Append(f)
	}
	return out
}

func (b *buffer[F]) Append(f F) uint32 {
	if id, ok := b.ids[f]; ok && b.state == StateAssigned {
		return id
	}
	b.state = StateAssigned
	b.order = append(b.order, f)
	id := uint32(len(b.order))
	b.ids[f] = id
	return id
}

func (b *buffer[F]) IDOf(f F) (uint32, bool) {
	if b.state != StateAssigned {
		return 0, false
	}
	id, ok := b.ids[f]
	return id, ok
}

func (b *buffer[F]) Lookup(id uint32) (F, bool) {
	var zero F
	if b.state != StateAssigned || id == 0 || int(id) > len(b.order) {
		return zero, false
	}
	return b.order[id-1], true
}

func (b *buffer[F]) Invalidate() {
	b.state = StateUnassigned
	b.order = b.order[:0]
	clear(b.ids)
}

func (b *buffer[F]) State() State {
	return b.state
}

func (b *buffer[F]) Len() int {
	return len(b.order)
}

func (b *buffer[F]) Resolve(coord image.Point, window image.Point, reader PixelReader) (F, bool) {
	var zero F
	if b.state != StateAssigned || window.X <= 0 || window.Y <= 0 {
		return zero, false
	}

	px, py, ok := FramebufferPixel(coord, window, reader)
	if !ok {
		return zero, false
	}
	id, err := reader.ReadPixel(px, py)
	if err != nil {
		b.logger.Warn("object id read failed", "x", px, "y", py, "err", err)
		return zero, false
	}
	return b.Lookup(id)
}

// FramebufferPixel converts a window coordinate into the id target's pixel grid.
//
// Parameters:
//   - coord: the position in window coordinates, origin top-left
//   - window: the window size in window coordinates
//   - reader: supplies the framebuffer size
//
// Returns:
//   - int, int: the pixel, origin bottom-left
//   - bool: false if the coordinate falls outside the framebuffer
func FramebufferPixel(coord image.Point, window image.Point, reader PixelReader) (int, int, bool) {
	fbW, fbH := reader.FramebufferSize()
	if window.X <= 0 || window.Y <= 0 || fbW <= 0 || fbH <= 0 {
		return 0, 0, false
	}
	px := coord.X * fbW / window.X
	py := fbH - 1 - coord.Y*fbH/window.Y
	if coord.X < 0 || coord.Y < 0 || px < 0 || px >= fbW || py < 0 || py >= fbH {
		return 0, 0, false
	}
	return px, py, true
}
