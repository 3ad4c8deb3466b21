package cache

// State controls whether an entry's payload may be replaced after it is set.
type State int

const (
	// StateMutable entries may have their payload replaced in place.
	StateMutable State = iota
	// StateFinal entries are immutable once set.
	StateFinal
)

func (s State) String() string {
	switch s {
	case StateMutable:
		return "mutable"
	case StateFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Policy controls when an entry is evicted.
type Policy int

const (
	// PolicyReferenceCounted entries are evicted when their last handle is released.
	PolicyReferenceCounted Policy = iota
	// PolicyResident entries are never evicted.
	PolicyResident
)

func (p Policy) String() string {
	switch p {
	case PolicyReferenceCounted:
		return "reference-counted"
	case PolicyResident:
		return "resident"
	default:
		return "unknown"
	}
}

// entry is a single cached resource shared by every handle that refers to it.
type entry[T any] struct {
	key        string
	payload    T
	state      State
	policy     Policy
	refs       int
	generation uint64
	detached   bool
}
