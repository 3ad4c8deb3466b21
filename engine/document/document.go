package document

import "slices"

// Entry is one item of a group: either a key/value pair or a nested group.
type Entry struct {
	Key   string
	Value string
	// Group is set when the entry is a nested group; Key then equals Group.Name.
	Group *Group
}

// IsGroup reports whether the entry holds a nested group.
func (e Entry) IsGroup() bool {
	return e.Group != nil
}

// Group is a named, ordered list of values and nested groups.
// Order is significant: it is preserved through decode, edit and encode.
type Group struct {
	Name    string
	entries []Entry
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{Name: name}
}

// Entries returns a copy of the group's entries in order.
func (g *Group) Entries() []Entry {
	return slices.Clone(g.entries)
}

// Len returns the number of entries, values and groups together.
func (g *Group) Len() int {
	return len(g.entries)
}

// Value returns the first value stored under key.
//
// Parameters:
//   - key: the field name
//
// Returns:
//   - string: the raw text
//   - bool: true if the field is present
func (g *Group) Value(key string) (string, bool) {
	if i := g.valueIndex(key); i >= 0 {
		return g.entries[i].Value, true
	}
	return "", false
}

// Has reports whether a value is stored under key.
func (g *Group) Has(key string) bool {
	return g.valueIndex(key) >= 0
}

// Set writes a value. An existing field is updated in place so sibling order is unchanged;
// a new field is appended.
//
// Parameters:
//   - key: the field name
//   - value: the raw text
func (g *Group) Set(key, value string) {
	if i := g.valueIndex(key); i >= 0 {
		g.entries[i].Value = value
		return
	}
	g.entries = append(g.entries, Entry{Key: key, Value: value})
}

// Append adds a value at the end even if the key already exists.
func (g *Group) Append(key, value string) {
	g.entries = append(g.entries, Entry{Key: key, Value: value})
}

// Delete removes the first value stored under key.
//
// Returns:
//   - bool: true if a field was removed
func (g *Group) Delete(key string) bool {
	i := g.valueIndex(key)
	if i < 0 {
		return false
	}
	g.entries = slices.Delete(g.entries, i, i+1)
	return true
}

// Keys returns the value keys in order, nested groups excluded.
func (g *Group) Keys() []string {
	var keys []string
	for _, e := range g.entries {
		if !e.IsGroup() {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Groups returns the nested groups with the given name, in order.
func (g *Group) Groups(name string) []*Group {
	var out []*Group
	for _, e := range g.entries {
		if e.IsGroup() && e.Group.Name == name {
			out = append(out, e.Group)
		}
	}
	return out
}

// Group returns the first nested group with the given name.
func (g *Group) Group(name string) (*Group, bool) {
	for _, e := range g.entries {
		if e.IsGroup() && e.Group.Name == name {
			return e.Group, true
		}
	}
	return nil, false
}

// AddGroup appends a nested group.
func (g *Group) AddGroup(child *Group) {
	g.entries = append(g.entries, Entry{Key: child.Name, Group: child})
}

// InsertGroup inserts a nested group at entry position i, clamped to the entry list.
func (g *Group) InsertGroup(i int, child *Group) {
	i = max(0, min(i, len(g.entries)))
	g.entries = slices.Insert(g.entries, i, Entry{Key: child.Name, Group: child})
}

// IndexOf returns the entry position of a nested group, or -1.
func (g *Group) IndexOf(child *Group) int {
	return slices.IndexFunc(g.entries, func(e Entry) bool { return e.Group == child })
}

// RemoveGroup detaches a nested group.
//
// Returns:
//   - bool: true if child was a direct member of g
func (g *Group) RemoveGroup(child *Group) bool {
	i := g.IndexOf(child)
	if i < 0 {
		return false
	}
	g.entries = slices.Delete(g.entries, i, i+1)
	return true
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	out := &Group{Name: g.Name, entries: make([]Entry, len(g.entries))}
	for i, e := range g.entries {
		if e.IsGroup() {
			e.Group = e.Group.Clone()
		}
		out.entries[i] = e
	}
	return out
}

// Equal reports whether two groups hold the same entries in the same order, recursively.
func Equal(a, b *Group) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || len(a.entries) != len(b.entries) {
		return false
	}
	for i := range a.entries {
		ea, eb := a.entries[i], b.entries[i]
		if ea.Key != eb.Key || ea.IsGroup() != eb.IsGroup() {
			return false
		}
		if ea.IsGroup() {
			if !Equal(ea.Group, eb.Group) {
				return false
			}
		} else if ea.Value != eb.Value {
			return false
		}
	}
	return true
}

func (g *Group) valueIndex(key string) int {
	return slices.IndexFunc(g.entries, func(e Entry) bool { return !e.IsGroup() && e.Key == key })
}
