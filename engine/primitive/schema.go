package primitive

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/common"
)

// Type names a primitive generator.
type Type string

const (
	TypeSphere   Type = "sphere"
	TypeCube     Type = "cube"
	TypePlane    Type = "plane"
	TypeCapsule  Type = "capsule"
	TypeCone     Type = "cone"
	TypeCylinder Type = "cylinder"
	TypeCircle   Type = "circle"
)

// Params holds shape parameters by name. Integer and flag parameters are stored as whole numbers.
type Params map[string]float64

// Param describes one parameter a primitive type consumes.
type Param struct {
	Name    string
	Default float64
	Integer bool
	Min     float64
	Max     float64
	// Positive requires the value to be strictly greater than Min.
	Positive bool
}

func (p Param) check(v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return fmt.Errorf("%w: %s must be finite", common.ErrInvalidParameter, p.Name)
	case p.Integer && v != math.Trunc(v):
		return fmt.Errorf("%w: %s must be an integer, got %v", common.ErrInvalidParameter, p.Name, v)
	case p.Positive && v <= p.Min:
		return fmt.Errorf("%w: %s must be greater than %v, got %v", common.ErrInvalidParameter, p.Name, p.Min, v)
	case v < p.Min:
		return fmt.Errorf("%w: %s must be at least %v, got %v", common.ErrInvalidParameter, p.Name, p.Min, v)
	case p.Max != 0 && v > p.Max:
		return fmt.Errorf("%w: %s must be at most %v, got %v", common.ErrInvalidParameter, p.Name, p.Max, v)
	}
	return nil
}

var (
	radius   = Param{Name: "radius", Default: 1, Positive: true}
	length   = Param{Name: "length", Default: 1}
	size     = Param{Name: "size", Default: 1, Positive: true}
	segments = Param{Name: "segments", Default: 32, Integer: true, Min: 3}
	caps     = Param{Name: "caps", Default: 1, Integer: true, Min: 0, Max: 1}
)

func with(p Param, def float64) Param {
	p.Default = def
	return p
}

var schemas = map[Type][]Param{
	TypeSphere: {
		radius,
		{Name: "rings", Default: 16, Integer: true, Min: 2},
		segments,
	},
	TypeCube:  {size},
	TypePlane: {size},
	TypeCapsule: {
		with(radius, 0.5),
		length,
		{Name: "rings", Default: 8, Integer: true, Min: 1},
		segments,
	},
	TypeCone: {
		radius,
		length,
		{Name: "rings", Default: 1, Integer: true, Min: 1},
		segments,
		caps,
	},
	TypeCylinder: {
		radius,
		length,
		{Name: "rings", Default: 1, Integer: true, Min: 1},
		segments,
		caps,
	},
	TypeCircle: {radius, segments},
}

// Types returns every supported primitive type in sorted order.
func Types() []Type {
	types := make([]Type, 0, len(schemas))
	for t := range schemas {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// ParseType validates a primitive type name.
//
// Parameters:
//   - name: the type name as written in a document
//
// Returns:
//   - Type: the primitive type
//   - error: an error wrapping common.ErrUnsupportedPrimitive if the name is unknown
func ParseType(name string) (Type, error) {
	t := Type(name)
	if _, ok := schemas[t]; !ok {
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedPrimitive, name)
	}
	return t, nil
}

// Schema returns the parameters a primitive type consumes, sorted by name.
//
// Parameters:
//   - t: the primitive type
//
// Returns:
//   - []Param: the parameter schema
//   - error: an error wrapping common.ErrUnsupportedPrimitive if t is unknown
func Schema(t Type) ([]Param, error) {
	s, ok := schemas[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedPrimitive, t)
	}
	out := slices.Clone(s)
	slices.SortFunc(out, func(a, b Param) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Resolve applies defaults to params and validates every value the type consumes.
// Parameters outside the type's schema are dropped.
//
// Parameters:
//   - t: the primitive type
//   - params: the caller's parameters, possibly partial
//
// Returns:
//   - Params: a complete parameter set
//   - error: common.ErrUnsupportedPrimitive or common.ErrInvalidParameter
func Resolve(t Type, params Params) (Params, error) {
	schema, err := Schema(t)
	if err != nil {
		return nil, err
	}
	out := make(Params, len(schema))
	for _, p := range schema {
		v, ok := params[p.Name]
		if !ok {
			v = p.Default
		}
		if err := p.check(v); err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		out[p.Name] = v
	}
	return out, nil
}

// Key returns the canonical cache key for a primitive.
// Defaults are applied first, so an omitted parameter and its explicit default share a key.
//
// Parameters:
//   - t: the primitive type
//   - params: the caller's parameters, possibly partial
//
// Returns:
//   - string: the key, e.g. "sphere?radius=1&rings=16&segments=20"
//   - error: common.ErrUnsupportedPrimitive or common.ErrInvalidParameter
func Key(t Type, params Params) (string, error) {
	resolved, err := Resolve(t, params)
	if err != nil {
		return "", err
	}
	schema, _ := Schema(t)
	return key(t, schema, resolved), nil
}

func key(t Type, schema []Param, values Params) string {
	var b strings.Builder
	b.WriteString(string(t))
	for i, p := range schema {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(FormatValue(p, values[p.Name]))
	}
	return b.String()
}

// FormatValue renders a parameter value the way keys and documents spell it.
func FormatValue(p Param, v float64) string {
	if p.Integer {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
