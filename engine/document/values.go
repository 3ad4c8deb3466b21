package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-editor/common"
)

// ParseFloat parses a decimal float field.
func ParseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, fmt.Errorf("%w: not a number: %q", common.ErrMalformedDocument, s)
	}
	return float32(v), nil
}

// FormatFloat renders a float the shortest way that parses back to the same value.
func FormatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

// ParseInt parses a decimal integer field.
func ParseInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: not an integer: %q", common.ErrMalformedDocument, s)
	}
	return v, nil
}

// ParseBool parses a boolean field. Besides the strconv spellings it accepts yes/no and on/off.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%w: not a boolean: %q", common.ErrMalformedDocument, s)
	}
	return v, nil
}

// ParseVector parses n space-separated floats.
//
// Parameters:
//   - s: the field text
//   - n: the expected component count
//
// Returns:
//   - []float32: the components
//   - error: an error wrapping common.ErrMalformedDocument on a bad count or component
func ParseVector(s string, n int) ([]float32, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("%w: want %d components, got %d in %q", common.ErrMalformedDocument, n, len(fields), s)
	}
	out := make([]float32, n)
	for i, f := range fields {
		v, err := ParseFloat(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// FormatVector renders floats space-separated.
func FormatVector(v ...float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = FormatFloat(f)
	}
	return strings.Join(parts, " ")
}

// ParseVec3 parses a three-component vector.
func ParseVec3(s string) (mgl32.Vec3, error) {
	v, err := ParseVector(s, 3)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, nil
}

// ParseColor parses an RGBA color. Three components are accepted with alpha defaulting to 1.
func ParseColor(s string) ([4]float32, error) {
	if len(strings.Fields(s)) == 3 {
		v, err := ParseVector(s, 3)
		if err != nil {
			return [4]float32{}, err
		}
		return [4]float32{v[0], v[1], v[2], 1}, nil
	}
	v, err := ParseVector(s, 4)
	if err != nil {
		return [4]float32{}, err
	}
	return [4]float32{v[0], v[1], v[2], v[3]}, nil
}

// FormatColor renders an RGBA color.
func FormatColor(c [4]float32) string {
	return FormatVector(c[:]...)
}

// ParseMatrix4 parses sixteen column-major floats.
func ParseMatrix4(s string) (mgl32.Mat4, error) {
	v, err := ParseVector(s, 16)
	if err != nil {
		return mgl32.Mat4{}, err
	}
	var m mgl32.Mat4
	copy(m[:], v)
	return m, nil
}

// FormatMatrix4 renders a matrix as sixteen column-major floats.
func FormatMatrix4(m mgl32.Mat4) string {
	return FormatVector(m[:]...)
}

// Float returns a float field, or def when it is absent.
func (g *Group) Float(key string, def float32) (float32, error) {
	s, ok := g.Value(key)
	if !ok {
		return def, nil
	}
	v, err := ParseFloat(s)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// Int returns an integer field, or def when it is absent.
func (g *Group) Int(key string, def int) (int, error) {
	s, ok := g.Value(key)
	if !ok {
		return def, nil
	}
	v, err := ParseInt(s)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// Bool returns a boolean field, or def when it is absent.
func (g *Group) Bool(key string, def bool) (bool, error) {
	s, ok := g.Value(key)
	if !ok {
		return def, nil
	}
	v, err := ParseBool(s)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// Text returns a text field, or def when it is absent.
func (g *Group) Text(key string, def string) string {
	if s, ok := g.Value(key); ok {
		return s
	}
	return def
}

// Color returns a color field, or def when it is absent.
func (g *Group) Color(key string, def [4]float32) ([4]float32, error) {
	s, ok := g.Value(key)
	if !ok {
		return def, nil
	}
	v, err := ParseColor(s)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// Matrix4 returns a matrix field, or def when it is absent.
func (g *Group) Matrix4(key string, def mgl32.Mat4) (mgl32.Mat4, error) {
	s, ok := g.Value(key)
	if !ok {
		return def, nil
	}
	v, err := ParseMatrix4(s)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func (g *Group) SetFloat(key string, v float32) {
	g.Set(key, FormatFloat(v))
}

func (g *Group) SetInt(key string, v int) {
	g.Set(key, strconv.Itoa(v))
}

func (g *Group) SetBool(key string, v bool) {
	g.Set(key, strconv.FormatBool(v))
}

func (g *Group) SetColor(key string, c [4]float32) {
	g.Set(key, FormatColor(c))
}

func (g *Group) SetMatrix4(key string, m mgl32.Mat4) {
	g.Set(key, FormatMatrix4(m))
}
