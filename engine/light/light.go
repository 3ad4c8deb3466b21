package light

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// The direction is the owning node's forward axis (-Z) in world space.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from the owning node's origin.
	// Attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone along the owning node's forward axis.
	// Attenuates with both distance and angle from the cone axis.
	LightTypeSpot
)

var lightTypeNames = [...]string{"directional", "point", "spot"}

func (t LightType) String() string {
	if int(t) < len(lightTypeNames) && t >= 0 {
		return lightTypeNames[t]
	}
	return "unknown"
}

// ParseLightType maps a document name onto a LightType.
//
// Parameters:
//   - name: one of "directional", "point" or "spot"
//
// Returns:
//   - LightType: the parsed type
//   - error: error if the name is unknown
func ParseLightType(name string) (LightType, error) {
	for i, n := range lightTypeNames {
		if n == name {
			return LightType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown light type %q", name)
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType  LightType
	color      [4]float32
	intensity  float32
	lightRange float32
	innerDeg   float32
	outerDeg   float32
}

// Light is the parameter block of a light feature.
//
// A light has no position or direction of its own: both come from the world transform of the
// node that owns it, which is supplied when the light is packed for the GPU.
type Light interface {
	// Type retrieves the light type.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Color retrieves the RGBA color of the light. Alpha is carried for the document only.
	//
	// Returns:
	//   - [4]float32: the light color
	Color() [4]float32

	// Intensity retrieves the scalar brightness multiplier.
	//
	// Returns:
	//   - float32: the intensity
	Intensity() float32

	// Range retrieves the attenuation cutoff distance for point and spot lights.
	//
	// Returns:
	//   - float32: the range in world units
	Range() float32

	// SpotCone retrieves the inner and outer half-angles of a spot light in degrees.
	//
	// Returns:
	//   - float32: inner half-angle
	//   - float32: outer half-angle
	SpotCone() (float32, float32)

	// SetType changes the light type.
	//
	// Parameters:
	//   - t: the new type
	SetType(t LightType)

	// SetColor changes the light color.
	//
	// Parameters:
	//   - c: RGBA color
	SetColor(c [4]float32)

	// SetIntensity changes the brightness multiplier.
	//
	// Parameters:
	//   - intensity: the new intensity
	SetIntensity(intensity float32)

	// SetRange changes the attenuation cutoff distance.
	//
	// Parameters:
	//   - lightRange: the new range
	SetRange(lightRange float32)

	// SetSpotCone changes the spot cone half-angles in degrees.
	//
	// Parameters:
	//   - innerDeg: inner half-angle
	//   - outerDeg: outer half-angle
	SetSpotCone(innerDeg, outerDeg float32)

	// ToGPU packs the light for the per-frame light array using the owning node's world transform.
	//
	// Parameters:
	//   - world: absolute transform of the owning node
	//
	// Returns:
	//   - GPULight: the packed light
	ToGPU(world mgl32.Mat4) GPULight
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// applies the provided options.
//
// Parameters:
//   - lightType: the kind of light
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: the new light
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:  lightType,
		color:      [4]float32{1, 1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		innerDeg:   15,
		outerDeg:   30,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Color() [4]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) SpotCone() (float32, float32) {
	return l.innerDeg, l.outerDeg
}

func (l *lightImpl) SetType(t LightType) {
	l.lightType = t
}

func (l *lightImpl) SetColor(c [4]float32) {
	l.color = c
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.lightRange = lightRange
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.innerDeg = innerDeg
	l.outerDeg = outerDeg
}

func (l *lightImpl) ToGPU(world mgl32.Mat4) GPULight {
	forward := world.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
	if forward.Len() > 0 {
		forward = forward.Normalize()
	}
	return GPULight{
		Position:   [3]float32{world[12], world[13], world[14]},
		LightType:  uint32(l.lightType),
		Color:      [3]float32{l.color[0], l.color[1], l.color[2]},
		Intensity:  l.intensity,
		Direction:  [3]float32(forward),
		LightRange: l.lightRange,
		InnerCone:  cosDeg(l.innerDeg),
		OuterCone:  cosDeg(l.outerDeg),
	}
}
