package light

import "github.com/chewxy/math32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithColor is an option builder that sets the RGBA color of the light.
//
// Parameters:
//   - c: the RGBA color
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(c [4]float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = c
	}
}

// WithIntensity is an option builder that sets the brightness multiplier.
//
// Parameters:
//   - intensity: the intensity
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithRange is an option builder that sets the attenuation cutoff distance.
//
// Parameters:
//   - lightRange: the range in world units
//
// Returns:
//   - LightBuilderOption: a function that applies the range option to a lightImpl
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightRange = lightRange
	}
}

// WithSpotCone is an option builder that sets the spot cone half-angles in degrees.
//
// Parameters:
//   - innerDeg: inner half-angle where attenuation starts
//   - outerDeg: outer half-angle where the light reaches zero
//
// Returns:
//   - LightBuilderOption: a function that applies the spot cone option to a lightImpl
func WithSpotCone(innerDeg, outerDeg float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.innerDeg = innerDeg
		l.outerDeg = outerDeg
	}
}

func cosDeg(deg float32) float32 {
	return math32.Cos(deg * math32.Pi / 180.0)
}
