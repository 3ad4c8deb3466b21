package material

type MaterialBuilderOption func(*Material)

// WithAmbient sets the ambient color.
//
// Parameters:
//   - c: RGBA color
//
// Returns:
//   - MaterialBuilderOption: a function that sets the ambient color
func WithAmbient(c [4]float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Ambient = c
	}
}

// WithDiffuse sets the diffuse color.
//
// Parameters:
//   - c: RGBA color
//
// Returns:
//   - MaterialBuilderOption: a function that sets the diffuse color
func WithDiffuse(c [4]float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Diffuse = c
	}
}

// WithSpecular sets the specular color.
//
// Parameters:
//   - c: RGBA color
//
// Returns:
//   - MaterialBuilderOption: a function that sets the specular color
func WithSpecular(c [4]float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Specular = c
	}
}

// WithShininess sets the specular exponent.
//
// Parameters:
//   - s: the exponent
//
// Returns:
//   - MaterialBuilderOption: a function that sets the shininess
func WithShininess(s float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Shininess = s
	}
}
