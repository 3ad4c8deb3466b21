package material

// Material holds the Phong surface scalars of a mesh feature.
// It is a plain value: copying a Material copies the whole surface description.
type Material struct {
	// Ambient is the RGBA color reflected from ambient light.
	Ambient [4]float32
	// Diffuse is the RGBA color reflected from direct light.
	Diffuse [4]float32
	// Specular is the RGBA color of highlights.
	Specular [4]float32
	// Shininess is the Phong specular exponent.
	Shininess float32
}

// NewMaterial creates a Material with the default grey Phong surface and applies the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: the configured material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := Material{
		Ambient:   [4]float32{0, 0, 0, 1},
		Diffuse:   [4]float32{1, 1, 1, 1},
		Specular:  [4]float32{1, 1, 1, 1},
		Shininess: 80,
	}
	for _, opt := range options {
		opt(&m)
	}
	return m
}

// GPU packs the material for the per-draw uniform block.
func (m Material) GPU() GPUMaterial {
	return GPUMaterial{
		Ambient:   m.Ambient,
		Diffuse:   m.Diffuse,
		Specular:  m.Specular,
		Shininess: m.Shininess,
	}
}
