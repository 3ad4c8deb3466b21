package light

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPULightSize is the marshalled size of a GPULight in bytes.
const GPULightSize = 64

// GPULightSource is the canonical WGSL definition of the Light struct.
// Matches GPULight layout exactly (64 bytes, uniform aligned).
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight is the GPU-aligned representation of a single light source.
// Matches the WGSL Light struct layout exactly (see GPULightSource).
type GPULight struct {
	Position   [3]float32 // offset  0: world-space position (point/spot)
	LightType  uint32     // offset 12: 0 = directional, 1 = point, 2 = spot
	Color      [3]float32 // offset 16: RGB color
	Intensity  float32    // offset 28: scalar multiplier
	Direction  [3]float32 // offset 32: normalized direction (directional/spot)
	LightRange float32    // offset 44: attenuation cutoff distance
	InnerCone  float32    // offset 48: cos(inner half-angle) for spot
	OuterCone  float32    // offset 52: cos(outer half-angle) for spot
}

// MarshalTo writes the light into buf, which must hold at least GPULightSize bytes.
//
// Parameters:
//   - buf: destination buffer
func (g *GPULight) MarshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Direction[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Direction[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Direction[2]))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.LightRange))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.InnerCone))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.OuterCone))
	binary.LittleEndian.PutUint32(buf[56:60], 0) // padding
	binary.LittleEndian.PutUint32(buf[60:64], 0) // padding
}

// MarshalLights packs a light list into one buffer for the light uniform array.
// An empty list still yields one zeroed slot, since WGSL arrays cannot be empty.
//
// Parameters:
//   - lights: the lights in scene order
//
// Returns:
//   - []byte: max(1, len(lights)) * GPULightSize bytes
func MarshalLights(lights []GPULight) []byte {
	n := max(len(lights), 1)
	buf := make([]byte, n*GPULightSize)
	for i := range lights {
		lights[i].MarshalTo(buf[i*GPULightSize:])
	}
	return buf
}
