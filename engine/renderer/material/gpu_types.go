package material

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUMaterialSize is the marshalled size of a GPUMaterial in bytes.
const GPUMaterialSize = 64

// GPUMaterialSource is the canonical WGSL definition of the Material struct.
// Matches GPUMaterial layout exactly (64 bytes, uniform aligned).
//
//go:embed assets/material.wgsl
var GPUMaterialSource string

// GPUMaterial is the GPU-aligned representation of the Phong material uniform.
type GPUMaterial struct {
	Ambient   [4]float32 // offset  0 (16 bytes)
	Diffuse   [4]float32 // offset 16 (16 bytes)
	Specular  [4]float32 // offset 32 (16 bytes)
	Shininess float32    // offset 48, followed by 12 bytes of padding
}

// MarshalTo writes the material into buf, which must hold at least GPUMaterialSize bytes.
//
// Parameters:
//   - buf: destination buffer
func (g *GPUMaterial) MarshalTo(buf []byte) {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Ambient[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Diffuse[i]))
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(g.Specular[i]))
	}
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.Shininess))
	clear(buf[52:64])
}
