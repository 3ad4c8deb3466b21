package model

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// VertexSource is the canonical WGSL definition of the VertexInput struct.
// Matches Vertex layout exactly (48 bytes).
//
//go:embed assets/vertex.wgsl
var VertexSource string

// VertexStride is the size of one marshalled Vertex in bytes.
const VertexStride = 48

// Vertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly (see VertexSource).
type Vertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Tangent  [4]float32 // offset 32: tangent vector (xyz) + handedness (w) for normal mapping (16 bytes)
}

// MarshalTo writes the vertex into buf, which must hold at least VertexStride bytes.
//
// Parameters:
//   - buf: destination buffer
func (v *Vertex) MarshalTo(buf []byte) {
	putFloats(buf[0:12], v.Position[:])
	putFloats(buf[12:24], v.Normal[:])
	putFloats(buf[24:32], v.TexCoord[:])
	putFloats(buf[32:48], v.Tangent[:])
}

// Marshal serializes the vertex into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, VertexStride)
	v.MarshalTo(buf)
	return buf
}

func putFloats(buf []byte, values []float32) {
	for i, f := range values {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(f))
	}
}
