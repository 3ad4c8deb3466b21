package model

import (
	"encoding/binary"
	"fmt"

	"github.com/chewxy/math32"
)

// MeshData is CPU-side triangle geometry with counter-clockwise front faces.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// VertexBytes marshals every vertex into one tightly packed buffer.
//
// Returns:
//   - []byte: len(Vertices) * VertexStride bytes
func (m *MeshData) VertexBytes() []byte {
	buf := make([]byte, len(m.Vertices)*VertexStride)
	for i := range m.Vertices {
		m.Vertices[i].MarshalTo(buf[i*VertexStride:])
	}
	return buf
}

// IndexBytes marshals the index list as little-endian uint32 values.
//
// Returns:
//   - []byte: len(Indices) * 4 bytes
func (m *MeshData) IndexBytes() []byte {
	buf := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// Validate checks that the index list describes whole triangles over existing vertices.
//
// Returns:
//   - error: a description of the first problem found, or nil
func (m *MeshData) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("index %d at position %d out of range (%d vertices)", idx, i, len(m.Vertices))
		}
	}
	return nil
}

// BoundingRadius returns the largest distance of any vertex from the model-space origin.
func (m *MeshData) BoundingRadius() float32 {
	var r float32
	for _, v := range m.Vertices {
		p := v.Position
		r = math32.Max(r, math32.Sqrt(p[0]*p[0]+p[1]*p[1]+p[2]*p[2]))
	}
	return r
}
