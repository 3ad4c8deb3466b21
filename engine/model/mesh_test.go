package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle() MeshData {
	return MeshData{
		Vertices: []Vertex{
			{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, 1}},
			{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 0}},
			{Position: [3]float32{0, 2, 0}, Normal: [3]float32{0, 0, 1}, Tangent: [4]float32{1, 0, 0, 1}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

func TestVertexBytesLayout(t *testing.T) {
	m := triangle()
	buf := m.VertexBytes()
	require.Len(t, buf, 3*VertexStride)

	second := buf[VertexStride:]
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(second[0:4])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(second[24:28])))

	third := buf[2*VertexStride:]
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(third[44:48])))
}

func TestIndexBytes(t *testing.T) {
	m := triangle()
	buf := m.IndexBytes()
	require.Len(t, buf, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[8:12]))
}

func TestValidate(t *testing.T) {
	m := triangle()
	assert.NoError(t, m.Validate())

	m.Indices = append(m.Indices, 0)
	assert.Error(t, m.Validate())

	m.Indices = []uint32{0, 1, 9}
	assert.Error(t, m.Validate())
}

func TestBoundingRadius(t *testing.T) {
	m := triangle()
	assert.InDelta(t, 2, m.BoundingRadius(), 1e-6)
}
