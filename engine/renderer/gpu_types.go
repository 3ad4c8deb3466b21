package renderer

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/material"
)

const (
	// frameUniformSize matches the WGSL FrameUniforms struct: view, projection, eye.
	frameUniformSize = 64 + 64 + 16
	// drawUniformSize matches the WGSL DrawUniforms struct: model, normal, material, object id + padding.
	drawUniformSize = 64 + 64 + material.GPUMaterialSize + 16
)

// marshalFrameUniforms packs the per-frame camera block.
//
// Parameters:
//   - p: the frame parameters
//
// Returns:
//   - []byte: frameUniformSize bytes
func marshalFrameUniforms(p FrameParams) []byte {
	buf := make([]byte, frameUniformSize)
	putMat4(buf[0:64], p.View)
	putMat4(buf[64:128], p.Projection)
	putFloat(buf[128:], p.Eye[0])
	putFloat(buf[132:], p.Eye[1])
	putFloat(buf[136:], p.Eye[2])
	putFloat(buf[140:], 1)
	return buf
}

// marshalDrawUniforms packs the per-draw model, normal matrix, material and object id.
//
// Parameters:
//   - cmd: the draw
//
// Returns:
//   - []byte: drawUniformSize bytes
func marshalDrawUniforms(cmd DrawCommand) []byte {
	buf := make([]byte, drawUniformSize)
	putMat4(buf[0:64], cmd.Model)
	putMat4(buf[64:128], cmd.Normal)
	cmd.Material.MarshalTo(buf[128:192])
	binary.LittleEndian.PutUint32(buf[192:196], cmd.ObjectID)
	return buf
}

func putMat4(buf []byte, m mgl32.Mat4) {
	for i, f := range m {
		putFloat(buf[i*4:], f)
	}
}

func putFloat(buf []byte, f float32) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(f))
}
