package renderer

import (
	"github.com/Carmen-Shannon/oxy-editor/engine/light"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// TextureSlot names one of the four Phong texture inputs of a mesh.
type TextureSlot int

const (
	TextureSlotAmbient TextureSlot = iota
	TextureSlotDiffuse
	TextureSlotSpecular
	TextureSlotNormal

	// TextureSlotCount is the number of texture slots a draw can bind.
	TextureSlotCount
)

var textureSlotNames = [TextureSlotCount]string{"ambient", "diffuse", "specular", "normal"}

func (s TextureSlot) String() string {
	if s >= 0 && s < TextureSlotCount {
		return textureSlotNames[s]
	}
	return "unknown"
}

// TextureFormat is the pixel layout of uploaded texture data.
type TextureFormat int

const (
	// TextureFormatRGBA8 is four 8-bit channels in sRGB space.
	TextureFormatRGBA8 TextureFormat = iota
)

// Mesh is an opaque handle to uploaded geometry.
type Mesh struct {
	ID          uint64
	VertexCount int
	IndexCount  int
}

// Texture is an opaque handle to an uploaded texture. The zero value means no texture.
type Texture struct {
	ID     uint64
	Width  int
	Height int
	Format TextureFormat
}

// Valid reports whether t refers to an uploaded texture.
func (t Texture) Valid() bool {
	return t.ID != 0
}

// ShaderSource is everything the backend needs to build one shader variant.
type ShaderSource struct {
	// Key is the variant's cache key, used as a debug label.
	Key string
	// Code is the pre-processed WGSL.
	Code string
	// Textures marks which texture slots the variant samples.
	Textures [TextureSlotCount]bool
	// ObjectID is true when the variant writes object ids to the id target.
	ObjectID bool
	// LightCount is the size of the light array the variant was built for.
	LightCount int
}

// Shader is an opaque handle to a compiled shader variant.
type Shader struct {
	ID         uint64
	Key        string
	Textures   [TextureSlotCount]bool
	ObjectID   bool
	LightCount int
}

// FrameParams holds the per-frame state shared by every draw.
type FrameParams struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Eye        mgl32.Vec3
	Lights     []light.GPULight
	ClearColor [4]float32
}

// DrawCommand is one indexed draw of a mesh through a shader variant.
type DrawCommand struct {
	Shader   Shader
	Mesh     Mesh
	Textures [TextureSlotCount]Texture
	Model    mgl32.Mat4
	Normal   mgl32.Mat4
	Material material.GPUMaterial
	// ObjectID is written to the id target when the shader has ObjectID set. 0 means no object.
	ObjectID uint32
}
