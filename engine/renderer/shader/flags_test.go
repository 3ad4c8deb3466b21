package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/stretchr/testify/assert"
)

func TestKeyOrderIsFixed(t *testing.T) {
	assert.Equal(t, "phong", Flags(0).Key())

	a := FlagObjectID | FlagDiffuseTexture | FlagAmbientTexture
	b := FlagAmbientTexture | FlagDiffuseTexture | FlagObjectID
	assert.Equal(t, "phong+ambient+diffuse+objectid", a.Key())
	assert.Equal(t, a.Key(), b.Key())

	all := FlagAmbientTexture | FlagDiffuseTexture | FlagSpecularTexture | FlagNormalTexture | FlagObjectID
	assert.Equal(t, "phong+ambient+diffuse+specular+normal+objectid", all.Key())
}

func TestTextureFlags(t *testing.T) {
	assert.Equal(t, FlagSpecularTexture, TextureFlag(renderer.TextureSlotSpecular))

	fs := Flags(0).With(TextureFlag(renderer.TextureSlotNormal), true)
	assert.True(t, fs.Textured())
	assert.Equal(t, [renderer.TextureSlotCount]bool{false, false, false, true}, fs.Textures())

	fs = fs.With(FlagNormalTexture, false)
	assert.False(t, fs.Textured())
}
