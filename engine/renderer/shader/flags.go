package shader

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
)

// baseToken starts every shader key.
const baseToken = "phong"

// Flags is the set of variant inputs that select a shader program, apart from the light count.
type Flags uint8

const (
	FlagAmbientTexture Flags = 1 << iota
	FlagDiffuseTexture
	FlagSpecularTexture
	FlagNormalTexture
	FlagObjectID
)

// flagOrder fixes the order in which key suffixes are appended. Changing it changes every key.
var flagOrder = [...]struct {
	flag   Flags
	suffix string
	name   string
}{
	{FlagAmbientTexture, "+ambient", "ambient_texture"},
	{FlagDiffuseTexture, "+diffuse", "diffuse_texture"},
	{FlagSpecularTexture, "+specular", "specular_texture"},
	{FlagNormalTexture, "+normal", "normal_texture"},
	{FlagObjectID, "+objectid", "object_id"},
}

// TextureFlag returns the flag for a texture slot.
//
// Parameters:
//   - slot: the texture slot
//
// Returns:
//   - Flags: the single flag for that slot
func TextureFlag(slot renderer.TextureSlot) Flags {
	return FlagAmbientTexture << Flags(slot)
}

// Has reports whether every bit of f is set.
func (fs Flags) Has(f Flags) bool {
	return fs&f == f
}

// With returns fs with f set or cleared.
func (fs Flags) With(f Flags, on bool) Flags {
	if on {
		return fs | f
	}
	return fs &^ f
}

// Textured reports whether any texture slot is sampled.
func (fs Flags) Textured() bool {
	return fs&(FlagAmbientTexture|FlagDiffuseTexture|FlagSpecularTexture|FlagNormalTexture) != 0
}

// Textures expands the texture flags into per-slot booleans.
func (fs Flags) Textures() [renderer.TextureSlotCount]bool {
	var out [renderer.TextureSlotCount]bool
	for slot := range out {
		out[slot] = fs.Has(TextureFlag(renderer.TextureSlot(slot)))
	}
	return out
}

// Key returns the canonical cache key of the variant: the base token followed by one suffix
// per active flag in a fixed order.
func (fs Flags) Key() string {
	var b strings.Builder
	b.WriteString(baseToken)
	for _, f := range flagOrder {
		if fs.Has(f.flag) {
			b.WriteString(f.suffix)
		}
	}
	return b.String()
}

func (fs Flags) String() string {
	return fs.Key()
}

func flagByName(name string) (Flags, bool) {
	for _, f := range flagOrder {
		if f.name == name {
			return f.flag, true
		}
	}
	return 0, false
}
