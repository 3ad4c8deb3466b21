package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessConditionals(t *testing.T) {
	src := strings.Join([]string{
		"a",
		"//@oxy:if diffuse_texture",
		"b",
		"//@oxy:if !object_id",
		"c",
		"//@oxy:endif",
		"//@oxy:else",
		"d",
		"//@oxy:endif",
		"e",
	}, "\n")
	p := NewPreProcessor()

	out, err := p.Process(src, FlagDiffuseTexture, 0)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\ne", out)

	out, err = p.Process(src, FlagDiffuseTexture|FlagObjectID, 0)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\ne", out)

	out, err = p.Process(src, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "a\nd\ne", out)
}

func TestProcessDefineAndInclude(t *testing.T) {
	p := NewPreProcessor()

	out, err := p.Process("//@oxy:include light\n//@oxy:define light_count", 0, 3)
	require.NoError(t, err)
	assert.Contains(t, out, "struct Light")
	assert.Contains(t, out, "const LIGHT_COUNT: u32 = 3u;")
	assert.Contains(t, out, "const LIGHT_SLOTS: u32 = 3u;")

	out, err = p.Process("//@oxy:define light_count", 0, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "const LIGHT_SLOTS: u32 = 1u;")
}

func TestProcessErrors(t *testing.T) {
	p := NewPreProcessor()
	for name, src := range map[string]string{
		"unclosed":        "//@oxy:if lit\nx",
		"stray endif":     "//@oxy:endif",
		"stray else":      "//@oxy:else",
		"double else":     "//@oxy:if lit\n//@oxy:else\n//@oxy:else\n//@oxy:endif",
		"unknown flag":    "//@oxy:if shadows\n//@oxy:endif",
		"unknown include": "//@oxy:include camera",
		"unknown type":    "//@oxy:group 0 0",
		"bad arity":       "//@oxy:include",
	} {
		_, err := p.Process(src, 0, 1)
		assert.Error(t, err, name)
	}
}

func TestPhongTemplateVariants(t *testing.T) {
	p := NewPreProcessor()

	out, err := p.Process(PhongTemplate, FlagDiffuseTexture|FlagObjectID, 2)
	require.NoError(t, err)
	assert.Contains(t, out, "var diffuse_texture: texture_2d<f32>;")
	assert.Contains(t, out, "var material_sampler: sampler;")
	assert.NotContains(t, out, "normal_texture")
	assert.Contains(t, out, "out.id = draw.object_id;")
	assert.Contains(t, out, "for (var i = 0u; i < LIGHT_COUNT")
	assert.NotContains(t, out, "@oxy:")

	out, err = p.Process(PhongTemplate, 0, 0)
	require.NoError(t, err)
	assert.NotContains(t, out, "material_sampler")
	assert.NotContains(t, out, "LIGHT_COUNT; i")
	assert.Contains(t, out, "out.id = 0u;")
}
