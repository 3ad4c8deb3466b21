package serializer

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/light"
	"github.com/Carmen-Shannon/oxy-editor/engine/primitive"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
)

// Document vocabulary.
const (
	GroupScene   = "scene"
	GroupChild   = "child"
	GroupFeature = "feature"

	FieldTransformation = "transformation"
	FieldType           = "type"

	FieldPrimitiveType = "primitive.type"
	FieldAmbient       = "material.ambient"
	FieldDiffuse       = "material.diffuse"
	FieldSpecular      = "material.specular"
	FieldShininess     = "material.shininess"

	FieldLightType      = "light.type"
	FieldLightColor     = "light.color"
	FieldLightIntensity = "light.intensity"
	FieldLightRange     = "light.range"
	FieldLightInner     = "light.inner"
	FieldLightOuter     = "light.outer"

	FieldSpriteTexture = "sprite.texture"
	FieldSpriteSize    = "sprite.size"
	FieldSpriteColor   = "sprite.color"

	FieldScriptName = "script.name"

	prefixPrimitive = "primitive."
	prefixTexture   = "texture."
	prefixScript    = "script."
)

// buildFeature constructs a detached feature from a feature group.
// Unknown fields are ignored; they stay in the document untouched.
func buildFeature(g *document.Group) (scene.Feature, error) {
	kindName, ok := g.Value(FieldType)
	if !ok {
		return nil, fmt.Errorf("%w: feature has no %s", common.ErrMalformedDocument, FieldType)
	}
	kind, err := scene.ParseFeatureKind(kindName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedDocument, err)
	}

	var f scene.Feature
	switch kind {
	case scene.FeatureKindMesh:
		if !g.Has(FieldPrimitiveType) {
			return nil, fmt.Errorf("%w: mesh feature has no %s", common.ErrMalformedDocument, FieldPrimitiveType)
		}
		f = scene.NewMeshFeature("", nil, material.NewMaterial())
	case scene.FeatureKindLight:
		f = scene.NewLightFeature(light.NewLight(light.LightTypePoint))
	case scene.FeatureKindSprite:
		f = scene.NewSpriteFeature("", 1, [4]float32{1, 1, 1, 1})
	case scene.FeatureKindScript:
		if !g.Has(FieldScriptName) {
			return nil, fmt.Errorf("%w: script feature has no %s", common.ErrMalformedDocument, FieldScriptName)
		}
		f = scene.NewScriptFeature("", nil)
	}

	for _, e := range g.Entries() {
		if e.IsGroup() || e.Key == FieldType {
			continue
		}
		if err := applyField(f, e.Key, e.Value, false); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// applyField parses value and writes it into the feature. Values are parsed before any
// assignment, so a returned error leaves the feature unchanged. With strict set, mesh
// primitive edits are also checked against the primitive schema.
func applyField(f scene.Feature, key, value string, strict bool) error {
	var err error
	switch ft := f.(type) {
	case *scene.MeshFeature:
		err = applyMeshField(ft, key, value, strict)
	case *scene.LightFeature:
		err = applyLightField(ft, key, value)
	case *scene.SpriteFeature:
		err = applySpriteField(ft, key, value)
	case *scene.ScriptFeature:
		if key == FieldScriptName {
			ft.Name = value
		} else if name, ok := strings.CutPrefix(key, prefixScript); ok {
			ft.Params[name] = value
		}
	}
	if err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	return nil
}

func applyMeshField(f *scene.MeshFeature, key, value string, strict bool) error {
	switch key {
	case FieldPrimitiveType:
		t := primitive.Type(value)
		if strict {
			if _, err := primitive.Resolve(t, f.Params); err != nil {
				return err
			}
		}
		f.Primitive = t
		return nil
	case FieldAmbient, FieldDiffuse, FieldSpecular:
		c, err := document.ParseColor(value)
		if err != nil {
			return err
		}
		switch key {
		case FieldAmbient:
			f.Material.Ambient = c
		case FieldDiffuse:
			f.Material.Diffuse = c
		default:
			f.Material.Specular = c
		}
		return nil
	case FieldShininess:
		v, err := document.ParseFloat(value)
		if err != nil {
			return err
		}
		f.Material.Shininess = v
		return nil
	}

	if name, ok := strings.CutPrefix(key, prefixPrimitive); ok {
		v, err := parseParam(value)
		if err != nil {
			return err
		}
		if strict {
			candidate := maps.Clone(f.Params)
			if candidate == nil {
				candidate = make(primitive.Params)
			}
			candidate[name] = v
			if _, err := primitive.Resolve(f.Primitive, candidate); err != nil && !errors.Is(err, common.ErrUnsupportedPrimitive) {
				return err
			}
		}
		if f.Params == nil {
			f.Params = make(primitive.Params)
		}
		f.Params[name] = v
		return nil
	}
	if name, ok := strings.CutPrefix(key, prefixTexture); ok {
		slot, ok := parseSlot(name)
		if !ok {
			return nil
		}
		f.Textures[slot] = value
	}
	return nil
}

func applyLightField(f *scene.LightFeature, key, value string) error {
	l := f.Light
	switch key {
	case FieldLightType:
		t, err := light.ParseLightType(value)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrMalformedDocument, err)
		}
		l.SetType(t)
	case FieldLightColor:
		c, err := document.ParseColor(value)
		if err != nil {
			return err
		}
		l.SetColor(c)
	case FieldLightIntensity, FieldLightRange, FieldLightInner, FieldLightOuter:
		v, err := document.ParseFloat(value)
		if err != nil {
			return err
		}
		inner, outer := l.SpotCone()
		switch key {
		case FieldLightIntensity:
			l.SetIntensity(v)
		case FieldLightRange:
			l.SetRange(v)
		case FieldLightInner:
			l.SetSpotCone(v, outer)
		default:
			l.SetSpotCone(inner, v)
		}
	}
	return nil
}

func applySpriteField(f *scene.SpriteFeature, key, value string) error {
	switch key {
	case FieldSpriteTexture:
		f.Texture = value
	case FieldSpriteSize:
		v, err := document.ParseFloat(value)
		if err != nil {
			return err
		}
		f.Size = v
	case FieldSpriteColor:
		c, err := document.ParseColor(value)
		if err != nil {
			return err
		}
		f.Color = c
	}
	return nil
}

// parseParam reads a primitive parameter. Flags may be written as booleans.
func parseParam(value string) (float64, error) {
	if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return v, nil
	}
	b, err := document.ParseBool(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", common.ErrMalformedDocument, value)
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

func parseSlot(name string) (renderer.TextureSlot, bool) {
	for slot := range renderer.TextureSlotCount {
		if slot.String() == name {
			return slot, true
		}
	}
	return 0, false
}

// describeFeature writes the live state of a feature as a new feature group.
func describeFeature(f scene.Feature) *document.Group {
	g := document.NewGroup(GroupFeature)
	g.Set(FieldType, f.Kind().String())
	switch ft := f.(type) {
	case *scene.MeshFeature:
		g.Set(FieldPrimitiveType, string(ft.Primitive))
		for _, name := range slices.Sorted(maps.Keys(ft.Params)) {
			g.Set(prefixPrimitive+name, strconv.FormatFloat(ft.Params[name], 'g', -1, 64))
		}
		g.SetColor(FieldAmbient, ft.Material.Ambient)
		g.SetColor(FieldDiffuse, ft.Material.Diffuse)
		g.SetColor(FieldSpecular, ft.Material.Specular)
		g.SetFloat(FieldShininess, ft.Material.Shininess)
		for slot, path := range ft.Textures {
			if path != "" {
				g.Set(prefixTexture+renderer.TextureSlot(slot).String(), path)
			}
		}
	case *scene.LightFeature:
		inner, outer := ft.Light.SpotCone()
		g.Set(FieldLightType, ft.Light.Type().String())
		g.SetColor(FieldLightColor, ft.Light.Color())
		g.SetFloat(FieldLightIntensity, ft.Light.Intensity())
		g.SetFloat(FieldLightRange, ft.Light.Range())
		g.SetFloat(FieldLightInner, inner)
		g.SetFloat(FieldLightOuter, outer)
	case *scene.SpriteFeature:
		if ft.Texture != "" {
			g.Set(FieldSpriteTexture, ft.Texture)
		}
		g.SetFloat(FieldSpriteSize, ft.Size)
		g.SetColor(FieldSpriteColor, ft.Color)
	case *scene.ScriptFeature:
		g.Set(FieldScriptName, ft.Name)
		for _, name := range slices.Sorted(maps.Keys(ft.Params)) {
			g.Set(prefixScript+name, ft.Params[name])
		}
	}
	return g
}
