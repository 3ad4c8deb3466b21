package scene

import (
	"fmt"
	"maps"

	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/light"
	"github.com/Carmen-Shannon/oxy-editor/engine/primitive"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/material"
)

// FeatureKind tags the closed set of feature variants.
type FeatureKind int

const (
	FeatureKindMesh FeatureKind = iota
	FeatureKindLight
	FeatureKindSprite
	FeatureKindScript
)

var featureKindNames = map[FeatureKind]string{
	FeatureKindMesh:   "mesh",
	FeatureKindLight:  "light",
	FeatureKindSprite: "sprite",
	FeatureKindScript: "script",
}

func (k FeatureKind) String() string {
	if name, ok := featureKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseFeatureKind maps a document type name onto a FeatureKind.
func ParseFeatureKind(name string) (FeatureKind, error) {
	for k, n := range featureKindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown feature type %q", name)
}

// Feature is a behaviour or drawable attached to a node.
// The set of implementations is closed: MeshFeature, LightFeature, SpriteFeature and ScriptFeature.
// A feature is owned by exactly one node and keeps a non-owning back-reference to it.
type Feature interface {
	// Kind returns the variant tag.
	Kind() FeatureKind

	// Node returns the owning node, or the zero NodeID while detached.
	Node() NodeID

	attach(id NodeID)
	release()
}

type featureBase struct {
	node NodeID
}

func (f *featureBase) Node() NodeID {
	return f.node
}

func (f *featureBase) attach(id NodeID) {
	f.node = id
}

// drawResources are the shared cache handles a drawable feature holds.
type drawResources struct {
	mesh     *cache.Handle[renderer.Mesh]
	shader   *cache.Handle[renderer.Shader]
	textures [renderer.TextureSlotCount]*cache.Handle[renderer.Texture]
	// lastErr suppresses repeated reports of the same failure.
	lastErr string
}

func (r *drawResources) release() {
	releaseHandle(&r.mesh)
	releaseHandle(&r.shader)
	for i := range r.textures {
		releaseHandle(&r.textures[i])
	}
	r.lastErr = ""
}

func releaseHandle[T any](h **cache.Handle[T]) {
	if *h != nil {
		_ = (*h).Release()
		*h = nil
	}
}

// MeshFeature draws a primitive with a Phong material and up to four textures.
// Fields may be edited freely; the scene reconciles the held resources before the next draw.
type MeshFeature struct {
	featureBase
	Primitive primitive.Type
	Params    primitive.Params
	Material  material.Material
	// Textures holds a texture path per slot; empty means no texture.
	Textures [renderer.TextureSlotCount]string

	res drawResources
}

var _ Feature = &MeshFeature{}

// NewMeshFeature creates a mesh feature with no textures.
//
// Parameters:
//   - t: the primitive type
//   - params: primitive parameters; nil uses the type's defaults
//   - mat: the surface material
//
// Returns:
//   - *MeshFeature: the detached feature
func NewMeshFeature(t primitive.Type, params primitive.Params, mat material.Material) *MeshFeature {
	return &MeshFeature{
		Primitive: t,
		Params:    maps.Clone(params),
		Material:  mat,
	}
}

func (f *MeshFeature) Kind() FeatureKind {
	return FeatureKindMesh
}

func (f *MeshFeature) release() {
	f.res.release()
}

// MeshKey returns the cache key of the mesh currently held, or "" if none.
func (f *MeshFeature) MeshKey() string {
	if f.res.mesh == nil {
		return ""
	}
	return f.res.mesh.Key()
}

// ShaderKey returns the cache key of the shader currently held, or "" if none.
func (f *MeshFeature) ShaderKey() string {
	if f.res.shader == nil {
		return ""
	}
	return f.res.shader.Key()
}

// LightFeature contributes a light positioned and aimed by its node's world transform.
type LightFeature struct {
	featureBase
	Light light.Light
}

var _ Feature = &LightFeature{}

// NewLightFeature wraps a light parameter block.
func NewLightFeature(l light.Light) *LightFeature {
	return &LightFeature{Light: l}
}

func (f *LightFeature) Kind() FeatureKind {
	return FeatureKindLight
}

func (f *LightFeature) release() {}

// SpriteFeature draws a camera-facing textured quad of the given size in the node's XY plane.
type SpriteFeature struct {
	featureBase
	Texture string
	Size    float32
	Color   [4]float32

	res drawResources
}

var _ Feature = &SpriteFeature{}

// NewSpriteFeature creates a sprite.
//
// Parameters:
//   - texture: path of the sprite image; empty draws a flat quad
//   - size: edge length of the quad
//   - color: RGBA tint
//
// Returns:
//   - *SpriteFeature: the detached feature
func NewSpriteFeature(texture string, size float32, color [4]float32) *SpriteFeature {
	return &SpriteFeature{Texture: texture, Size: size, Color: color}
}

func (f *SpriteFeature) Kind() FeatureKind {
	return FeatureKindSprite
}

func (f *SpriteFeature) release() {
	f.res.release()
}

// ScriptFeature runs a registered behaviour on its node every update.
type ScriptFeature struct {
	featureBase
	Name   string
	Params map[string]string

	warned bool
}

var _ Feature = &ScriptFeature{}

// NewScriptFeature creates a script feature.
//
// Parameters:
//   - name: the behaviour name
//   - params: behaviour parameters
//
// Returns:
//   - *ScriptFeature: the detached feature
func NewScriptFeature(name string, params map[string]string) *ScriptFeature {
	if params == nil {
		params = make(map[string]string)
	}
	return &ScriptFeature{Name: name, Params: params}
}

func (f *ScriptFeature) Kind() FeatureKind {
	return FeatureKindScript
}

func (f *ScriptFeature) release() {}
