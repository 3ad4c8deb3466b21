package serializer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
)

// Diagnostic reports a part of a document that could not be loaded as written.
type Diagnostic struct {
	// Path locates the group, e.g. "scene/child[1]/feature[0]".
	Path    string
	Message string
	// Skipped is true when the group was left out of the live tree.
	// Otherwise the item was loaded but will not draw until fixed.
	Skipped bool
}

func (d Diagnostic) String() string {
	if d.Skipped {
		return d.Path + ": skipped: " + d.Message
	}
	return d.Path + ": " + d.Message
}

// Target names what an edit applies to: a feature when Feature is set, otherwise a node.
type Target struct {
	Node    scene.NodeID
	Feature scene.Feature
}

// NodeTarget targets a node field such as its transformation.
func NodeTarget(id scene.NodeID) Target {
	return Target{Node: id}
}

// FeatureTarget targets a feature field.
func FeatureTarget(f scene.Feature) Target {
	return Target{Node: f.Node(), Feature: f}
}

// Serializer keeps a scene and its document in step. The document is bound to the live tree:
// every node and feature owns exactly one group, edits write through to both sides, and saving
// walks the tree while copying every field it does not understand verbatim.
type Serializer interface {
	// Load replaces the scene's contents with the tree described by a document.
	// Malformed nodes and features are skipped and reported; they remain in the document.
	//
	// Parameters:
	//   - doc: the document root holding a "scene" group
	//
	// Returns:
	//   - []Diagnostic: everything that did not load as written
	Load(doc *document.Group) []Diagnostic

	// Save renders the live tree back into a document.
	//
	// Returns:
	//   - *document.Group: a new document root, independent of the bound one
	Save() *document.Group

	// Document returns the bound document root.
	Document() *document.Group

	// OnEdit validates a single field, writes it in place in the document and applies it to the scene.
	// Resources affected by the change are rebuilt before the next draw.
	//
	// Parameters:
	//   - target: the node or feature being edited
	//   - field: the field name, e.g. "primitive.segments"
	//   - value: the new raw text
	//
	// Returns:
	//   - error: error if the value is invalid; neither the document nor the scene changes
	OnEdit(target Target, field, value string) error

	// AddNode creates a node under parent in both the scene and the document.
	AddNode(parent scene.NodeID, local scene.Transform) (scene.NodeID, error)

	// RemoveNode removes a node's subtree and its groups.
	RemoveNode(id scene.NodeID) error

	// Reparent moves a node and its group to the end of newParent's children.
	Reparent(id, newParent scene.NodeID) error

	// AddFeature attaches a detached feature and writes a group describing it.
	AddFeature(id scene.NodeID, f scene.Feature) error

	// AddFeatureGroup builds a feature from a feature group and attaches both.
	//
	// Returns:
	//   - scene.Feature: the attached feature
	//   - error: error if the group is malformed; nothing changes
	AddFeatureGroup(id scene.NodeID, g *document.Group) (scene.Feature, error)

	// RemoveFeature detaches a feature and removes its group.
	RemoveFeature(id scene.NodeID, f scene.Feature) error

	// NodeGroup returns the group bound to a live node.
	NodeGroup(id scene.NodeID) (*document.Group, bool)

	// FeatureGroup returns the group bound to an attached feature.
	FeatureGroup(f scene.Feature) (*document.Group, bool)
}

type serializer struct {
	scene  scene.Scene
	logger *slog.Logger

	doc         *document.Group
	nodeGroups  map[scene.NodeID]*document.Group
	groupNodes  map[*document.Group]scene.NodeID
	featGroups  map[scene.Feature]*document.Group
	groupFeats  map[*document.Group]scene.Feature
	diagnostics []Diagnostic
	// loaded holds the features Load attached, with their document paths.
	loaded []loadedFeature
}

type loadedFeature struct {
	feature scene.Feature
	path    string
}

var _ Serializer = &serializer{}

// NewSerializer binds a serializer to a scene. The scene starts bound to an empty document.
//
// Parameters:
//   - sc: the scene to keep in step
//   - options: variadic list of SerializerBuilderOption functions
//
// Returns:
//   - Serializer: the serializer
func NewSerializer(sc scene.Scene, options ...SerializerBuilderOption) Serializer {
	if sc == nil {
		panic("serializer: NewSerializer requires a scene")
	}
	s := &serializer{scene: sc, logger: slog.Default()}
	for _, opt := range options {
		opt(s)
	}
	s.reset(document.NewGroup(""))
	root := document.NewGroup(GroupScene)
	s.doc.AddGroup(root)
	s.bindNode(sc.Root(), root)
	return s
}

func (s *serializer) reset(doc *document.Group) {
	s.doc = doc
	s.nodeGroups = make(map[scene.NodeID]*document.Group)
	s.groupNodes = make(map[*document.Group]scene.NodeID)
	s.featGroups = make(map[scene.Feature]*document.Group)
	s.groupFeats = make(map[*document.Group]scene.Feature)
	s.diagnostics = nil
	s.loaded = nil
}

func (s *serializer) bindNode(id scene.NodeID, g *document.Group) {
	s.nodeGroups[id] = g
	s.groupNodes[g] = id
}

func (s *serializer) bindFeature(f scene.Feature, g *document.Group) {
	s.featGroups[f] = g
	s.groupFeats[g] = f
}

func (s *serializer) unbindSubtree(id scene.NodeID) {
	for _, child := range s.scene.Children(id) {
		s.unbindSubtree(child)
	}
	for _, f := range s.scene.Features(id) {
		delete(s.groupFeats, s.featGroups[f])
		delete(s.featGroups, f)
	}
	delete(s.groupNodes, s.nodeGroups[id])
	delete(s.nodeGroups, id)
}

func (s *serializer) Load(doc *document.Group) []Diagnostic {
	if doc == nil {
		doc = document.NewGroup("")
	}
	s.scene.Clear()
	s.reset(doc)

	root, ok := doc.Group(GroupScene)
	if !ok {
		root = document.NewGroup(GroupScene)
		doc.AddGroup(root)
		s.report(GroupScene, "document has no scene group, starting empty", false)
	}
	s.bindNode(s.scene.Root(), root)
	s.loadNode(s.scene.Root(), root, GroupScene)

	// Lights are known only once the whole tree is in, so variants are resolved last.
	s.syncLights()
	for _, lf := range s.loaded {
		if err := s.scene.Prepare(lf.feature); err != nil {
			s.report(lf.path, err.Error(), false)
		}
	}
	s.loaded = nil

	diags := s.diagnostics
	s.diagnostics = nil
	return diags
}

// loadNode reads a node group's own transformation, features and children.
// The node already exists; children are created here.
func (s *serializer) loadNode(id scene.NodeID, g *document.Group, path string) {
	if id == s.scene.Root() {
		local, err := parseTransformation(g)
		if err != nil {
			s.report(path, err.Error(), false)
		} else if err := s.scene.SetLocal(id, local); err != nil {
			s.report(path, err.Error(), false)
		}
	}

	children, features := 0, 0
	for _, e := range g.Entries() {
		if !e.IsGroup() {
			continue
		}
		switch e.Group.Name {
		case GroupFeature:
			s.loadFeature(id, e.Group, fmt.Sprintf("%s/%s[%d]", path, GroupFeature, features))
			features++
		case GroupChild:
			childPath := fmt.Sprintf("%s/%s[%d]", path, GroupChild, children)
			children++
			local, err := parseTransformation(e.Group)
			if err != nil {
				s.report(childPath, err.Error(), true)
				continue
			}
			child, err := s.scene.AddChild(id, local)
			if err != nil {
				s.report(childPath, err.Error(), true)
				continue
			}
			s.bindNode(child, e.Group)
			s.loadNode(child, e.Group, childPath)
		}
	}
}

func (s *serializer) loadFeature(id scene.NodeID, g *document.Group, path string) {
	f, err := buildFeature(g)
	if err != nil {
		s.report(path, err.Error(), true)
		return
	}
	if err := s.scene.AddFeature(id, f); err != nil {
		s.report(path, err.Error(), true)
		return
	}
	s.bindFeature(f, g)
	s.loaded = append(s.loaded, loadedFeature{feature: f, path: path})
}

// prepare resolves a feature attached by an edit. The feature stays attached when its resources fail;
// it is skipped at draw time like any other broken feature.
func (s *serializer) prepare(f scene.Feature) {
	s.syncLights()
	if err := s.scene.Prepare(f); err != nil {
		s.logger.Warn("feature resources not ready", "node", f.Node().String(), "feature", f.Kind().String(), "error", err)
	}
}

func (s *serializer) syncLights() {
	if err := s.scene.Sync(); err != nil {
		s.logger.Warn("shader variants failed to rebuild", "error", err)
	}
}

func (s *serializer) report(path, msg string, skipped bool) {
	d := Diagnostic{Path: path, Message: msg, Skipped: skipped}
	s.diagnostics = append(s.diagnostics, d)
	s.logger.Warn("document load", "path", path, "skipped", skipped, "error", msg)
}

func parseTransformation(g *document.Group) (scene.Transform, error) {
	if !g.Has(FieldTransformation) {
		return scene.IdentityTransform(), nil
	}
	m, err := g.Matrix4(FieldTransformation, mgl32.Ident4())
	if err != nil {
		return scene.Transform{}, fmt.Errorf("%s: %w", FieldTransformation, err)
	}
	return scene.TransformFromMatrix(m), nil
}

func (s *serializer) Document() *document.Group {
	return s.doc
}

func (s *serializer) NodeGroup(id scene.NodeID) (*document.Group, bool) {
	g, ok := s.nodeGroups[id]
	return g, ok && s.scene.Valid(id)
}

func (s *serializer) FeatureGroup(f scene.Feature) (*document.Group, bool) {
	g, ok := s.featGroups[f]
	return g, ok
}

func (s *serializer) Save() *document.Group {
	out := document.NewGroup(s.doc.Name)
	root := s.nodeGroups[s.scene.Root()]
	for _, e := range s.doc.Entries() {
		switch {
		case !e.IsGroup():
			out.Append(e.Key, e.Value)
		case e.Group == root:
			out.AddGroup(s.emitNode(s.scene.Root(), root))
		default:
			out.AddGroup(e.Group.Clone())
		}
	}
	return out
}

// emitNode writes a node's group in document order. Child and feature groups bound to the
// live tree are emitted from it; groups that never loaded are copied as they are.
func (s *serializer) emitNode(id scene.NodeID, g *document.Group) *document.Group {
	out := document.NewGroup(g.Name)
	children := make(map[scene.NodeID]bool)
	features := make(map[scene.Feature]bool)

	for _, e := range g.Entries() {
		if !e.IsGroup() {
			out.Append(e.Key, e.Value)
			continue
		}
		if child, ok := s.groupNodes[e.Group]; ok {
			if parent, live := s.scene.Parent(child); live && parent == id {
				out.AddGroup(s.emitNode(child, e.Group))
				children[child] = true
			}
			continue
		}
		if f, ok := s.groupFeats[e.Group]; ok {
			if f.Node() == id {
				out.AddGroup(e.Group.Clone())
				features[f] = true
			}
			continue
		}
		out.AddGroup(e.Group.Clone())
	}

	for _, f := range s.scene.Features(id) {
		if !features[f] {
			_ = common.Invariant(s.logger, "serializer: feature %s on %s has no group", f.Kind(), id)
			out.AddGroup(describeFeature(f))
		}
	}
	for _, child := range s.scene.Children(id) {
		if !children[child] {
			_ = common.Invariant(s.logger, "serializer: node %s has no group", child)
			out.AddGroup(s.describeNode(child))
		}
	}
	return out
}

func (s *serializer) describeNode(id scene.NodeID) *document.Group {
	g := document.NewGroup(GroupChild)
	local, _ := s.scene.Local(id)
	g.SetMatrix4(FieldTransformation, local.Matrix())
	for _, f := range s.scene.Features(id) {
		g.AddGroup(describeFeature(f))
	}
	for _, child := range s.scene.Children(id) {
		g.AddGroup(s.describeNode(child))
	}
	return g
}

// isFeatureField reports whether field belongs to the given kind's vocabulary.
func isFeatureField(kind scene.FeatureKind, field string) bool {
	switch kind {
	case scene.FeatureKindMesh:
		return strings.HasPrefix(field, prefixPrimitive) || strings.HasPrefix(field, "material.") || strings.HasPrefix(field, prefixTexture)
	case scene.FeatureKindLight:
		return strings.HasPrefix(field, "light.")
	case scene.FeatureKindSprite:
		return strings.HasPrefix(field, "sprite.")
	case scene.FeatureKindScript:
		return strings.HasPrefix(field, prefixScript)
	}
	return false
}
