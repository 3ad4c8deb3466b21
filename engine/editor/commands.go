package editor

import (
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/Carmen-Shannon/oxy-editor/engine/serializer"
)

// Command is an edit queued for the next frame. Commands are applied in submission order on the
// frame loop, before the scene is updated and drawn.
type Command interface {
	apply(s serializer.Serializer) Result
}

// Result reports the outcome of one command.
type Result struct {
	// Node is the node a command created, or the node it targeted.
	Node scene.NodeID
	// Feature is the feature a command created.
	Feature scene.Feature
	// Diagnostics are set by LoadDocument.
	Diagnostics []serializer.Diagnostic
	Err         error
}

// LoadDocument replaces the scene with the tree a document describes.
type LoadDocument struct {
	Doc *document.Group
}

func (c LoadDocument) apply(s serializer.Serializer) Result {
	return Result{Diagnostics: s.Load(c.Doc)}
}

// AddNode creates a node as the last child of Parent.
type AddNode struct {
	Parent scene.NodeID
	Local  scene.Transform
}

func (c AddNode) apply(s serializer.Serializer) Result {
	id, err := s.AddNode(c.Parent, c.Local)
	return Result{Node: id, Err: err}
}

// RemoveNode removes a node and its subtree.
type RemoveNode struct {
	Node scene.NodeID
}

func (c RemoveNode) apply(s serializer.Serializer) Result {
	return Result{Node: c.Node, Err: s.RemoveNode(c.Node)}
}

// Reparent moves a node under NewParent.
type Reparent struct {
	Node      scene.NodeID
	NewParent scene.NodeID
}

func (c Reparent) apply(s serializer.Serializer) Result {
	return Result{Node: c.Node, Err: s.Reparent(c.Node, c.NewParent)}
}

// AddFeature attaches a feature described by a feature group.
type AddFeature struct {
	Node  scene.NodeID
	Group *document.Group
}

func (c AddFeature) apply(s serializer.Serializer) Result {
	f, err := s.AddFeatureGroup(c.Node, c.Group)
	return Result{Node: c.Node, Feature: f, Err: err}
}

// RemoveFeature detaches a feature.
type RemoveFeature struct {
	Node    scene.NodeID
	Feature scene.Feature
}

func (c RemoveFeature) apply(s serializer.Serializer) Result {
	return Result{Node: c.Node, Err: s.RemoveFeature(c.Node, c.Feature)}
}

// SetField edits one field of a node or feature.
type SetField struct {
	Target serializer.Target
	Field  string
	Value  string
}

func (c SetField) apply(s serializer.Serializer) Result {
	return Result{Node: c.Target.Node, Feature: c.Target.Feature, Err: s.OnEdit(c.Target, c.Field, c.Value)}
}
