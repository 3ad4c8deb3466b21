package serializer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
)

func (s *serializer) OnEdit(target Target, field, value string) error {
	if target.Feature != nil {
		return s.editFeature(target.Feature, field, value)
	}
	return s.editNode(target.Node, field, value)
}

func (s *serializer) editNode(id scene.NodeID, field, value string) error {
	g, ok := s.NodeGroup(id)
	if !ok {
		return common.Invariant(s.logger, "serializer: edit of unbound node %s", id)
	}
	switch field {
	case FieldTransformation:
		m, err := document.ParseMatrix4(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		if err := s.scene.SetLocal(id, scene.TransformFromMatrix(m)); err != nil {
			return err
		}
	case GroupChild, GroupFeature:
		return fmt.Errorf("%w: %s is a group, not a field", common.ErrInvalidParameter, field)
	}
	g.Set(field, value)
	return nil
}

func (s *serializer) editFeature(f scene.Feature, field, value string) error {
	g, ok := s.featGroups[f]
	if !ok || !s.scene.Valid(f.Node()) {
		return common.Invariant(s.logger, "serializer: edit of unbound %s feature", f.Kind())
	}
	if field == FieldType {
		return fmt.Errorf("%w: the type of a feature cannot be edited, replace the feature instead", common.ErrInvalidParameter)
	}
	if err := applyField(f, field, value, true); err != nil {
		return err
	}
	if !isFeatureField(f.Kind(), field) {
		s.logger.Debug("storing field unknown to feature", "kind", f.Kind(), "field", field)
	}
	g.Set(field, value)
	return nil
}

func (s *serializer) AddNode(parent scene.NodeID, local scene.Transform) (scene.NodeID, error) {
	pg, ok := s.NodeGroup(parent)
	if !ok {
		return scene.NodeID{}, common.Invariant(s.logger, "serializer: add under unbound node %s", parent)
	}
	id, err := s.scene.AddChild(parent, local)
	if err != nil {
		return scene.NodeID{}, err
	}
	g := document.NewGroup(GroupChild)
	g.SetMatrix4(FieldTransformation, local.Matrix())
	pg.AddGroup(g)
	s.bindNode(id, g)
	return id, nil
}

func (s *serializer) RemoveNode(id scene.NodeID) error {
	g, ok := s.NodeGroup(id)
	if !ok {
		return common.Invariant(s.logger, "serializer: remove of unbound node %s", id)
	}
	parent, ok := s.scene.Parent(id)
	if !ok || id == s.scene.Root() {
		return s.scene.RemoveNode(id)
	}
	pg := s.nodeGroups[parent]

	// Bindings are dropped while the subtree is still walkable.
	s.unbindSubtree(id)
	if err := s.scene.RemoveNode(id); err != nil {
		return err
	}
	pg.RemoveGroup(g)
	return nil
}

func (s *serializer) Reparent(id, newParent scene.NodeID) error {
	g, ok := s.NodeGroup(id)
	if !ok {
		return common.Invariant(s.logger, "serializer: reparent of unbound node %s", id)
	}
	npg, ok := s.NodeGroup(newParent)
	if !ok {
		return common.Invariant(s.logger, "serializer: reparent under unbound node %s", newParent)
	}
	oldParent, _ := s.scene.Parent(id)
	if err := s.scene.Reparent(id, newParent); err != nil {
		return err
	}
	s.nodeGroups[oldParent].RemoveGroup(g)
	npg.AddGroup(g)
	return nil
}

func (s *serializer) AddFeature(id scene.NodeID, f scene.Feature) error {
	ng, ok := s.NodeGroup(id)
	if !ok {
		return common.Invariant(s.logger, "serializer: add feature to unbound node %s", id)
	}
	if err := s.scene.AddFeature(id, f); err != nil {
		return err
	}
	g := describeFeature(f)
	ng.AddGroup(g)
	s.bindFeature(f, g)
	s.prepare(f)
	return nil
}

func (s *serializer) AddFeatureGroup(id scene.NodeID, g *document.Group) (scene.Feature, error) {
	ng, ok := s.NodeGroup(id)
	if !ok {
		return nil, common.Invariant(s.logger, "serializer: add feature to unbound node %s", id)
	}
	if g == nil || g.Name != GroupFeature {
		return nil, fmt.Errorf("%w: expected a %s group", common.ErrMalformedDocument, GroupFeature)
	}
	f, err := buildFeature(g)
	if err != nil {
		return nil, err
	}
	if err := s.scene.AddFeature(id, f); err != nil {
		return nil, err
	}
	ng.AddGroup(g)
	s.bindFeature(f, g)
	s.prepare(f)
	return f, nil
}

func (s *serializer) RemoveFeature(id scene.NodeID, f scene.Feature) error {
	g, ok := s.featGroups[f]
	if !ok {
		return common.Invariant(s.logger, "serializer: remove of unbound %s feature", f.Kind())
	}
	if err := s.scene.RemoveFeature(id, f); err != nil {
		return err
	}
	s.nodeGroups[id].RemoveGroup(g)
	delete(s.groupFeats, g)
	delete(s.featGroups, f)
	return nil
}
