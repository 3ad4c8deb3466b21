package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-editor/engine/document"
)

// Behavior is the Go implementation behind a script feature's name.
// It runs once per update with the owning node and the feature's parameters.
type Behavior func(ctx ScriptContext, dt float32) error

// Transformer is the part of a scene a behaviour may change: node transforms.
// Structural edits go through the serializer so the document follows them.
type Transformer interface {
	// Local returns a node's local transform.
	Local(id NodeID) (Transform, bool)

	// SetLocal replaces a node's local transform.
	SetLocal(id NodeID, local Transform) error
}

// ScriptContext is what a behaviour may touch during an update.
type ScriptContext struct {
	Nodes   Transformer
	Node    NodeID
	Feature *ScriptFeature
}

// Param returns a script parameter, or def when it is absent.
func (c ScriptContext) Param(name, def string) string {
	if v, ok := c.Feature.Params[name]; ok {
		return v
	}
	return def
}

func defaultBehaviors() map[string]Behavior {
	return map[string]Behavior{
		"spin":  spin,
		"drift": drift,
	}
}

// spin rotates the node about an axis at a fixed angular speed.
// Parameters: axis (vector, default "0 1 0"), speed (degrees per second, default 90).
func spin(ctx ScriptContext, dt float32) error {
	axis, err := document.ParseVec3(ctx.Param("axis", "0 1 0"))
	if err != nil {
		return err
	}
	if axis.Len() == 0 {
		return fmt.Errorf("spin axis must not be zero")
	}
	speed, err := document.ParseFloat(ctx.Param("speed", "90"))
	if err != nil {
		return err
	}
	local, _ := ctx.Nodes.Local(ctx.Node)
	step := mgl32.QuatRotate(mgl32.DegToRad(speed*dt), axis.Normalize())
	local.Rotation = step.Mul(local.Rotation).Normalize()
	return ctx.Nodes.SetLocal(ctx.Node, local)
}

// drift moves the node at a constant velocity.
// Parameters: velocity (vector, default "0 0 0").
func drift(ctx ScriptContext, dt float32) error {
	v, err := document.ParseVec3(ctx.Param("velocity", "0 0 0"))
	if err != nil {
		return err
	}
	local, _ := ctx.Nodes.Local(ctx.Node)
	local.Translation = local.Translation.Add(v.Mul(dt))
	return ctx.Nodes.SetLocal(ctx.Node, local)
}

// transforms exposes only a scene's node transforms to behaviours.
type transforms struct {
	s *scene
}

func (t transforms) Local(id NodeID) (Transform, bool) {
	return t.s.Local(id)
}

func (t transforms) SetLocal(id NodeID, local Transform) error {
	return t.s.SetLocal(id, local)
}

func (s *scene) Update(dt float32) {
	s.Walk(func(id NodeID, _ int) bool {
		for _, f := range s.Features(id) {
			sf, ok := f.(*ScriptFeature)
			if !ok {
				continue
			}
			b, ok := s.behaviors[sf.Name]
			if !ok {
				if !sf.warned {
					sf.warned = true
					s.logger.Warn("unknown script behaviour", "node", id.String(), "script", sf.Name)
				}
				continue
			}
			if err := b(ScriptContext{Nodes: transforms{s}, Node: id, Feature: sf}, dt); err != nil {
				if !sf.warned {
					sf.warned = true
					s.logger.Warn("script failed", "node", id.String(), "script", sf.Name, "err", err)
				}
				continue
			}
			sf.warned = false
		}
		return true
	})
}
