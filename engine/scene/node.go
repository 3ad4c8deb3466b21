package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-editor/common"
)

// NodeID is a stable handle to a node in a scene's arena.
// The zero value names no node. A handle to a removed node never matches a later node
// that reuses the same slot.
type NodeID struct {
	index uint32
	gen   uint32
}

// Valid reports whether id was issued by a scene. It does not check that the node is still alive.
func (id NodeID) Valid() bool {
	return id.gen != 0
}

func (id NodeID) String() string {
	if !id.Valid() {
		return "node(none)"
	}
	return fmt.Sprintf("node(%d#%d)", id.index, id.gen)
}

// Transform is a node's local transform: scale, then rotation, then translation.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// IdentityTransform returns the transform that leaves a point unchanged.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// TransformFromMatrix decomposes an affine matrix without shear.
func TransformFromMatrix(m mgl32.Mat4) Transform {
	t, r, s := common.Decompose(m)
	return Transform{Translation: t, Rotation: r, Scale: s}
}

// Matrix composes the transform into a model matrix.
func (t Transform) Matrix() mgl32.Mat4 {
	return common.Compose(t.Translation, t.Rotation, t.Scale)
}

type node struct {
	gen      uint32
	alive    bool
	parent   NodeID
	children []NodeID
	local    Transform
	features []Feature
}
