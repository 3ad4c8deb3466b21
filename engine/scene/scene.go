package scene

import (
	"image"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/picking"
	"github.com/Carmen-Shannon/oxy-editor/engine/primitive"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/shader"
)

// TextureSource supplies texture handles by path.
// A texture that is not resident yet is requested and reported as not ready; the caller asks again next frame.
type TextureSource interface {
	// Acquire returns a new handle to the texture at path if it is resident.
	//
	// Parameters:
	//   - path: the texture path, also its cache key
	//
	// Returns:
	//   - *cache.Handle[renderer.Texture]: a handle the caller must Release
	//   - bool: false if the texture is still loading or failed to load
	Acquire(path string) (*cache.Handle[renderer.Texture], bool)
}

// Scene is a tree of transformable nodes carrying features.
//
// Nodes live in an arena and are addressed by NodeID. Each node except the root has exactly one
// parent, which solely owns it through its child list; removing a node removes its subtree and
// releases every resource handle its features hold. World transforms are never stored: they are
// folded from the root each time they are needed, so editing an ancestor can never leave a stale
// value behind.
//
// A Scene has a single writer, the frame loop, and carries no locks.
type Scene interface {
	// Root returns the root node, which cannot be removed or reparented.
	Root() NodeID

	// Valid reports whether id names a live node.
	Valid(id NodeID) bool

	// Len returns the number of live nodes, root included.
	Len() int

	// AddChild creates a node as the last child of parent.
	//
	// Parameters:
	//   - parent: the owning node
	//   - local: the new node's local transform
	//
	// Returns:
	//   - NodeID: the new node
	//   - error: an error wrapping common.ErrInvariantViolation if parent is not live
	AddChild(parent NodeID, local Transform) (NodeID, error)

	// RemoveNode removes a node and its whole subtree, releasing every resource its features hold.
	//
	// Parameters:
	//   - id: the node to remove
	//
	// Returns:
	//   - error: an error wrapping common.ErrInvariantViolation for the root or a dead node
	RemoveNode(id NodeID) error

	// Reparent moves a node to the end of another node's child list.
	// The local transform is kept, so the world transform changes with the new ancestor chain.
	//
	// Parameters:
	//   - id: the node to move
	//   - newParent: the new owner
	//
	// Returns:
	//   - error: an error wrapping common.ErrInvariantViolation if either node is not live,
	//     id is the root, or newParent lies inside id's subtree
	Reparent(id, newParent NodeID) error

	// Parent returns a node's parent.
	Parent(id NodeID) (NodeID, bool)

	// Children returns a copy of a node's child list in order.
	Children(id NodeID) []NodeID

	// Local returns a node's local transform.
	Local(id NodeID) (Transform, bool)

	// SetLocal replaces a node's local transform.
	//
	// Returns:
	//   - error: an error wrapping common.ErrInvariantViolation if id is not live
	SetLocal(id NodeID, local Transform) error

	// AbsoluteTransform folds the local transforms from the root down to a node.
	//
	// Parameters:
	//   - id: the node
	//
	// Returns:
	//   - mgl32.Mat4: the world matrix
	//   - bool: false if id is not live
	AbsoluteTransform(id NodeID) (mgl32.Mat4, bool)

	// Walk visits live nodes in pre-order, parents before children, starting at the root.
	// Returning false from fn skips the node's subtree.
	Walk(fn func(id NodeID, depth int) bool)

	// AddFeature attaches a detached feature to a node.
	//
	// Returns:
	//   - error: an error wrapping common.ErrInvariantViolation if the node is not live or the
	//     feature is nil or already attached
	AddFeature(id NodeID, f Feature) error

	// RemoveFeature detaches a feature from its node and releases the resources it holds.
	//
	// Returns:
	//   - error: an error wrapping common.ErrInvariantViolation if f is not attached to id
	RemoveFeature(id NodeID, f Feature) error

	// Features returns a copy of a node's features in order.
	Features(id NodeID) []Feature

	// LightCount returns the number of light features in the live tree.
	LightCount() int

	// Sync rebuilds shader variants when the light count no longer matches the one they were built for.
	//
	// Returns:
	//   - error: compile failures of individual variants, which are also skipped at draw time
	Sync() error

	// Prepare builds or looks up the mesh and shader variant of an attached drawable feature ahead of
	// its first draw, and requests its textures. Lights and scripts hold no resources and return nil.
	// Call Sync first when lights were added or removed, so variants are built for the current count.
	//
	// Parameters:
	//   - f: an attached feature
	//
	// Returns:
	//   - error: the mesh or shader failure the feature will be skipped for at draw time
	Prepare(f Feature) error

	// Update runs every script feature in pre-order.
	//
	// Parameters:
	//   - dt: elapsed time since the last update in seconds
	Update(dt float32)

	// Draw renders one frame: it syncs shader variants, reconciles each drawable's resources,
	// submits drawables in pre-order and assigns them object ids in submission order.
	// A drawable whose resources are not usable is skipped for the frame.
	//
	// Parameters:
	//   - view: the camera and clear color for the frame
	//
	// Returns:
	//   - DrawStats: what was drawn and skipped
	//   - error: error if the backend could not begin or end the frame
	Draw(view View) (DrawStats, error)

	// Pick maps a window coordinate to the node whose feature was drawn there in the last frame.
	// Picks miss after any structural change until the next Draw.
	//
	// Parameters:
	//   - coord: position in window coordinates, origin top-left
	//   - window: window size in window coordinates
	//
	// Returns:
	//   - NodeID: the owning node
	//   - Feature: the feature drawn at that pixel
	//   - bool: true on a hit
	Pick(coord, window image.Point) (NodeID, Feature, bool)

	// ObjectID returns the id a feature was drawn with in the last frame.
	ObjectID(f Feature) (uint32, bool)

	// Clear removes every node below the root and every root feature.
	Clear()
}

type scene struct {
	nodes []node
	free  []uint32
	root  NodeID
	live  int

	backend   renderer.Backend
	factory   primitive.Factory
	resolver  shader.Resolver
	textures  TextureSource
	picking   picking.Buffer[Feature]
	pickable  bool
	behaviors map[string]Behavior
	logger    *slog.Logger
}

var _ Scene = &scene{}

// NewScene creates a scene holding only a root node.
//
// Parameters:
//   - backend: the GPU backend frames are drawn on
//   - factory: builds primitive meshes for mesh and sprite features
//   - resolver: resolves shader variants
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - Scene: the new scene
func NewScene(backend renderer.Backend, factory primitive.Factory, resolver shader.Resolver, options ...SceneBuilderOption) Scene {
	if backend == nil || factory == nil || resolver == nil {
		panic("scene: NewScene requires a backend, a primitive factory and a shader resolver")
	}
	s := &scene{
		backend:   backend,
		factory:   factory,
		resolver:  resolver,
		pickable:  true,
		behaviors: defaultBehaviors(),
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.picking = picking.NewBuffer(picking.WithLogger[Feature](s.logger))
	s.root = s.alloc(NodeID{}, IdentityTransform())
	return s
}

func (s *scene) alloc(parent NodeID, local Transform) NodeID {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.nodes))
		s.nodes = append(s.nodes, node{})
	}
	n := &s.nodes[idx]
	n.gen++
	n.alive = true
	n.parent = parent
	n.children = nil
	n.features = nil
	n.local = local
	s.live++
	return NodeID{index: idx, gen: n.gen}
}

func (s *scene) get(id NodeID) *node {
	if !id.Valid() || int(id.index) >= len(s.nodes) {
		return nil
	}
	n := &s.nodes[id.index]
	if !n.alive || n.gen != id.gen {
		return nil
	}
	return n
}

func (s *scene) Root() NodeID {
	return s.root
}

func (s *scene) Valid(id NodeID) bool {
	return s.get(id) != nil
}

func (s *scene) Len() int {
	return s.live
}

func (s *scene) AddChild(parent NodeID, local Transform) (NodeID, error) {
	if s.get(parent) == nil {
		return NodeID{}, common.Invariant(s.logger, "add child to dead node %s", parent)
	}
	id := s.alloc(parent, local)
	p := s.get(parent)
	p.children = append(p.children, id)
	s.picking.Invalidate()
	return id, nil
}

func (s *scene) RemoveNode(id NodeID) error {
	n := s.get(id)
	if n == nil {
		return common.Invariant(s.logger, "remove dead node %s", id)
	}
	if id == s.root {
		return common.Invariant(s.logger, "remove root node")
	}
	p := s.get(n.parent)
	p.children = slices.DeleteFunc(p.children, func(c NodeID) bool { return c == id })
	s.destroy(id)
	s.picking.Invalidate()
	return nil
}

// destroy frees a subtree, children first.
func (s *scene) destroy(id NodeID) {
	n := s.get(id)
	for _, c := range n.children {
		s.destroy(c)
	}
	n = s.get(id)
	for _, f := range n.features {
		f.release()
		f.attach(NodeID{})
	}
	n.alive = false
	n.children = nil
	n.features = nil
	n.parent = NodeID{}
	s.free = append(s.free, id.index)
	s.live--
}

func (s *scene) Reparent(id, newParent NodeID) error {
	n := s.get(id)
	if n == nil || s.get(newParent) == nil {
		return common.Invariant(s.logger, "reparent %s under %s: node not live", id, newParent)
	}
	if id == s.root {
		return common.Invariant(s.logger, "reparent root node")
	}
	for a := newParent; a.Valid(); a = s.get(a).parent {
		if a == id {
			return common.Invariant(s.logger, "reparent %s under its own descendant %s", id, newParent)
		}
	}

	old := s.get(n.parent)
	old.children = slices.DeleteFunc(old.children, func(c NodeID) bool { return c == id })
	p := s.get(newParent)
	p.children = append(p.children, id)
	s.get(id).parent = newParent
	s.picking.Invalidate()
	return nil
}

func (s *scene) Parent(id NodeID) (NodeID, bool) {
	n := s.get(id)
	if n == nil || id == s.root {
		return NodeID{}, false
	}
	return n.parent, true
}

func (s *scene) Children(id NodeID) []NodeID {
	if n := s.get(id); n != nil {
		return slices.Clone(n.children)
	}
	return nil
}

func (s *scene) Local(id NodeID) (Transform, bool) {
	if n := s.get(id); n != nil {
		return n.local, true
	}
	return Transform{}, false
}

func (s *scene) SetLocal(id NodeID, local Transform) error {
	n := s.get(id)
	if n == nil {
		return common.Invariant(s.logger, "set transform of dead node %s", id)
	}
	n.local = local
	return nil
}

func (s *scene) AbsoluteTransform(id NodeID) (mgl32.Mat4, bool) {
	if s.get(id) == nil {
		return mgl32.Mat4{}, false
	}
	var chain []Transform
	for a := id; a.Valid(); a = s.get(a).parent {
		chain = append(chain, s.get(a).local)
	}
	m := mgl32.Ident4()
	for i := len(chain) - 1; i >= 0; i-- {
		m = m.Mul4(chain[i].Matrix())
	}
	return m, true
}

func (s *scene) Walk(fn func(id NodeID, depth int) bool) {
	s.walk(s.root, 0, fn)
}

func (s *scene) walk(id NodeID, depth int, fn func(id NodeID, depth int) bool) {
	if !fn(id, depth) {
		return
	}
	// The callback may edit the tree; iterate over a snapshot and skip removed nodes.
	for _, c := range slices.Clone(s.get(id).children) {
		if s.get(c) != nil {
			s.walk(c, depth+1, fn)
		}
	}
}

func (s *scene) AddFeature(id NodeID, f Feature) error {
	n := s.get(id)
	if n == nil {
		return common.Invariant(s.logger, "add feature to dead node %s", id)
	}
	if f == nil {
		return common.Invariant(s.logger, "add nil feature to %s", id)
	}
	if f.Node().Valid() {
		return common.Invariant(s.logger, "add %s feature to %s: already attached to %s", f.Kind(), id, f.Node())
	}
	f.attach(id)
	n.features = append(n.features, f)
	s.picking.Invalidate()
	return nil
}

func (s *scene) RemoveFeature(id NodeID, f Feature) error {
	n := s.get(id)
	if n == nil || f == nil || !slices.Contains(n.features, f) {
		return common.Invariant(s.logger, "remove feature not attached to %s", id)
	}
	n.features = slices.DeleteFunc(n.features, func(x Feature) bool { return x == f })
	f.release()
	f.attach(NodeID{})
	s.picking.Invalidate()
	return nil
}

func (s *scene) Features(id NodeID) []Feature {
	if n := s.get(id); n != nil {
		return slices.Clone(n.features)
	}
	return nil
}

func (s *scene) LightCount() int {
	count := 0
	s.Walk(func(id NodeID, _ int) bool {
		for _, f := range s.get(id).features {
			if f.Kind() == FeatureKindLight {
				count++
			}
		}
		return true
	})
	return count
}

func (s *scene) Sync() error {
	if n := s.LightCount(); n != s.resolver.LightCount() {
		s.logger.Debug("light count changed", "light_count", n, "previous", s.resolver.LightCount())
		return s.resolver.InvalidateAll(n)
	}
	return nil
}

func (s *scene) Pick(coord, window image.Point) (NodeID, Feature, bool) {
	f, ok := s.picking.Resolve(coord, window, s.backend)
	if !ok || s.get(f.Node()) == nil {
		return NodeID{}, nil, false
	}
	return f.Node(), f, true
}

func (s *scene) ObjectID(f Feature) (uint32, bool) {
	return s.picking.IDOf(f)
}

func (s *scene) Clear() {
	root := s.get(s.root)
	for _, c := range slices.Clone(root.children) {
		_ = s.RemoveNode(c)
	}
	for _, f := range slices.Clone(root.features) {
		_ = s.RemoveFeature(s.root, f)
	}
	s.picking.Invalidate()
}
