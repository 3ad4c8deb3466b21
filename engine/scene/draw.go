package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/light"
	"github.com/Carmen-Shannon/oxy-editor/engine/primitive"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/shader"
)

// View is the camera state a frame is drawn with.
type View struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Eye        mgl32.Vec3
	ClearColor [4]float32
}

// SkipReason says why a drawable was left out of a frame.
type SkipReason string

const (
	// SkipMesh means the mesh could not be built, e.g. an unsupported primitive.
	SkipMesh SkipReason = "mesh"
	// SkipNotReady means a texture is still loading or its cache entry went away.
	SkipNotReady SkipReason = "not_ready"
	// SkipShader means the shader variant failed to compile or is stale.
	SkipShader SkipReason = "shader"
	// SkipBackend means the backend rejected the draw.
	SkipBackend SkipReason = "backend"
)

// DrawStats summarises one Draw.
type DrawStats struct {
	Drawn   int
	Lights  int
	Skipped map[SkipReason]int
}

// SkippedTotal returns the number of drawables skipped for any reason.
func (d DrawStats) SkippedTotal() int {
	total := 0
	for _, n := range d.Skipped {
		total += n
	}
	return total
}

// spriteRotation turns the +Y facing plane primitive to face +Z.
var spriteRotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{1, 0, 0})

type drawable struct {
	feature Feature
	world   mgl32.Mat4
}

func (s *scene) Draw(view View) (DrawStats, error) {
	stats := DrawStats{Skipped: make(map[SkipReason]int)}

	// Variants must match the light layout before anything is drawn.
	if err := s.Sync(); err != nil {
		s.logger.Warn("shader variants failed to rebuild", "err", err)
	}

	var lights []light.GPULight
	var drawables []drawable
	s.collect(s.root, mgl32.Ident4(), func(f Feature, world mgl32.Mat4) {
		switch ft := f.(type) {
		case *LightFeature:
			if ft.Light != nil {
				lights = append(lights, ft.Light.ToGPU(world))
			}
		case *MeshFeature, *SpriteFeature:
			drawables = append(drawables, drawable{feature: f, world: world})
		}
	})
	stats.Lights = len(lights)

	if err := s.backend.BeginFrame(renderer.FrameParams{
		View:       view.View,
		Projection: view.Projection,
		Eye:        view.Eye,
		Lights:     lights,
		ClearColor: view.ClearColor,
	}); err != nil {
		return stats, fmt.Errorf("failed to begin frame: %w", err)
	}

	s.picking.Invalidate()
	for _, d := range drawables {
		cmd, reason, ok := s.prepare(d)
		if !ok {
			stats.Skipped[reason]++
			continue
		}
		if s.pickable {
			cmd.ObjectID = uint32(s.picking.Len() + 1)
		}
		if err := s.backend.Draw(cmd); err != nil {
			s.logger.Warn("draw rejected", "node", d.feature.Node().String(), "feature", d.feature.Kind().String(), "err", err)
			stats.Skipped[SkipBackend]++
			continue
		}
		if s.pickable {
			s.picking.Append(d.feature)
		}
		stats.Drawn++
	}

	if err := s.backend.EndFrame(); err != nil {
		return stats, fmt.Errorf("failed to end frame: %w", err)
	}
	return stats, nil
}

// collect walks the tree in pre-order, folding world matrices on the way down.
func (s *scene) collect(id NodeID, parentWorld mgl32.Mat4, visit func(f Feature, world mgl32.Mat4)) {
	n := s.get(id)
	world := parentWorld.Mul4(n.local.Matrix())
	for _, f := range n.features {
		visit(f, world)
	}
	for _, c := range n.children {
		s.collect(c, world, visit)
	}
}

// drawInputs returns the resources and fields a drawable feature is drawn from.
func drawInputs(f Feature) (res *drawResources, prim primitive.Type, params primitive.Params, paths [renderer.TextureSlotCount]string, mat material.Material, ok bool) {
	switch ft := f.(type) {
	case *MeshFeature:
		return &ft.res, ft.Primitive, ft.Params, ft.Textures, ft.Material, true
	case *SpriteFeature:
		paths[renderer.TextureSlotDiffuse] = ft.Texture
		mat = material.NewMaterial(
			material.WithAmbient(ft.Color),
			material.WithDiffuse(ft.Color),
			material.WithSpecular([4]float32{0, 0, 0, 1}),
		)
		return &ft.res, primitive.TypePlane, primitive.Params{"size": float64(ft.Size)}, paths, mat, true
	}
	return nil, "", nil, paths, mat, false
}

func (s *scene) Prepare(f Feature) error {
	if f == nil || s.get(f.Node()) == nil {
		return common.Invariant(s.logger, "prepare of a detached feature")
	}
	res, prim, params, paths, _, ok := drawInputs(f)
	if !ok {
		return nil
	}
	if err := s.reconcileMesh(res, prim, params); err != nil {
		return err
	}
	// Textures still loading are requested here and picked up by a later draw.
	_ = s.reconcileTextures(res, paths)
	return s.reconcileShader(res, paths)
}

// prepare reconciles a drawable's held resources with its current fields and builds its draw command.
func (s *scene) prepare(d drawable) (renderer.DrawCommand, SkipReason, bool) {
	res, prim, params, paths, mat, ok := drawInputs(d.feature)
	if !ok {
		return renderer.DrawCommand{}, "", false
	}
	model := d.world
	if _, sprite := d.feature.(*SpriteFeature); sprite {
		model = model.Mul4(spriteRotation.Mat4())
	}

	if err := s.reconcileMesh(res, prim, params); err != nil {
		s.report(d.feature, res, SkipMesh, err)
		return renderer.DrawCommand{}, SkipMesh, false
	}
	if err := s.reconcileTextures(res, paths); err != nil {
		return renderer.DrawCommand{}, SkipNotReady, false
	}
	if err := s.reconcileShader(res, paths); err != nil {
		s.report(d.feature, res, SkipShader, err)
		return renderer.DrawCommand{}, SkipShader, false
	}
	res.lastErr = ""

	cmd := renderer.DrawCommand{
		Shader:   res.shader.Payload(),
		Mesh:     res.mesh.Payload(),
		Model:    model,
		Normal:   common.NormalMatrix(model),
		Material: mat.GPU(),
	}
	for slot, h := range res.textures {
		if h != nil {
			cmd.Textures[slot] = h.Payload()
		}
	}
	return cmd, "", true
}

func (s *scene) reconcileMesh(res *drawResources, prim primitive.Type, params primitive.Params) error {
	key, err := primitive.Key(prim, params)
	if err != nil {
		releaseHandle(&res.mesh)
		return err
	}
	if res.mesh != nil && res.mesh.Key() == key && res.mesh.Live() {
		return nil
	}
	releaseHandle(&res.mesh)
	h, err := s.factory.Build(prim, params)
	if err != nil {
		return err
	}
	res.mesh = h
	return nil
}

func (s *scene) reconcileTextures(res *drawResources, paths [renderer.TextureSlotCount]string) error {
	var missing []string
	for slot, path := range paths {
		h := res.textures[slot]
		if h != nil && (path == "" || h.Key() != path || !h.Live()) {
			releaseHandle(&res.textures[slot])
		}
		if path == "" || res.textures[slot] != nil {
			continue
		}
		if s.textures != nil {
			if h, ok := s.textures.Acquire(path); ok {
				res.textures[slot] = h
				continue
			}
		}
		missing = append(missing, path)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: textures %v", common.ErrMissingResource, missing)
	}
	return nil
}

func (s *scene) reconcileShader(res *drawResources, paths [renderer.TextureSlotCount]string) error {
	var flags shader.Flags
	for slot, path := range paths {
		flags = flags.With(shader.TextureFlag(renderer.TextureSlot(slot)), path != "")
	}
	flags = flags.With(shader.FlagObjectID, s.pickable)

	key := flags.Key()
	if res.shader == nil || res.shader.Key() != key || !res.shader.Live() {
		releaseHandle(&res.shader)
		h, err := s.resolver.Resolve(flags, s.resolver.LightCount())
		if err != nil {
			return err
		}
		res.shader = h
	}
	if !s.resolver.Current(res.shader) {
		return fmt.Errorf("%w: shader %s built for %d lights, scene has %d", common.ErrMissingResource,
			key, res.shader.Payload().LightCount, s.resolver.LightCount())
	}
	return nil
}

// report logs a failure once until it changes or the drawable recovers.
func (s *scene) report(f Feature, res *drawResources, reason SkipReason, err error) {
	if msg := err.Error(); msg != res.lastErr {
		res.lastErr = msg
		s.logger.Warn("feature skipped", "node", f.Node().String(), "feature", f.Kind().String(), "reason", string(reason), "err", err)
	}
}
