package scene

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/light"
	"github.com/Carmen-Shannon/oxy-editor/engine/primitive"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/shader"
)

type stubTextures struct {
	textures cache.Cache[renderer.Texture]
	backend  *renderer.NullBackend
	held     []*cache.Handle[renderer.Texture]
}

func (s *stubTextures) Acquire(path string) (*cache.Handle[renderer.Texture], bool) {
	return s.textures.Get(path)
}

func (s *stubTextures) load(t *testing.T, path string) {
	t.Helper()
	tex, err := s.backend.UploadTexture(make([]byte, 4), renderer.TextureFormatRGBA8, 1, 1)
	require.NoError(t, err)
	s.held = append(s.held, s.textures.Set(path, tex, cache.StateFinal, cache.PolicyReferenceCounted))
}

type fixture struct {
	scene    Scene
	backend  *renderer.NullBackend
	meshes   cache.Cache[renderer.Mesh]
	resolver shader.Resolver
	textures *stubTextures
}

// stripeCoverage makes each object id cover a 10 pixel wide column: id n covers x in [10n, 10n+10).
func stripeCoverage(cmd renderer.DrawCommand) image.Rectangle {
	x := int(cmd.ObjectID) * 10
	return image.Rect(x, 0, x+10, 100)
}

func newFixture(t *testing.T, backendOpts []renderer.BackendBuilderOption, opts ...SceneBuilderOption) *fixture {
	t.Helper()
	backendOpts = append([]renderer.BackendBuilderOption{
		renderer.WithFramebufferSize(100, 100),
		renderer.WithCoverage(stripeCoverage),
	}, backendOpts...)
	backend := renderer.NewNullBackend(backendOpts...)

	meshes := cache.NewCache(cache.WithEvictFunc(func(_ string, m renderer.Mesh) { backend.ReleaseMesh(m) }))
	shaders := cache.NewCache(cache.WithEvictFunc(func(_ string, s renderer.Shader) { backend.ReleaseShader(s) }))
	textures := &stubTextures{
		textures: cache.NewCache(cache.WithEvictFunc(func(_ string, tex renderer.Texture) { backend.ReleaseTexture(tex) })),
		backend:  backend,
	}
	resolver := shader.NewResolver(shaders, backend)
	factory := primitive.NewFactory(meshes, backend)

	opts = append([]SceneBuilderOption{WithTextureSource(textures)}, opts...)
	return &fixture{
		scene:    NewScene(backend, factory, resolver, opts...),
		backend:  backend,
		meshes:   meshes,
		resolver: resolver,
		textures: textures,
	}
}

func translate(x, y, z float32) Transform {
	t := IdentityTransform()
	t.Translation = mgl32.Vec3{x, y, z}
	return t
}

func sphere(segments float64) *MeshFeature {
	return NewMeshFeature(primitive.TypeSphere, primitive.Params{"segments": segments}, material.NewMaterial())
}

func defaultView() View {
	return View{View: mgl32.Ident4(), Projection: mgl32.Ident4()}
}

func TestTreeStructure(t *testing.T) {
	f := newFixture(t, nil)
	s := f.scene

	a, err := s.AddChild(s.Root(), translate(1, 0, 0))
	require.NoError(t, err)
	b, err := s.AddChild(s.Root(), IdentityTransform())
	require.NoError(t, err)
	c, err := s.AddChild(a, translate(0, 2, 0))
	require.NoError(t, err)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []NodeID{a, b}, s.Children(s.Root()))
	p, ok := s.Parent(c)
	require.True(t, ok)
	assert.Equal(t, a, p)

	var order []NodeID
	s.Walk(func(id NodeID, _ int) bool {
		order = append(order, id)
		return true
	})
	assert.Equal(t, []NodeID{s.Root(), a, c, b}, order)
}

func TestAbsoluteTransformFollowsAncestors(t *testing.T) {
	s := newFixture(t, nil).scene

	parent, _ := s.AddChild(s.Root(), translate(1, 0, 0))
	child, _ := s.AddChild(parent, translate(0, 2, 0))

	m, ok := s.AbsoluteTransform(child)
	require.True(t, ok)
	assert.True(t, m.Col(3).Vec3().ApproxEqual(mgl32.Vec3{1, 2, 0}))

	// Editing the ancestor is visible on the next query.
	require.NoError(t, s.SetLocal(parent, translate(5, 0, 0)))
	m, _ = s.AbsoluteTransform(child)
	assert.True(t, m.Col(3).Vec3().ApproxEqual(mgl32.Vec3{5, 2, 0}))

	// Reparenting keeps the local transform, so the world transform changes.
	require.NoError(t, s.Reparent(child, s.Root()))
	m, _ = s.AbsoluteTransform(child)
	assert.True(t, m.Col(3).Vec3().ApproxEqual(mgl32.Vec3{0, 2, 0}))
}

func TestStructuralMisuseIsAnInvariantViolation(t *testing.T) {
	if common.FailFast() {
		t.Skip("invariant violations panic in this build")
	}
	s := newFixture(t, nil).scene
	a, _ := s.AddChild(s.Root(), IdentityTransform())
	b, _ := s.AddChild(a, IdentityTransform())

	assert.ErrorIs(t, s.RemoveNode(s.Root()), common.ErrInvariantViolation)
	assert.ErrorIs(t, s.Reparent(s.Root(), a), common.ErrInvariantViolation)
	assert.ErrorIs(t, s.Reparent(a, b), common.ErrInvariantViolation)
	assert.ErrorIs(t, s.Reparent(a, a), common.ErrInvariantViolation)

	require.NoError(t, s.RemoveNode(b))
	assert.ErrorIs(t, s.RemoveNode(b), common.ErrInvariantViolation)
	_, err := s.AddChild(b, IdentityTransform())
	assert.ErrorIs(t, err, common.ErrInvariantViolation)

	feat := sphere(8)
	require.NoError(t, s.AddFeature(a, feat))
	assert.ErrorIs(t, s.AddFeature(s.Root(), feat), common.ErrInvariantViolation)
	assert.ErrorIs(t, s.RemoveFeature(s.Root(), feat), common.ErrInvariantViolation)

	// The tree is unchanged by the rejected operations.
	assert.Equal(t, []NodeID{a}, s.Children(s.Root()))
	assert.Equal(t, a, feat.Node())
}

func TestStaleNodeIDDoesNotMatchReusedSlot(t *testing.T) {
	s := newFixture(t, nil).scene
	a, _ := s.AddChild(s.Root(), IdentityTransform())
	require.NoError(t, s.RemoveNode(a))
	b, _ := s.AddChild(s.Root(), IdentityTransform())

	assert.False(t, s.Valid(a))
	assert.True(t, s.Valid(b))
	assert.NotEqual(t, a, b)
}

func TestRemoveNodeReleasesLastMeshHolders(t *testing.T) {
	f := newFixture(t, nil)
	s := f.scene

	group, _ := s.AddChild(s.Root(), IdentityTransform())
	left, _ := s.AddChild(group, translate(-1, 0, 0))
	right, _ := s.AddChild(left, translate(2, 0, 0))
	require.NoError(t, s.AddFeature(left, sphere(12)))
	require.NoError(t, s.AddFeature(right, sphere(12)))

	stats, err := s.Draw(defaultView())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Drawn)

	key, err := primitive.Key(primitive.TypeSphere, primitive.Params{"segments": 12})
	require.NoError(t, err)
	assert.Equal(t, 2, f.meshes.RefCount(key))

	require.NoError(t, s.RemoveNode(group))
	_, ok := f.meshes.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, f.backend.LiveMeshes())
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Valid(right))
}

func TestDrawAssignsIDsInPreOrderAndPicks(t *testing.T) {
	f := newFixture(t, nil)
	s := f.scene

	a, _ := s.AddChild(s.Root(), IdentityTransform())
	a1, _ := s.AddChild(a, IdentityTransform())
	b, _ := s.AddChild(s.Root(), IdentityTransform())

	fa := sphere(8)
	fa1 := NewMeshFeature(primitive.TypeCube, nil, material.NewMaterial())
	fb := sphere(8)
	lamp := NewLightFeature(light.NewLight(light.LightTypePoint))
	require.NoError(t, s.AddFeature(b, fb))
	require.NoError(t, s.AddFeature(a, fa))
	require.NoError(t, s.AddFeature(a, lamp))
	require.NoError(t, s.AddFeature(a1, fa1))

	stats, err := s.Draw(defaultView())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Drawn)
	assert.Equal(t, 1, stats.Lights)

	for want, feat := range []Feature{fa, fa1, fb} {
		id, ok := s.ObjectID(feat)
		require.True(t, ok)
		assert.Equal(t, uint32(want+1), id)
	}
	_, ok := s.ObjectID(lamp)
	assert.False(t, ok)

	// Id 3 covers x in [30, 40).
	node, feat, ok := s.Pick(image.Pt(35, 50), image.Pt(100, 100))
	require.True(t, ok)
	assert.Equal(t, b, node)
	assert.Same(t, fb, feat)

	// Background.
	_, _, ok = s.Pick(image.Pt(95, 50), image.Pt(100, 100))
	assert.False(t, ok)

	// A structural change makes ids stale until the next draw.
	require.NoError(t, s.RemoveFeature(a, fa))
	_, _, ok = s.Pick(image.Pt(35, 50), image.Pt(100, 100))
	assert.False(t, ok)
}

func TestAddingALightRebuildsVariantsOnce(t *testing.T) {
	f := newFixture(t, nil)
	s := f.scene

	n, _ := s.AddChild(s.Root(), IdentityTransform())
	mesh := sphere(8)
	require.NoError(t, s.AddFeature(n, mesh))
	require.NoError(t, s.AddFeature(n, NewLightFeature(light.NewLight(light.LightTypeDirectional))))

	_, err := s.Draw(defaultView())
	require.NoError(t, err)
	before := f.resolver.Invalidations()

	require.NoError(t, s.AddFeature(s.Root(), NewLightFeature(light.NewLight(light.LightTypePoint))))
	stats, err := s.Draw(defaultView())
	require.NoError(t, err)

	assert.Equal(t, before+1, f.resolver.Invalidations())
	assert.Equal(t, 2, f.resolver.LightCount())
	assert.Equal(t, 2, stats.Lights)
	assert.Len(t, f.backend.Frame().Lights, 2)
	require.Len(t, f.backend.Draws(), 1)
	assert.Equal(t, 2, f.backend.Draws()[0].Shader.LightCount)

	// No further change, no further rebuild.
	_, err = s.Draw(defaultView())
	require.NoError(t, err)
	assert.Equal(t, before+1, f.resolver.Invalidations())
}

func TestBrokenFeatureDoesNotBlankTheScene(t *testing.T) {
	f := newFixture(t, nil)
	s := f.scene

	n, _ := s.AddChild(s.Root(), IdentityTransform())
	broken := NewMeshFeature(primitive.Type("teapot"), nil, material.NewMaterial())
	good := sphere(8)
	require.NoError(t, s.AddFeature(n, broken))
	require.NoError(t, s.AddFeature(n, good))

	stats, err := s.Draw(defaultView())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Drawn)
	assert.Equal(t, 1, stats.Skipped[SkipMesh])

	id, ok := s.ObjectID(good)
	require.True(t, ok)
	assert.Equal(t, uint32(1), id)

	// Fixing the field is picked up on the next draw.
	broken.Primitive = primitive.TypeCone
	stats, err = s.Draw(defaultView())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Drawn)
	assert.Contains(t, broken.MeshKey(), "cone?")
}

func TestShaderCompileFailureSkipsOnlyAffectedFeatures(t *testing.T) {
	failTextured := renderer.WithCompileHook(func(src renderer.ShaderSource) error {
		if src.Textures[renderer.TextureSlotNormal] {
			return errors.New("normal maps unsupported")
		}
		return nil
	})
	f := newFixture(t, []renderer.BackendBuilderOption{failTextured})
	s := f.scene
	f.textures.load(t, "bumps.png")

	n, _ := s.AddChild(s.Root(), IdentityTransform())
	bumpy := sphere(8)
	bumpy.Textures[renderer.TextureSlotNormal] = "bumps.png"
	plain := sphere(8)
	require.NoError(t, s.AddFeature(n, bumpy))
	require.NoError(t, s.AddFeature(n, plain))

	stats, err := s.Draw(defaultView())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Drawn)
	assert.Equal(t, 1, stats.Skipped[SkipShader])
	_, ok := s.ObjectID(bumpy)
	assert.False(t, ok)
}

func TestTexturesResolveWhenResident(t *testing.T) {
	f := newFixture(t, nil)
	s := f.scene

	n, _ := s.AddChild(s.Root(), IdentityTransform())
	mesh := sphere(8)
	mesh.Textures[renderer.TextureSlotDiffuse] = "wood.png"
	sprite := NewSpriteFeature("leaf.png", 2, [4]float32{1, 1, 1, 1})
	require.NoError(t, s.AddFeature(n, mesh))
	require.NoError(t, s.AddFeature(n, sprite))

	stats, err := s.Draw(defaultView())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Drawn)
	assert.Equal(t, 2, stats.Skipped[SkipNotReady])

	f.textures.load(t, "wood.png")
	f.textures.load(t, "leaf.png")
	stats, err = s.Draw(defaultView())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Drawn)
	assert.Equal(t, "phong+diffuse+objectid", mesh.ShaderKey())

	draws := f.backend.Draws()
	require.Len(t, draws, 2)
	assert.True(t, draws[0].Textures[renderer.TextureSlotDiffuse].Valid())
	assert.True(t, draws[1].Textures[renderer.TextureSlotDiffuse].Valid())

	// Clearing the path drops the texture and its flag.
	mesh.Textures[renderer.TextureSlotDiffuse] = ""
	_, err = s.Draw(defaultView())
	require.NoError(t, err)
	assert.Equal(t, "phong+objectid", mesh.ShaderKey())
}

func TestPickingDisabledUsesPlainVariants(t *testing.T) {
	f := newFixture(t, nil, WithPicking(false))
	s := f.scene
	n, _ := s.AddChild(s.Root(), IdentityTransform())
	mesh := sphere(8)
	require.NoError(t, s.AddFeature(n, mesh))

	_, err := s.Draw(defaultView())
	require.NoError(t, err)
	assert.Equal(t, "phong", mesh.ShaderKey())
	_, _, ok := s.Pick(image.Pt(10, 10), image.Pt(100, 100))
	assert.False(t, ok)
}

func TestUpdateRunsScripts(t *testing.T) {
	calls := 0
	reachedScene := false
	f := newFixture(t, nil, WithBehavior("count", func(ctx ScriptContext, dt float32) error {
		calls++
		_, reachedScene = ctx.Nodes.(Scene)
		return nil
	}))
	s := f.scene

	n, _ := s.AddChild(s.Root(), IdentityTransform())
	require.NoError(t, s.AddFeature(n, NewScriptFeature("spin", map[string]string{"axis": "0 1 0", "speed": "90"})))
	require.NoError(t, s.AddFeature(n, NewScriptFeature("count", nil)))
	require.NoError(t, s.AddFeature(n, NewScriptFeature("missing", nil)))

	s.Update(1)
	assert.Equal(t, 1, calls)
	assert.False(t, reachedScene, "behaviours must not get structural access to the scene")

	local, _ := s.Local(n)
	want := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	assert.True(t, local.Rotation.OrientationEqualThreshold(want, 1e-5))
}

func TestPrepareBuildsResourcesWithoutDrawing(t *testing.T) {
	f := newFixture(t, nil)
	s := f.scene
	n, _ := s.AddChild(s.Root(), IdentityTransform())
	mesh := sphere(12)
	lamp := NewLightFeature(light.NewLight(light.LightTypePoint))
	require.NoError(t, s.AddFeature(n, mesh))
	require.NoError(t, s.AddFeature(n, lamp))

	require.NoError(t, s.Sync())
	require.NoError(t, s.Prepare(mesh))
	require.NoError(t, s.Prepare(lamp))
	assert.Equal(t, []string{mesh.MeshKey()}, f.meshes.Keys())
	assert.Equal(t, "phong+objectid", mesh.ShaderKey())
	assert.True(t, f.resolver.Current(mesh.res.shader))

	require.NoError(t, s.RemoveNode(n))
	assert.Zero(t, f.meshes.Len())
}

func TestClearReleasesEverything(t *testing.T) {
	f := newFixture(t, nil)
	s := f.scene
	n, _ := s.AddChild(s.Root(), IdentityTransform())
	require.NoError(t, s.AddFeature(n, sphere(8)))
	require.NoError(t, s.AddFeature(s.Root(), sphere(9)))
	_, err := s.Draw(defaultView())
	require.NoError(t, err)

	s.Clear()
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, s.Features(s.Root()))
	assert.Equal(t, 0, f.meshes.Len())
}

func TestTransformMatrixRoundTrip(t *testing.T) {
	tr := Transform{
		Translation: mgl32.Vec3{1, 2, 3},
		Rotation:    mgl32.QuatRotate(0.5, mgl32.Vec3{0, 0, 1}),
		Scale:       mgl32.Vec3{2, 1, 0.5},
	}
	back := TransformFromMatrix(tr.Matrix())
	assert.True(t, back.Translation.ApproxEqual(tr.Translation))
	assert.True(t, back.Scale.ApproxEqualThreshold(tr.Scale, 1e-5))
	assert.True(t, back.Rotation.OrientationEqualThreshold(tr.Rotation, 1e-5))
}
