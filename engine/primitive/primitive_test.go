package primitive

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(t *testing.T) (Factory, cache.Cache[renderer.Mesh], *renderer.NullBackend) {
	t.Helper()
	backend := renderer.NewNullBackend()
	meshes := cache.NewCache(cache.WithEvictFunc(func(key string, m renderer.Mesh) {
		backend.ReleaseMesh(m)
	}))
	return NewFactory(meshes, backend), meshes, backend
}

func TestKeyAppliesDefaultsFirst(t *testing.T) {
	omitted, err := Key(TypeSphere, nil)
	require.NoError(t, err)
	explicit, err := Key(TypeSphere, Params{"radius": 1, "rings": 16, "segments": 32})
	require.NoError(t, err)

	assert.Equal(t, "sphere?radius=1&rings=16&segments=32", omitted)
	assert.Equal(t, omitted, explicit)
}

func TestKeyIgnoresParameterOrderAndForeignParameters(t *testing.T) {
	a, err := Key(TypeCylinder, Params{"segments": 12, "radius": 0.25, "caps": 0})
	require.NoError(t, err)
	b, err := Key(TypeCylinder, Params{"caps": 0, "radius": 0.25, "segments": 12, "size": 9})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "cylinder?caps=0&length=1&radius=0.25&rings=1&segments=12", a)
}

func TestKeyDistinguishesEverySingleParameter(t *testing.T) {
	for _, typ := range Types() {
		schema, err := Schema(typ)
		require.NoError(t, err)
		base, err := Key(typ, nil)
		require.NoError(t, err)

		for _, p := range schema {
			changed := p.Default + 1
			if p.Max != 0 && changed > p.Max {
				changed = p.Default - 1
			}
			k, err := Key(typ, Params{p.Name: changed})
			require.NoError(t, err, "%s.%s", typ, p.Name)
			assert.NotEqual(t, base, k, "%s.%s", typ, p.Name)
		}
	}
}

func TestInvalidParameters(t *testing.T) {
	cases := []struct {
		name   string
		typ    Type
		params Params
	}{
		{"fractional segments", TypeSphere, Params{"segments": 20.5}},
		{"too few segments", TypeCircle, Params{"segments": 2}},
		{"zero radius", TypeSphere, Params{"radius": 0}},
		{"negative length", TypeCapsule, Params{"length": -1}},
		{"caps out of range", TypeCone, Params{"caps": 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Key(tc.typ, tc.params)
			assert.ErrorIs(t, err, common.ErrInvalidParameter)
		})
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	f, meshes, backend := newTestFactory(t)

	a, err := f.Build(TypeSphere, Params{"segments": 20})
	require.NoError(t, err)
	b, err := f.Build(TypeSphere, Params{"segments": 20, "radius": 1})
	require.NoError(t, err)

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, a.Generation(), b.Generation())
	assert.Equal(t, 1, f.Builds())
	assert.Equal(t, 1, backend.LiveMeshes())
	assert.Equal(t, 2, meshes.RefCount(a.Key()))
	assert.Equal(t, cache.StateFinal, a.State())
	assert.Equal(t, cache.PolicyReferenceCounted, a.Policy())

	c, err := f.Build(TypeSphere, Params{"segments": 21})
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, 2, f.Builds())
}

func TestBuildRejectsWithoutMutation(t *testing.T) {
	f, meshes, backend := newTestFactory(t)

	_, err := f.Build(Type("teapot"), nil)
	assert.True(t, errors.Is(err, common.ErrUnsupportedPrimitive))

	_, err = f.Build(TypeSphere, Params{"rings": 1})
	assert.ErrorIs(t, err, common.ErrInvalidParameter)

	assert.Equal(t, 0, meshes.Len())
	assert.Equal(t, 0, backend.LiveMeshes())
	assert.Equal(t, 0, f.Builds())
}

func TestReleasingLastHandleEvictsMesh(t *testing.T) {
	f, meshes, backend := newTestFactory(t)

	a, err := f.Build(TypeCube, nil)
	require.NoError(t, err)
	b, err := f.Build(TypeCube, Params{"size": 1})
	require.NoError(t, err)

	require.NoError(t, a.Release())
	assert.True(t, meshes.Contains("cube?size=1"))
	require.NoError(t, b.Release())
	assert.False(t, meshes.Contains("cube?size=1"))
	assert.Equal(t, 0, backend.LiveMeshes())
}

func TestGeneratedMeshesAreWellFormed(t *testing.T) {
	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			m, err := Generate(typ, nil)
			require.NoError(t, err)
			require.NoError(t, m.Validate())
			assert.NotEmpty(t, m.Indices)

			// Every triangle must wind counter-clockwise around its outward normal.
			for i := 0; i < len(m.Indices); i += 3 {
				a := mgl32.Vec3(m.Vertices[m.Indices[i]].Position)
				b := mgl32.Vec3(m.Vertices[m.Indices[i+1]].Position)
				c := mgl32.Vec3(m.Vertices[m.Indices[i+2]].Position)
				face := b.Sub(a).Cross(c.Sub(a))
				if face.Len() < 1e-6 {
					continue
				}
				n := mgl32.Vec3(m.Vertices[m.Indices[i]].Normal).
					Add(mgl32.Vec3(m.Vertices[m.Indices[i+1]].Normal)).
					Add(mgl32.Vec3(m.Vertices[m.Indices[i+2]].Normal))
				assert.Greater(t, face.Dot(n), float32(0), "triangle %d", i/3)
			}
		})
	}
}

func TestGeneratedSizes(t *testing.T) {
	sphere, err := Generate(TypeSphere, Params{"radius": 2})
	require.NoError(t, err)
	assert.InDelta(t, 2, sphere.BoundingRadius(), 1e-4)

	cube, err := Generate(TypeCube, Params{"size": 2})
	require.NoError(t, err)
	assert.Len(t, cube.Vertices, 24)
	assert.Len(t, cube.Indices, 36)
	assert.InDelta(t, mgl32.Vec3{1, 1, 1}.Len(), cube.BoundingRadius(), 1e-4)

	open, err := Generate(TypeCylinder, Params{"caps": 0, "segments": 8})
	require.NoError(t, err)
	closed, err := Generate(TypeCylinder, Params{"caps": 1, "segments": 8})
	require.NoError(t, err)
	assert.Len(t, open.Indices, 8*6)
	assert.Len(t, closed.Indices, 8*6+2*8*3)
}
