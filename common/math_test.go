package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestComposeDecompose(t *testing.T) {
	translation := mgl32.Vec3{1, -2, 3}
	rotation := mgl32.QuatRotate(mgl32.DegToRad(30), mgl32.Vec3{0, 1, 0})
	scale := mgl32.Vec3{2, 0.5, 1}

	m := Compose(translation, rotation, scale)
	gotT, gotR, gotS := Decompose(m)

	assert.True(t, gotT.ApproxEqualThreshold(translation, 1e-5))
	assert.True(t, gotS.ApproxEqualThreshold(scale, 1e-5))
	assert.True(t, gotR.ApproxEqualThreshold(rotation, 1e-5) || gotR.ApproxEqualThreshold(rotation.Scale(-1), 1e-5))
}

func TestDecomposeIdentity(t *testing.T) {
	tr, r, s := Decompose(mgl32.Ident4())
	assert.Equal(t, mgl32.Vec3{}, tr)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, s)
	assert.True(t, r.ApproxEqualThreshold(mgl32.QuatIdent(), 1e-6))
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(mgl32.DegToRad(60), 1, 0.1, 100)

	near := p.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestNormalMatrixUniformScale(t *testing.T) {
	m := mgl32.Scale3D(2, 2, 2)
	n := NormalMatrix(m)
	assert.InDelta(t, 0.5, n[0], 1e-6)
	assert.InDelta(t, 1, n[15], 1e-6)
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]uint32{}))
	assert.Len(t, SliceToBytes([]uint32{1, 2, 3}), 12)
}
