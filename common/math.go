package common

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Perspective builds a right-handed perspective projection that maps depth to [0, 1],
// which is what WebGPU expects. mgl32.Perspective targets the OpenGL [-1, 1] range.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / math32.Tan(fovY/2.0)
	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// Compose builds a column-major local matrix as T * R * S.
//
// Parameters:
//   - translation: the translation component
//   - rotation: the rotation, expected to be a unit quaternion
//   - scale: the non-uniform scale component
//
// Returns:
//   - mgl32.Mat4: the composed matrix
func Compose(translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(translation.X(), translation.Y(), translation.Z())
	s := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())
	return t.Mul4(rotation.Normalize().Mat4()).Mul4(s)
}

// Decompose splits an affine column-major matrix into translation, rotation and scale.
// Shear is discarded. A negative determinant is folded into the X scale.
//
// Parameters:
//   - m: the matrix to decompose
//
// Returns:
//   - mgl32.Vec3: translation
//   - mgl32.Quat: unit rotation quaternion
//   - mgl32.Vec3: scale
func Decompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	translation := mgl32.Vec3{m[12], m[13], m[14]}

	c0 := mgl32.Vec3{m[0], m[1], m[2]}
	c1 := mgl32.Vec3{m[4], m[5], m[6]}
	c2 := mgl32.Vec3{m[8], m[9], m[10]}
	scale := mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}

	if scale[0] == 0 || scale[1] == 0 || scale[2] == 0 {
		return translation, mgl32.QuatIdent(), scale
	}

	c0 = c0.Mul(1 / scale[0])
	c1 = c1.Mul(1 / scale[1])
	c2 = c2.Mul(1 / scale[2])
	rot := mgl32.Mat4{
		c0[0], c0[1], c0[2], 0,
		c1[0], c1[1], c1[2], 0,
		c2[0], c2[1], c2[2], 0,
		0, 0, 0, 1,
	}
	return translation, mgl32.Mat4ToQuat(rot).Normalize(), scale
}

// NormalMatrix returns the inverse-transpose of the upper 3x3 of m, widened back to a 4x4
// so it can be uploaded with the same 16-float layout as the model matrix.
//
// Parameters:
//   - m: the model matrix
//
// Returns:
//   - mgl32.Mat4: the normal matrix
func NormalMatrix(m mgl32.Mat4) mgl32.Mat4 {
	n := m.Mat3()
	if n.Det() == 0 {
		return mgl32.Ident4()
	}
	return n.Inv().Transpose().Mat4()
}
