package camera

import "github.com/go-gl/mathgl/mgl32"

type CameraBuilderOption func(*cameraImpl)

// WithUp sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = [3]float32{x, y, z}
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}

// WithRadiusBounds limits how close and how far Zoom may move the camera.
func WithRadiusBounds(minRadius, maxRadius float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.minRadius = minRadius
		c.maxRadius = maxRadius
	}
}

// WithLookFrom places the camera at position looking at target.
// Apply it after WithRadiusBounds so the derived radius respects the bounds.
//
// Parameters:
//   - position: world-space eye
//   - target: world-space pivot
//
// Returns:
//   - CameraBuilderOption: a function that places the camera
func WithLookFrom(position, target mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lookFrom(position, target)
	}
}
