package camera

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
)

// Camera is the editor's orbit camera. Position is derived from spherical coordinates around a
// target; panning moves target and position together so the orbit is preserved.
type Camera interface {
	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// Target returns the look-at point.
	Target() mgl32.Vec3

	// SetTarget sets the look-at point and recomputes the position from the orbit.
	//
	// Parameters:
	//   - target: world-space pivot
	SetTarget(target mgl32.Vec3)

	// LookFrom places the camera at position looking at target, deriving the orbit from the offset.
	//
	// Parameters:
	//   - position: world-space eye
	//   - target: world-space pivot
	LookFrom(position, target mgl32.Vec3)

	// Orbit rotates the camera around the target. Elevation is clamped short of the poles.
	//
	// Parameters:
	//   - dAzimuth: horizontal change in radians
	//   - dElevation: vertical change in radians
	Orbit(dAzimuth, dElevation float32)

	// Zoom moves the camera toward the target. Positive delta moves closer.
	//
	// Parameters:
	//   - delta: distance change, clamped to the radius bounds
	Zoom(delta float32)

	// Pan translates camera and target along the camera's right and up axes.
	//
	// Parameters:
	//   - right: distance along the right axis
	//   - up: distance along the up axis
	Pan(right, up float32)

	// Radius returns the distance from target to position.
	Radius() float32

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// SetAspect sets the aspect ratio (width / height).
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// ViewMatrix returns the world-to-camera matrix.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the perspective projection with depth in [0, 1].
	ProjectionMatrix() mgl32.Mat4

	// View packages the camera state for a frame.
	//
	// Parameters:
	//   - clear: the frame's clear color
	//
	// Returns:
	//   - scene.View: the frame view
	View(clear [4]float32) scene.View
}

type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	target    mgl32.Vec3
	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	maxElevation float32
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera looking at the origin from +Z.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:           &sync.Mutex{},
		up:           [3]float32{0, 1, 0},
		fov:          mgl32.DegToRad(60),
		aspect:       1.0,
		near:         0.1,
		far:          100.0,
		radius:       6,
		minRadius:    0.05,
		maxRadius:    1000,
		maxElevation: math32.Pi/2 - 0.01,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraImpl) position() mgl32.Vec3 {
	sinElev, cosElev := math32.Sincos(c.elevation)
	sinAzim, cosAzim := math32.Sincos(c.azimuth)
	return c.target.Add(mgl32.Vec3{
		c.radius * cosElev * sinAzim,
		c.radius * sinElev,
		c.radius * cosElev * cosAzim,
	})
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) SetTarget(target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

func (c *cameraImpl) LookFrom(position, target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookFrom(position, target)
}

func (c *cameraImpl) lookFrom(position, target mgl32.Vec3) {
	offset := position.Sub(target)
	c.target = target
	c.radius = mgl32.Clamp(offset.Len(), c.minRadius, c.maxRadius)
	if offset.Len() < 1e-6 {
		c.azimuth, c.elevation = 0, 0
		return
	}
	c.azimuth = math32.Atan2(offset.X(), offset.Z())
	c.elevation = mgl32.Clamp(math32.Asin(offset.Y()/offset.Len()), -c.maxElevation, c.maxElevation)
}

func (c *cameraImpl) Orbit(dAzimuth, dElevation float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth += dAzimuth
	c.elevation = mgl32.Clamp(c.elevation+dElevation, -c.maxElevation, c.maxElevation)
}

func (c *cameraImpl) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = mgl32.Clamp(c.radius-delta, c.minRadius, c.maxRadius)
}

func (c *cameraImpl) Pan(right, up float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The camera's axes are the first two rows of the view rotation.
	view := c.viewMatrix()
	r := mgl32.Vec3{view[0], view[4], view[8]}
	u := mgl32.Vec3{view[1], view[5], view[9]}
	c.target = c.target.Add(r.Mul(right)).Add(u.Mul(up))
}

func (c *cameraImpl) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect > 0 {
		c.aspect = aspect
	}
}

func (c *cameraImpl) viewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.position(), c.target, mgl32.Vec3(c.up))
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix()
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.Perspective(c.fov, c.aspect, c.near, c.far)
}

func (c *cameraImpl) View(clear [4]float32) scene.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return scene.View{
		View:       c.viewMatrix(),
		Projection: common.Perspective(c.fov, c.aspect, c.near, c.far),
		Eye:        c.position(),
		ClearColor: clear,
	}
}
