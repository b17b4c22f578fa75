// camera.go
package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	// HOT DATA - Accessed every frame for view/projection and ground probing
	Position   mgl32.Vec3 // Camera position in world space
	Front      mgl32.Vec3 // Forward direction vector (camera local -Z)
	Up         mgl32.Vec3 // Up direction vector (camera local +Y)
	Right      mgl32.Vec3 // Right direction vector (camera local +X)
	Projection mgl32.Mat4 // Projection matrix

	// COLD DATA - Configuration, accessed when the viewport changes
	WorldUp     mgl32.Vec3 // World up vector (usually (0,1,0))
	Fov         float32    // Vertical field of view in degrees
	Near        float32    // Near clipping plane
	Far         float32    // Far clipping plane
	AspectRatio float32    // Width / height

	Name string
}

type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

type Frustum struct {
	Planes [6]Plane
}

// NewDefaultCamera returns a perspective camera at (0, 2, 10) looking down -Z.
func NewDefaultCamera(width int32, height int32) *Camera {
	if height <= 0 {
		height = 1
	}
	camera := Camera{
		Position:    mgl32.Vec3{0, 2, 10},
		Front:       mgl32.Vec3{0, 0, -1},
		Up:          mgl32.Vec3{0, 1, 0},
		Right:       mgl32.Vec3{1, 0, 0},
		WorldUp:     mgl32.Vec3{0, 1, 0},
		Fov:         50.0,
		Near:        0.1,
		Far:         1000.0,
		AspectRatio: float32(width) / float32(height),
		Name:        "main",
	}
	camera.UpdateProjection()
	return &camera
}

func (c *Camera) UpdateProjection() {
	c.Projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), c.AspectRatio, c.Near, c.Far)
}

// Setter methods that automatically update projection
func (c *Camera) SetNear(near float32) {
	c.Near = near
	c.UpdateProjection()
}

func (c *Camera) SetFar(far float32) {
	c.Far = far
	c.UpdateProjection()
}

func (c *Camera) SetFov(fov float32) {
	c.Fov = fov
	c.UpdateProjection()
}

func (c *Camera) SetAspectRatio(aspectRatio float32) {
	c.AspectRatio = aspectRatio
	c.UpdateProjection()
}

func (c *Camera) GetViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.GetViewMatrix())
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	return c.Projection
}

// LookAt turns the camera toward target without moving it.
func (c *Camera) LookAt(target mgl32.Vec3) {
	c.SetDirection(target.Sub(c.Position))
}

// SetDirection points the camera along dir. A zero direction is ignored.
func (c *Camera) SetDirection(dir mgl32.Vec3) {
	if dir.LenSqr() == 0 {
		return
	}
	c.Front = dir.Normalize()
	c.updateCameraVectors()
}

// TranslateX moves the camera along its own right axis.
func (c *Camera) TranslateX(distance float32) {
	c.Position = c.Position.Add(c.Right.Mul(distance))
}

// TranslateY moves the camera along its own up axis.
func (c *Camera) TranslateY(distance float32) {
	c.Position = c.Position.Add(c.Up.Mul(distance))
}

// TranslateZ moves the camera along its own Z axis. The camera looks down
// -Z, so a negative distance moves it forward.
func (c *Camera) TranslateZ(distance float32) {
	c.Position = c.Position.Sub(c.Front.Mul(distance))
}

func (c *Camera) updateCameraVectors() {
	right := c.Front.Cross(c.WorldUp)
	// Looking straight up or down: keep the previous right vector.
	if right.LenSqr() > 1e-12 {
		c.Right = right.Normalize()
	}
	c.Up = c.Right.Cross(c.Front).Normalize()
}

func (c *Camera) CalculateFrustum() Frustum {
	var frustum Frustum
	vp := c.GetViewProjection()

	// Left Plane
	frustum.Planes[0] = Plane{
		Normal:   mgl32.Vec3{vp[3] + vp[0], vp[7] + vp[4], vp[11] + vp[8]},
		Distance: vp[15] + vp[12],
	}

	// Right Plane
	frustum.Planes[1] = Plane{
		Normal:   mgl32.Vec3{vp[3] - vp[0], vp[7] - vp[4], vp[11] - vp[8]},
		Distance: vp[15] - vp[12],
	}

	// Bottom Plane
	frustum.Planes[2] = Plane{
		Normal:   mgl32.Vec3{vp[3] + vp[1], vp[7] + vp[5], vp[11] + vp[9]},
		Distance: vp[15] + vp[13],
	}

	// Top Plane
	frustum.Planes[3] = Plane{
		Normal:   mgl32.Vec3{vp[3] - vp[1], vp[7] - vp[5], vp[11] - vp[9]},
		Distance: vp[15] - vp[13],
	}

	// Near Plane
	frustum.Planes[4] = Plane{
		Normal:   mgl32.Vec3{vp[3] + vp[2], vp[7] + vp[6], vp[11] + vp[10]},
		Distance: vp[15] + vp[14],
	}

	// Far Plane
	frustum.Planes[5] = Plane{
		Normal:   mgl32.Vec3{vp[3] - vp[2], vp[7] - vp[6], vp[11] - vp[10]},
		Distance: vp[15] - vp[14],
	}

	for i := 0; i < 6; i++ {
		length := frustum.Planes[i].Normal.Len()
		frustum.Planes[i].Normal = frustum.Planes[i].Normal.Mul(1.0 / length)
		frustum.Planes[i].Distance /= length
	}

	return frustum
}

func (p *Plane) DistanceToPoint(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

func (f *Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(center) < -radius {
			return false
		}
	}
	return true
}

// SphericalDirection returns the unit vector for polar angle phi (from +Y)
// and azimuth theta (from +Z toward +X).
func SphericalDirection(phi, theta float64) mgl32.Vec3 {
	sinPhi := math.Sin(phi)
	return mgl32.Vec3{
		float32(sinPhi * math.Sin(theta)),
		float32(math.Cos(phi)),
		float32(sinPhi * math.Cos(theta)),
	}
}
