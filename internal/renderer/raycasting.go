package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform maps the ray by m. The direction is not renormalized, so a
// parameter t along the result addresses the same point as t along r.
func (r Ray) Transform(m mgl32.Mat4) Ray {
	return Ray{
		Origin:    mgl32.TransformCoordinate(r.Origin, m),
		Direction: mgl32.TransformNormal(r.Direction, m),
	}
}

// Hit is the nearest intersection of a ray with the scene.
type Hit struct {
	Point    mgl32.Vec3
	Distance float32
	Node     *Node
}

// RayIntersectSphere tests if a ray intersects a sphere
// Returns: (intersected, distance, intersection point)
func RayIntersectSphere(ray Ray, sphereCenter mgl32.Vec3, radius float32) (bool, float32, mgl32.Vec3) {
	oc := ray.Origin.Sub(sphereCenter)

	a := ray.Direction.Dot(ray.Direction)
	if a == 0 {
		return false, 0, mgl32.Vec3{}
	}
	b := 2.0 * oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return false, 0, mgl32.Vec3{}
	}

	sqrtDisc := float32(math.Sqrt(float64(discriminant)))
	t1 := (-b - sqrtDisc) / (2 * a)
	t2 := (-b + sqrtDisc) / (2 * a)

	// Origin inside the sphere counts as a hit at t=0.
	var t float32
	switch {
	case t1 >= 0:
		t = t1
	case t2 >= 0:
		t = 0
	default:
		return false, 0, mgl32.Vec3{}
	}

	return true, t, ray.At(t)
}

// RayIntersectTriangle tests if a ray intersects a triangle from either side
// Returns: (intersected, distance, intersection point)
// Uses Möller-Trumbore algorithm
func RayIntersectTriangle(ray Ray, v0, v1, v2 mgl32.Vec3) (bool, float32, mgl32.Vec3) {
	const epsilon = 1e-12

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	if a > -epsilon && a < epsilon {
		return false, 0, mgl32.Vec3{} // Ray is parallel to triangle
	}

	f := 1.0 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)

	if u < 0.0 || u > 1.0 {
		return false, 0, mgl32.Vec3{}
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)

	if v < 0.0 || u+v > 1.0 {
		return false, 0, mgl32.Vec3{}
	}

	t := f * edge2.Dot(q)
	if t >= 0 {
		return true, t, ray.At(t)
	}

	return false, 0, mgl32.Vec3{} // Line intersection but not ray intersection
}

// RayIntersectNode tests the ray against the node's geometry. The returned
// distance is in world units when ray.Direction is unit length.
func RayIntersectNode(ray Ray, node *Node) (bool, float32, mgl32.Vec3) {
	model := node.Model
	if model == nil || len(model.Indices) < 3 {
		return false, 0, mgl32.Vec3{}
	}

	local := ray.Transform(node.worldInv)
	if ok, _, _ := RayIntersectSphere(local, model.BoundingSphereCenter, model.BoundingSphereRadius); !ok {
		return false, 0, mgl32.Vec3{}
	}

	best := float32(math.MaxFloat32)
	found := false
	for i := 0; i+2 < len(model.Indices); i += 3 {
		v0 := model.Vertex(model.Indices[i])
		v1 := model.Vertex(model.Indices[i+1])
		v2 := model.Vertex(model.Indices[i+2])
		if ok, t, _ := RayIntersectTriangle(local, v0, v1, v2); ok && t < best {
			best = t
			found = true
		}
	}
	if !found {
		return false, 0, mgl32.Vec3{}
	}
	return true, best, ray.At(best)
}

// ScreenToRay converts a screen position to a world space ray
func ScreenToRay(camera *Camera, screenX, screenY float32, windowWidth, windowHeight int) Ray {
	ndcX := 2.0*screenX/float32(windowWidth) - 1.0
	ndcY := 1.0 - 2.0*screenY/float32(windowHeight)

	clipCoords := mgl32.Vec4{ndcX, ndcY, -1.0, 1.0}

	invProjection := camera.Projection.Inv()
	eyeCoords := invProjection.Mul4x1(clipCoords)
	eyeCoords = mgl32.Vec4{eyeCoords.X(), eyeCoords.Y(), -1.0, 0.0}

	invView := camera.GetViewMatrix().Inv()
	worldDir := invView.Mul4x1(eyeCoords).Vec3().Normalize()

	return Ray{
		Origin:    camera.Position,
		Direction: worldDir,
	}
}
