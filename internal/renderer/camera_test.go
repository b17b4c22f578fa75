package renderer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewDefaultCamera(t *testing.T) {
	cam := NewDefaultCamera(800, 600)

	if cam == nil {
		t.Fatal("NewDefaultCamera returned nil")
	}

	if cam.Position != (mgl32.Vec3{0, 2, 10}) {
		t.Errorf("Expected position (0,2,10), got %v", cam.Position)
	}

	if cam.Fov != 50 {
		t.Errorf("Expected fov 50, got %f", cam.Fov)
	}

	if math.Abs(float64(cam.AspectRatio)-800.0/600.0) > 1e-6 {
		t.Errorf("Expected aspect 1.333, got %f", cam.AspectRatio)
	}
}

func TestNewDefaultCameraZeroHeight(t *testing.T) {
	cam := NewDefaultCamera(800, 0)

	if cam.AspectRatio != 800 {
		t.Errorf("Expected aspect 800 for zero height, got %f", cam.AspectRatio)
	}
}

func TestCameraGetViewMatrix(t *testing.T) {
	cam := NewDefaultCamera(800, 600)
	cam.Position = mgl32.Vec3{0, 0, 5}

	view := cam.GetViewMatrix()

	if view.At(3, 3) != 1.0 {
		t.Error("View matrix should be valid (w component = 1)")
	}
	origin := mgl32.TransformCoordinate(mgl32.Vec3{0, 0, 0}, view)
	if math.Abs(float64(origin.Z()+5)) > 1e-5 {
		t.Errorf("Expected world origin at view z=-5, got %v", origin)
	}
}

func TestCameraGetProjectionMatrix(t *testing.T) {
	cam := NewDefaultCamera(800, 600)

	proj := cam.GetProjectionMatrix()

	if proj.At(3, 3) != 0.0 {
		t.Error("Perspective projection should have w=0 at (3,3)")
	}
}

func TestCameraLookAt(t *testing.T) {
	cam := NewDefaultCamera(800, 600)
	cam.Position = mgl32.Vec3{0, 0, 0}

	cam.LookAt(mgl32.Vec3{10, 0, 0})

	if !cam.Front.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("Expected front (1,0,0), got %v", cam.Front)
	}
	if !cam.Right.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-5) {
		t.Errorf("Expected right (0,0,1), got %v", cam.Right)
	}
	if !cam.Up.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5) {
		t.Errorf("Expected up (0,1,0), got %v", cam.Up)
	}
}

func TestCameraLookAtSelfIsIgnored(t *testing.T) {
	cam := NewDefaultCamera(800, 600)
	front := cam.Front

	cam.LookAt(cam.Position)

	if cam.Front != front {
		t.Errorf("Expected front unchanged, got %v", cam.Front)
	}
}

func TestCameraLookStraightDownKeepsRight(t *testing.T) {
	cam := NewDefaultCamera(800, 600)

	cam.SetDirection(mgl32.Vec3{0, -1, 0})

	if !cam.Right.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("Expected right kept at (1,0,0), got %v", cam.Right)
	}
	if math.Abs(float64(cam.Up.Len())-1) > 1e-5 {
		t.Errorf("Up should stay normalized, length=%f", cam.Up.Len())
	}
}

func TestCameraTranslateAlongLocalAxes(t *testing.T) {
	cam := NewDefaultCamera(800, 600)
	cam.Position = mgl32.Vec3{0, 0, 0}

	cam.TranslateZ(-2)
	if !cam.Position.ApproxEqualThreshold(mgl32.Vec3{0, 0, -2}, 1e-5) {
		t.Errorf("Expected forward move to (0,0,-2), got %v", cam.Position)
	}

	cam.TranslateX(3)
	if !cam.Position.ApproxEqualThreshold(mgl32.Vec3{3, 0, -2}, 1e-5) {
		t.Errorf("Expected right move to (3,0,-2), got %v", cam.Position)
	}

	cam.TranslateY(1)
	if !cam.Position.ApproxEqualThreshold(mgl32.Vec3{3, 1, -2}, 1e-5) {
		t.Errorf("Expected up move to (3,1,-2), got %v", cam.Position)
	}
}

func TestCameraFrustumContainsPointAhead(t *testing.T) {
	cam := NewDefaultCamera(800, 600)
	frustum := cam.CalculateFrustum()

	if !frustum.IntersectsSphere(mgl32.Vec3{0, 2, 0}, 0.5) {
		t.Error("Sphere in front of the camera should be inside the frustum")
	}
	if frustum.IntersectsSphere(mgl32.Vec3{0, 2, 20}, 0.5) {
		t.Error("Sphere behind the camera should be culled")
	}
}

func TestSphericalDirection(t *testing.T) {
	dir := SphericalDirection(math.Pi/2, 0)

	if !dir.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-6) {
		t.Errorf("Expected (0,0,1), got %v", dir)
	}
}
