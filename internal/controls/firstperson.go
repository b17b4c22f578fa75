package controls

import (
	"Walkthrough3D/internal/renderer"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MoveState is the set of held movement inputs.
type MoveState struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Up       bool
	Down     bool
}

// Input is the live input the first-person controller reads every update.
type Input interface {
	Moves() MoveState
	// PointerOffset is the pointer position in pixels relative to the view
	// centre, +X right and +Y down.
	PointerOffset() (x, y float32)
}

// FirstPerson steers a camera like a free-flying first-person view: held
// keys translate along the camera's own axes and the pointer's distance from
// the view centre turns it continuously.
type FirstPerson struct {
	MovementSpeed     float32
	LookSpeed         float32
	LookVertical      bool
	ActiveLook        bool
	ConstrainVertical bool
	VerticalMin       float64 // polar angle bounds, radians
	VerticalMax       float64

	camera *renderer.Camera
	lat    float64 // degrees
	lon    float64 // degrees
}

func NewFirstPerson(camera *renderer.Camera) *FirstPerson {
	fp := &FirstPerson{
		MovementSpeed: 1,
		LookSpeed:     0.005,
		LookVertical:  true,
		ActiveLook:    true,
		VerticalMin:   0,
		VerticalMax:   math.Pi,
		camera:        camera,
	}
	fp.SyncOrientation()
	return fp
}

// SyncOrientation reads lat/lon back from the camera's current direction.
func (fp *FirstPerson) SyncOrientation() {
	if fp.camera == nil {
		return
	}
	dir := fp.camera.Front
	r := dir.Len()
	if r == 0 {
		return
	}
	phi := math.Acos(float64(mgl32.Clamp(dir[1]/r, -1, 1)))
	theta := math.Atan2(float64(dir[0]), float64(dir[2]))
	fp.lat = 90 - radToDeg(phi)
	fp.lon = radToDeg(theta)
}

// Angles returns latitude and longitude in degrees.
func (fp *FirstPerson) Angles() (lat, lon float64) {
	return fp.lat, fp.lon
}

func (fp *FirstPerson) Update(delta float64, input Input) {
	if fp.camera == nil {
		return
	}

	var moves MoveState
	var px, py float32
	if input != nil {
		moves = input.Moves()
		px, py = input.PointerOffset()
	}

	step := float32(delta) * fp.MovementSpeed
	if moves.Forward {
		fp.camera.TranslateZ(-step)
	}
	if moves.Backward {
		fp.camera.TranslateZ(step)
	}
	if moves.Left {
		fp.camera.TranslateX(-step)
	}
	if moves.Right {
		fp.camera.TranslateX(step)
	}
	if moves.Up {
		fp.camera.TranslateY(step)
	}
	if moves.Down {
		fp.camera.TranslateY(-step)
	}

	look := delta * float64(fp.LookSpeed)
	if !fp.ActiveLook {
		look = 0
	}
	ratio := 1.0
	if fp.ConstrainVertical && fp.VerticalMax != fp.VerticalMin {
		ratio = math.Pi / (fp.VerticalMax - fp.VerticalMin)
	}

	fp.lon -= float64(px) * look
	if fp.LookVertical {
		fp.lat -= float64(py) * look * ratio
	}
	fp.lat = math.Max(-85, math.Min(85, fp.lat))

	phi := degToRad(90 - fp.lat)
	theta := degToRad(fp.lon)
	if fp.ConstrainVertical {
		phi = mapLinear(phi, 0, math.Pi, fp.VerticalMin, fp.VerticalMax)
	}

	fp.camera.SetDirection(renderer.SphericalDirection(phi, theta))
}

func mapLinear(x, a1, a2, b1, b2 float64) float64 {
	return b1 + (x-a1)*(b2-b1)/(a2-a1)
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }
