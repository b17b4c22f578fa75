package controls

import (
	"Walkthrough3D/internal/logger"
	"Walkthrough3D/internal/renderer"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// Ground answers the downward probe. *renderer.Scene implements it.
type Ground interface {
	Raycast(ray renderer.Ray) (renderer.Hit, bool)
}

// Listener is implemented by inputs that must attach callbacks before use.
// The returned func detaches them.
type Listener interface {
	Listen() (release func())
}

var down = mgl32.Vec3{0, -1, 0}

type Settings struct {
	MovementSpeed  float32
	LookSpeed      float32
	VerticalMin    float64
	VerticalMax    float64
	HoverHeight    float32
	SmoothingScale float32
	NudgeStep      float32
}

func DefaultSettings() Settings {
	return Settings{
		MovementSpeed:  1,
		LookSpeed:      0.05,
		VerticalMin:    math.Pi / 2.5,
		VerticalMax:    math.Pi / 1.5,
		HoverHeight:    0.3,
		SmoothingScale: 0.5,
		NudgeStep:      0.5,
	}
}

// Controller keeps a first-person camera hovering over the scene. It does
// nothing until Activate attaches it to a camera.
type Controller struct {
	// HOT DATA - Touched every frame
	camera *renderer.Camera
	input  Input
	ground Ground
	fp     *FirstPerson
	active bool

	// COLD DATA
	settings Settings
	release  func()
}

func NewController(settings Settings) *Controller {
	return &Controller{settings: settings}
}

func (c *Controller) Settings() Settings {
	return c.settings
}

// Activate attaches the controller to the live camera, input and ground.
// Calling it again re-attaches to the new targets.
func (c *Controller) Activate(camera *renderer.Camera, input Input, ground Ground) {
	if camera == nil {
		return
	}
	c.Close()

	fp := NewFirstPerson(camera)
	fp.MovementSpeed = c.settings.MovementSpeed
	fp.LookSpeed = c.settings.LookSpeed
	fp.LookVertical = true
	fp.ConstrainVertical = true
	fp.VerticalMin = c.settings.VerticalMin
	fp.VerticalMax = c.settings.VerticalMax

	c.camera, c.input, c.ground, c.fp = camera, input, ground, fp
	if l, ok := input.(Listener); ok {
		c.release = l.Listen()
	}
	c.active = true
	logger.Log.Debug("Camera controller active",
		zap.Float32("hoverHeight", c.settings.HoverHeight),
		zap.Float32("movementSpeed", c.settings.MovementSpeed))
}

func (c *Controller) Active() bool {
	return c.active
}

func (c *Controller) FirstPerson() *FirstPerson {
	return c.fp
}

// Advance runs the first-person update at full delta and then clamps the
// camera height to the ground below it.
func (c *Controller) Advance(delta float64) {
	if !c.active {
		return
	}
	c.fp.Update(delta, c.input)
	c.followGround()
}

// AdvanceScaled runs the first-person update again at a reduced delta. It
// is meant to run after Advance in the same frame.
func (c *Controller) AdvanceScaled(delta float64) {
	if !c.active {
		return
	}
	c.fp.Update(delta*float64(c.settings.SmoothingScale), c.input)
}

func (c *Controller) followGround() {
	if c.ground == nil {
		return
	}
	hit, ok := c.ground.Raycast(renderer.Ray{Origin: c.camera.Position, Direction: down})
	if !ok {
		return
	}
	c.camera.Position[1] = hit.Point[1] + c.settings.HoverHeight
}

// Nudge moves the camera one step along a world axis. Forward is -Z and
// left is -X.
func (c *Controller) Nudge(dir Direction) {
	if c.camera == nil {
		return
	}
	step := c.settings.NudgeStep
	switch dir {
	case Forward:
		c.camera.Position[2] -= step
	case Backward:
		c.camera.Position[2] += step
	case Left:
		c.camera.Position[0] -= step
	case Right:
		c.camera.Position[0] += step
	}
}

// Close detaches input listeners and returns the controller to its inactive
// state.
func (c *Controller) Close() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
	c.active = false
	c.camera, c.input, c.ground, c.fp = nil, nil, nil, nil
}
