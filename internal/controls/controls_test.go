package controls

import (
	"Walkthrough3D/internal/renderer"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInput struct {
	moves    MoveState
	px, py   float32
	listened int
	released int
}

func (f *fakeInput) Moves() MoveState { return f.moves }

func (f *fakeInput) PointerOffset() (float32, float32) { return f.px, f.py }

func (f *fakeInput) Listen() func() {
	f.listened++
	return func() { f.released++ }
}

// groundAt returns a scene holding one large flat quad at height y.
func groundAt(y float32) *renderer.Scene {
	model := renderer.CreateModel("ground",
		[]mgl32.Vec3{{-100, y, -100}, {100, y, -100}, {100, y, 100}, {-100, y, 100}},
		nil, nil, []uint32{0, 1, 2, 0, 2, 3})
	node := renderer.NewNode("ground")
	node.Model = model
	scene := renderer.NewScene()
	scene.Add(node)
	return scene
}

func newCamera() *renderer.Camera {
	return renderer.NewDefaultCamera(800, 600)
}

func TestControllerNoOpBeforeActivation(t *testing.T) {
	c := NewController(DefaultSettings())
	c.Advance(1)
	c.AdvanceScaled(1)
	c.Nudge(Forward)
	assert.False(t, c.Active())
}

func TestAdvanceClampsToGround(t *testing.T) {
	for _, h := range []float32{0, 1.5, -3} {
		camera := newCamera()
		c := NewController(DefaultSettings())
		c.Activate(camera, &fakeInput{}, groundAt(h))

		c.Advance(0.016)

		assert.InDelta(t, h+0.3, camera.Position[1], 1e-5)
		assert.InDelta(t, 0, camera.Position[0], 1e-5)
		assert.InDelta(t, 10, camera.Position[2], 1e-5)
	}
}

func TestAdvanceWithoutGroundLeavesHeight(t *testing.T) {
	camera := newCamera()
	c := NewController(DefaultSettings())
	c.Activate(camera, &fakeInput{}, renderer.NewScene())

	c.Advance(0.016)

	assert.InDelta(t, 2, camera.Position[1], 1e-5)
}

func TestAdvanceScaledSkipsGround(t *testing.T) {
	camera := newCamera()
	c := NewController(DefaultSettings())
	c.Activate(camera, &fakeInput{}, groundAt(0))

	c.AdvanceScaled(0.016)

	assert.InDelta(t, 2, camera.Position[1], 1e-5)
}

func TestAdvanceScaledMovesHalfAsFar(t *testing.T) {
	full, half := newCamera(), newCamera()
	in := &fakeInput{moves: MoveState{Forward: true}}

	a := NewController(DefaultSettings())
	a.Activate(full, in, nil)
	b := NewController(DefaultSettings())
	b.Activate(half, in, nil)

	a.Advance(1)
	b.AdvanceScaled(1)

	fullStep := full.Position.Sub(mgl32.Vec3{0, 2, 10}).Len()
	halfStep := half.Position.Sub(mgl32.Vec3{0, 2, 10}).Len()
	assert.InDelta(t, 1, fullStep, 1e-4)
	assert.InDelta(t, 0.5, halfStep, 1e-4)
}

func TestNudge(t *testing.T) {
	tests := []struct {
		dir  Direction
		want mgl32.Vec3
	}{
		{Forward, mgl32.Vec3{0, 2, 9.5}},
		{Backward, mgl32.Vec3{0, 2, 10.5}},
		{Left, mgl32.Vec3{-0.5, 2, 10}},
		{Right, mgl32.Vec3{0.5, 2, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			camera := newCamera()
			c := NewController(DefaultSettings())
			c.Activate(camera, &fakeInput{}, nil)

			c.Nudge(tt.dir)

			assert.Equal(t, tt.want, camera.Position)
		})
	}
}

func TestNudgeBeforeCameraIsNotQueued(t *testing.T) {
	c := NewController(DefaultSettings())
	c.Nudge(Forward)
	c.Nudge(Left)

	camera := newCamera()
	c.Activate(camera, &fakeInput{}, nil)

	assert.Equal(t, mgl32.Vec3{0, 2, 10}, camera.Position)
}

func TestOppositeNudgesCancel(t *testing.T) {
	pairs := [][2]Direction{{Forward, Backward}, {Backward, Forward}, {Left, Right}, {Right, Left}}
	for _, pair := range pairs {
		t.Run(pair[0].String()+"-"+pair[1].String(), func(t *testing.T) {
			camera := newCamera()
			c := NewController(DefaultSettings())
			c.Activate(camera, &fakeInput{}, nil)

			c.Nudge(pair[0])
			c.Nudge(pair[1])

			assert.InDelta(t, 0, camera.Position[0], 1e-6)
			assert.InDelta(t, 10, camera.Position[2], 1e-6)
		})
	}
}

func TestNudgeIgnoresOrientation(t *testing.T) {
	camera := newCamera()
	camera.LookAt(mgl32.Vec3{10, 2, 10})
	c := NewController(DefaultSettings())
	c.Activate(camera, &fakeInput{}, nil)

	c.Nudge(Forward)

	assert.Equal(t, mgl32.Vec3{0, 2, 9.5}, camera.Position)
}

func TestActivateAcquiresAndCloseReleases(t *testing.T) {
	in := &fakeInput{}
	c := NewController(DefaultSettings())
	c.Activate(newCamera(), in, nil)
	require.True(t, c.Active())
	assert.Equal(t, 1, in.listened)

	c.Close()
	assert.False(t, c.Active())
	assert.Equal(t, 1, in.released)

	c.Close()
	assert.Equal(t, 1, in.released)
}

func TestReactivateReleasesPreviousInput(t *testing.T) {
	first, second := &fakeInput{}, &fakeInput{}
	c := NewController(DefaultSettings())
	c.Activate(newCamera(), first, nil)
	c.Activate(newCamera(), second, nil)

	assert.Equal(t, 1, first.released)
	assert.Equal(t, 1, second.listened)
	assert.Equal(t, 0, second.released)
}

func TestFirstPersonInitialOrientation(t *testing.T) {
	fp := NewFirstPerson(newCamera())
	lat, lon := fp.Angles()
	assert.InDelta(t, 0, lat, 1e-4)
	assert.InDelta(t, 180, math.Abs(lon), 1e-4)
}

func TestFirstPersonLookFollowsPointer(t *testing.T) {
	camera := newCamera()
	fp := NewFirstPerson(camera)
	fp.LookSpeed = 0.05

	fp.Update(1, &fakeInput{px: 100})

	_, lon := fp.Angles()
	assert.InDelta(t, 180-5, lon, 1e-4)
	// Pointer right of centre turns the camera right, toward +X when facing -Z.
	assert.Greater(t, camera.Front[0], float32(0))
}

func TestFirstPersonLatitudeClamped(t *testing.T) {
	fp := NewFirstPerson(newCamera())
	fp.LookSpeed = 1

	fp.Update(1, &fakeInput{py: -1000})
	lat, _ := fp.Angles()
	assert.Equal(t, 85.0, lat)

	fp.Update(1, &fakeInput{py: 1000})
	lat, _ = fp.Angles()
	assert.Equal(t, -85.0, lat)
}

func TestFirstPersonConstrainedPitch(t *testing.T) {
	camera := newCamera()
	fp := NewFirstPerson(camera)
	fp.LookSpeed = 1
	fp.ConstrainVertical = true
	fp.VerticalMin = math.Pi / 2.5
	fp.VerticalMax = math.Pi / 1.5

	fp.Update(1, &fakeInput{py: -1000})

	// Fully up maps to a polar angle just above VerticalMin.
	phi := math.Acos(float64(camera.Front[1]))
	assert.GreaterOrEqual(t, phi, fp.VerticalMin-1e-4)
	assert.Less(t, phi, math.Pi/2)
}

func TestFirstPersonMovesAlongLocalAxes(t *testing.T) {
	tests := []struct {
		name  string
		moves MoveState
		want  mgl32.Vec3
	}{
		{"forward", MoveState{Forward: true}, mgl32.Vec3{0, 2, 8}},
		{"backward", MoveState{Backward: true}, mgl32.Vec3{0, 2, 12}},
		{"left", MoveState{Left: true}, mgl32.Vec3{-2, 2, 10}},
		{"right", MoveState{Right: true}, mgl32.Vec3{2, 2, 10}},
		{"up", MoveState{Up: true}, mgl32.Vec3{0, 4, 10}},
		{"down", MoveState{Down: true}, mgl32.Vec3{0, 0, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			camera := newCamera()
			fp := NewFirstPerson(camera)
			fp.MovementSpeed = 2
			fp.LookSpeed = 0

			fp.Update(1, &fakeInput{moves: tt.moves})

			for i := 0; i < 3; i++ {
				assert.InDelta(t, tt.want[i], camera.Position[i], 1e-4)
			}
		})
	}
}
