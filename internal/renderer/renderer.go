package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
)

type ToneMapping int

const (
	NoToneMapping ToneMapping = iota
	ACESFilmicToneMapping
)

// RenderSettings holds global pipeline switches.
type RenderSettings struct {
	ToneMapping    ToneMapping
	Exposure       float32
	ClearColor     mgl32.Vec3
	FrustumCulling bool
	FaceCulling    bool
	DepthTest      bool
	Wireframe      bool
}

func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		ToneMapping:    ACESFilmicToneMapping,
		Exposure:       1.0,
		ClearColor:     mgl32.Vec3{0, 0, 0},
		FrustumCulling: true,
		FaceCulling:    false,
		DepthTest:      true,
	}
}

// Light is one ambient term plus one directional light.
type Light struct {
	AmbientColor     mgl32.Vec3
	AmbientIntensity float32
	Position         mgl32.Vec3 // the light shines from Position toward the origin
	Color            mgl32.Vec3
	Intensity        float32
}

// CreateDirectionalLight builds a white light shining from position toward
// the origin with a white ambient term.
func CreateDirectionalLight(position mgl32.Vec3, intensity, ambient float32) *Light {
	return &Light{
		AmbientColor:     mgl32.Vec3{1, 1, 1},
		AmbientIntensity: ambient,
		Position:         position,
		Color:            mgl32.Vec3{1, 1, 1},
		Intensity:        intensity,
	}
}

// Direction returns the unit vector the light travels along.
func (l *Light) Direction() mgl32.Vec3 {
	if l.Position.LenSqr() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return l.Position.Mul(-1).Normalize()
}

// Overlay is 2D geometry drawn on top of the scene in pixel coordinates.
type Overlay interface {
	// Triangles returns x,y pairs in pixels (origin top-left) and one RGBA
	// color per triangle.
	Triangles(width, height int) ([]float32, []mgl32.Vec4)
}

type Render interface {
	Init(width, height int32) error
	Render(camera *Camera, light *Light)
	AddNode(root *Node)
	RemoveNode(root *Node)
	SetOverlay(overlay Overlay)
	UpdateViewport(width, height int32)
	Cleanup()
}
