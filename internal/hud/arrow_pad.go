package hud

import (
	"Walkthrough3D/internal/controls"
	"Walkthrough3D/internal/logger"
	"Walkthrough3D/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var _ renderer.Overlay = (*ArrowPad)(nil)

// Button is one arrow's screen rectangle in pixels, origin top-left.
type Button struct {
	Direction controls.Direction
	Min       mgl32.Vec2
	Max       mgl32.Vec2
}

func (b Button) Contains(x, y float32) bool {
	return x >= b.Min[0] && x <= b.Max[0] && y >= b.Min[1] && y <= b.Max[1]
}

func (b Button) Center() mgl32.Vec2 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// ArrowPad is the on-screen cross of four nudge buttons, anchored at the
// bottom centre of the window: up on top, left and right side by side, down
// underneath.
type ArrowPad struct {
	Size   float32 // button edge in pixels
	Margin float32 // gap around each button
	Bottom float32 // distance from the bottom edge
	Fill   mgl32.Vec4
	Glyph  mgl32.Vec4

	onPress func(controls.Direction)
}

func NewArrowPad(onPress func(controls.Direction)) *ArrowPad {
	return &ArrowPad{
		Size:    44,
		Margin:  5,
		Bottom:  20,
		Fill:    mgl32.Vec4{1, 1, 1, 0.7},
		Glyph:   mgl32.Vec4{0.1, 0.1, 0.1, 0.9},
		onPress: onPress,
	}
}

// Layout places the buttons for a viewport of the given size.
func (p *ArrowPad) Layout(width, height int) []Button {
	cell := p.Size + 2*p.Margin
	cx := float32(width) / 2
	top := float32(height) - p.Bottom - 3*cell

	at := func(dir controls.Direction, x, row float32) Button {
		minY := top + row*cell + p.Margin
		return Button{
			Direction: dir,
			Min:       mgl32.Vec2{x, minY},
			Max:       mgl32.Vec2{x + p.Size, minY + p.Size},
		}
	}
	return []Button{
		at(controls.Forward, cx-p.Size/2, 0),
		at(controls.Left, cx-cell+p.Margin, 1),
		at(controls.Right, cx+p.Margin, 1),
		at(controls.Backward, cx-p.Size/2, 2),
	}
}

// HitTest reports which button, if any, lies under the pointer.
func (p *ArrowPad) HitTest(x, y float32, width, height int) (controls.Direction, bool) {
	for _, b := range p.Layout(width, height) {
		if b.Contains(x, y) {
			return b.Direction, true
		}
	}
	return 0, false
}

// Click presses the button under the pointer. It reports whether the click
// was consumed by the pad.
func (p *ArrowPad) Click(x, y float32, width, height int) bool {
	dir, ok := p.HitTest(x, y, width, height)
	if !ok {
		return false
	}
	logger.Log.Debug("Arrow pressed", zap.Stringer("direction", dir))
	if p.onPress != nil {
		p.onPress(dir)
	}
	return true
}

// Triangles draws each button as a filled square with an arrow glyph.
func (p *ArrowPad) Triangles(width, height int) ([]float32, []mgl32.Vec4) {
	buttons := p.Layout(width, height)
	verts := make([]float32, 0, len(buttons)*3*6)
	colors := make([]mgl32.Vec4, 0, len(buttons)*3)

	tri := func(a, b, c mgl32.Vec2, color mgl32.Vec4) {
		verts = append(verts, a[0], a[1], b[0], b[1], c[0], c[1])
		colors = append(colors, color)
	}

	for _, b := range buttons {
		tl, br := b.Min, b.Max
		tr, bl := mgl32.Vec2{br[0], tl[1]}, mgl32.Vec2{tl[0], br[1]}
		tri(tl, tr, br, p.Fill)
		tri(tl, br, bl, p.Fill)

		c := b.Center()
		r := p.Size * 0.25
		var tip, left, right mgl32.Vec2
		switch b.Direction {
		case controls.Forward:
			tip, left, right = c.Add(mgl32.Vec2{0, -r}), c.Add(mgl32.Vec2{-r, r}), c.Add(mgl32.Vec2{r, r})
		case controls.Backward:
			tip, left, right = c.Add(mgl32.Vec2{0, r}), c.Add(mgl32.Vec2{r, -r}), c.Add(mgl32.Vec2{-r, -r})
		case controls.Left:
			tip, left, right = c.Add(mgl32.Vec2{-r, 0}), c.Add(mgl32.Vec2{r, r}), c.Add(mgl32.Vec2{r, -r})
		case controls.Right:
			tip, left, right = c.Add(mgl32.Vec2{r, 0}), c.Add(mgl32.Vec2{-r, -r}), c.Add(mgl32.Vec2{-r, r})
		}
		tri(tip, left, right, p.Glyph)
	}
	return verts, colors
}
