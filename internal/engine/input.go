package engine

import (
	"Walkthrough3D/internal/controls"
	"Walkthrough3D/internal/hud"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// moveKeys maps keyboard keys to the movement they hold down.
var moveKeys = map[glfw.Key]func(*controls.MoveState) *bool{
	glfw.KeyW:     func(m *controls.MoveState) *bool { return &m.Forward },
	glfw.KeyUp:    func(m *controls.MoveState) *bool { return &m.Forward },
	glfw.KeyS:     func(m *controls.MoveState) *bool { return &m.Backward },
	glfw.KeyDown:  func(m *controls.MoveState) *bool { return &m.Backward },
	glfw.KeyA:     func(m *controls.MoveState) *bool { return &m.Left },
	glfw.KeyLeft:  func(m *controls.MoveState) *bool { return &m.Left },
	glfw.KeyD:     func(m *controls.MoveState) *bool { return &m.Right },
	glfw.KeyRight: func(m *controls.MoveState) *bool { return &m.Right },
	glfw.KeyR:     func(m *controls.MoveState) *bool { return &m.Up },
	glfw.KeyF:     func(m *controls.MoveState) *bool { return &m.Down },
}

// inputState is the window-independent half of the input: held keys and
// buttons, the last pointer position and the HUD routing.
type inputState struct {
	keys       map[glfw.Key]bool
	mouseLeft  bool
	mouseRight bool

	pointerX, pointerY float64
	hasPointer         bool
	width, height      int // window size, screen coordinates
	fbWidth, fbHeight  int // framebuffer size, pixels

	pad *hud.ArrowPad
}

func newInputState(pad *hud.ArrowPad) *inputState {
	return &inputState{keys: map[glfw.Key]bool{}, pad: pad}
}

func (s *inputState) Moves() controls.MoveState {
	var m controls.MoveState
	for key, held := range s.keys {
		if held {
			if field, ok := moveKeys[key]; ok {
				*field(&m) = true
			}
		}
	}
	if s.mouseLeft {
		m.Forward = true
	}
	if s.mouseRight {
		m.Backward = true
	}
	return m
}

func (s *inputState) PointerOffset() (float32, float32) {
	if !s.hasPointer {
		return 0, 0
	}
	return float32(s.pointerX - float64(s.width)/2), float32(s.pointerY - float64(s.height)/2)
}

func (s *inputState) key(key glfw.Key, action glfw.Action) {
	switch action {
	case glfw.Press:
		s.keys[key] = true
	case glfw.Release:
		s.keys[key] = false
	}
}

func (s *inputState) cursor(x, y float64) {
	s.pointerX, s.pointerY = x, y
	s.hasPointer = true
}

// toPixels converts a window coordinate to framebuffer pixels, which differ
// on high-DPI displays.
func (s *inputState) toPixels(x, y float64) (float32, float32) {
	sx, sy := 1.0, 1.0
	if s.width > 0 && s.fbWidth > 0 {
		sx = float64(s.fbWidth) / float64(s.width)
	}
	if s.height > 0 && s.fbHeight > 0 {
		sy = float64(s.fbHeight) / float64(s.height)
	}
	return float32(x * sx), float32(y * sy)
}

// button routes a mouse button. Presses over the HUD nudge the camera and
// never reach the first-person controller.
func (s *inputState) button(button glfw.MouseButton, action glfw.Action) {
	if action == glfw.Press && button == glfw.MouseButtonLeft && s.pad != nil && s.hasPointer {
		px, py := s.toPixels(s.pointerX, s.pointerY)
		if s.pad.Click(px, py, s.fbWidth, s.fbHeight) {
			return
		}
	}
	down := action == glfw.Press
	if action != glfw.Press && action != glfw.Release {
		return
	}
	switch button {
	case glfw.MouseButtonLeft:
		s.mouseLeft = down
	case glfw.MouseButtonRight:
		s.mouseRight = down
	}
}

func (s *inputState) resize(width, height, fbWidth, fbHeight int) {
	s.width, s.height = width, height
	s.fbWidth, s.fbHeight = fbWidth, fbHeight
}

// windowInput feeds GLFW window events into an inputState. Listen installs
// the callbacks; the returned func removes them.
type windowInput struct {
	*inputState
	window   *glfw.Window
	onResize func(fbWidth, fbHeight int)
}

var _ controls.Listener = (*windowInput)(nil)

func newWindowInput(window *glfw.Window, pad *hud.ArrowPad, onResize func(int, int)) *windowInput {
	in := &windowInput{inputState: newInputState(pad), window: window, onResize: onResize}
	w, h := window.GetSize()
	fw, fh := window.GetFramebufferSize()
	in.resize(w, h, fw, fh)
	return in
}

func (in *windowInput) Listen() func() {
	var unwind Unwind

	in.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
			return
		}
		in.key(key, action)
	})
	unwind.Add(func() { in.window.SetKeyCallback(nil) })

	in.window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		in.cursor(x, y)
	})
	unwind.Add(func() { in.window.SetCursorPosCallback(nil) })

	in.window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		in.button(button, action)
	})
	unwind.Add(func() { in.window.SetMouseButtonCallback(nil) })

	in.window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		width, height := w.GetSize()
		in.resize(width, height, fbWidth, fbHeight)
		if in.onResize != nil {
			in.onResize(fbWidth, fbHeight)
		}
	})
	unwind.Add(func() { in.window.SetFramebufferSizeCallback(nil) })

	// Focus loss drops held keys so nothing keeps moving in the background.
	in.window.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if !focused {
			in.keys = map[glfw.Key]bool{}
			in.mouseLeft, in.mouseRight = false, false
		}
	})
	unwind.Add(func() { in.window.SetFocusCallback(nil) })

	return unwind.Run
}
