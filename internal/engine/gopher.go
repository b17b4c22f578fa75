package engine

import (
	"Walkthrough3D/internal/behaviour"
	"Walkthrough3D/internal/controls"
	"Walkthrough3D/internal/hud"
	"Walkthrough3D/internal/loader"
	"Walkthrough3D/internal/logger"
	"Walkthrough3D/internal/materials"
	"Walkthrough3D/internal/renderer"
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type Options struct {
	Width  int32
	Height int32
	Title  string
}

// Gopher owns the window and everything that lives on the render thread:
// camera, renderer, raycast scene, frame loop and camera controller.
type Gopher struct {
	Width      int32
	Height     int32
	Title      string
	Camera     *renderer.Camera
	Light      *renderer.Light
	Scene      *renderer.Scene
	Loop       *behaviour.FrameLoop
	Controller *controls.Controller
	Pad        *hud.ArrowPad

	rendererAPI renderer.Render
	window      *glfw.Window
	pending     []*loader.Pending[*renderer.Node]
	roots       []*renderer.Node
	ruleUpdates <-chan materials.Update
	rules       *materials.Update // latest reloaded table, nil until the first reload
	initialSet  *loader.Pending[materials.TextureSet]
	release     func(materials.TextureSet)
	onFrame     func(deltaTime float64)
}

func NewGopher(opts Options, rend renderer.Render, controller *controls.Controller) *Gopher {
	if controller == nil {
		controller = controls.NewController(controls.DefaultSettings())
	}
	g := &Gopher{
		Width:       opts.Width,
		Height:      opts.Height,
		Title:       opts.Title,
		Light:       renderer.CreateDirectionalLight(mgl32.Vec3{5, 10, 5}, 2, 1),
		Scene:       renderer.NewScene(),
		Loop:        behaviour.NewFrameLoop(),
		Controller:  controller,
		rendererAPI: rend,
	}
	g.Camera = renderer.NewDefaultCamera(g.Width, g.Height)
	g.Pad = hud.NewArrowPad(controller.Nudge)
	// Full-rate advance with the ground clamp first, then the smoothing pass.
	g.Loop.Add("camera", behaviour.Func(controller.Advance))
	g.Loop.Add("camera-smoothing", behaviour.Func(controller.AdvanceScaled))
	return g
}

// Track adds a scene load whose root is attached once it resolves.
func (g *Gopher) Track(p *loader.Pending[*renderer.Node]) {
	g.pending = append(g.pending, p)
}

// WatchRules makes the loop re-bind every attached root when a new rule table
// arrives. initial is the texture set scenes were loaded with. release, when
// set, is handed every texture set that no material uses any more.
func (g *Gopher) WatchRules(updates <-chan materials.Update, initial *loader.Pending[materials.TextureSet], release func(materials.TextureSet)) {
	g.ruleUpdates = updates
	g.initialSet = initial
	g.release = release
}

// SetOnFrameCallback sets a callback run every frame after rendering.
func (g *Gopher) SetOnFrameCallback(callback func(deltaTime float64)) {
	g.onFrame = callback
}

func (g *Gopher) Roots() []*renderer.Node {
	return g.roots
}

// Run opens the window and blocks in the render loop until the window closes
// or ctx is done. It must be called from the main goroutine.
func (g *Gopher) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var unwind Unwind
	defer unwind.Run()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("could not initialize glfw: %w", err)
	}
	unwind.Add(glfw.Terminate)

	glfw.WindowHint(glfw.Decorated, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(int(g.Width), int(g.Height), g.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("could not create glfw window: %w", err)
	}
	g.window = window
	unwind.Add(window.Destroy)

	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("could not initialize OpenGL: %w", err)
	}
	glfw.SwapInterval(1)
	styleWindow(window)
	logger.Log.Info("OpenGL ready", zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))

	fbWidth, fbHeight := window.GetFramebufferSize()
	if err := g.rendererAPI.Init(int32(fbWidth), int32(fbHeight)); err != nil {
		return fmt.Errorf("renderer init: %w", err)
	}
	unwind.Add(g.rendererAPI.Cleanup)
	g.rendererAPI.SetOverlay(g.Pad)
	g.resize(fbWidth, fbHeight)

	window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	input := newWindowInput(window, g.Pad, g.resize)
	g.Controller.Activate(g.Camera, input, g.Scene)
	unwind.Add(g.Controller.Close)

	g.renderLoop(ctx)
	return nil
}

func (g *Gopher) resize(fbWidth, fbHeight int) {
	if fbWidth <= 0 || fbHeight <= 0 {
		// Minimised.
		return
	}
	g.rendererAPI.UpdateViewport(int32(fbWidth), int32(fbHeight))
	g.Camera.SetAspectRatio(float32(fbWidth) / float32(fbHeight))
}

func (g *Gopher) renderLoop(ctx context.Context) {
	lastTime := glfw.GetTime()
	for !g.window.ShouldClose() {
		if ctx.Err() != nil {
			logger.Log.Info("Render loop stopped", zap.Error(ctx.Err()))
			return
		}
		currentTime := glfw.GetTime()
		deltaTime := currentTime - lastTime
		lastTime = currentTime

		g.collectLoads()
		g.drainRuleUpdates()
		g.Loop.Run(deltaTime)

		g.rendererAPI.Render(g.Camera, g.Light)
		if g.onFrame != nil {
			g.onFrame(deltaTime)
		}

		g.window.SwapBuffers()
		glfw.PollEvents()
	}
}

// collectLoads attaches every scene load that finished since the last frame.
func (g *Gopher) collectLoads() {
	if len(g.pending) == 0 {
		return
	}
	remaining := g.pending[:0]
	for _, p := range g.pending {
		if !p.Ready() {
			remaining = append(remaining, p)
			continue
		}
		root, err := p.Result()
		if err != nil {
			// Already logged by the loader; cancelled loads are dropped.
			if !errors.Is(err, context.Canceled) {
				logger.Log.Debug("Scene load not attached", zap.Error(err))
			}
			continue
		}
		g.attach(root)
	}
	g.pending = remaining
}

func (g *Gopher) attach(root *renderer.Node) {
	if root == nil {
		return
	}
	if g.rules != nil {
		// Loaded with the startup table while a reload was in flight.
		materials.Bind(root, g.rules.Table, g.rules.Textures)
	}
	g.rendererAPI.AddNode(root)
	g.Scene.Add(root)
	g.roots = append(g.roots, root)
	logger.Log.Info("Scene attached", zap.String("root", root.Name), zap.Int("meshes", len(root.Meshes())))
}

func (g *Gopher) drainRuleUpdates() {
	if g.ruleUpdates == nil {
		g.releaseStartupSet()
		return
	}
	var latest *materials.Update
drain:
	for {
		select {
		case update, ok := <-g.ruleUpdates:
			if !ok {
				g.ruleUpdates = nil
				break drain
			}
			if latest != nil {
				// Superseded before it was ever bound.
				g.releaseTextures(latest.Textures)
			}
			latest = &update
		default:
			break drain
		}
	}
	if latest != nil {
		g.rebind(*latest)
	}
	g.releaseStartupSet()
}

func (g *Gopher) rebind(update materials.Update) {
	for _, root := range g.roots {
		stats := materials.Bind(root, update.Table, update.Textures)
		logger.Log.Info("Materials re-bound",
			zap.String("root", root.Name),
			zap.Int("matched", stats.Matched),
			zap.Int("unmatched", stats.Unmatched),
			zap.Int("missingTextures", stats.MissingTextures))
	}
	if g.rules != nil {
		g.releaseTextures(g.rules.Textures)
	}
	g.rules = &update
}

// releaseStartupSet drops the startup texture set once a reloaded table has
// replaced it and the set has resolved.
func (g *Gopher) releaseStartupSet() {
	if g.rules == nil || g.initialSet == nil || !g.initialSet.Ready() {
		return
	}
	// A partial set comes with an error but still holds references.
	set, _ := g.initialSet.Result()
	g.initialSet = nil
	g.releaseTextures(set)
}

func (g *Gopher) releaseTextures(set materials.TextureSet) {
	if g.release != nil && set != nil {
		g.release(set)
	}
}
