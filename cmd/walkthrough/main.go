package main

import (
	"Walkthrough3D/internal/config"
	"Walkthrough3D/internal/controls"
	"Walkthrough3D/internal/engine"
	"Walkthrough3D/internal/loader"
	"Walkthrough3D/internal/logger"
	"Walkthrough3D/internal/materials"
	"Walkthrough3D/internal/renderer"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "walkthrough:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := loadRules(cfg)
	if err != nil {
		return err
	}

	textures := renderer.NewTextureManager()
	ld := loader.New(ctx, textures, loader.Options{
		TextureWorkers: cfg.Loader.TextureWorkers,
		SceneWorkers:   cfg.Loader.SceneWorkers,
	})
	defer ld.Close()
	if draco, err := loader.NewDracoDecoder(cfg.Assets.DecoderPath); err != nil {
		logger.Log.Warn("Draco decoder unavailable, compressed assets will not load", zap.Error(err))
	} else {
		ld.RegisterDecoder(draco)
	}

	textureDir := cfg.TextureDir()
	textureSet := ld.LoadTextures(table, textureDir)

	controller := controls.NewController(controls.Settings{
		MovementSpeed:  cfg.Controls.MovementSpeed,
		LookSpeed:      cfg.Controls.LookSpeed,
		VerticalMin:    controls.DefaultSettings().VerticalMin,
		VerticalMax:    controls.DefaultSettings().VerticalMax,
		HoverHeight:    cfg.Controls.HoverHeight,
		SmoothingScale: cfg.Controls.SmoothingScale,
		NudgeStep:      cfg.Controls.NudgeStep,
	})
	rend := renderer.NewOpenGLRenderer(textures, renderSettings(cfg))
	g := engine.NewGopher(engine.Options{
		Width:  int32(cfg.Window.Width),
		Height: int32(cfg.Window.Height),
		Title:  cfg.Window.Title,
	}, rend, controller)

	g.Camera.Position = config.Vec3(cfg.Camera.Position)
	g.Camera.Fov = cfg.Camera.Fov
	g.Camera.Near = cfg.Camera.Near
	g.Camera.Far = cfg.Camera.Far
	g.Camera.UpdateProjection()
	g.Light = renderer.CreateDirectionalLight(config.Vec3(cfg.Light.Position), cfg.Light.Intensity, cfg.Light.Ambient)

	for _, asset := range []loader.Asset{
		toAsset("environment", cfg, cfg.Assets.Environment),
		toAsset("trees", cfg, cfg.Assets.Trees),
	} {
		g.Track(ld.LoadScene(asset, table, textureSet))
	}

	if cfg.Rules.Watch {
		if cfg.Rules.Path == "" {
			logger.Log.Warn("--watch-rules needs --rules; the built-in table cannot change")
		} else {
			watcher, err := materials.NewWatcher(ctx, cfg.Rules.Path, func(ctx context.Context, t *materials.Table) (materials.TextureSet, error) {
				return ld.ResolveTextures(ctx, t, textureDir)
			})
			if err != nil {
				return fmt.Errorf("watch rules: %w", err)
			}
			defer watcher.Close()
			g.WatchRules(watcher.Updates(), textureSet, ld.ReleaseTextures)
		}
	}

	logger.Log.Info("Walkthrough starting",
		zap.String("assets", cfg.Assets.Dir),
		zap.String("textures", textureDir),
		zap.Int("rules", len(table.Rules)))
	return g.Run(ctx)
}

func loadRules(cfg *config.Config) (*materials.Table, error) {
	if cfg.Rules.Path == "" {
		return materials.DefaultTable(), nil
	}
	table, err := materials.LoadTable(cfg.Rules.Path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	for _, key := range table.UnknownKeys() {
		logger.Log.Warn("Rule references unknown texture", zap.String("texture", key))
	}
	return table, nil
}

func toAsset(name string, cfg *config.Config, m config.ModelConfig) loader.Asset {
	return loader.Asset{
		Name:      name,
		Path:      cfg.AssetPath(m),
		Scale:     m.Scale,
		Position:  config.Vec3(m.Position),
		RotationY: m.RotationY,
	}
}

func renderSettings(cfg *config.Config) renderer.RenderSettings {
	s := renderer.DefaultRenderSettings()
	if strings.EqualFold(cfg.Render.ToneMapping, "none") {
		s.ToneMapping = renderer.NoToneMapping
	}
	s.Exposure = cfg.Render.Exposure
	s.FrustumCulling = cfg.Render.FrustumCulling
	s.FaceCulling = cfg.Render.FaceCulling
	s.Wireframe = cfg.Render.Wireframe
	return s
}
