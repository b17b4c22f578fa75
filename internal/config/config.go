package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "WALKTHROUGH"

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Window   WindowConfig   `mapstructure:"window"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Controls ControlsConfig `mapstructure:"controls"`
	Render   RenderConfig   `mapstructure:"render"`
	Light    LightConfig    `mapstructure:"light"`
	Loader   LoaderConfig   `mapstructure:"loader"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

type ModelConfig struct {
	Path      string    `mapstructure:"path"`
	Scale     float32   `mapstructure:"scale"`
	Position  []float32 `mapstructure:"position"`
	RotationY float32   `mapstructure:"rotation_y"`
}

type AssetsConfig struct {
	Dir         string      `mapstructure:"dir"`
	Textures    string      `mapstructure:"textures"`
	DecoderPath string      `mapstructure:"decoder_path"` // draco_decoder executable or its directory; empty searches PATH
	Environment ModelConfig `mapstructure:"environment"`
	Trees       ModelConfig `mapstructure:"trees"`
}

type RulesConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

type CameraConfig struct {
	Fov      float32   `mapstructure:"fov"`
	Near     float32   `mapstructure:"near"`
	Far      float32   `mapstructure:"far"`
	Position []float32 `mapstructure:"position"`
}

type ControlsConfig struct {
	MovementSpeed  float32 `mapstructure:"movement_speed"`
	LookSpeed      float32 `mapstructure:"look_speed"`
	HoverHeight    float32 `mapstructure:"hover_height"`
	SmoothingScale float32 `mapstructure:"smoothing_scale"`
	NudgeStep      float32 `mapstructure:"nudge_step"`
}

type RenderConfig struct {
	ToneMapping    string  `mapstructure:"tone_mapping"`
	Exposure       float32 `mapstructure:"exposure"`
	FrustumCulling bool    `mapstructure:"frustum_culling"`
	FaceCulling    bool    `mapstructure:"face_culling"`
	Wireframe      bool    `mapstructure:"wireframe"`
}

type LightConfig struct {
	Ambient   float32   `mapstructure:"ambient"`
	Position  []float32 `mapstructure:"position"`
	Intensity float32   `mapstructure:"intensity"`
}

type LoaderConfig struct {
	TextureWorkers int `mapstructure:"texture_workers"`
	SceneWorkers   int `mapstructure:"scene_workers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("window.width", 1024)
	v.SetDefault("window.height", 768)
	v.SetDefault("window.title", "Walkthrough3D")

	v.SetDefault("assets.dir", "assets")
	v.SetDefault("assets.textures", "Textures")
	v.SetDefault("assets.decoder_path", "")
	v.SetDefault("assets.environment.path", "Environment.glb")
	v.SetDefault("assets.environment.scale", 0.0005)
	v.SetDefault("assets.environment.position", []float64{0, -15.5, 0})
	v.SetDefault("assets.environment.rotation_y", math.Pi/4)
	v.SetDefault("assets.trees.path", "New_trees.glb")
	v.SetDefault("assets.trees.scale", 0.0005)
	v.SetDefault("assets.trees.position", []float64{0, -15.5, 0})
	v.SetDefault("assets.trees.rotation_y", 7.06)

	v.SetDefault("rules.path", "")
	v.SetDefault("rules.watch", false)

	v.SetDefault("camera.fov", 50)
	v.SetDefault("camera.near", 0.1)
	v.SetDefault("camera.far", 1000)
	v.SetDefault("camera.position", []float64{0, 2, 10})

	v.SetDefault("controls.movement_speed", 1)
	v.SetDefault("controls.look_speed", 0.05)
	v.SetDefault("controls.hover_height", 0.3)
	v.SetDefault("controls.smoothing_scale", 0.5)
	v.SetDefault("controls.nudge_step", 0.5)

	v.SetDefault("render.tone_mapping", "aces")
	v.SetDefault("render.exposure", 1)
	v.SetDefault("render.frustum_culling", true)
	v.SetDefault("render.face_culling", false)
	v.SetDefault("render.wireframe", false)

	v.SetDefault("light.ambient", 1.0)
	v.SetDefault("light.position", []float64{5, 10, 5})
	v.SetDefault("light.intensity", 2)

	v.SetDefault("loader.texture_workers", 4)
	v.SetDefault("loader.scene_workers", 2)
}

// Flags declares the command line surface.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("walkthrough", pflag.ContinueOnError)
	fs.String("config", "", "YAML config file")
	fs.String("rules", "", "material rule table overriding the built-in one")
	fs.Bool("watch-rules", false, "reload the rule table when it changes")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("assets", "assets", "asset directory")
	return fs
}

// Load resolves the configuration from defaults, an optional config file,
// WALKTHROUGH_* environment variables and command line flags, in increasing
// order of precedence.
func Load(args []string) (*Config, error) {
	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		"rules.path":  "rules",
		"rules.watch": "watch-rules",
		"log.level":   "log-level",
		"assets.dir":  "assets",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("walkthrough")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	for name, vec := range map[string][]float32{
		"assets.environment.position": c.Assets.Environment.Position,
		"assets.trees.position":       c.Assets.Trees.Position,
		"camera.position":             c.Camera.Position,
		"light.position":              c.Light.Position,
	} {
		if len(vec) != 3 {
			return fmt.Errorf("%s needs 3 components, got %d", name, len(vec))
		}
	}
	switch strings.ToLower(c.Render.ToneMapping) {
	case "aces", "none":
	default:
		return fmt.Errorf("unknown tone mapping %q", c.Render.ToneMapping)
	}
	return nil
}

// AssetPath resolves a model path against the asset directory.
func (c *Config) AssetPath(m ModelConfig) string {
	if filepath.IsAbs(m.Path) {
		return m.Path
	}
	return filepath.Join(c.Assets.Dir, m.Path)
}

func (c *Config) TextureDir() string {
	if filepath.IsAbs(c.Assets.Textures) {
		return c.Assets.Textures
	}
	return filepath.Join(c.Assets.Dir, c.Assets.Textures)
}

// Vec3 converts a validated 3 component slice.
func Vec3(v []float32) mgl32.Vec3 {
	var out mgl32.Vec3
	copy(out[:], v)
	return out
}
