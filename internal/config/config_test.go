package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir keeps a stray walkthrough.yaml in the package directory from
// leaking into the defaults.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func TestLoad_DefaultValues(t *testing.T) {
	inTempDir(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 768, cfg.Window.Height)
	assert.Equal(t, "assets", cfg.Assets.Dir)
	assert.Empty(t, cfg.Assets.DecoderPath)
	assert.Equal(t, filepath.Join("assets", "Environment.glb"), cfg.AssetPath(cfg.Assets.Environment))
	assert.Equal(t, filepath.Join("assets", "New_trees.glb"), cfg.AssetPath(cfg.Assets.Trees))
	assert.Equal(t, filepath.Join("assets", "Textures"), cfg.TextureDir())
	assert.InDelta(t, 0.0005, cfg.Assets.Environment.Scale, 1e-9)
	assert.Equal(t, mgl32.Vec3{0, -15.5, 0}, Vec3(cfg.Assets.Environment.Position))
	assert.InDelta(t, math.Pi/4, cfg.Assets.Environment.RotationY, 1e-6)
	assert.InDelta(t, 7.06, cfg.Assets.Trees.RotationY, 1e-6)
	assert.Equal(t, "", cfg.Rules.Path)
	assert.False(t, cfg.Rules.Watch)
	assert.Equal(t, float32(50), cfg.Camera.Fov)
	assert.Equal(t, mgl32.Vec3{0, 2, 10}, Vec3(cfg.Camera.Position))
	assert.InDelta(t, 0.05, cfg.Controls.LookSpeed, 1e-9)
	assert.InDelta(t, 0.3, cfg.Controls.HoverHeight, 1e-7)
	assert.InDelta(t, 0.5, cfg.Controls.SmoothingScale, 1e-9)
	assert.InDelta(t, 0.5, cfg.Controls.NudgeStep, 1e-9)
	assert.Equal(t, "aces", cfg.Render.ToneMapping)
	assert.True(t, cfg.Render.FrustumCulling)
	assert.Equal(t, float32(1), cfg.Light.Ambient)
	assert.Equal(t, float32(2), cfg.Light.Intensity)
	assert.Equal(t, mgl32.Vec3{5, 10, 5}, Vec3(cfg.Light.Position))
	assert.Equal(t, 4, cfg.Loader.TextureWorkers)
}

func TestLoad_WithConfigFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
window:
  width: 1920
controls:
  hover_height: 1.5
camera:
  position: [1, 2, 3]
`), 0o644))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, 768, cfg.Window.Height)
	assert.Equal(t, float32(1.5), cfg.Controls.HoverHeight)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, Vec3(cfg.Camera.Position))
}

func TestLoad_PicksUpLocalConfigFile(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "walkthrough.yaml"), []byte("window:\n  title: Local\n"), 0o644))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "Local", cfg.Window.Title)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	inTempDir(t)

	_, err := Load([]string{"--config", "/nonexistent/walkthrough.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	inTempDir(t)
	t.Setenv("WALKTHROUGH_LOG_LEVEL", "warn")
	t.Setenv("WALKTHROUGH_CONTROLS_NUDGE_STEP", "2")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, float32(2), cfg.Controls.NudgeStep)
}

func TestLoad_FlagsWinOverEnvironment(t *testing.T) {
	inTempDir(t)
	t.Setenv("WALKTHROUGH_LOG_LEVEL", "warn")

	cfg, err := Load([]string{"--log-level", "debug", "--rules", "rules.yaml", "--watch-rules", "--assets", "/srv/assets"})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "rules.yaml", cfg.Rules.Path)
	assert.True(t, cfg.Rules.Watch)
	assert.Equal(t, filepath.Join("/srv/assets", "Environment.glb"), cfg.AssetPath(cfg.Assets.Environment))
}

func TestLoad_UnknownFlag(t *testing.T) {
	inTempDir(t)
	_, err := Load([]string{"--fullscreen"})
	assert.Error(t, err)
}

func TestLoad_Help(t *testing.T) {
	inTempDir(t)
	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestValidate(t *testing.T) {
	inTempDir(t)
	base, err := Load(nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"short position", func(c *Config) { c.Camera.Position = []float32{1, 2} }},
		{"tone mapping", func(c *Config) { c.Render.ToneMapping = "reinhard" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			cfg.Camera.Position = append([]float32(nil), base.Camera.Position...)
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
