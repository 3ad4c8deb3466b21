package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "editor.yaml", `
frame_rate: 30
viewport:
  width: 640
picking: false
log_level: debug
camera:
  fov: 45
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.FrameRate)
	assert.Equal(t, 640, cfg.Viewport.Width)
	assert.Equal(t, 720, cfg.Viewport.Height)
	assert.False(t, cfg.Picking)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, float32(45), cfg.Camera.FOV)
	assert.Equal(t, float32(100), cfg.Camera.Far)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "editor.toml", `
backend = "wgpu"
texture_workers = 4
watch_textures = true
clear_color = [1.0, 0.0, 0.0, 1.0]

[camera]
position = [0.0, 0.0, 10.0]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendWGPU, cfg.Backend)
	assert.Equal(t, 4, cfg.TextureWorkers)
	assert.True(t, cfg.WatchTextures)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, cfg.ClearColor)
	assert.Equal(t, [3]float32{0, 0, 10}, cfg.Camera.Position)
	assert.True(t, cfg.Picking)
}

func TestValidateClampsRanges(t *testing.T) {
	cfg := Default()
	cfg.FrameRate = -5
	cfg.Viewport = Viewport{}
	cfg.TextureWorkers = 0
	cfg.Camera.Near = 0
	cfg.Camera.Far = 0
	cfg.Backend = ""
	cfg.LogLevel = ""
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 60, cfg.FrameRate)
	assert.Equal(t, Viewport{Width: 1, Height: 1}, cfg.Viewport)
	assert.Equal(t, 1, cfg.TextureWorkers)
	assert.Greater(t, cfg.Camera.Far, cfg.Camera.Near)
	assert.Equal(t, BackendNull, cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestRejectsUnknownValues(t *testing.T) {
	_, err := Load(writeFile(t, "editor.yaml", "backend: vulkan\n"))
	assert.Error(t, err)
	_, err = Load(writeFile(t, "editor.yaml", "log_level: chatty\n"))
	assert.Error(t, err)
	_, err = Load(writeFile(t, "editor.json", "{}"))
	assert.Error(t, err)
	_, err = Load(writeFile(t, "editor.toml", "frame_rate = [\n"))
	assert.Error(t, err)
}
