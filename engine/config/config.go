// Package config holds the editor configuration. A configuration file is YAML or TOML,
// chosen by extension; fields left out keep their defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-editor/common"
)

// Backend names a GPU backend implementation.
const (
	BackendNull = "null"
	BackendWGPU = "wgpu"
)

// Viewport is the size of the offscreen render target in pixels.
type Viewport struct {
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
}

// Camera is the initial editor camera.
type Camera struct {
	Position [3]float32 `yaml:"position" toml:"position"`
	Target   [3]float32 `yaml:"target" toml:"target"`
	// FOV is the vertical field of view in degrees.
	FOV  float32 `yaml:"fov" toml:"fov"`
	Near float32 `yaml:"near" toml:"near"`
	Far  float32 `yaml:"far" toml:"far"`
}

// Config is the editor configuration.
type Config struct {
	FrameRate      int        `yaml:"frame_rate" toml:"frame_rate"`
	Viewport       Viewport   `yaml:"viewport" toml:"viewport"`
	ClearColor     [4]float32 `yaml:"clear_color" toml:"clear_color"`
	Picking        bool       `yaml:"picking" toml:"picking"`
	TextureWorkers int        `yaml:"texture_workers" toml:"texture_workers"`
	WatchTextures  bool       `yaml:"watch_textures" toml:"watch_textures"`
	TextureRoot    string     `yaml:"texture_root" toml:"texture_root"`
	LogLevel       string     `yaml:"log_level" toml:"log_level"`
	Camera         Camera     `yaml:"camera" toml:"camera"`
	Backend        string     `yaml:"backend" toml:"backend"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		FrameRate:      60,
		Viewport:       Viewport{Width: 1280, Height: 720},
		ClearColor:     [4]float32{0.1, 0.1, 0.12, 1},
		Picking:        true,
		TextureWorkers: 2,
		TextureRoot:    ".",
		LogLevel:       "info",
		Camera: Camera{
			Position: [3]float32{0, 2, 6},
			FOV:      60,
			Near:     0.1,
			Far:      100,
		},
		Backend: BackendNull,
	}
}

// Load reads a configuration file over the defaults and validates it.
// A missing file yields the defaults.
//
// Parameters:
//   - path: a .yaml, .yml or .toml file
//
// Returns:
//   - Config: the configuration
//   - error: error if the file cannot be read or parsed, or holds an invalid value
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Unmarshal(filepath.Ext(path), data, &cfg); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Unmarshal decodes data in the format named by ext into cfg, leaving absent fields untouched.
//
// Parameters:
//   - ext: the file extension, including the dot
//   - data: the encoded configuration
//   - cfg: the configuration to decode into
//
// Returns:
//   - error: error if the format is unknown or the data is malformed
func Unmarshal(ext string, data []byte, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse yaml config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse toml config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// Validate clamps numeric fields into range and rejects unknown names.
//
// Returns:
//   - error: error if the backend or log level is unknown
func (c *Config) Validate() error {
	if c.FrameRate <= 0 {
		c.FrameRate = 60
	}
	c.Viewport.Width = max(c.Viewport.Width, 1)
	c.Viewport.Height = max(c.Viewport.Height, 1)
	c.TextureWorkers = max(c.TextureWorkers, 1)
	c.TextureRoot = common.Coalesce(c.TextureRoot, ".")
	c.Backend = common.Coalesce(c.Backend, BackendNull)
	c.LogLevel = common.Coalesce(c.LogLevel, "info")
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		c.Camera.FOV = 60
	}
	if c.Camera.Near <= 0 {
		c.Camera.Near = 0.1
	}
	if c.Camera.Far <= c.Camera.Near {
		c.Camera.Far = c.Camera.Near * 1000
	}

	switch c.Backend {
	case BackendNull, BackendWGPU:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	l, _ := ParseLevel(c.LogLevel)
	return l
}

// ParseLevel maps debug, info, warn or error onto a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return l, nil
}
