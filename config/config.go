// Package config loads renderer and demo scene settings from YAML or
// TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/flock"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config describes a window-less flock scene: the renderer settings and
// the assets the demo loads.
type Config struct {
	Title            string     `yaml:"title" toml:"title"`
	Width            uint32     `yaml:"width" toml:"width"`
	Height           uint32     `yaml:"height" toml:"height"`
	SampleCount      uint32     `yaml:"sample_count" toml:"sample_count"`
	InstanceCapacity int        `yaml:"instance_capacity" toml:"instance_capacity"`
	ClearColor       [4]float64 `yaml:"clear_color" toml:"clear_color"`

	// Backend is "vulkan" or "noop".
	Backend string `yaml:"backend" toml:"backend"`
	Frames  int    `yaml:"frames" toml:"frames"`

	Camera Camera `yaml:"camera" toml:"camera"`

	// Asset paths. Relative paths are resolved against the directory of
	// the config file.
	SVG    string `yaml:"svg" toml:"svg"`
	Script string `yaml:"script" toml:"script"`
	Watch  bool   `yaml:"watch" toml:"watch"`
	Output string `yaml:"output" toml:"output"`
}

// Camera is the initial camera state.
type Camera struct {
	X    float32 `yaml:"x" toml:"x"`
	Y    float32 `yaml:"y" toml:"y"`
	Zoom float32 `yaml:"zoom" toml:"zoom"`
}

// Default returns the settings used for fields a file leaves out.
func Default() Config {
	c := flock.DefaultClearColor
	return Config{
		Title:            "flock",
		Width:            flock.DefaultWidth,
		Height:           flock.DefaultHeight,
		SampleCount:      flock.DefaultSampleCount,
		InstanceCapacity: flock.DefaultInstanceCapacity,
		ClearColor:       [4]float64{c.R, c.G, c.B, c.A},
		Backend:          flock.BackendVulkan,
		Frames:           60,
		Camera:           Camera{Zoom: 1},
		Output:           "frame.png",
	}
}

// Load reads a config file. The format follows the extension: .yaml or
// .yml for YAML, .toml for TOML. Unknown keys are errors.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("config: %s: unsupported format %q", path, ext)
	}

	cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.SVG, &c.Script, &c.Output} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate checks the settings against what the renderer accepts.
func (c Config) Validate() error {
	var errs []error
	if c.Width == 0 || c.Height == 0 {
		errs = append(errs, fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height))
	}
	if c.SampleCount != 1 && c.SampleCount != 4 {
		errs = append(errs, fmt.Errorf("%w: sample_count %d, want 1 or 4", ErrInvalid, c.SampleCount))
	}
	if c.InstanceCapacity < 1 {
		errs = append(errs, fmt.Errorf("%w: instance_capacity %d", ErrInvalid, c.InstanceCapacity))
	}
	for i, v := range c.ClearColor {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%w: clear_color[%d] = %v", ErrInvalid, i, v))
		}
	}
	switch c.Backend {
	case flock.BackendVulkan, flock.BackendNoop:
	default:
		errs = append(errs, fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend))
	}
	if c.Frames < 0 {
		errs = append(errs, fmt.Errorf("%w: frames %d", ErrInvalid, c.Frames))
	}
	if c.Camera.Zoom <= 0 {
		errs = append(errs, fmt.Errorf("%w: camera zoom %v", ErrInvalid, c.Camera.Zoom))
	}
	return errors.Join(errs...)
}

// Options converts the renderer settings to flock options.
func (c Config) Options() []flock.Option {
	return []flock.Option{
		flock.WithViewport(c.Width, c.Height),
		flock.WithSampleCount(c.SampleCount),
		flock.WithInstanceCapacity(c.InstanceCapacity),
		flock.WithClearColor(c.ClearColor[0], c.ClearColor[1], c.ClearColor[2], c.ClearColor[3]),
	}
}
