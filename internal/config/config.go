package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/molvid/internal/animate"
	"github.com/san-kum/molvid/internal/geom"
	"github.com/san-kum/molvid/internal/video"
)

const (
	DefaultOutput    = "out.mp4"
	DefaultSize      = 1080
	DefaultFPS       = 60
	DefaultFrames    = 60
	DefaultScene     = "caffeine"
	DefaultMotion    = "static"
	DefaultAmplitude = 4.0
	DefaultTurns     = 1.0
)

type Config struct {
	Output    string       `yaml:"output"`
	Width     int          `yaml:"width"`
	Height    int          `yaml:"height"`
	FPS       int          `yaml:"fps"`
	Frames    int          `yaml:"frames"`
	Scene     string       `yaml:"scene"`
	Motion    string       `yaml:"motion"`
	Amplitude float64      `yaml:"amplitude"`
	Turns     float64      `yaml:"turns"`
	Camera    CameraConfig `yaml:"camera"`
}

type CameraConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func DefaultConfig() *Config {
	return &Config{
		Output:    DefaultOutput,
		Width:     DefaultSize,
		Height:    DefaultSize,
		FPS:       DefaultFPS,
		Frames:    DefaultFrames,
		Scene:     DefaultScene,
		Motion:    DefaultMotion,
		Amplitude: DefaultAmplitude,
		Turns:     DefaultTurns,
		Camera: CameraConfig{
			X: float64(animate.DefaultEye.X),
			Y: float64(animate.DefaultEye.Y),
			Z: float64(animate.DefaultEye.Z),
		},
	}
}

// Load reads a YAML job file. Fields it leaves out keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays a YAML job file on cfg. Fields the file leaves out are
// untouched.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything the encoder and the motion registry will reject,
// before any file is touched.
func (c *Config) Validate() error {
	if err := c.Params(false).Validate(); err != nil {
		return err
	}
	if c.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", c.Frames)
	}
	if _, err := c.BuildMotion(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Params(verbose bool) video.Params {
	return video.Params{
		Path:    c.Output,
		Width:   c.Width,
		Height:  c.Height,
		FPS:     c.FPS,
		Verbose: verbose,
	}
}

func (c *Config) Eye() geom.Vec3 {
	return geom.V(float32(c.Camera.X), float32(c.Camera.Y), float32(c.Camera.Z))
}

func (c *Config) BuildMotion() (animate.Motion, error) {
	return animate.New(c.Motion, c.Eye(), float32(c.Amplitude), c.Turns)
}

// Duration is the clip length in seconds.
func (c *Config) Duration() float64 {
	if c.FPS <= 0 {
		return 0
	}
	return float64(c.Frames) / float64(c.FPS)
}
