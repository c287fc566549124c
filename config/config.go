// Package config holds the viewer settings. They come from an optional TOML file on top
// of built-in defaults; command-line flags override both.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"cube-navigator/scene"
)

type Config struct {
	Window     Window     `toml:"window"`
	Model      Model      `toml:"model"`
	Camera     Camera     `toml:"camera"`
	Navigation Navigation `toml:"navigation"`
	Events     Events     `toml:"events"`
	Render     Render     `toml:"render"`
}

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type Model struct {
	// Path is a model file on disk. Empty loads the embedded default.
	Path        string `toml:"path"`
	Color       string `toml:"color"`
	DoubleSided bool   `toml:"double_sided"`
}

type Camera struct {
	FOV           float32 `toml:"fov"`
	Near          float32 `toml:"near"`
	Far           float32 `toml:"far"`
	Damping       bool    `toml:"damping"`
	DampingFactor float32 `toml:"damping_factor"`
}

type Navigation struct {
	Target      string `toml:"target"`
	Destination string `toml:"destination"`
	Message     string `toml:"message"`
	PageURL     string `toml:"page_url"`

	// CloseOnNavigate closes the window once the destination was opened.
	CloseOnNavigate bool `toml:"close_on_navigate"`
}

type Events struct {
	// Addr is where the websocket feed listens. Empty disables it.
	Addr string `toml:"addr"`
	Path string `toml:"path"`
}

type Render struct {
	Background string `toml:"background"`
	Shaders    string `toml:"shaders"`
	Validation bool   `toml:"validation"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Window: Window{
			Title:  "Cubes",
			Width:  1280,
			Height: 720,
		},
		Model: Model{
			Color: "#E03616",
		},
		Camera: Camera{
			FOV:           75,
			Near:          0.1,
			Far:           100,
			Damping:       true,
			DampingFactor: 0.05,
		},
		Navigation: Navigation{
			Target:          "cube2",
			Destination:     "../home",
			Message:         "Clicking this cube (cube1) doesn't take you anywhere",
			PageURL:         "http://localhost:8080/cubes/",
			CloseOnNavigate: true,
		},
		Events: Events{
			Path: "/events",
		},
		Render: Render{
			Background: "#F2F3F4",
			Shaders:    "shaders",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults. Keys the
// Config does not know are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.Decode(data); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays TOML data on c and validates the result.
func (c *Config) Decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return err
	}
	return c.Validate()
}

// Validate checks the values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if _, err := c.ModelColor(); err != nil {
		return fmt.Errorf("model.color: %w", err)
	}
	if _, err := c.Background(); err != nil {
		return fmt.Errorf("render.background: %w", err)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera.fov %v must be between 0 and 180", c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clip range %v..%v is empty", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.DampingFactor <= 0 || c.Camera.DampingFactor > 1 {
		return fmt.Errorf("camera.damping_factor %v must be in (0, 1]", c.Camera.DampingFactor)
	}
	if c.Navigation.Target == "" {
		return errors.New("navigation.target must not be empty")
	}
	if c.Events.Addr != "" && (c.Events.Path == "" || c.Events.Path[0] != '/') {
		return fmt.Errorf("events.path %q must start with /", c.Events.Path)
	}
	return nil
}

// ModelColor returns the colour every mesh of a loaded model is painted with.
func (c *Config) ModelColor() (scene.Color, error) {
	return scene.ParseColor(c.Model.Color)
}

// Background returns the clear colour.
func (c *Config) Background() (scene.Color, error) {
	return scene.ParseColor(c.Render.Background)
}

// Material returns the shared material for loaded models.
func (c *Config) Material() (*scene.Material, error) {
	color, err := c.ModelColor()
	if err != nil {
		return nil, err
	}
	m := scene.NewBasicMaterial(color)
	if c.Model.DoubleSided {
		m.Side = scene.DoubleSide
	}
	return m, nil
}

// Encode renders c as TOML, e.g. to print the effective settings.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
