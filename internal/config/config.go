package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/1broseidon/storm/internal/color"
	"github.com/1broseidon/storm/internal/platform"
)

const (
	LogFormatAuto = "auto"
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// WindowConfig describes the window opened by `storm run`.
type WindowConfig struct {
	Title       string `yaml:"title"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Resizable   bool   `yaml:"resizable"`
	Decorations bool   `yaml:"decorations"`
	AlwaysOnTop bool   `yaml:"always_on_top"`
	Visible     bool   `yaml:"visible"`
	// Centered places the window on the active monitor where the backend
	// supports it.
	Centered bool `yaml:"centered"`
}

// RendererConfig tunes the GPU renderer.
type RendererConfig struct {
	// Validation enables the Vulkan validation layer and debug utils when
	// the loader provides them.
	Validation     bool          `yaml:"validation"`
	ClearColor     string        `yaml:"clear_color"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

// Config holds the application configuration.
type Config struct {
	LogLevel   string         `yaml:"log_level"`
	LogFormat  string         `yaml:"log_format"`
	Display    string         `yaml:"display,omitempty"`
	MapTimeout time.Duration  `yaml:"map_timeout"`
	Window     WindowConfig   `yaml:"window"`
	Renderer   RendererConfig `yaml:"renderer"`
}

func DefaultConfig() *Config {
	opts := platform.DefaultWindowOptions()
	return &Config{
		LogLevel:   "info",
		LogFormat:  LogFormatAuto,
		MapTimeout: 5 * time.Second,
		Window: WindowConfig{
			Title:       "storm",
			Width:       1024,
			Height:      768,
			Resizable:   opts.Resizable,
			Decorations: opts.Decorations,
			AlwaysOnTop: opts.AlwaysOnTop,
			Visible:     opts.Visible,
			Centered:    true,
		},
		Renderer: RendererConfig{
			Validation:     false,
			ClearColor:     "#1e1e2e",
			AcquireTimeout: time.Second,
		},
	}
}

// WindowOptions returns the style flags of the configured window.
func (c *Config) WindowOptions() platform.WindowOptions {
	return platform.WindowOptions{
		Resizable:   c.Window.Resizable,
		Decorations: c.Window.Decorations,
		AlwaysOnTop: c.Window.AlwaysOnTop,
		Visible:     c.Window.Visible,
	}
}

// ClearColor returns renderer.clear_color as linear RGBA components.
func (c *Config) ClearColor() ([4]float32, error) {
	hsla, err := color.ParseHex(c.Renderer.ClearColor)
	if err != nil {
		return [4]float32{}, err
	}
	return hsla.Rgba().Array(), nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	switch c.LogFormat {
	case LogFormatAuto, LogFormatText, LogFormatJSON:
	default:
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: auto, text, json")}
	}
	if c.MapTimeout <= 0 {
		return &ValidationError{Path: "map_timeout", Err: fmt.Errorf("map_timeout must be > 0")}
	}
	if strings.TrimSpace(c.Window.Title) == "" {
		return &ValidationError{Path: "window.title", Err: fmt.Errorf("title is required")}
	}
	if c.Window.Width <= 0 || c.Window.Width > maxWindowDimension {
		return &ValidationError{Path: "window.width", Err: fmt.Errorf("width must be between 1 and %d", maxWindowDimension)}
	}
	if c.Window.Height <= 0 || c.Window.Height > maxWindowDimension {
		return &ValidationError{Path: "window.height", Err: fmt.Errorf("height must be between 1 and %d", maxWindowDimension)}
	}
	if _, err := c.ClearColor(); err != nil {
		return &ValidationError{Path: "renderer.clear_color", Err: err}
	}
	if c.Renderer.AcquireTimeout <= 0 {
		return &ValidationError{Path: "renderer.acquire_timeout", Err: fmt.Errorf("acquire_timeout must be > 0")}
	}
	return nil
}

// maxWindowDimension is the largest size an X11 window can carry.
const maxWindowDimension = 0xffff
