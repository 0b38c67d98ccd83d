package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawWindowConfig struct {
	Title       *string `yaml:"title"`
	Width       *int    `yaml:"width"`
	Height      *int    `yaml:"height"`
	Resizable   *bool   `yaml:"resizable"`
	Decorations *bool   `yaml:"decorations"`
	AlwaysOnTop *bool   `yaml:"always_on_top"`
	Visible     *bool   `yaml:"visible"`
	Centered    *bool   `yaml:"centered"`
}

type RawRendererConfig struct {
	Validation     *bool          `yaml:"validation"`
	ClearColor     *string        `yaml:"clear_color"`
	AcquireTimeout *time.Duration `yaml:"acquire_timeout"`
}

// RawConfig is one file's worth of settings. Nil fields were not set.
type RawConfig struct {
	Include    IncludeList        `yaml:"include"`
	LogLevel   *string            `yaml:"log_level"`
	LogFormat  *string            `yaml:"log_format"`
	Display    *string            `yaml:"display"`
	MapTimeout *time.Duration     `yaml:"map_timeout"`
	Window     *RawWindowConfig   `yaml:"window"`
	Renderer   *RawRendererConfig `yaml:"renderer"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != nil {
		out.LogFormat = overlay.LogFormat
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.MapTimeout != nil {
		out.MapTimeout = overlay.MapTimeout
	}
	if overlay.Window != nil {
		base := RawWindowConfig{}
		if out.Window != nil {
			base = *out.Window
		}
		merged := mergeRawWindow(base, *overlay.Window)
		out.Window = &merged
	}
	if overlay.Renderer != nil {
		base := RawRendererConfig{}
		if out.Renderer != nil {
			base = *out.Renderer
		}
		merged := mergeRawRenderer(base, *overlay.Renderer)
		out.Renderer = &merged
	}

	return out
}

func mergeRawWindow(base RawWindowConfig, overlay RawWindowConfig) RawWindowConfig {
	out := base
	if overlay.Title != nil {
		out.Title = overlay.Title
	}
	if overlay.Width != nil {
		out.Width = overlay.Width
	}
	if overlay.Height != nil {
		out.Height = overlay.Height
	}
	if overlay.Resizable != nil {
		out.Resizable = overlay.Resizable
	}
	if overlay.Decorations != nil {
		out.Decorations = overlay.Decorations
	}
	if overlay.AlwaysOnTop != nil {
		out.AlwaysOnTop = overlay.AlwaysOnTop
	}
	if overlay.Visible != nil {
		out.Visible = overlay.Visible
	}
	if overlay.Centered != nil {
		out.Centered = overlay.Centered
	}
	return out
}

func mergeRawRenderer(base RawRendererConfig, overlay RawRendererConfig) RawRendererConfig {
	out := base
	if overlay.Validation != nil {
		out.Validation = overlay.Validation
	}
	if overlay.ClearColor != nil {
		out.ClearColor = overlay.ClearColor
	}
	if overlay.AcquireTimeout != nil {
		out.AcquireTimeout = overlay.AcquireTimeout
	}
	return out
}
