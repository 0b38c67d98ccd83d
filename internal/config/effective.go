package config

import "fmt"

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogFormat != nil {
		cfg.LogFormat = *raw.LogFormat
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.MapTimeout != nil {
		cfg.MapTimeout = *raw.MapTimeout
	}

	if w := raw.Window; w != nil {
		cfg.Window.Title = derefString(w.Title, cfg.Window.Title)
		cfg.Window.Width = derefInt(w.Width, cfg.Window.Width)
		cfg.Window.Height = derefInt(w.Height, cfg.Window.Height)
		cfg.Window.Resizable = derefBool(w.Resizable, cfg.Window.Resizable)
		cfg.Window.Decorations = derefBool(w.Decorations, cfg.Window.Decorations)
		cfg.Window.AlwaysOnTop = derefBool(w.AlwaysOnTop, cfg.Window.AlwaysOnTop)
		cfg.Window.Visible = derefBool(w.Visible, cfg.Window.Visible)
		cfg.Window.Centered = derefBool(w.Centered, cfg.Window.Centered)
	}

	if r := raw.Renderer; r != nil {
		cfg.Renderer.Validation = derefBool(r.Validation, cfg.Renderer.Validation)
		cfg.Renderer.ClearColor = derefString(r.ClearColor, cfg.Renderer.ClearColor)
		if r.AcquireTimeout != nil {
			cfg.Renderer.AcquireTimeout = *r.AcquireTimeout
		}
	}

	return cfg
}

func derefInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func derefBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func derefString(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
