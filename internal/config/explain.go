package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	log_level
//	log_format
//	display
//	map_timeout
//	window
//	window.<field>
//	renderer
//	renderer.<field>
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	switch parts[0] {
	case "log_level":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.LogLevel, nil
	case "log_format":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.LogFormat, nil
	case "display":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.Display, nil
	case "map_timeout":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.MapTimeout, nil
	case "window":
		if len(parts) == 1 {
			return cfg.Window, nil
		}
		switch parts[1] {
		case "title":
			return cfg.Window.Title, nil
		case "width":
			return cfg.Window.Width, nil
		case "height":
			return cfg.Window.Height, nil
		case "resizable":
			return cfg.Window.Resizable, nil
		case "decorations":
			return cfg.Window.Decorations, nil
		case "always_on_top":
			return cfg.Window.AlwaysOnTop, nil
		case "visible":
			return cfg.Window.Visible, nil
		case "centered":
			return cfg.Window.Centered, nil
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	case "renderer":
		if len(parts) == 1 {
			return cfg.Renderer, nil
		}
		switch parts[1] {
		case "validation":
			return cfg.Renderer.Validation, nil
		case "clear_color":
			return cfg.Renderer.ClearColor, nil
		case "acquire_timeout":
			return cfg.Renderer.AcquireTimeout, nil
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
