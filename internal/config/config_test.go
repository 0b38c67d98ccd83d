package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	opts := cfg.WindowOptions()
	if !opts.Resizable || !opts.Decorations || opts.AlwaysOnTop || !opts.Visible {
		t.Fatalf("unexpected default window options %+v", opts)
	}
	if cfg.MapTimeout != 5*time.Second {
		t.Fatalf("expected map_timeout 5s, got %v", cfg.MapTimeout)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Window.Title != "storm" {
		t.Fatalf("expected default title, got %q", res.Config.Window.Title)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Window.Width != 1024 || res.Config.Window.Height != 768 {
		t.Fatalf("expected default size, got %dx%d", res.Config.Window.Width, res.Config.Window.Height)
	}
}

func TestLoadFromPath_PartialSectionsKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"map_timeout: 250ms",
		"window:",
		"  width: 640",
		"  always_on_top: true",
		"renderer:",
		"  clear_color: \"#ff0000\"",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.MapTimeout != 250*time.Millisecond {
		t.Fatalf("expected map_timeout 250ms, got %v", cfg.MapTimeout)
	}
	if cfg.Window.Width != 640 || cfg.Window.Height != 768 {
		t.Fatalf("expected 640x768, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.AlwaysOnTop || !cfg.Window.Decorations {
		t.Fatalf("unexpected window flags %+v", cfg.Window)
	}
	if cfg.Renderer.AcquireTimeout != time.Second {
		t.Fatalf("expected default acquire_timeout, got %v", cfg.Renderer.AcquireTimeout)
	}
	rgba, err := cfg.ClearColor()
	if err != nil {
		t.Fatalf("clear color: %v", err)
	}
	if rgba != [4]float32{1, 0, 0, 1} {
		t.Fatalf("expected opaque red, got %v", rgba)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "window:\n  fullscreen: true\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "fullscreen") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	writeFile(t, filepath.Join(dir, "config.d", "10-base.yaml"), "window:\n  width: 500\n  height: 400\n")
	writeFile(t, filepath.Join(dir, "config.d", "20-override.yaml"), "window:\n  width: 600\n")
	writeFile(t, filepath.Join(dir, "config.d", "notes.txt"), "ignored")

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include:",
		"  - config.d",
		"window:",
		"  title: main",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w := res.Config.Window
	if w.Width != 600 || w.Height != 400 || w.Title != "main" {
		t.Fatalf("expected main 600x400, got %q %dx%d", w.Title, w.Width, w.Height)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}
	if filepath.Base(res.Files[2]) != "config.yaml" {
		t.Fatalf("expected main file last, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
	}{
		{"zero width", "window:\n  width: 0\n", "window.width"},
		{"oversized height", "window:\n  height: 70000\n", "window.height"},
		{"empty title", "window:\n  title: \"  \"\n", "window.title"},
		{"bad colour", "renderer:\n  clear_color: \"#zzz\"\n", "renderer.clear_color"},
		{"negative map timeout", "map_timeout: -1s\n", "map_timeout"},
		{"zero acquire timeout", "renderer:\n  acquire_timeout: 0s\n", "renderer.acquire_timeout"},
		{"unknown level", "log_level: verbose\n", "log_level"},
		{"unknown format", "log_format: xml\n", "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.data)

			_, err := LoadFromPath(path)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
			if verr.Source.Kind != SourceFile || verr.Source.Line == 0 {
				t.Fatalf("expected file source with line, got %#v", verr.Source)
			}
			if !strings.HasPrefix(err.Error(), path+":") {
				t.Fatalf("expected file:line prefix, got %v", err)
			}
		})
	}
}

func TestLoadFromPath_DurationRejectsBareInteger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "map_timeout: 5\n")

	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected error for duration without unit")
	}
}

func TestExplain_ReportsFileLineAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"display: \":1\"",
		"window:",
		"  title: demo",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "window.title")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != "demo" {
		t.Fatalf("expected demo, got %#v", val)
	}
	if src.Kind != SourceFile || src.Line != 3 || src.Column != 10 {
		t.Fatalf("expected file source at 3:10, got %#v", src)
	}
	if !strings.HasSuffix(src.String(), ":3:10") {
		t.Fatalf("expected formatted source to end with :3:10, got %q", src.String())
	}

	val, src, err = Explain(res, "renderer.acquire_timeout")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != time.Second {
		t.Fatalf("expected 1s, got %#v", val)
	}
	if src.Kind != SourceDefault || src.String() != "default:defaults" {
		t.Fatalf("expected default source, got %#v", src)
	}
}

func TestExplain_UnknownPath(t *testing.T) {
	res := &LoadResult{Config: DefaultConfig()}
	for _, path := range []string{"", "window.depth", "renderer.clear_color.r", "hotkey"} {
		if _, _, err := Explain(res, path); err == nil {
			t.Errorf("Explain(%q) expected error", path)
		}
	}
	if _, _, err := Explain(nil, "log_level"); err == nil {
		t.Errorf("Explain(nil) expected error")
	}
}

func TestOverride_ReportsFlagSource(t *testing.T) {
	res := &LoadResult{Config: DefaultConfig()}
	res.Override("window.width", "--width")

	_, src, err := Explain(res, "window.width")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.String() != "flag:--width" {
		t.Fatalf("expected flag:--width, got %q", src.String())
	}
}

func TestDefaultConfigPath_HonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if want := filepath.Join(dir, "storm", "config.yaml"); path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}
}

func TestDefaultConfigPath_IgnoresRelativeXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "relative/dir")

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if want := filepath.Join(home, ".config", "storm", "config.yaml"); path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}
}
