package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/1broseidon/storm/internal/color"
	"github.com/1broseidon/storm/internal/config"
	"github.com/1broseidon/storm/internal/geometry"
	"github.com/1broseidon/storm/internal/platform"
	"github.com/1broseidon/storm/internal/scene"
	"github.com/1broseidon/storm/internal/ui"
)

type runFlags struct {
	configPath string
	title      string
	width      int
	height     int
	logLevel   string
}

func (f *runFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Config file path (default: ~/.config/storm/config.yaml)")
	fs.StringVar(&f.title, "title", "", "Window title")
	fs.IntVar(&f.width, "width", 0, "Window width in pixels")
	fs.IntVar(&f.height, "height", 0, "Window height in pixels")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// apply loads the config and lays the flags that were set over it.
func (f *runFlags) apply(fs *flag.FlagSet) (*config.LoadResult, error) {
	res, err := loadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	cfg := res.Config
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "title":
			cfg.Window.Title = f.title
			res.Override("window.title", "--title")
		case "width":
			cfg.Window.Width = f.width
			res.Override("window.width", "--width")
		case "height":
			cfg.Window.Height = f.height
			res.Override("window.height", "--height")
		case "log-level":
			cfg.LogLevel = f.logLevel
			res.Override("log_level", "--log-level")
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func runCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var flags runFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		if isHelp(err) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "run takes no arguments")
		return 2
	}

	res, err := flags.apply(fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg := res.Config
	logger, err := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := runWindow(cfg, logger); err != nil {
		logger.Error("storm exited", "error", err)
		return 1
	}
	return 0
}

// uiConfig translates the file config into backend settings.
func uiConfig(cfg *config.Config, logger *slog.Logger) (ui.Config, error) {
	clearColor, err := cfg.ClearColor()
	if err != nil {
		return ui.Config{}, err
	}
	return ui.Config{
		Display:    cfg.Display,
		MapTimeout: cfg.MapTimeout,
		Centered:   cfg.Window.Centered,
		Renderer: ui.RendererConfig{
			Validation:     cfg.Renderer.Validation,
			ClearColor:     clearColor,
			AcquireTimeout: cfg.Renderer.AcquireTimeout,
		},
		Logger: logger,
	}, nil
}

// demoScene is one red square 100px in from the top-left corner.
func demoScene() *scene.Scene {
	s := scene.New()
	s.InsertQuad(scene.Quad{
		Bounds:     geometry.Rect[geometry.ScaledPixels](100, 100, 200, 200),
		Background: color.Solid(color.Red),
	})
	return s
}

// runWindow creates the application and its window, draws the demo scene
// and blocks until the window is closed.
func runWindow(cfg *config.Config, logger *slog.Logger) error {
	uiCfg, err := uiConfig(cfg, logger)
	if err != nil {
		return err
	}
	app, err := ui.NewApplication(uiCfg)
	if err != nil {
		return err
	}
	defer app.Close()
	logger.Info("application started", "platform", app.Platform())

	win, err := ui.NewWindow(app, cfg.Window.Title, uint32(cfg.Window.Width), uint32(cfg.Window.Height), cfg.WindowOptions())
	if err != nil {
		return err
	}
	if err := app.SetWindow(win); err != nil {
		win.Close()
		return err
	}
	if err := app.Setup(); err != nil {
		return err
	}

	if err := win.DrawScene(demoScene()); err != nil {
		if !errors.Is(err, platform.ErrUnsupported) {
			return err
		}
		logger.Warn("drawing skipped", "reason", err)
	}
	if err := app.Show(); err != nil {
		return err
	}
	return app.Run()
}
