//go:build darwin && cgo

// Package darwin implements the platform Application and Window on AppKit
// with a Metal layer as the GPU surface.
package darwin

import (
	"log/slog"

	"github.com/1broseidon/storm/internal/gpu/metal"
	"github.com/1broseidon/storm/internal/gpu/metal/mtldriver"
	"github.com/1broseidon/storm/internal/platform"
)

// Options configures the backend.
type Options struct {
	Metal  metal.Config
	Logger *slog.Logger
}

type state int

const (
	stateCreated state = iota
	stateReady
	stateRunning
	stateTerminated
)

// Application owns the shared NSApplication and at most one window.
type Application struct {
	opts   Options
	logger *slog.Logger
	window *Window
	state  state
	closed bool
}

var _ platform.ApplicationBehavior[*Window] = (*Application)(nil)

// New initialises NSApp. It must be called from the main goroutine.
func New(opts Options) (*Application, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Metal.Logger == nil {
		opts.Metal.Logger = logger
	}
	appInit()
	return &Application{opts: opts, logger: logger.With("component", "appkit")}, nil
}

// Window returns the attached window, or nil.
func (a *Application) Window() *Window {
	return a.window
}

// NewWindow creates an NSWindow, binds a Metal renderer to a CAMetalLayer and
// installs the layer as the content view's backing layer.
func (a *Application) NewWindow(title string, width, height uint32, opts platform.WindowOptions) (*Window, error) {
	if err := platform.ValidateSize(width, height); err != nil {
		return nil, err
	}
	ns, ok := newNSWindow(title, width, height, opts.Resizable, opts.Decorations, opts.AlwaysOnTop)
	if !ok {
		return nil, platform.WindowCreationError("NSWindow initWithContentRect returned nil", nil)
	}

	device, err := mtldriver.NewDevice()
	if err != nil {
		ns.destroy()
		return nil, platform.GPUError("create metal device", err)
	}
	layer := device.NewLayer()
	renderer, err := metal.New(device, layer, a.opts.Metal)
	if err != nil {
		layer.Release()
		ns.destroy()
		return nil, err
	}
	ns.attachLayer(layer.Pointer())
	a.logger.Debug("window created", "device", device.Name(), "width", width, "height", height)

	w := &Window{
		app:      a,
		ns:       ns,
		layer:    layer,
		renderer: renderer,
		title:    title,
		width:    width,
		height:   height,
	}
	if opts.Visible {
		ns.show()
	}
	return w, nil
}

// SetWindow attaches w, closing any window attached before it.
func (a *Application) SetWindow(w *Window) error {
	switch {
	case w == nil:
		return platform.WindowCreationError("attach: nil window", nil)
	case w.app != a:
		return platform.WindowCreationError("attach: window belongs to another application", nil)
	case w.closed:
		return platform.WindowCreationError("attach: window is closed", nil)
	}
	if prev := a.window; prev != nil && prev != w {
		if err := prev.Close(); err != nil {
			return err
		}
	}
	a.window = w
	return nil
}

// Setup has nothing to negotiate on AppKit.
func (a *Application) Setup() error {
	if a.state == stateCreated {
		a.state = stateReady
	}
	return nil
}

// Show forwards to the attached window.
func (a *Application) Show() error {
	if a.window == nil {
		return nil
	}
	return a.window.Show()
}

// Run hands the thread to NSApp until the attached window closes.
func (a *Application) Run() error {
	if a.state == stateTerminated {
		return platform.EventError("run after the event loop terminated", nil)
	}
	a.state = stateRunning
	appRun()
	a.state = stateTerminated
	if w := a.window; w != nil && w.ns.closedByUser() {
		a.logger.Debug("close requested")
	}
	return nil
}

// Close releases the attached window.
func (a *Application) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.state = stateTerminated
	if a.window != nil {
		return a.window.Close()
	}
	return nil
}
