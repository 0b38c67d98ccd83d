// Package ui is the cross-platform entry point. Each supported OS contributes
// one native Application and Window type at build time, so the facade always
// holds the concrete type and never has to convert between backends.
package ui

import (
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/platform"
	"github.com/1broseidon/storm/internal/scene"
)

// WindowOptions controls the initial style of a window.
type WindowOptions = platform.WindowOptions

// DefaultWindowOptions returns a resizable, decorated, visible window.
func DefaultWindowOptions() WindowOptions {
	return platform.DefaultWindowOptions()
}

// RendererConfig tunes the GPU renderer of every window.
type RendererConfig struct {
	// Validation enables the Vulkan validation layer when it is installed.
	Validation     bool
	ClearColor     [4]float32
	AcquireTimeout time.Duration
}

// Config configures the native backend.
type Config struct {
	// Display is the X11 display name. Other backends ignore it.
	Display    string
	MapTimeout time.Duration
	Centered   bool
	Renderer   RendererConfig
	Logger     *slog.Logger
}

// Detail is one line of a backend description.
type Detail struct {
	Key   string
	Value string
}

var _ platform.ApplicationBehavior[*nativeWindow] = (*nativeApplication)(nil)

// Application owns the native connection and at most one Window.
type Application struct {
	native *nativeApplication
	window *Window
}

// NewApplication connects to the native windowing system.
func NewApplication(cfg Config) (*Application, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	native, err := newNativeApplication(cfg)
	if err != nil {
		return nil, err
	}
	return &Application{native: native}, nil
}

// Platform names the backend compiled into this binary.
func (a *Application) Platform() string {
	return backendName
}

// Window returns the attached window, or nil.
func (a *Application) Window() *Window {
	return a.window
}

// SetWindow hands w to the application. A window already attached is closed.
func (a *Application) SetWindow(w *Window) error {
	if w == nil {
		return platform.WindowCreationError("attach: nil window", nil)
	}
	if err := a.native.SetWindow(w.native); err != nil {
		return err
	}
	a.window = w
	return nil
}

// Setup runs the one-time post-creation negotiation.
func (a *Application) Setup() error {
	return a.native.Setup()
}

// Show shows the attached window, if any.
func (a *Application) Show() error {
	return a.native.Show()
}

// Run blocks until the window is closed.
func (a *Application) Run() error {
	return a.native.Run()
}

// Close releases the attached window and then the native connection.
func (a *Application) Close() error {
	a.window = nil
	return a.native.Close()
}

// Window is a native window with a GPU surface.
type Window struct {
	native *nativeWindow
	app    *Application
	title  string
	width  uint32
	height uint32
}

// NewWindow creates a window through app's backend. The caller owns it until
// it is attached with SetWindow.
func NewWindow(app *Application, title string, width, height uint32, opts WindowOptions) (*Window, error) {
	if app == nil {
		return nil, platform.WindowCreationError("nil application", nil)
	}
	native, err := app.native.NewWindow(title, width, height, opts)
	if err != nil {
		return nil, err
	}
	return &Window{native: native, app: app, title: title, width: width, height: height}, nil
}

func (w *Window) Title() string { return w.title }

func (w *Window) Size() (uint32, uint32) { return w.width, w.height }

func (w *Window) Show() error { return w.native.Show() }

func (w *Window) Hide() error { return w.native.Hide() }

func (w *Window) SetTitle(title string) error {
	if err := w.native.SetTitle(title); err != nil {
		return err
	}
	w.title = title
	return nil
}

func (w *Window) SetSize(width, height uint32) error {
	if err := w.native.SetSize(width, height); err != nil {
		return err
	}
	w.width, w.height = width, height
	return nil
}

// Draw renders quads.
func (w *Window) Draw(quads []gpu.Quad) error {
	return w.native.Draw(quads)
}

// DrawScene finishes s and renders its quads in draw order.
func (w *Window) DrawScene(s *scene.Scene) error {
	if s == nil {
		return platform.GPUError("draw scene", errors.New("nil scene"))
	}
	s.Finish()
	return w.native.Draw(gpu.QuadsFromScene(s))
}

// Describe reports the window's native handle and renderer state.
func (w *Window) Describe() []Detail {
	return describeWindow(w.native)
}

// Close releases the window and detaches it from its application.
func (w *Window) Close() error {
	if w.app != nil && w.app.window == w {
		w.app.window = nil
	}
	if w.native == nil {
		return nil
	}
	return w.native.Close()
}
