// Package linux implements the platform Application and Window on X11. The
// GPU renderer is supplied by a factory so the window lifecycle does not
// depend on a particular graphics API.
package linux

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/platform"
	"github.com/1broseidon/storm/internal/x11"
)

// Display is the X11 surface the backend needs. *x11.Connection implements it.
type Display interface {
	CreateWindow(spec x11.WindowSpec) (xproto.Window, error)
	SetTitle(win xproto.Window, title string) error
	Resize(win xproto.Window, width, height uint16, resizable bool) error
	Map(win xproto.Window) error
	Unmap(win xproto.Window) error
	Destroy(win xproto.Window)
	Sync() error
	WindowValid(win xproto.Window) error
	WaitForMap(win xproto.Window, timeout time.Duration) error
	SetProtocols(win xproto.Window, protocols ...string) error
	Atom(name string) (xproto.Atom, error)
	NextEvent() (xgb.Event, error)
	ActiveMonitor() (x11.Monitor, error)
	Close()
}

var _ Display = (*x11.Connection)(nil)

// RendererFactory builds the renderer for a mapped window.
type RendererFactory func(display string, win xproto.Window, width, height uint32) (gpu.Renderer, error)

// Options configures the backend.
type Options struct {
	// Display is the X display name; empty uses $DISPLAY.
	Display string
	// MapTimeout bounds the wait for the window manager to map a new window.
	MapTimeout time.Duration
	// Centered places new windows in the middle of the active monitor.
	Centered bool
	Renderer RendererFactory
	Logger   *slog.Logger
}

// DefaultMapTimeout is used when Options.MapTimeout is zero.
const DefaultMapTimeout = 5 * time.Second

// WMClass is the WM_CLASS instance and class of every window.
const WMClass = "storm"

type state int

const (
	stateCreated state = iota
	stateReady
	stateRunning
	stateTerminated
)

// Application owns the X connection and at most one window.
type Application struct {
	display Display
	opts    Options
	logger  *slog.Logger

	window       *Window
	state        state
	protocols    xproto.Atom
	deleteWindow xproto.Atom
	closed       bool
}

var _ platform.ApplicationBehavior[*Window] = (*Application)(nil)

// New connects to the X server named by opts.Display.
func New(opts Options) (*Application, error) {
	conn, err := x11.NewConnection(opts.Display)
	if err != nil {
		return nil, platform.DisplayInitError(err)
	}
	return NewWithDisplay(conn, opts), nil
}

// NewWithDisplay builds an Application over an existing display connection,
// taking ownership of it.
func NewWithDisplay(d Display, opts Options) *Application {
	if opts.MapTimeout <= 0 {
		opts.MapTimeout = DefaultMapTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Application{
		display: d,
		opts:    opts,
		logger:  logger.With("component", "x11"),
	}
}

// Window returns the attached window, or nil.
func (a *Application) Window() *Window {
	return a.window
}

// NewWindow creates, maps and validates a native window and then binds a
// renderer to it. The window is destroyed again if any step fails.
func (a *Application) NewWindow(title string, width, height uint32, opts platform.WindowOptions) (*Window, error) {
	if err := platform.ValidateSize(width, height); err != nil {
		return nil, err
	}
	if width > 0xffff || height > 0xffff {
		return nil, platform.WindowCreationError(fmt.Sprintf("size %dx%d exceeds the X11 limit", width, height), nil)
	}
	if a.opts.Renderer == nil {
		return nil, platform.WindowCreationError("no renderer factory configured", nil)
	}

	spec := x11.WindowSpec{
		Title:       title,
		Class:       WMClass,
		Width:       uint16(width),
		Height:      uint16(height),
		Resizable:   opts.Resizable,
		Decorations: opts.Decorations,
		AlwaysOnTop: opts.AlwaysOnTop,
	}
	if a.opts.Centered {
		if mon, err := a.display.ActiveMonitor(); err == nil {
			spec.X, spec.Y = mon.CenteredOrigin(int(width), int(height))
		} else {
			a.logger.Debug("centring skipped", "error", err)
		}
	}

	id, err := a.display.CreateWindow(spec)
	if err != nil {
		return nil, platform.WindowCreationError("create native window", err)
	}
	fail := func(err error) (*Window, error) {
		a.display.Destroy(id)
		return nil, err
	}

	if err := a.display.Map(id); err != nil {
		return fail(platform.WindowCreationError("map window", err))
	}
	if err := a.display.WaitForMap(id, a.opts.MapTimeout); err != nil {
		if errors.Is(err, x11.ErrMapTimeout) {
			return fail(platform.TimeoutError(fmt.Sprintf("window %d not mapped within %s", id, a.opts.MapTimeout)))
		}
		return fail(platform.WindowCreationError("wait for map", err))
	}
	if err := a.display.Sync(); err != nil {
		return fail(platform.WindowCreationError("sync", err))
	}
	if err := a.display.WindowValid(id); err != nil {
		return fail(platform.WindowCreationError(fmt.Sprintf("window %d is not valid", id), err))
	}
	a.logger.Debug("window mapped", "window", uint32(id), "width", width, "height", height)

	renderer, err := a.opts.Renderer(a.opts.Display, id, width, height)
	if err != nil {
		if !errors.Is(err, platform.ErrGPU) {
			err = platform.GPUError("create renderer", err)
		}
		return fail(err)
	}

	if !opts.Visible {
		if err := a.display.Unmap(id); err != nil {
			renderer.Release()
			return fail(platform.WindowCreationError("unmap hidden window", err))
		}
	}

	return &Window{
		app:      a,
		id:       id,
		title:    title,
		width:    width,
		height:   height,
		opts:     opts,
		renderer: renderer,
	}, nil
}

// SetWindow attaches w, closing any window attached before it. Windows from
// another Application, closed windows and nil are rejected without changing
// state. Attaching a different window requires Setup to run again.
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
		a.logger.Debug("replacing attached window", "previous", uint32(prev.id), "window", uint32(w.id))
		if err := prev.Close(); err != nil {
			return err
		}
	}
	if a.window != w && a.state == stateReady {
		// The delete protocol was registered on the previous window.
		a.state = stateCreated
		a.protocols, a.deleteWindow = 0, 0
	}
	a.window = w
	return nil
}

// Setup registers WM_DELETE_WINDOW on the attached window, maps it when it is
// meant to be visible, and checks that the server still knows it.
func (a *Application) Setup() error {
	w := a.window
	if w == nil {
		return platform.NoWindowSetError("setup without a window")
	}

	protocols, err := a.display.Atom("WM_PROTOCOLS")
	if err != nil {
		return platform.EventError("intern WM_PROTOCOLS", err)
	}
	deleteWindow, err := a.display.Atom("WM_DELETE_WINDOW")
	if err != nil {
		return platform.EventError("intern WM_DELETE_WINDOW", err)
	}
	if err := a.display.SetProtocols(w.id, "WM_DELETE_WINDOW"); err != nil {
		return platform.EventError("register delete protocol", err)
	}
	a.protocols, a.deleteWindow = protocols, deleteWindow

	if w.opts.Visible {
		if err := a.display.Map(w.id); err != nil {
			return platform.NoWindowSetError(fmt.Sprintf("map window %d: %v", w.id, err))
		}
	}
	if err := a.display.Sync(); err != nil {
		return platform.NoWindowSetError(fmt.Sprintf("sync: %v", err))
	}
	if err := a.display.WindowValid(w.id); err != nil {
		return platform.NoWindowSetError(fmt.Sprintf("window %d is not valid: %v", w.id, err))
	}
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

// Run pumps X events until the window manager asks the window to close.
// Expose repaints the last frame. Everything else is skipped.
func (a *Application) Run() error {
	switch {
	case a.state == stateTerminated:
		return platform.EventError("run after the event loop terminated", nil)
	case a.window == nil:
		return platform.NoWindowSetError("run without a window")
	case a.state != stateReady:
		return platform.NoWindowSetError("run before setup")
	}
	a.state = stateRunning
	w := a.window

	for {
		ev, err := a.display.NextEvent()
		if err != nil {
			a.state = stateTerminated
			if errors.Is(err, x11.ErrConnectionClosed) {
				return platform.EventError("connection to the X server lost", err)
			}
			return platform.EventError("read event", err)
		}

		switch {
		case x11.IsDeleteWindow(ev, w.id, a.protocols, a.deleteWindow):
			a.logger.Debug("close requested", "window", uint32(w.id))
			a.state = stateTerminated
			return nil
		case x11.IsDestroyed(ev, w.id):
			a.logger.Debug("window destroyed", "window", uint32(w.id))
			w.destroyed = true
			a.state = stateTerminated
			return nil
		case x11.IsExpose(ev, w.id):
			if err := w.redraw(); err != nil {
				a.logger.Warn("redraw failed", "error", err)
			}
		default:
			a.logger.Debug("event skipped", "event", fmt.Sprintf("%T", ev))
		}
	}
}

// Close releases the attached window and then the X connection.
func (a *Application) Close() error {
	if a.closed {
		return nil
	}
	var err error
	if a.window != nil {
		err = a.window.Close()
	}
	a.display.Close()
	a.closed = true
	a.state = stateTerminated
	a.logger.Debug("display closed")
	return err
}
