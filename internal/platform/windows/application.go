//go:build windows

// Package windows implements the platform Application and Window on Win32.
// No GPU surface exists on this backend, so drawing reports ErrUnsupported.
package windows

import (
	"log/slog"
	"runtime"
	"unsafe"

	sys "golang.org/x/sys/windows"

	"github.com/1broseidon/storm/internal/platform"
)

func init() {
	// Win32 delivers messages to the thread that created the window.
	runtime.LockOSThread()
}

const className = "StormWindow"

// Options configures the backend.
type Options struct {
	Logger *slog.Logger
}

type state int

const (
	stateCreated state = iota
	stateReady
	stateRunning
	stateTerminated
)

// Application owns the registered window class and at most one window.
type Application struct {
	logger *slog.Logger
	hInst  sys.Handle
	class  uint16
	window *Window
	state  state
	closed bool
}

var _ platform.ApplicationBehavior[*Window] = (*Application)(nil)

// liveWindows maps native handles to their Window so windowProc can find them.
var liveWindows = map[sys.Handle]*Window{}

// New registers the window class.
func New(opts Options) (*Application, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hInst, err := getModuleHandle()
	if err != nil {
		return nil, platform.DisplayInitError(err)
	}
	cursor, err := loadCursor(_IDC_ARROW)
	if err != nil {
		return nil, platform.DisplayInitError(err)
	}
	name, err := sys.UTF16PtrFromString(className)
	if err != nil {
		return nil, platform.DisplayInitError(err)
	}
	cls, err := registerClassEx(&wndClassEx{
		cbSize:        uint32(unsafe.Sizeof(wndClassEx{})),
		style:         _CS_HREDRAW | _CS_VREDRAW | _CS_OWNDC,
		lpfnWndProc:   sys.NewCallback(windowProc),
		hInstance:     hInst,
		hCursor:       cursor,
		hbrBackground: sys.Handle(_COLOR_WINDOW + 1),
		lpszClassName: name,
	})
	if err != nil {
		return nil, platform.DisplayInitError(err)
	}
	return &Application{logger: logger.With("component", "win32"), hInst: hInst, class: cls}, nil
}

// Window returns the attached window, or nil.
func (a *Application) Window() *Window {
	return a.window
}

// windowStyle maps options to Win32 window and extended styles.
func windowStyle(opts platform.WindowOptions) (style, exStyle uint32) {
	style = _WS_OVERLAPPEDWINDOW
	if !opts.Resizable {
		style &^= _WS_THICKFRAME | _WS_MAXIMIZEBOX
	}
	if !opts.Decorations {
		style = _WS_POPUP
	}
	style |= _WS_CLIPSIBLINGS | _WS_CLIPCHILDREN
	exStyle = _WS_EX_APPWINDOW | _WS_EX_WINDOWEDGE
	if opts.AlwaysOnTop {
		exStyle |= _WS_EX_TOPMOST
	}
	return style, exStyle
}

// outerSize returns the window size whose client area is width by height.
func outerSize(width, height uint32, style, exStyle uint32) (int32, int32) {
	r := rect{right: int32(width), bottom: int32(height)}
	adjustWindowRectEx(&r, style, exStyle)
	return r.right - r.left, r.bottom - r.top
}

// NewWindow creates a native window at the default position. Win32 windows
// are usable as soon as CreateWindowEx returns.
func (a *Application) NewWindow(title string, width, height uint32, opts platform.WindowOptions) (*Window, error) {
	if err := platform.ValidateSize(width, height); err != nil {
		return nil, err
	}
	style, exStyle := windowStyle(opts)
	w, h := outerSize(width, height, style, exStyle)
	hwnd, err := createWindowEx(exStyle, a.class, title, style, _CW_USEDEFAULT, _CW_USEDEFAULT, w, h, a.hInst)
	if err != nil {
		return nil, platform.WindowCreationError("create native window", err)
	}
	win := &Window{
		app:     a,
		hwnd:    hwnd,
		title:   title,
		width:   width,
		height:  height,
		style:   style,
		exStyle: exStyle,
	}
	liveWindows[hwnd] = win
	if opts.Visible {
		showWindow(hwnd, _SW_SHOWNORMAL)
		updateWindow(hwnd)
	}
	a.logger.Debug("window created", "width", width, "height", height)
	return win, nil
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

// Setup has nothing to negotiate on Win32.
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

// Run pumps the thread's message queue until WM_QUIT.
func (a *Application) Run() error {
	if a.state == stateTerminated {
		return platform.EventError("run after the event loop terminated", nil)
	}
	a.state = stateRunning
	var m msg
	for {
		switch getMessage(&m) {
		case 0:
			a.state = stateTerminated
			return nil
		case -1:
			a.state = stateTerminated
			return platform.EventError("GetMessageW failed", sys.GetLastError())
		}
		translateMessage(&m)
		dispatchMessage(&m)
	}
}

// Close destroys the attached window and unregisters the window class.
func (a *Application) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.state = stateTerminated
	var err error
	if a.window != nil {
		err = a.window.Close()
	}
	unregisterClass(a.class, a.hInst)
	return err
}

func windowProc(hwnd sys.Handle, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case _WM_CLOSE:
		destroyWindow(hwnd)
		return 0
	case _WM_DESTROY:
		w := liveWindows[hwnd]
		delete(liveWindows, hwnd)
		if w != nil && !w.closed {
			w.closed = true
			postQuitMessage(0)
		}
		return 0
	}
	return defWindowProc(hwnd, msg, wParam, lParam)
}
