//go:build windows

package windows

import (
	"fmt"

	sys "golang.org/x/sys/windows"

	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/platform"
)

// Window is one Win32 top-level window.
type Window struct {
	app     *Application
	hwnd    sys.Handle
	title   string
	width   uint32
	height  uint32
	style   uint32
	exStyle uint32
	closed  bool
}

var _ platform.WindowBehavior = (*Window)(nil)

// Title returns the current title.
func (w *Window) Title() string { return w.title }

// Size returns the client size in pixels.
func (w *Window) Size() (uint32, uint32) { return w.width, w.height }

func (w *Window) checkOpen(op string) error {
	if w.closed {
		return platform.WindowCreationError(fmt.Sprintf("%s: window is closed", op), nil)
	}
	return nil
}

func (w *Window) Show() error {
	if err := w.checkOpen("show"); err != nil {
		return err
	}
	showWindow(w.hwnd, _SW_SHOWNORMAL)
	updateWindow(w.hwnd)
	return nil
}

func (w *Window) Hide() error {
	if err := w.checkOpen("hide"); err != nil {
		return err
	}
	showWindow(w.hwnd, _SW_HIDE)
	return nil
}

func (w *Window) SetTitle(title string) error {
	if err := w.checkOpen("set title"); err != nil {
		return err
	}
	if err := setWindowText(w.hwnd, title); err != nil {
		return platform.WindowCreationError("set title", err)
	}
	w.title = title
	return nil
}

// SetSize resizes the client area to width by height.
func (w *Window) SetSize(width, height uint32) error {
	if err := w.checkOpen("set size"); err != nil {
		return err
	}
	if err := platform.ValidateSize(width, height); err != nil {
		return err
	}
	ow, oh := outerSize(width, height, w.style, w.exStyle)
	if err := setWindowPos(w.hwnd, ow, oh); err != nil {
		return platform.WindowCreationError("resize window", err)
	}
	w.width, w.height = width, height
	return nil
}

// Draw always fails: this backend has no GPU surface.
func (w *Window) Draw([]gpu.Quad) error {
	return platform.UnsupportedError("draw on windows")
}

// Close destroys the native window without ending the message loop.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	destroyWindow(w.hwnd)
	if w.app.window == w {
		w.app.window = nil
	}
	return nil
}
