package linux

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/platform"
)

// Window is one X11 top-level window and the renderer bound to it.
type Window struct {
	app      *Application
	id       xproto.Window
	title    string
	width    uint32
	height   uint32
	opts     platform.WindowOptions
	renderer gpu.Renderer

	quads     []gpu.Quad
	closed    bool
	destroyed bool
}

var _ platform.WindowBehavior = (*Window)(nil)

// ID returns the X window id.
func (w *Window) ID() xproto.Window { return w.id }

// Title returns the current title.
func (w *Window) Title() string { return w.title }

// Size returns the current size in pixels.
func (w *Window) Size() (uint32, uint32) { return w.width, w.height }

// Renderer returns the renderer bound to the window.
func (w *Window) Renderer() gpu.Renderer { return w.renderer }

func (w *Window) checkOpen(op string) error {
	if w.closed {
		return platform.WindowCreationError(fmt.Sprintf("%s: window is closed", op), nil)
	}
	return nil
}

// Show maps the window and repaints the last frame.
func (w *Window) Show() error {
	if err := w.checkOpen("show"); err != nil {
		return err
	}
	if err := w.app.display.Map(w.id); err != nil {
		return platform.WindowCreationError("map window", err)
	}
	return w.redraw()
}

// Hide unmaps the window.
func (w *Window) Hide() error {
	if err := w.checkOpen("hide"); err != nil {
		return err
	}
	if err := w.app.display.Unmap(w.id); err != nil {
		return platform.WindowCreationError("unmap window", err)
	}
	return nil
}

// SetTitle updates WM_NAME and _NET_WM_NAME.
func (w *Window) SetTitle(title string) error {
	if err := w.checkOpen("set title"); err != nil {
		return err
	}
	if err := w.app.display.SetTitle(w.id, title); err != nil {
		return platform.WindowCreationError("set title", err)
	}
	w.title = title
	return nil
}

// SetSize resizes the window. The swapchain keeps its original extent.
func (w *Window) SetSize(width, height uint32) error {
	if err := w.checkOpen("set size"); err != nil {
		return err
	}
	if err := platform.ValidateSize(width, height); err != nil {
		return err
	}
	if width > 0xffff || height > 0xffff {
		return platform.WindowCreationError(fmt.Sprintf("size %dx%d exceeds the X11 limit", width, height), nil)
	}
	if err := w.app.display.Resize(w.id, uint16(width), uint16(height), w.opts.Resizable); err != nil {
		return platform.WindowCreationError("resize window", err)
	}
	w.width, w.height = width, height
	return nil
}

// Draw renders quads and keeps them for Expose repaints.
func (w *Window) Draw(quads []gpu.Quad) error {
	if err := w.checkOpen("draw"); err != nil {
		return err
	}
	w.quads = append(w.quads[:0], quads...)
	return w.redraw()
}

func (w *Window) redraw() error {
	if w.closed || w.renderer == nil {
		return nil
	}
	return w.renderer.Draw(w.quads, gpu.Viewport{Width: float32(w.width), Height: float32(w.height)})
}

// Close releases the renderer and then destroys the native window.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.renderer != nil {
		w.renderer.Release()
	}
	if !w.destroyed {
		w.app.display.Destroy(w.id)
	}
	if w.app.window == w {
		w.app.window = nil
	}
	w.app.logger.Debug("window closed", "window", uint32(w.id))
	return nil
}
