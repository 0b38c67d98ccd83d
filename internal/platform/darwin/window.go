//go:build darwin && cgo

package darwin

import (
	"fmt"

	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/gpu/metal"
	"github.com/1broseidon/storm/internal/gpu/metal/mtldriver"
	"github.com/1broseidon/storm/internal/platform"
)

// Window is one NSWindow with a CAMetalLayer content view.
type Window struct {
	app      *Application
	ns       *nsWindow
	layer    *mtldriver.Layer
	renderer *metal.Renderer
	title    string
	width    uint32
	height   uint32
	quads    []gpu.Quad
	closed   bool
}

var _ platform.WindowBehavior = (*Window)(nil)

// Title returns the current title.
func (w *Window) Title() string { return w.title }

// Size returns the requested content size in points.
func (w *Window) Size() (uint32, uint32) { return w.width, w.height }

// Renderer returns the renderer bound to the window.
func (w *Window) Renderer() gpu.Renderer { return w.renderer }

func (w *Window) checkOpen(op string) error {
	if w.closed {
		return platform.WindowCreationError(fmt.Sprintf("%s: window is closed", op), nil)
	}
	return nil
}

// Show orders the window front and draws the last frame.
func (w *Window) Show() error {
	if err := w.checkOpen("show"); err != nil {
		return err
	}
	w.ns.show()
	return w.redraw()
}

// Hide orders the window out.
func (w *Window) Hide() error {
	if err := w.checkOpen("hide"); err != nil {
		return err
	}
	w.ns.hide()
	return nil
}

func (w *Window) SetTitle(title string) error {
	if err := w.checkOpen("set title"); err != nil {
		return err
	}
	w.ns.setTitle(title)
	w.title = title
	return nil
}

func (w *Window) SetSize(width, height uint32) error {
	if err := w.checkOpen("set size"); err != nil {
		return err
	}
	if err := platform.ValidateSize(width, height); err != nil {
		return err
	}
	w.ns.setSize(width, height)
	w.width, w.height = width, height
	return nil
}

// Draw renders quads and keeps them for later repaints.
func (w *Window) Draw(quads []gpu.Quad) error {
	if err := w.checkOpen("draw"); err != nil {
		return err
	}
	w.quads = append(w.quads[:0], quads...)
	return w.redraw()
}

func (w *Window) redraw() error {
	width, height := w.ns.contentSize()
	return w.renderer.Draw(w.quads, gpu.Viewport{Width: float32(width), Height: float32(height)})
}

// Close releases the renderer and layer, then the native window.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.renderer.Release()
	w.layer.Release()
	w.ns.destroy()
	if w.app.window == w {
		w.app.window = nil
	}
	return nil
}
