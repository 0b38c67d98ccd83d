package platform

import "github.com/1broseidon/storm/internal/gpu"

// ApplicationBehavior abstracts the process-wide connection to a native
// windowing system. Exactly one implementation is compiled per target OS.
type ApplicationBehavior[W WindowBehavior] interface {
	// NewWindow creates a native window and its GPU surface. The window is
	// owned by the caller until it is passed to SetWindow.
	NewWindow(title string, width, height uint32, opts WindowOptions) (W, error)
	// SetWindow transfers ownership of w to the application, closing any
	// previously attached window.
	SetWindow(w W) error
	// Setup performs one-time post-creation negotiation with the window system.
	Setup() error
	// Show forwards to the attached window, if any.
	Show() error
	// Run blocks pumping native events until the window is closed.
	Run() error
	// Close releases the attached window and then the native connection.
	Close() error
}

// WindowBehavior abstracts one native window and the renderer bound to it.
type WindowBehavior interface {
	Show() error
	Hide() error
	SetTitle(title string) error
	SetSize(width, height uint32) error
	// Draw renders quads into the window and remembers them for redraws.
	Draw(quads []gpu.Quad) error
	Close() error
}
