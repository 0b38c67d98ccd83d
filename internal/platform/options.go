package platform

import "fmt"

// WindowOptions controls the initial style of a native window. Options are
// read once at creation time.
type WindowOptions struct {
	Resizable   bool
	Decorations bool
	AlwaysOnTop bool
	Visible     bool
}

// DefaultWindowOptions returns a resizable, decorated, visible window that is
// not kept above others.
func DefaultWindowOptions() WindowOptions {
	return WindowOptions{
		Resizable:   true,
		Decorations: true,
		AlwaysOnTop: false,
		Visible:     true,
	}
}

// ValidateSize rejects zero window dimensions.
func ValidateSize(width, height uint32) error {
	if width == 0 || height == 0 {
		return WindowCreationError(fmt.Sprintf("invalid size %dx%d", width, height), nil)
	}
	return nil
}
