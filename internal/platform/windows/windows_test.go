//go:build windows

package windows

import (
	"errors"
	"testing"

	"github.com/1broseidon/storm/internal/platform"
)

func TestWindowStyle(t *testing.T) {
	tests := []struct {
		name        string
		opts        platform.WindowOptions
		wantStyle   uint32
		wantTopmost bool
	}{
		{"defaults", platform.DefaultWindowOptions(), _WS_OVERLAPPEDWINDOW, false},
		{"fixed size", platform.WindowOptions{Decorations: true}, _WS_OVERLAPPEDWINDOW &^ (_WS_THICKFRAME | _WS_MAXIMIZEBOX), false},
		{"borderless", platform.WindowOptions{Resizable: true}, _WS_POPUP, false},
		{"always on top", platform.WindowOptions{Resizable: true, Decorations: true, AlwaysOnTop: true}, _WS_OVERLAPPEDWINDOW, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style, exStyle := windowStyle(tt.opts)
			want := tt.wantStyle | _WS_CLIPSIBLINGS | _WS_CLIPCHILDREN
			if style != want {
				t.Errorf("style = %#x, want %#x", style, want)
			}
			if got := exStyle&_WS_EX_TOPMOST != 0; got != tt.wantTopmost {
				t.Errorf("topmost = %v, want %v", got, tt.wantTopmost)
			}
		})
	}
}

func TestDrawUnsupported(t *testing.T) {
	w := &Window{}
	if err := w.Draw(nil); !errors.Is(err, platform.ErrUnsupported) {
		t.Errorf("Draw() error = %v, want ErrUnsupported", err)
	}
}
