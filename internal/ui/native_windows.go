package ui

import (
	"fmt"

	"github.com/1broseidon/storm/internal/platform/windows"
)

const backendName = "windows/win32"

type (
	nativeApplication = windows.Application
	nativeWindow      = windows.Window
)

func newNativeApplication(cfg Config) (*nativeApplication, error) {
	return windows.New(windows.Options{Logger: cfg.Logger})
}

func describeWindow(w *nativeWindow) []Detail {
	width, height := w.Size()
	return []Detail{
		{"size", fmt.Sprintf("%dx%d", width, height)},
		{"gpu", "unsupported"},
	}
}
