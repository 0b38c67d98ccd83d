//go:build darwin && cgo

package ui

import (
	"fmt"

	"github.com/1broseidon/storm/internal/gpu/metal"
	"github.com/1broseidon/storm/internal/platform/darwin"
)

const backendName = "darwin/appkit+metal"

type (
	nativeApplication = darwin.Application
	nativeWindow      = darwin.Window
)

func newNativeApplication(cfg Config) (*nativeApplication, error) {
	return darwin.New(darwin.Options{
		Metal:  metal.Config{ClearColor: cfg.Renderer.ClearColor, Logger: cfg.Logger},
		Logger: cfg.Logger,
	})
}

func describeWindow(w *nativeWindow) []Detail {
	width, height := w.Size()
	details := []Detail{{"size", fmt.Sprintf("%dx%d", width, height)}}
	if r, ok := w.Renderer().(*metal.Renderer); ok {
		details = append(details, Detail{"gpu", r.DeviceName()})
	}
	return details
}
