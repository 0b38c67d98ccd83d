//go:build !linux && !windows && !(darwin && cgo)

package ui

import (
	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/platform"
)

const backendName = "unsupported"

type nativeApplication struct{}

type nativeWindow struct{}

func newNativeApplication(Config) (*nativeApplication, error) {
	return nil, platform.ErrPlatformNotSupported
}

func (*nativeApplication) NewWindow(string, uint32, uint32, platform.WindowOptions) (*nativeWindow, error) {
	return nil, platform.ErrPlatformNotSupported
}

func (*nativeApplication) SetWindow(*nativeWindow) error { return platform.ErrPlatformNotSupported }
func (*nativeApplication) Setup() error                  { return platform.ErrPlatformNotSupported }
func (*nativeApplication) Show() error                   { return platform.ErrPlatformNotSupported }
func (*nativeApplication) Run() error                    { return platform.ErrPlatformNotSupported }
func (*nativeApplication) Close() error                  { return nil }

func (*nativeWindow) Show() error                  { return platform.ErrPlatformNotSupported }
func (*nativeWindow) Hide() error                  { return platform.ErrPlatformNotSupported }
func (*nativeWindow) SetTitle(string) error        { return platform.ErrPlatformNotSupported }
func (*nativeWindow) SetSize(uint32, uint32) error { return platform.ErrPlatformNotSupported }
func (*nativeWindow) Draw([]gpu.Quad) error        { return platform.ErrPlatformNotSupported }
func (*nativeWindow) Close() error                 { return nil }

func describeWindow(*nativeWindow) []Detail { return nil }
