//go:build linux && !cgo

package vkdriver

import (
	"errors"

	"github.com/1broseidon/storm/internal/gpu/vulkan"
)

// Driver is unavailable without cgo.
type Driver struct {
	vulkan.Driver
}

// New reports that the Vulkan driver needs cgo.
func New() (*Driver, error) {
	return nil, errors.New("vulkan driver requires cgo")
}
