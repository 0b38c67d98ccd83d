package ui

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/gpu/vulkan"
	"github.com/1broseidon/storm/internal/gpu/vulkan/vkdriver"
	"github.com/1broseidon/storm/internal/platform"
	"github.com/1broseidon/storm/internal/platform/linux"
)

const backendName = "linux/x11+vulkan"

type (
	nativeApplication = linux.Application
	nativeWindow      = linux.Window
)

func newNativeApplication(cfg Config) (*nativeApplication, error) {
	vcfg := vulkan.Config{
		AppName:        "storm",
		Validation:     cfg.Renderer.Validation,
		ClearColor:     cfg.Renderer.ClearColor,
		AcquireTimeout: cfg.Renderer.AcquireTimeout,
		Logger:         cfg.Logger,
	}
	return linux.New(linux.Options{
		Display:    cfg.Display,
		MapTimeout: cfg.MapTimeout,
		Centered:   cfg.Centered,
		Logger:     cfg.Logger,
		Renderer: func(display string, win xproto.Window, width, height uint32) (gpu.Renderer, error) {
			drv, err := vkdriver.New()
			if err != nil {
				return nil, platform.GPUError("load vulkan", err)
			}
			return vulkan.New(drv, vulkan.Target{
				Display: display,
				Window:  uint32(win),
				Width:   width,
				Height:  height,
			}, vcfg)
		},
	})
}

func describeWindow(w *nativeWindow) []Detail {
	width, height := w.Size()
	details := []Detail{
		{"window", fmt.Sprintf("0x%x", uint32(w.ID()))},
		{"size", fmt.Sprintf("%dx%d", width, height)},
	}
	r, ok := w.Renderer().(*vulkan.Renderer)
	if !ok {
		return details
	}
	dev, family := r.Device()
	plan, images := r.Swapchain()
	return append(details,
		Detail{"gpu", dev.Name},
		Detail{"queue family", fmt.Sprint(family)},
		Detail{"swapchain images", fmt.Sprint(images)},
		Detail{"extent", fmt.Sprintf("%dx%d", plan.Extent.Width, plan.Extent.Height)},
		Detail{"present mode", plan.PresentMode.String()},
	)
}
