package vulkan

import (
	"fmt"
	"slices"
)

// SelectDevice returns the first physical device, in enumeration order, with
// a queue family that supports both graphics and presentation, together with
// that family's index. There is no fallback device.
func SelectDevice(devices []PhysicalDevice) (PhysicalDevice, uint32, error) {
	for _, dev := range devices {
		for _, qf := range dev.QueueFamilies {
			if qf.Graphics && qf.Present {
				return dev, qf.Index, nil
			}
		}
	}
	return PhysicalDevice{}, 0, fmt.Errorf("no device with a graphics queue that can present to the surface (%d enumerated)", len(devices))
}

// SwapchainImageCount requests one image more than the minimum, clamped to
// the maximum when the surface is bounded.
func SwapchainImageCount(minCount, maxCount uint32) uint32 {
	n := minCount + 1
	if maxCount > 0 && n > maxCount {
		n = maxCount
	}
	return n
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, which every
// implementation must support.
func ChoosePresentMode(modes []PresentMode) PresentMode {
	if slices.Contains(modes, PresentModeMailbox) {
		return PresentModeMailbox
	}
	return PresentModeFIFO
}

// ChooseTransform uses identity when supported, otherwise the surface's
// current transform.
func ChooseTransform(caps SurfaceCapabilities) Transform {
	if caps.SupportedTransforms&TransformIdentity != 0 {
		return TransformIdentity
	}
	return caps.CurrentTransform
}

// ChooseExtent uses the surface's current extent unless the surface leaves
// it to the swapchain, in which case the window size is clamped to the
// supported range.
func ChooseExtent(caps SurfaceCapabilities, width, height uint32) Extent {
	if caps.CurrentExtent.Width != undefinedExtentMarker {
		return caps.CurrentExtent
	}
	return Extent{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseFormat takes the first reported format. A single undefined entry
// means the surface has no preference.
func ChooseFormat(formats []SurfaceFormat) (SurfaceFormat, error) {
	if len(formats) == 0 {
		return SurfaceFormat{}, fmt.Errorf("surface reports no formats")
	}
	f := formats[0]
	if len(formats) == 1 && f.Format == FormatUndefined {
		f.Format = FormatB8G8R8A8Unorm
	}
	return f, nil
}

// PlanSwapchain combines the individual choices into one plan.
func PlanSwapchain(caps SurfaceCapabilities, formats []SurfaceFormat, modes []PresentMode, width, height uint32) (SwapchainPlan, error) {
	format, err := ChooseFormat(formats)
	if err != nil {
		return SwapchainPlan{}, err
	}
	return SwapchainPlan{
		ImageCount:   SwapchainImageCount(caps.MinImageCount, caps.MaxImageCount),
		Format:       format,
		Extent:       ChooseExtent(caps, width, height),
		PreTransform: ChooseTransform(caps),
		PresentMode:  ChoosePresentMode(modes),
	}, nil
}

// PlanInstance builds the instance configuration from what the loader
// offers. Required extensions must all be present; the debug utils extension
// and validation layer are enabled only when validation is requested and
// available, and are otherwise reported in skipped.
func PlanInstance(appName string, availableExts, availableLayers []string, validation bool) (cfg InstanceConfig, skipped []string, err error) {
	cfg.AppName = appName
	for _, ext := range []string{SurfaceExtension, XlibSurfaceExtension} {
		if !slices.Contains(availableExts, ext) {
			return InstanceConfig{}, nil, fmt.Errorf("required instance extension %s is not available", ext)
		}
		cfg.Extensions = append(cfg.Extensions, ext)
	}
	if !validation {
		return cfg, nil, nil
	}
	if slices.Contains(availableExts, DebugUtilsExtension) {
		cfg.Extensions = append(cfg.Extensions, DebugUtilsExtension)
	} else {
		skipped = append(skipped, DebugUtilsExtension)
	}
	if slices.Contains(availableLayers, ValidationLayer) {
		cfg.Layers = append(cfg.Layers, ValidationLayer)
	} else {
		skipped = append(skipped, ValidationLayer)
	}
	return cfg, skipped, nil
}

func clamp(v, lo, hi uint32) uint32 {
	return max(lo, min(v, hi))
}
