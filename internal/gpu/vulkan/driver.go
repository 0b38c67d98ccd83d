// Package vulkan bootstraps a Vulkan instance, surface, device and swapchain
// for one native window and drives its frame loop. The Vulkan API itself is
// reached through a Driver, so negotiation and ordering can be tested without
// a GPU.
package vulkan

import "time"

// Extension and layer names.
const (
	SurfaceExtension      = "VK_KHR_surface"
	XlibSurfaceExtension  = "VK_KHR_xlib_surface"
	DebugUtilsExtension   = "VK_EXT_debug_utils"
	SwapchainExtension    = "VK_KHR_swapchain"
	ValidationLayer       = "VK_LAYER_KHRONOS_validation"
	undefinedExtentMarker = ^uint32(0)
)

// Format values mirror VkFormat.
const (
	FormatUndefined     uint32 = 0
	FormatB8G8R8A8Unorm uint32 = 44
)

// PresentMode mirrors VkPresentModeKHR.
type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFIFO:
		return "fifo"
	case PresentModeFIFORelaxed:
		return "fifo_relaxed"
	}
	return "unknown"
}

// Transform mirrors VkSurfaceTransformFlagBitsKHR.
type Transform uint32

const TransformIdentity Transform = 1

// Extent is a swapchain image size.
type Extent struct {
	Width  uint32
	Height uint32
}

// SurfaceCapabilities is the subset of VkSurfaceCapabilitiesKHR used to plan
// a swapchain. MaxImageCount is zero when the surface is unbounded.
type SurfaceCapabilities struct {
	MinImageCount       uint32
	MaxImageCount       uint32
	CurrentExtent       Extent
	MinImageExtent      Extent
	MaxImageExtent      Extent
	SupportedTransforms Transform
	CurrentTransform    Transform
}

// SurfaceFormat pairs a VkFormat with a VkColorSpaceKHR.
type SurfaceFormat struct {
	Format     uint32
	ColorSpace uint32
}

// QueueFamily describes one queue family of a physical device. Present is
// support for presenting to the renderer's surface.
type QueueFamily struct {
	Index    uint32
	Graphics bool
	Present  bool
}

// PhysicalDevice is one enumerated GPU. Index is the enumeration position.
type PhysicalDevice struct {
	Index         int
	Name          string
	QueueFamilies []QueueFamily
}

// InstanceConfig selects the instance extensions and layers to enable.
type InstanceConfig struct {
	AppName    string
	Extensions []string
	Layers     []string
}

// SwapchainPlan is the negotiated swapchain configuration.
type SwapchainPlan struct {
	ImageCount   uint32
	Format       SurfaceFormat
	Extent       Extent
	PreTransform Transform
	PresentMode  PresentMode
}

// Target identifies the native window a surface is created for.
type Target struct {
	// Display is the X display name; empty means $DISPLAY.
	Display string
	Window  uint32
	Width   uint32
	Height  uint32
}

// FrameStatus reports whether a swapchain operation produced a usable frame.
type FrameStatus int

const (
	FrameReady FrameStatus = iota
	FrameTimeout
	FrameOutOfDate
)

// Driver is the Vulkan API surface the renderer needs. Each Create call may
// assume every earlier step succeeded; Destroy calls must tolerate objects
// that were never created.
type Driver interface {
	InstanceExtensions() ([]string, error)
	InstanceLayers() ([]string, error)
	CreateInstance(cfg InstanceConfig) error
	CreateSurface(target Target) error
	PhysicalDevices() ([]PhysicalDevice, error)
	CreateDevice(dev PhysicalDevice, queueFamily uint32, extensions []string) error
	SurfaceCapabilities() (SurfaceCapabilities, error)
	SurfaceFormats() ([]SurfaceFormat, error)
	PresentModes() ([]PresentMode, error)
	CreateSwapchain(plan SwapchainPlan) (images int, err error)
	CreateFrameResources() error

	// WaitFrame blocks until the previous frame's submission has finished.
	WaitFrame(timeout time.Duration) (FrameStatus, error)
	AcquireImage(timeout time.Duration) (index uint32, status FrameStatus, err error)
	// SubmitClear records and submits a clear of image index to color,
	// leaving the image ready to present.
	SubmitClear(index uint32, color [4]float32) error
	// RecoverFrame restores the idle frame state after SubmitClear failed:
	// the acquire semaphore is unsignaled and the in-flight fence signaled.
	RecoverFrame() error
	Present(index uint32) (FrameStatus, error)
	WaitIdle() error

	DestroyFrameResources()
	DestroySwapchain()
	DestroyDevice()
	DestroySurface()
	DestroyInstance()
}
