//go:build linux && cgo

package vkdriver

/*
#cgo LDFLAGS: -lX11 -lvulkan
#include <stdlib.h>
#include <stdint.h>
#include <X11/Xlib.h>
#define VK_USE_PLATFORM_XLIB_KHR
#include <vulkan/vulkan.h>

static VkResult storm_create_xlib_surface(void *instance, Display *dpy, unsigned long window, uint64_t *out) {
	PFN_vkCreateXlibSurfaceKHR create = (PFN_vkCreateXlibSurfaceKHR)
		vkGetInstanceProcAddr((VkInstance)instance, "vkCreateXlibSurfaceKHR");
	if (create == NULL) {
		return VK_ERROR_EXTENSION_NOT_PRESENT;
	}
	VkXlibSurfaceCreateInfoKHR info = {
		.sType = VK_STRUCTURE_TYPE_XLIB_SURFACE_CREATE_INFO_KHR,
		.dpy = dpy,
		.window = (Window)window,
	};
	VkSurfaceKHR surface = VK_NULL_HANDLE;
	VkResult res = create((VkInstance)instance, &info, NULL, &surface);
	*out = (uint64_t)surface;
	return res;
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// xlibDisplay is a private Xlib connection used only to create the surface.
// X window IDs are server global, so a window created over the X protocol
// connection can be targeted from here.
type xlibDisplay struct {
	dpy *C.Display
}

func openXlibDisplay(name string) (*xlibDisplay, error) {
	var cname *C.char
	if name != "" {
		cname = C.CString(name)
		defer C.free(unsafe.Pointer(cname))
	}
	dpy := C.XOpenDisplay(cname)
	if dpy == nil {
		return nil, fmt.Errorf("XOpenDisplay(%q) failed", name)
	}
	return &xlibDisplay{dpy: dpy}, nil
}

func (d *xlibDisplay) createSurface(inst vk.Instance, window uint32) (vk.Surface, error) {
	var out C.uint64_t
	res := C.storm_create_xlib_surface(unsafe.Pointer(inst), d.dpy, C.ulong(window), &out)
	if err := newError(vk.Result(res)); err != nil {
		return vk.NullSurface, fmt.Errorf("vkCreateXlibSurfaceKHR: %w", err)
	}
	return vk.SurfaceFromPointer(uintptr(out)), nil
}

func (d *xlibDisplay) close() {
	if d == nil || d.dpy == nil {
		return
	}
	C.XCloseDisplay(d.dpy)
	d.dpy = nil
}
