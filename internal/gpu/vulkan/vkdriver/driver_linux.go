//go:build linux && cgo

// Package vkdriver implements the renderer's Vulkan driver on top of
// github.com/vulkan-go/vulkan, with Xlib surfaces for X11 windows.
package vkdriver

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/1broseidon/storm/internal/gpu/vulkan"
)

var (
	loaderOnce sync.Once
	loaderErr  error
)

func initLoader() error {
	loaderOnce.Do(func() {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			loaderErr = fmt.Errorf("load vulkan loader: %w", err)
			return
		}
		if err := vk.Init(); err != nil {
			loaderErr = fmt.Errorf("init vulkan: %w", err)
		}
	})
	return loaderErr
}

func newError(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	return fmt.Errorf("vulkan error: %s (%d)", vk.Error(ret).Error(), ret)
}

// clearColor stores c as the float32 member of the VkClearColorValue union.
func clearColor(c [4]float32) vk.ClearColorValue {
	var v vk.ClearColorValue
	*(*[4]float32)(unsafe.Pointer(&v)) = c
	return v
}

func safeString(s string) string {
	return s + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

// Driver holds every Vulkan object for one window surface.
type Driver struct {
	xlib     *xlibDisplay
	instance vk.Instance
	surface  vk.Surface
	gpus     []vk.PhysicalDevice

	gpu       vk.PhysicalDevice
	device    vk.Device
	queue     vk.Queue
	family    uint32
	swapchain vk.Swapchain
	images    []vk.Image

	pool           vk.CommandPool
	cmd            vk.CommandBuffer
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       vk.Fence
}

var _ vulkan.Driver = (*Driver)(nil)

// New loads the system Vulkan loader.
func New() (*Driver, error) {
	if err := initLoader(); err != nil {
		return nil, err
	}
	return &Driver{}, nil
}

func (d *Driver) InstanceExtensions() ([]string, error) {
	var count uint32
	if err := newError(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	if err := newError(vk.EnumerateInstanceExtensionProperties("", &count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list))
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

func (d *Driver) InstanceLayers() ([]string, error) {
	var count uint32
	if err := newError(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.LayerProperties, count)
	if err := newError(vk.EnumerateInstanceLayerProperties(&count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list))
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

func (d *Driver) CreateInstance(cfg vulkan.InstanceConfig) error {
	exts := safeStrings(cfg.Extensions)
	layers := safeStrings(cfg.Layers)
	var inst vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PApplicationName:   safeString(cfg.AppName),
			PEngineName:        safeString(cfg.AppName),
		},
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: exts,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &inst)
	if err := newError(ret); err != nil {
		return err
	}
	d.instance = inst
	if err := vk.InitInstance(inst); err != nil {
		d.DestroyInstance()
		return fmt.Errorf("load instance functions: %w", err)
	}
	return nil
}

func (d *Driver) CreateSurface(target vulkan.Target) error {
	xd, err := openXlibDisplay(target.Display)
	if err != nil {
		return err
	}
	surface, err := xd.createSurface(d.instance, target.Window)
	if err != nil {
		xd.close()
		return err
	}
	d.xlib, d.surface = xd, surface
	return nil
}

func (d *Driver) PhysicalDevices() ([]vulkan.PhysicalDevice, error) {
	var count uint32
	if err := newError(vk.EnumeratePhysicalDevices(d.instance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.New("no GPU devices found")
	}
	gpus := make([]vk.PhysicalDevice, count)
	if err := newError(vk.EnumeratePhysicalDevices(d.instance, &count, gpus)); err != nil {
		return nil, err
	}
	d.gpus = gpus

	out := make([]vulkan.PhysicalDevice, 0, len(gpus))
	for i, gpu := range gpus {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(gpu, &props)
		props.Deref()

		var qcount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &qcount, nil)
		qprops := make([]vk.QueueFamilyProperties, qcount)
		vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &qcount, qprops)

		dev := vulkan.PhysicalDevice{Index: i, Name: vk.ToString(props.DeviceName[:])}
		for q := uint32(0); q < qcount; q++ {
			qprops[q].Deref()
			var present vk.Bool32
			vk.GetPhysicalDeviceSurfaceSupport(gpu, q, d.surface, &present)
			dev.QueueFamilies = append(dev.QueueFamilies, vulkan.QueueFamily{
				Index:    q,
				Graphics: qprops[q].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
				Present:  present.B(),
			})
		}
		out = append(out, dev)
	}
	return out, nil
}

func (d *Driver) CreateDevice(dev vulkan.PhysicalDevice, queueFamily uint32, extensions []string) error {
	if dev.Index < 0 || dev.Index >= len(d.gpus) {
		return fmt.Errorf("physical device %d was not enumerated", dev.Index)
	}
	gpu := d.gpus[dev.Index]

	var supported vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &supported)
	supported.Deref()
	features := vk.PhysicalDeviceFeatures{}
	if supported.ShaderClipDistance.B() {
		features.ShaderClipDistance = vk.True
	}

	exts := safeStrings(extensions)
	var device vk.Device
	ret := vk.CreateDevice(gpu, &vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: queueFamily,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: exts,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}, nil, &device)
	if err := newError(ret); err != nil {
		return err
	}
	d.gpu, d.device, d.family = gpu, device, queueFamily

	var queue vk.Queue
	vk.GetDeviceQueue(device, queueFamily, 0, &queue)
	d.queue = queue
	return nil
}

func (d *Driver) SurfaceCapabilities() (vulkan.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := newError(vk.GetPhysicalDeviceSurfaceCapabilities(d.gpu, d.surface, &caps)); err != nil {
		return vulkan.SurfaceCapabilities{}, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return vulkan.SurfaceCapabilities{
		MinImageCount:       caps.MinImageCount,
		MaxImageCount:       caps.MaxImageCount,
		CurrentExtent:       vulkan.Extent{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
		MinImageExtent:      vulkan.Extent{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
		MaxImageExtent:      vulkan.Extent{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
		SupportedTransforms: vulkan.Transform(caps.SupportedTransforms),
		CurrentTransform:    vulkan.Transform(caps.CurrentTransform),
	}, nil
}

func (d *Driver) SurfaceFormats() ([]vulkan.SurfaceFormat, error) {
	var count uint32
	if err := newError(vk.GetPhysicalDeviceSurfaceFormats(d.gpu, d.surface, &count, nil)); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := newError(vk.GetPhysicalDeviceSurfaceFormats(d.gpu, d.surface, &count, formats)); err != nil {
		return nil, err
	}
	out := make([]vulkan.SurfaceFormat, 0, len(formats))
	for _, f := range formats {
		f.Deref()
		out = append(out, vulkan.SurfaceFormat{Format: uint32(f.Format), ColorSpace: uint32(f.ColorSpace)})
	}
	return out, nil
}

func (d *Driver) PresentModes() ([]vulkan.PresentMode, error) {
	var count uint32
	if err := newError(vk.GetPhysicalDeviceSurfacePresentModes(d.gpu, d.surface, &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := newError(vk.GetPhysicalDeviceSurfacePresentModes(d.gpu, d.surface, &count, modes)); err != nil {
		return nil, err
	}
	out := make([]vulkan.PresentMode, 0, len(modes))
	for _, m := range modes {
		out = append(out, vulkan.PresentMode(m))
	}
	return out, nil
}

func (d *Driver) CreateSwapchain(plan vulkan.SwapchainPlan) (int, error) {
	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(d.device, &vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         d.surface,
		MinImageCount:   plan.ImageCount,
		ImageFormat:     vk.Format(plan.Format.Format),
		ImageColorSpace: vk.ColorSpace(plan.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  plan.Extent.Width,
			Height: plan.Extent.Height,
		},
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		PreTransform:     vk.SurfaceTransformFlagBits(plan.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      vk.PresentMode(plan.PresentMode),
		Clipped:          vk.True,
	}, nil, &swapchain)
	if err := newError(ret); err != nil {
		return 0, err
	}
	d.swapchain = swapchain

	var count uint32
	if err := newError(vk.GetSwapchainImages(d.device, swapchain, &count, nil)); err != nil {
		d.DestroySwapchain()
		return 0, err
	}
	images := make([]vk.Image, count)
	if err := newError(vk.GetSwapchainImages(d.device, swapchain, &count, images)); err != nil {
		d.DestroySwapchain()
		return 0, err
	}
	d.images = images
	return len(images), nil
}

// CreateFrameResources creates the command pool and buffer, the acquire and
// render semaphores, and the in-flight fence. A partial failure destroys
// whatever was created.
func (d *Driver) CreateFrameResources() (err error) {
	defer func() {
		if err != nil {
			d.DestroyFrameResources()
		}
	}()

	var pool vk.CommandPool
	ret := vk.CreateCommandPool(d.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.family,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if err := newError(ret); err != nil {
		return err
	}
	d.pool = pool

	cmds := make([]vk.CommandBuffer, 1)
	ret = vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cmds)
	if err := newError(ret); err != nil {
		return err
	}
	d.cmd = cmds[0]

	semInfo := &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	if err := newError(vk.CreateSemaphore(d.device, semInfo, nil, &d.imageAvailable)); err != nil {
		return err
	}
	if err := newError(vk.CreateSemaphore(d.device, semInfo, nil, &d.renderFinished)); err != nil {
		return err
	}
	return newError(vk.CreateFence(d.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}, nil, &d.inFlight))
}

func (d *Driver) WaitFrame(timeout time.Duration) (vulkan.FrameStatus, error) {
	ret := vk.WaitForFences(d.device, 1, []vk.Fence{d.inFlight}, vk.True, uint64(timeout.Nanoseconds()))
	switch ret {
	case vk.Success:
		return vulkan.FrameReady, nil
	case vk.Timeout:
		return vulkan.FrameTimeout, nil
	}
	return vulkan.FrameTimeout, newError(ret)
}

func (d *Driver) AcquireImage(timeout time.Duration) (uint32, vulkan.FrameStatus, error) {
	var index uint32
	ret := vk.AcquireNextImage(d.device, d.swapchain, uint64(timeout.Nanoseconds()), d.imageAvailable, vk.NullFence, &index)
	switch ret {
	case vk.Success, vk.Suboptimal:
		return index, vulkan.FrameReady, nil
	case vk.Timeout, vk.NotReady:
		return 0, vulkan.FrameTimeout, nil
	case vk.ErrorOutOfDate:
		return 0, vulkan.FrameOutOfDate, nil
	}
	return 0, vulkan.FrameTimeout, newError(ret)
}

func (d *Driver) SubmitClear(index uint32, color [4]float32) error {
	if int(index) >= len(d.images) {
		return fmt.Errorf("image index %d out of range", index)
	}
	image := d.images[index]
	colorRange := vk.ImageSubresourceRange{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LevelCount: 1,
		LayerCount: 1,
	}

	if err := newError(vk.ResetCommandBuffer(d.cmd, 0)); err != nil {
		return err
	}
	ret := vk.BeginCommandBuffer(d.cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if err := newError(ret); err != nil {
		return err
	}

	vk.CmdPipelineBarrier(d.cmd,
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			DstAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
			OldLayout:           vk.ImageLayoutUndefined,
			NewLayout:           vk.ImageLayoutTransferDstOptimal,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               image,
			SubresourceRange:    colorRange,
		}})

	clear := clearColor(color)
	vk.CmdClearColorImage(d.cmd, image, vk.ImageLayoutTransferDstOptimal, &clear, 1, []vk.ImageSubresourceRange{colorRange})

	vk.CmdPipelineBarrier(d.cmd,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccessMask:       vk.AccessFlags(vk.AccessMemoryReadBit),
			OldLayout:           vk.ImageLayoutTransferDstOptimal,
			NewLayout:           vk.ImageLayoutPresentSrc,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               image,
			SubresourceRange:    colorRange,
		}})

	if err := newError(vk.EndCommandBuffer(d.cmd)); err != nil {
		return err
	}

	// Reset as late as possible. A failed submit is undone by RecoverFrame.
	if err := newError(vk.ResetFences(d.device, 1, []vk.Fence{d.inFlight})); err != nil {
		return err
	}
	return newError(vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{d.imageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageTransferBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{d.cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{d.renderFinished},
	}}, d.inFlight))
}

// RecoverFrame consumes the acquire semaphore with an empty batch that also
// signals the in-flight fence when a reset left it unsignaled. If the queue
// rejects that batch, both objects are recreated once the device is idle.
func (d *Driver) RecoverFrame() error {
	if d.device == nil || d.inFlight == nil {
		return nil
	}
	fence := vk.NullFence
	if vk.GetFenceStatus(d.device, d.inFlight) == vk.NotReady {
		fence = d.inFlight
	}
	ret := vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.imageAvailable},
		PWaitDstStageMask:  []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)},
	}}, fence)
	if ret == vk.Success {
		return nil
	}

	vk.DeviceWaitIdle(d.device)
	vk.DestroyFence(d.device, d.inFlight, nil)
	d.inFlight = nil
	vk.DestroySemaphore(d.device, d.imageAvailable, nil)
	d.imageAvailable = nil
	semInfo := &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	if err := newError(vk.CreateSemaphore(d.device, semInfo, nil, &d.imageAvailable)); err != nil {
		return err
	}
	return newError(vk.CreateFence(d.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}, nil, &d.inFlight))
}

func (d *Driver) Present(index uint32) (vulkan.FrameStatus, error) {
	ret := vk.QueuePresent(d.queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.swapchain},
		PImageIndices:      []uint32{index},
	})
	switch ret {
	case vk.Success, vk.Suboptimal:
		return vulkan.FrameReady, nil
	case vk.ErrorOutOfDate:
		return vulkan.FrameOutOfDate, nil
	}
	return vulkan.FrameTimeout, newError(ret)
}

func (d *Driver) WaitIdle() error {
	if d.device == nil {
		return nil
	}
	return newError(vk.DeviceWaitIdle(d.device))
}

func (d *Driver) DestroyFrameResources() {
	if d.device == nil {
		return
	}
	if d.inFlight != nil {
		vk.DestroyFence(d.device, d.inFlight, nil)
		d.inFlight = nil
	}
	if d.renderFinished != nil {
		vk.DestroySemaphore(d.device, d.renderFinished, nil)
		d.renderFinished = nil
	}
	if d.imageAvailable != nil {
		vk.DestroySemaphore(d.device, d.imageAvailable, nil)
		d.imageAvailable = nil
	}
	if d.pool != nil {
		vk.DestroyCommandPool(d.device, d.pool, nil)
		d.pool = nil
		d.cmd = nil
	}
}

func (d *Driver) DestroySwapchain() {
	if d.device == nil || d.swapchain == vk.NullSwapchain {
		return
	}
	vk.DestroySwapchain(d.device, d.swapchain, nil)
	d.swapchain = vk.NullSwapchain
	d.images = nil
}

func (d *Driver) DestroyDevice() {
	if d.device == nil {
		return
	}
	vk.DestroyDevice(d.device, nil)
	d.device = nil
	d.queue = nil
}

// DestroySurface destroys the surface and then closes the Xlib display it
// was created against.
func (d *Driver) DestroySurface() {
	if d.surface != vk.NullSurface {
		vk.DestroySurface(d.instance, d.surface, nil)
		d.surface = vk.NullSurface
	}
	d.xlib.close()
	d.xlib = nil
}

func (d *Driver) DestroyInstance() {
	if d.instance == nil {
		return
	}
	vk.DestroyInstance(d.instance, nil)
	d.instance = nil
	d.gpus = nil
}
