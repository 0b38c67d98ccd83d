package vulkan

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/platform"
)

// Config tunes renderer creation.
type Config struct {
	AppName        string
	Validation     bool
	ClearColor     [4]float32
	AcquireTimeout time.Duration
	Logger         *slog.Logger
}

const defaultAcquireTimeout = time.Second

// stage records how far bootstrap got, so Release unwinds exactly what exists.
type stage int

const (
	stageNone stage = iota
	stageInstance
	stageSurface
	stageDevice
	stageSwapchain
	stageFrames
)

// Renderer owns the Vulkan objects bound to one window surface.
type Renderer struct {
	drv    Driver
	cfg    Config
	logger *slog.Logger
	stage  stage

	device      PhysicalDevice
	queueFamily uint32
	plan        SwapchainPlan
	images      int
}

var _ gpu.Renderer = (*Renderer)(nil)

// New runs the bootstrap sequence against target: instance, surface,
// physical device and queue family, logical device, swapchain, frame
// resources. Any failure releases what was created and returns a GPU error.
func New(drv Driver, target Target, cfg Config) (*Renderer, error) {
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if cfg.AppName == "" {
		cfg.AppName = "storm"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{drv: drv, cfg: cfg, logger: logger.With("component", "vulkan")}
	ready := false
	defer func() {
		if !ready {
			r.Release()
		}
	}()

	exts, err := drv.InstanceExtensions()
	if err != nil {
		return nil, platform.GPUError("enumerate instance extensions", err)
	}
	var layers []string
	if cfg.Validation {
		if layers, err = drv.InstanceLayers(); err != nil {
			return nil, platform.GPUError("enumerate instance layers", err)
		}
	}
	icfg, skipped, err := PlanInstance(cfg.AppName, exts, layers, cfg.Validation)
	if err != nil {
		return nil, platform.GPUError("plan instance", err)
	}
	for _, name := range skipped {
		r.logger.Warn("validation requested but not available", "name", name)
	}
	if err := drv.CreateInstance(icfg); err != nil {
		return nil, platform.GPUError("create instance", err)
	}
	r.stage = stageInstance
	r.logger.Debug("instance created", "extensions", icfg.Extensions, "layers", icfg.Layers)

	if err := drv.CreateSurface(target); err != nil {
		return nil, platform.GPUError("create surface", err)
	}
	r.stage = stageSurface

	devices, err := drv.PhysicalDevices()
	if err != nil {
		return nil, platform.GPUError("enumerate physical devices", err)
	}
	dev, family, err := SelectDevice(devices)
	if err != nil {
		return nil, platform.GPUError("select device", err)
	}
	if err := drv.CreateDevice(dev, family, []string{SwapchainExtension}); err != nil {
		return nil, platform.GPUError("create device", err)
	}
	r.stage = stageDevice
	r.device, r.queueFamily = dev, family
	r.logger.Debug("device created", "name", dev.Name, "index", dev.Index, "queue_family", family)

	caps, err := drv.SurfaceCapabilities()
	if err != nil {
		return nil, platform.GPUError("query surface capabilities", err)
	}
	formats, err := drv.SurfaceFormats()
	if err != nil {
		return nil, platform.GPUError("query surface formats", err)
	}
	modes, err := drv.PresentModes()
	if err != nil {
		return nil, platform.GPUError("query present modes", err)
	}
	plan, err := PlanSwapchain(caps, formats, modes, target.Width, target.Height)
	if err != nil {
		return nil, platform.GPUError("plan swapchain", err)
	}
	images, err := drv.CreateSwapchain(plan)
	if err != nil {
		return nil, platform.GPUError("create swapchain", err)
	}
	r.stage = stageSwapchain
	r.plan, r.images = plan, images
	r.logger.Debug("swapchain created",
		"images", images,
		"extent", fmt.Sprintf("%dx%d", plan.Extent.Width, plan.Extent.Height),
		"present_mode", plan.PresentMode.String(),
	)

	if err := drv.CreateFrameResources(); err != nil {
		return nil, platform.GPUError("create frame resources", err)
	}
	r.stage = stageFrames
	ready = true
	return r, nil
}

// Device returns the selected physical device and queue family.
func (r *Renderer) Device() (PhysicalDevice, uint32) {
	return r.device, r.queueFamily
}

// Swapchain returns the negotiated plan and the number of images the driver created.
func (r *Renderer) Swapchain() (SwapchainPlan, int) {
	return r.plan, r.images
}

// Draw clears the next swapchain image and presents it. Frames are skipped
// silently when no image can be acquired in time or the swapchain is out of
// date.
// TODO: rasterize quads once the SPIR-V quad pipeline is built; for now they
// only count toward the debug log.
func (r *Renderer) Draw(quads []gpu.Quad, viewport gpu.Viewport) error {
	if r.stage != stageFrames {
		return platform.GPUError("draw", fmt.Errorf("renderer is not ready"))
	}
	timeout := r.cfg.AcquireTimeout

	status, err := r.drv.WaitFrame(timeout)
	if err != nil {
		return platform.GPUError("wait for previous frame", err)
	}
	if status != FrameReady {
		r.logger.Debug("frame skipped", "reason", "previous frame still in flight")
		return nil
	}

	index, status, err := r.drv.AcquireImage(timeout)
	if err != nil {
		return platform.GPUError("acquire image", err)
	}
	if status != FrameReady {
		r.logger.Debug("frame skipped", "reason", "no image acquired", "status", int(status))
		return nil
	}

	if err := r.drv.SubmitClear(index, r.cfg.ClearColor); err != nil {
		if rerr := r.drv.RecoverFrame(); rerr != nil {
			r.logger.Warn("frame recovery failed", "error", rerr)
		}
		return platform.GPUError("submit", err)
	}
	status, err = r.drv.Present(index)
	if err != nil {
		return platform.GPUError("present", err)
	}
	if status == FrameOutOfDate {
		r.logger.Debug("swapchain out of date", "image", index)
	}
	r.logger.Debug("frame presented", "image", index, "quads", len(quads), "viewport", fmt.Sprintf("%gx%g", viewport.Width, viewport.Height))
	return nil
}

// Release waits for the device to go idle and destroys every object in the
// reverse order of creation.
func (r *Renderer) Release() {
	if r == nil || r.stage == stageNone {
		return
	}
	if r.stage >= stageDevice {
		if err := r.drv.WaitIdle(); err != nil {
			r.logger.Warn("wait idle before release failed", "error", err)
		}
	}
	if r.stage >= stageFrames {
		r.drv.DestroyFrameResources()
	}
	if r.stage >= stageSwapchain {
		r.drv.DestroySwapchain()
	}
	if r.stage >= stageDevice {
		r.drv.DestroyDevice()
	}
	if r.stage >= stageSurface {
		r.drv.DestroySurface()
	}
	r.drv.DestroyInstance()
	r.stage = stageNone
	r.logger.Debug("renderer released")
}
