package vulkan

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/platform"
)

type fakeDriver struct {
	calls   []string
	failOn  string
	devices []PhysicalDevice
	caps    SurfaceCapabilities
	formats []SurfaceFormat
	modes   []PresentMode

	instanceCfg InstanceConfig
	plan        SwapchainPlan
	waitStatus  FrameStatus
	acquire     FrameStatus
	cleared     [][4]float32
	presented   []uint32
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		devices: []PhysicalDevice{
			{Index: 0, Name: "gpu0", QueueFamilies: []QueueFamily{{Index: 0, Graphics: true, Present: true}}},
		},
		caps: SurfaceCapabilities{
			MinImageCount:       2,
			MaxImageCount:       8,
			CurrentExtent:       Extent{Width: 800, Height: 600},
			SupportedTransforms: TransformIdentity,
			CurrentTransform:    TransformIdentity,
		},
		formats: []SurfaceFormat{{Format: FormatB8G8R8A8Unorm, ColorSpace: 0}},
		modes:   []PresentMode{PresentModeFIFO},
	}
}

func (f *fakeDriver) step(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeDriver) InstanceExtensions() ([]string, error) {
	return []string{SurfaceExtension, XlibSurfaceExtension, DebugUtilsExtension}, f.step("InstanceExtensions")
}

func (f *fakeDriver) InstanceLayers() ([]string, error) {
	return nil, f.step("InstanceLayers")
}

func (f *fakeDriver) CreateInstance(cfg InstanceConfig) error {
	f.instanceCfg = cfg
	return f.step("CreateInstance")
}

func (f *fakeDriver) CreateSurface(Target) error { return f.step("CreateSurface") }

func (f *fakeDriver) PhysicalDevices() ([]PhysicalDevice, error) {
	return f.devices, f.step("PhysicalDevices")
}

func (f *fakeDriver) CreateDevice(PhysicalDevice, uint32, []string) error {
	return f.step("CreateDevice")
}

func (f *fakeDriver) SurfaceCapabilities() (SurfaceCapabilities, error) {
	return f.caps, f.step("SurfaceCapabilities")
}

func (f *fakeDriver) SurfaceFormats() ([]SurfaceFormat, error) {
	return f.formats, f.step("SurfaceFormats")
}

func (f *fakeDriver) PresentModes() ([]PresentMode, error) {
	return f.modes, f.step("PresentModes")
}

func (f *fakeDriver) CreateSwapchain(plan SwapchainPlan) (int, error) {
	f.plan = plan
	return int(plan.ImageCount), f.step("CreateSwapchain")
}

func (f *fakeDriver) CreateFrameResources() error { return f.step("CreateFrameResources") }

func (f *fakeDriver) WaitFrame(time.Duration) (FrameStatus, error) {
	return f.waitStatus, f.step("WaitFrame")
}

func (f *fakeDriver) AcquireImage(time.Duration) (uint32, FrameStatus, error) {
	return 1, f.acquire, f.step("AcquireImage")
}

func (f *fakeDriver) SubmitClear(index uint32, color [4]float32) error {
	f.cleared = append(f.cleared, color)
	return f.step("SubmitClear")
}

func (f *fakeDriver) RecoverFrame() error { return f.step("RecoverFrame") }

func (f *fakeDriver) Present(index uint32) (FrameStatus, error) {
	f.presented = append(f.presented, index)
	return FrameReady, f.step("Present")
}

func (f *fakeDriver) WaitIdle() error { return f.step("WaitIdle") }

func (f *fakeDriver) DestroyFrameResources() { f.calls = append(f.calls, "DestroyFrameResources") }
func (f *fakeDriver) DestroySwapchain()      { f.calls = append(f.calls, "DestroySwapchain") }
func (f *fakeDriver) DestroyDevice()         { f.calls = append(f.calls, "DestroyDevice") }
func (f *fakeDriver) DestroySurface()        { f.calls = append(f.calls, "DestroySurface") }
func (f *fakeDriver) DestroyInstance()       { f.calls = append(f.calls, "DestroyInstance") }

func (f *fakeDriver) callsAfter(name string) []string {
	for i, c := range f.calls {
		if c == name && i+1 < len(f.calls) {
			return f.calls[i+1:]
		}
	}
	return nil
}

var target = Target{Window: 42, Width: 800, Height: 600}

func TestSelectDeviceFirstQualifying(t *testing.T) {
	devices := []PhysicalDevice{
		{Index: 0, Name: "compute-only", QueueFamilies: []QueueFamily{{Index: 0, Graphics: false, Present: true}}},
		{Index: 1, Name: "no-present", QueueFamilies: []QueueFamily{{Index: 0, Graphics: true, Present: false}}},
		{Index: 2, Name: "good", QueueFamilies: []QueueFamily{
			{Index: 0, Graphics: true, Present: false},
			{Index: 1, Graphics: true, Present: true},
		}},
		{Index: 3, Name: "also-good", QueueFamilies: []QueueFamily{{Index: 0, Graphics: true, Present: true}}},
	}

	dev, family, err := SelectDevice(devices)
	require.NoError(t, err)
	assert.Equal(t, 2, dev.Index)
	assert.Equal(t, "good", dev.Name)
	assert.Equal(t, uint32(1), family)
}

func TestSelectDeviceNoneQualifies(t *testing.T) {
	_, _, err := SelectDevice([]PhysicalDevice{{QueueFamilies: []QueueFamily{{Graphics: true}}}})
	assert.Error(t, err)

	_, _, err = SelectDevice(nil)
	assert.Error(t, err)
}

func TestSwapchainImageCount(t *testing.T) {
	tests := []struct {
		min, max, want uint32
	}{
		{1, 1, 1},
		{2, 0, 3},
		{2, 8, 3},
		{3, 3, 3},
		{3, 4, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SwapchainImageCount(tt.min, tt.max), "min=%d max=%d", tt.min, tt.max)
	}
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, PresentModeMailbox, ChoosePresentMode([]PresentMode{PresentModeFIFO, PresentModeMailbox, PresentModeImmediate}))
	assert.Equal(t, PresentModeFIFO, ChoosePresentMode([]PresentMode{PresentModeImmediate, PresentModeFIFO}))
	assert.Equal(t, PresentModeFIFO, ChoosePresentMode(nil))
}

func TestChooseTransform(t *testing.T) {
	assert.Equal(t, TransformIdentity, ChooseTransform(SurfaceCapabilities{SupportedTransforms: TransformIdentity | 2, CurrentTransform: 2}))
	assert.Equal(t, Transform(4), ChooseTransform(SurfaceCapabilities{SupportedTransforms: 4, CurrentTransform: 4}))
}

func TestChooseExtent(t *testing.T) {
	fixed := SurfaceCapabilities{CurrentExtent: Extent{Width: 640, Height: 480}}
	assert.Equal(t, Extent{Width: 640, Height: 480}, ChooseExtent(fixed, 800, 600))

	free := SurfaceCapabilities{
		CurrentExtent:  Extent{Width: undefinedExtentMarker, Height: undefinedExtentMarker},
		MinImageExtent: Extent{Width: 100, Height: 100},
		MaxImageExtent: Extent{Width: 1000, Height: 500},
	}
	assert.Equal(t, Extent{Width: 800, Height: 500}, ChooseExtent(free, 800, 600))
	assert.Equal(t, Extent{Width: 100, Height: 100}, ChooseExtent(free, 10, 10))
}

func TestChooseFormat(t *testing.T) {
	f, err := ChooseFormat([]SurfaceFormat{{Format: 50, ColorSpace: 0}, {Format: 44}})
	require.NoError(t, err)
	assert.Equal(t, uint32(50), f.Format)

	f, err = ChooseFormat([]SurfaceFormat{{Format: FormatUndefined}})
	require.NoError(t, err)
	assert.Equal(t, FormatB8G8R8A8Unorm, f.Format)

	_, err = ChooseFormat(nil)
	assert.Error(t, err)
}

func TestPlanInstance(t *testing.T) {
	exts := []string{SurfaceExtension, XlibSurfaceExtension, DebugUtilsExtension}

	cfg, skipped, err := PlanInstance("storm", exts, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{SurfaceExtension, XlibSurfaceExtension}, cfg.Extensions)
	assert.Empty(t, cfg.Layers)
	assert.Empty(t, skipped)

	cfg, skipped, err = PlanInstance("storm", exts, nil, true)
	require.NoError(t, err)
	assert.Contains(t, cfg.Extensions, DebugUtilsExtension)
	assert.Equal(t, []string{ValidationLayer}, skipped)

	_, _, err = PlanInstance("storm", []string{SurfaceExtension}, nil, false)
	assert.Error(t, err)
}

func TestNewBootstrapOrder(t *testing.T) {
	drv := newFakeDriver()
	drv.modes = []PresentMode{PresentModeFIFO, PresentModeMailbox}

	r, err := New(drv, target, Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"InstanceExtensions", "CreateInstance", "CreateSurface", "PhysicalDevices", "CreateDevice",
		"SurfaceCapabilities", "SurfaceFormats", "PresentModes", "CreateSwapchain", "CreateFrameResources",
	}, drv.calls)

	plan, images := r.Swapchain()
	assert.Equal(t, uint32(3), plan.ImageCount)
	assert.Equal(t, 3, images)
	assert.Equal(t, PresentModeMailbox, plan.PresentMode)
	assert.Equal(t, Extent{Width: 800, Height: 600}, plan.Extent)
	assert.Equal(t, "storm", drv.instanceCfg.AppName)
}

func TestNewFailureReleasesInReverse(t *testing.T) {
	tests := []struct {
		failOn string
		want   []string
	}{
		{"CreateInstance", nil},
		{"CreateSurface", []string{"DestroyInstance"}},
		{"CreateDevice", []string{"DestroySurface", "DestroyInstance"}},
		{"CreateSwapchain", []string{"WaitIdle", "DestroyDevice", "DestroySurface", "DestroyInstance"}},
		{"CreateFrameResources", []string{"WaitIdle", "DestroySwapchain", "DestroyDevice", "DestroySurface", "DestroyInstance"}},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			drv := newFakeDriver()
			drv.failOn = tt.failOn

			r, err := New(drv, target, Config{})
			require.Error(t, err)
			assert.Nil(t, r)
			assert.True(t, errors.Is(err, platform.ErrGPU))
			assert.Equal(t, tt.want, drv.callsAfter(tt.failOn))
		})
	}
}

func TestNewFailsWithoutSuitableDevice(t *testing.T) {
	drv := newFakeDriver()
	drv.devices = []PhysicalDevice{{QueueFamilies: []QueueFamily{{Graphics: true, Present: false}}}}

	_, err := New(drv, target, Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, platform.ErrGPU))
	assert.Equal(t, []string{"DestroySurface", "DestroyInstance"}, drv.callsAfter("PhysicalDevices"))
}

func TestDrawClearsAndPresents(t *testing.T) {
	drv := newFakeDriver()
	clearColor := [4]float32{0.1, 0.2, 0.3, 1}
	r, err := New(drv, target, Config{ClearColor: clearColor})
	require.NoError(t, err)

	require.NoError(t, r.Draw([]gpu.Quad{{}}, gpu.Viewport{Width: 800, Height: 600}))
	assert.Equal(t, [][4]float32{clearColor}, drv.cleared)
	assert.Equal(t, []uint32{1}, drv.presented)
}

func TestDrawSkipsWhenNoImage(t *testing.T) {
	for _, status := range []FrameStatus{FrameTimeout, FrameOutOfDate} {
		drv := newFakeDriver()
		drv.acquire = status
		r, err := New(drv, target, Config{})
		require.NoError(t, err)

		require.NoError(t, r.Draw(nil, gpu.Viewport{}))
		assert.Empty(t, drv.cleared)
		assert.Empty(t, drv.presented)
	}
}

func TestDrawSkipsWhilePreviousFrameInFlight(t *testing.T) {
	drv := newFakeDriver()
	drv.waitStatus = FrameTimeout
	r, err := New(drv, target, Config{})
	require.NoError(t, err)

	require.NoError(t, r.Draw(nil, gpu.Viewport{}))
	assert.NotContains(t, drv.calls, "AcquireImage")
}

func TestDrawRecoversAfterFailedSubmit(t *testing.T) {
	drv := newFakeDriver()
	r, err := New(drv, target, Config{})
	require.NoError(t, err)

	drv.failOn = "SubmitClear"
	err = r.Draw(nil, gpu.Viewport{})
	assert.True(t, errors.Is(err, platform.ErrGPU))
	assert.Equal(t, []string{"RecoverFrame"}, drv.callsAfter("SubmitClear"))
	assert.Empty(t, drv.presented)

	drv.failOn = ""
	drv.calls = nil
	require.NoError(t, r.Draw(nil, gpu.Viewport{}))
	assert.Equal(t, []string{"WaitFrame", "AcquireImage", "SubmitClear", "Present"}, drv.calls)
	assert.Equal(t, []uint32{1}, drv.presented)
}

func TestReleaseIsIdempotent(t *testing.T) {
	drv := newFakeDriver()
	r, err := New(drv, target, Config{})
	require.NoError(t, err)

	r.Release()
	n := len(drv.calls)
	r.Release()
	assert.Len(t, drv.calls, n)
	assert.Equal(t, "DestroyInstance", drv.calls[n-1])

	err = r.Draw(nil, gpu.Viewport{})
	assert.True(t, errors.Is(err, platform.ErrGPU))
}
