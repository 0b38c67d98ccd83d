// Package metal renders quads into a CAMetalLayer. The Objective-C calls live
// in mtldriver; this package holds the frame logic against small interfaces
// so it can be exercised on any OS.
package metal

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/platform"
)

// Buffer is a device buffer filled at creation time.
type Buffer interface {
	Release()
}

// Drawable is one presentable layer texture.
type Drawable interface {
	Release()
}

// Pipeline is a compiled render pipeline state.
type Pipeline interface {
	Release()
}

// RenderEncoder records draw commands for a single render pass.
type RenderEncoder interface {
	SetPipeline(p Pipeline)
	SetVertexBuffer(b Buffer, index int)
	// DrawInstanced draws a triangle strip of vertexCount vertices for each
	// of instanceCount instances.
	DrawInstanced(vertexCount, instanceCount int)
	End()
}

// CommandBuffer is one frame's worth of GPU work.
type CommandBuffer interface {
	// BeginRenderPass starts a pass that clears the drawable's texture to
	// clear and stores the result.
	BeginRenderPass(d Drawable, clear [4]float64) RenderEncoder
	Present(d Drawable)
	Commit()
	WaitUntilCompleted()
	Release()
}

// Device is the system GPU plus its command queue.
type Device interface {
	Name() string
	NewBuffer(data []byte) (Buffer, error)
	NewPipeline(source string, desc PipelineDescriptor) (Pipeline, error)
	NewCommandBuffer() (CommandBuffer, error)
	Release()
}

// Layer is the CAMetalLayer backing a window's content view.
type Layer interface {
	SetDrawableSize(width, height float64)
	// NextDrawable returns false when the layer has no texture available.
	NextDrawable() (Drawable, bool)
}

// Config tunes the renderer.
type Config struct {
	ClearColor [4]float32
	Logger     *slog.Logger
}

type frame struct {
	cmd     CommandBuffer
	buffers []Buffer
}

func (f *frame) retire() {
	f.cmd.WaitUntilCompleted()
	f.cmd.Release()
	for _, b := range f.buffers {
		b.Release()
	}
}

// Renderer owns the device objects bound to one layer.
type Renderer struct {
	device   Device
	layer    Layer
	cfg      Config
	logger   *slog.Logger
	pipeline Pipeline
	vertices Buffer

	size     gpu.Viewport
	inFlight *frame
	released bool
}

var _ gpu.Renderer = (*Renderer)(nil)

// New compiles the quad pipeline and uploads the shared unit square. The
// renderer takes ownership of device.
func New(device Device, layer Layer, cfg Config) (*Renderer, error) {
	if device == nil || layer == nil {
		return nil, platform.GPUError("create renderer", errors.New("missing device or layer"))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{device: device, layer: layer, cfg: cfg, logger: logger.With("component", "metal")}

	pipeline, err := device.NewPipeline(ShaderSource, QuadPipeline())
	if err != nil {
		device.Release()
		return nil, platform.GPUError("build quad pipeline", err)
	}
	r.pipeline = pipeline

	vertices, err := device.NewBuffer(gpu.EncodeUnitSquare())
	if err != nil {
		pipeline.Release()
		device.Release()
		return nil, platform.GPUError("create vertex buffer", err)
	}
	r.vertices = vertices
	r.logger.Debug("renderer created", "device", device.Name())
	return r, nil
}

// DeviceName returns the name of the GPU the renderer draws with.
func (r *Renderer) DeviceName() string {
	return r.device.Name()
}

// Draw encodes one frame. The previous frame's command buffer is waited on
// before its buffers are reused, so at most one frame is in flight.
func (r *Renderer) Draw(quads []gpu.Quad, viewport gpu.Viewport) error {
	if r.released {
		return platform.GPUError("draw", errors.New("renderer released"))
	}
	if viewport != r.size && !viewport.Empty() {
		r.layer.SetDrawableSize(float64(viewport.Width), float64(viewport.Height))
		r.size = viewport
	}

	drawable, ok := r.layer.NextDrawable()
	if !ok {
		r.logger.Debug("frame skipped", "reason", "no drawable")
		return nil
	}
	defer drawable.Release()

	if r.inFlight != nil {
		r.inFlight.retire()
		r.inFlight = nil
	}

	f := &frame{}
	if len(quads) > 0 {
		quadBuf, err := r.device.NewBuffer(gpu.EncodeQuads(quads))
		if err != nil {
			return platform.GPUError("create quad buffer", err)
		}
		f.buffers = append(f.buffers, quadBuf)
		viewportBuf, err := r.device.NewBuffer(gpu.EncodeViewport(viewport))
		if err != nil {
			quadBuf.Release()
			return platform.GPUError("create viewport buffer", err)
		}
		f.buffers = append(f.buffers, viewportBuf)
	}

	cmd, err := r.device.NewCommandBuffer()
	if err != nil {
		for _, b := range f.buffers {
			b.Release()
		}
		return platform.GPUError("create command buffer", err)
	}
	f.cmd = cmd

	enc := cmd.BeginRenderPass(drawable, r.clearColor())
	enc.SetPipeline(r.pipeline)
	enc.SetVertexBuffer(r.vertices, vertexBufferIndex)
	if len(quads) > 0 {
		enc.SetVertexBuffer(f.buffers[0], quadBufferIndex)
		enc.SetVertexBuffer(f.buffers[1], viewportBufferIndex)
		enc.DrawInstanced(len(gpu.UnitSquare), len(quads))
	}
	enc.End()
	cmd.Present(drawable)
	cmd.Commit()
	r.inFlight = f

	r.logger.Debug("frame committed", "quads", len(quads), "viewport", fmt.Sprintf("%gx%g", viewport.Width, viewport.Height))
	return nil
}

func (r *Renderer) clearColor() [4]float64 {
	var c [4]float64
	for i, v := range r.cfg.ClearColor {
		c[i] = float64(v)
	}
	return c
}

// Release waits for the frame in flight and frees the pipeline, the shared
// buffer and the device.
func (r *Renderer) Release() {
	if r == nil || r.released {
		return
	}
	r.released = true
	if r.inFlight != nil {
		r.inFlight.retire()
		r.inFlight = nil
	}
	r.vertices.Release()
	r.pipeline.Release()
	r.device.Release()
	r.logger.Debug("renderer released")
}
