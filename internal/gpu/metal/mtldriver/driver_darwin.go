//go:build darwin && cgo

// Package mtldriver implements the metal package interfaces with Metal and
// QuartzCore through cgo.
package mtldriver

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework Metal -framework QuartzCore -framework Foundation
#include <stdlib.h>
#include <string.h>
#import <Metal/Metal.h>
#import <QuartzCore/CAMetalLayer.h>

typedef struct {
	const char *label;
	const char *vertexFunction;
	const char *fragmentFunction;
	unsigned long pixelFormat;
	int blendEnabled;
	unsigned long rgbOperation;
	unsigned long alphaOperation;
	unsigned long sourceRGB;
	unsigned long sourceAlpha;
	unsigned long destinationRGB;
	unsigned long destinationAlpha;
	unsigned long vertexBuffer;
	unsigned long vertexStride;
} storm_pipeline_desc;

static void storm_release(CFTypeRef ref) {
	if (ref != NULL) {
		CFRelease(ref);
	}
}

static CFTypeRef storm_default_device(void) {
	id<MTLDevice> device = MTLCreateSystemDefaultDevice();
	if (device == nil) {
		return NULL;
	}
	return CFBridgingRetain(device);
}

static const char *storm_device_name(CFTypeRef ref) {
	id<MTLDevice> device = (__bridge id<MTLDevice>)ref;
	return strdup([[device name] UTF8String]);
}

static CFTypeRef storm_new_queue(CFTypeRef ref) {
	id<MTLDevice> device = (__bridge id<MTLDevice>)ref;
	id<MTLCommandQueue> queue = [device newCommandQueue];
	if (queue == nil) {
		return NULL;
	}
	return CFBridgingRetain(queue);
}

static CFTypeRef storm_new_library(CFTypeRef ref, const char *source, char **err) {
	id<MTLDevice> device = (__bridge id<MTLDevice>)ref;
	NSError *error = nil;
	id<MTLLibrary> library = [device newLibraryWithSource:[NSString stringWithUTF8String:source]
	                                              options:nil
	                                                error:&error];
	if (library == nil) {
		*err = strdup([[error localizedDescription] UTF8String]);
		return NULL;
	}
	return CFBridgingRetain(library);
}

static CFTypeRef storm_new_pipeline(CFTypeRef devRef, CFTypeRef libRef, storm_pipeline_desc d, char **err) {
	id<MTLDevice> device = (__bridge id<MTLDevice>)devRef;
	id<MTLLibrary> library = (__bridge id<MTLLibrary>)libRef;
	id<MTLFunction> vertex = [library newFunctionWithName:[NSString stringWithUTF8String:d.vertexFunction]];
	id<MTLFunction> fragment = [library newFunctionWithName:[NSString stringWithUTF8String:d.fragmentFunction]];
	if (vertex == nil || fragment == nil) {
		*err = strdup("shader function not found");
		return NULL;
	}

	MTLVertexDescriptor *vd = [MTLVertexDescriptor vertexDescriptor];
	vd.attributes[0].format = MTLVertexFormatFloat2;
	vd.attributes[0].offset = 0;
	vd.attributes[0].bufferIndex = d.vertexBuffer;
	vd.layouts[d.vertexBuffer].stride = d.vertexStride;
	vd.layouts[d.vertexBuffer].stepFunction = MTLVertexStepFunctionPerVertex;

	MTLRenderPipelineDescriptor *desc = [[MTLRenderPipelineDescriptor alloc] init];
	desc.label = [NSString stringWithUTF8String:d.label];
	desc.vertexFunction = vertex;
	desc.fragmentFunction = fragment;
	desc.vertexDescriptor = vd;
	MTLRenderPipelineColorAttachmentDescriptor *color = desc.colorAttachments[0];
	color.pixelFormat = (MTLPixelFormat)d.pixelFormat;
	color.blendingEnabled = d.blendEnabled ? YES : NO;
	color.rgbBlendOperation = (MTLBlendOperation)d.rgbOperation;
	color.alphaBlendOperation = (MTLBlendOperation)d.alphaOperation;
	color.sourceRGBBlendFactor = (MTLBlendFactor)d.sourceRGB;
	color.sourceAlphaBlendFactor = (MTLBlendFactor)d.sourceAlpha;
	color.destinationRGBBlendFactor = (MTLBlendFactor)d.destinationRGB;
	color.destinationAlphaBlendFactor = (MTLBlendFactor)d.destinationAlpha;

	NSError *error = nil;
	id<MTLRenderPipelineState> state = [device newRenderPipelineStateWithDescriptor:desc error:&error];
	if (state == nil) {
		*err = strdup([[error localizedDescription] UTF8String]);
		return NULL;
	}
	return CFBridgingRetain(state);
}

static CFTypeRef storm_new_buffer(CFTypeRef ref, const void *bytes, unsigned long length) {
	id<MTLDevice> device = (__bridge id<MTLDevice>)ref;
	id<MTLBuffer> buffer = [device newBufferWithBytes:bytes
	                                           length:length
	                                          options:MTLResourceCPUCacheModeDefaultCache];
	if (buffer == nil) {
		return NULL;
	}
	return CFBridgingRetain(buffer);
}

static CFTypeRef storm_new_command_buffer(CFTypeRef ref) {
	@autoreleasepool {
		id<MTLCommandQueue> queue = (__bridge id<MTLCommandQueue>)ref;
		id<MTLCommandBuffer> cmd = [queue commandBuffer];
		if (cmd == nil) {
			return NULL;
		}
		return CFBridgingRetain(cmd);
	}
}

static CFTypeRef storm_begin_pass(CFTypeRef cmdRef, CFTypeRef drawableRef, double r, double g, double b, double a) {
	@autoreleasepool {
		id<MTLCommandBuffer> cmd = (__bridge id<MTLCommandBuffer>)cmdRef;
		id<CAMetalDrawable> drawable = (__bridge id<CAMetalDrawable>)drawableRef;
		MTLRenderPassDescriptor *pass = [MTLRenderPassDescriptor renderPassDescriptor];
		pass.colorAttachments[0].texture = drawable.texture;
		pass.colorAttachments[0].loadAction = MTLLoadActionClear;
		pass.colorAttachments[0].storeAction = MTLStoreActionStore;
		pass.colorAttachments[0].clearColor = MTLClearColorMake(r, g, b, a);
		id<MTLRenderCommandEncoder> enc = [cmd renderCommandEncoderWithDescriptor:pass];
		return CFBridgingRetain(enc);
	}
}

static void storm_set_pipeline(CFTypeRef encRef, CFTypeRef stateRef) {
	id<MTLRenderCommandEncoder> enc = (__bridge id<MTLRenderCommandEncoder>)encRef;
	[enc setRenderPipelineState:(__bridge id<MTLRenderPipelineState>)stateRef];
}

static void storm_set_vertex_buffer(CFTypeRef encRef, CFTypeRef bufRef, unsigned long index) {
	id<MTLRenderCommandEncoder> enc = (__bridge id<MTLRenderCommandEncoder>)encRef;
	[enc setVertexBuffer:(__bridge id<MTLBuffer>)bufRef offset:0 atIndex:index];
}

static void storm_draw_instanced(CFTypeRef encRef, unsigned long vertices, unsigned long instances) {
	id<MTLRenderCommandEncoder> enc = (__bridge id<MTLRenderCommandEncoder>)encRef;
	[enc drawPrimitives:MTLPrimitiveTypeTriangleStrip vertexStart:0 vertexCount:vertices instanceCount:instances];
}

static void storm_end_encoding(CFTypeRef encRef) {
	id<MTLRenderCommandEncoder> enc = (__bridge id<MTLRenderCommandEncoder>)encRef;
	[enc endEncoding];
}

static void storm_present(CFTypeRef cmdRef, CFTypeRef drawableRef) {
	id<MTLCommandBuffer> cmd = (__bridge id<MTLCommandBuffer>)cmdRef;
	[cmd presentDrawable:(__bridge id<CAMetalDrawable>)drawableRef];
}

static void storm_commit(CFTypeRef cmdRef) {
	[(__bridge id<MTLCommandBuffer>)cmdRef commit];
}

static void storm_wait(CFTypeRef cmdRef) {
	[(__bridge id<MTLCommandBuffer>)cmdRef waitUntilCompleted];
}

static CFTypeRef storm_new_layer(CFTypeRef devRef) {
	CAMetalLayer *layer = [CAMetalLayer layer];
	layer.device = (__bridge id<MTLDevice>)devRef;
	layer.pixelFormat = MTLPixelFormatBGRA8Unorm;
	layer.opaque = NO;
	layer.maximumDrawableCount = 3;
	return CFBridgingRetain(layer);
}

static void storm_layer_set_size(CFTypeRef ref, double w, double h) {
	CAMetalLayer *layer = (__bridge CAMetalLayer *)ref;
	layer.drawableSize = CGSizeMake(w, h);
}

static CFTypeRef storm_next_drawable(CFTypeRef ref) {
	@autoreleasepool {
		CAMetalLayer *layer = (__bridge CAMetalLayer *)ref;
		id<CAMetalDrawable> drawable = [layer nextDrawable];
		if (drawable == nil) {
			return NULL;
		}
		return CFBridgingRetain(drawable);
	}
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/1broseidon/storm/internal/gpu/metal"
)

type handle = C.CFTypeRef

func takeError(msg *C.char) error {
	if msg == nil {
		return errors.New("unknown error")
	}
	defer C.free(unsafe.Pointer(msg))
	return errors.New(C.GoString(msg))
}

// Device is the system default MTLDevice and its command queue. Libraries
// are compiled once per shader source.
type Device struct {
	device    handle
	queue     handle
	libraries map[string]handle
}

var _ metal.Device = (*Device)(nil)

// NewDevice opens the system default GPU.
func NewDevice() (*Device, error) {
	dev := C.storm_default_device()
	if dev == 0 {
		return nil, errors.New("MTLCreateSystemDefaultDevice returned nil")
	}
	queue := C.storm_new_queue(dev)
	if queue == 0 {
		C.storm_release(dev)
		return nil, errors.New("newCommandQueue returned nil")
	}
	return &Device{device: dev, queue: queue, libraries: map[string]handle{}}, nil
}

func (d *Device) Name() string {
	name := C.storm_device_name(d.device)
	defer C.free(unsafe.Pointer(name))
	return C.GoString(name)
}

func (d *Device) NewBuffer(data []byte) (metal.Buffer, error) {
	if len(data) == 0 {
		return nil, errors.New("empty buffer")
	}
	bytes := C.CBytes(data)
	defer C.free(bytes)
	buf := C.storm_new_buffer(d.device, bytes, C.ulong(len(data)))
	if buf == 0 {
		return nil, fmt.Errorf("newBufferWithBytes(%d) returned nil", len(data))
	}
	return &object{ref: buf}, nil
}

func (d *Device) library(source string) (handle, error) {
	if lib, ok := d.libraries[source]; ok {
		return lib, nil
	}
	csrc := C.CString(source)
	defer C.free(unsafe.Pointer(csrc))
	var msg *C.char
	lib := C.storm_new_library(d.device, csrc, &msg)
	if lib == 0 {
		return 0, fmt.Errorf("compile shader library: %w", takeError(msg))
	}
	d.libraries[source] = lib
	return lib, nil
}

func (d *Device) NewPipeline(source string, desc metal.PipelineDescriptor) (metal.Pipeline, error) {
	lib, err := d.library(source)
	if err != nil {
		return nil, err
	}
	label := C.CString(desc.Label)
	defer C.free(unsafe.Pointer(label))
	vertex := C.CString(desc.VertexFunction)
	defer C.free(unsafe.Pointer(vertex))
	fragment := C.CString(desc.FragmentFunction)
	defer C.free(unsafe.Pointer(fragment))

	cdesc := C.storm_pipeline_desc{
		label:            label,
		vertexFunction:   vertex,
		fragmentFunction: fragment,
		pixelFormat:      C.ulong(desc.PixelFormat),
		rgbOperation:     C.ulong(desc.Blend.RGBOperation),
		alphaOperation:   C.ulong(desc.Blend.AlphaOperation),
		sourceRGB:        C.ulong(desc.Blend.SourceRGB),
		sourceAlpha:      C.ulong(desc.Blend.SourceAlpha),
		destinationRGB:   C.ulong(desc.Blend.DestinationRGB),
		destinationAlpha: C.ulong(desc.Blend.DestinationAlpha),
		vertexBuffer:     C.ulong(desc.Vertex.Buffer),
		vertexStride:     C.ulong(desc.Vertex.Stride),
	}
	if desc.Blend.Enabled {
		cdesc.blendEnabled = 1
	}
	var msg *C.char
	state := C.storm_new_pipeline(d.device, lib, cdesc, &msg)
	if state == 0 {
		return nil, fmt.Errorf("pipeline %q: %w", desc.Label, takeError(msg))
	}
	return &object{ref: state}, nil
}

func (d *Device) NewCommandBuffer() (metal.CommandBuffer, error) {
	cmd := C.storm_new_command_buffer(d.queue)
	if cmd == 0 {
		return nil, errors.New("commandBuffer returned nil")
	}
	return &commandBuffer{ref: cmd}, nil
}

func (d *Device) Release() {
	for src, lib := range d.libraries {
		C.storm_release(lib)
		delete(d.libraries, src)
	}
	C.storm_release(d.queue)
	C.storm_release(d.device)
	d.queue, d.device = 0, 0
}

// NewLayer creates a CAMetalLayer bound to d.
func (d *Device) NewLayer() *Layer {
	return &Layer{ref: C.storm_new_layer(d.device)}
}

// object is any retained Objective-C object released with CFRelease.
type object struct {
	ref handle
}

func (o *object) Release() {
	C.storm_release(o.ref)
	o.ref = 0
}

type commandBuffer struct {
	ref handle
}

func (c *commandBuffer) BeginRenderPass(d metal.Drawable, clear [4]float64) metal.RenderEncoder {
	ref := C.storm_begin_pass(c.ref, d.(*object).ref,
		C.double(clear[0]), C.double(clear[1]), C.double(clear[2]), C.double(clear[3]))
	return &encoder{ref: ref}
}

func (c *commandBuffer) Present(d metal.Drawable) { C.storm_present(c.ref, d.(*object).ref) }
func (c *commandBuffer) Commit()                  { C.storm_commit(c.ref) }
func (c *commandBuffer) WaitUntilCompleted()      { C.storm_wait(c.ref) }

func (c *commandBuffer) Release() {
	C.storm_release(c.ref)
	c.ref = 0
}

type encoder struct {
	ref handle
}

func (e *encoder) SetPipeline(p metal.Pipeline) {
	C.storm_set_pipeline(e.ref, p.(*object).ref)
}

func (e *encoder) SetVertexBuffer(b metal.Buffer, index int) {
	C.storm_set_vertex_buffer(e.ref, b.(*object).ref, C.ulong(index))
}

func (e *encoder) DrawInstanced(vertexCount, instanceCount int) {
	C.storm_draw_instanced(e.ref, C.ulong(vertexCount), C.ulong(instanceCount))
}

func (e *encoder) End() {
	C.storm_end_encoding(e.ref)
	C.storm_release(e.ref)
	e.ref = 0
}

// Layer is a CAMetalLayer. The window that hosts it owns its lifetime.
type Layer struct {
	ref handle
}

var _ metal.Layer = (*Layer)(nil)

// Pointer returns the CAMetalLayer for attaching to an NSView.
func (l *Layer) Pointer() unsafe.Pointer {
	return unsafe.Pointer(l.ref)
}

func (l *Layer) SetDrawableSize(width, height float64) {
	C.storm_layer_set_size(l.ref, C.double(width), C.double(height))
}

func (l *Layer) NextDrawable() (metal.Drawable, bool) {
	d := C.storm_next_drawable(l.ref)
	if d == 0 {
		return nil, false
	}
	return &object{ref: d}, true
}

// Release drops the Go side reference to the layer.
func (l *Layer) Release() {
	C.storm_release(l.ref)
	l.ref = 0
}
