package metal

import _ "embed"

// ShaderSource is the Metal Shading Language source for every pipeline the
// renderer builds. It is compiled by the device at startup.
//
//go:embed shaders.metal
var ShaderSource string

// PixelFormat mirrors MTLPixelFormat.
type PixelFormat uint32

// PixelFormatBGRA8Unorm is the drawable format used for every layer.
const PixelFormatBGRA8Unorm PixelFormat = 80

// BlendFactor mirrors MTLBlendFactor.
type BlendFactor uint32

const (
	BlendZero                BlendFactor = 0
	BlendOne                 BlendFactor = 1
	BlendSourceAlpha         BlendFactor = 4
	BlendOneMinusSourceAlpha BlendFactor = 5
)

// BlendOperation mirrors MTLBlendOperation.
type BlendOperation uint32

const BlendAdd BlendOperation = 0

// Blend describes the blend state of the single color attachment.
type Blend struct {
	Enabled          bool
	RGBOperation     BlendOperation
	AlphaOperation   BlendOperation
	SourceRGB        BlendFactor
	SourceAlpha      BlendFactor
	DestinationRGB   BlendFactor
	DestinationAlpha BlendFactor
}

// VertexLayout describes the per-vertex buffer feeding attribute 0.
type VertexLayout struct {
	Buffer     int
	Stride     int
	Components int
}

// PipelineDescriptor is everything a device needs to build a render pipeline.
type PipelineDescriptor struct {
	Label            string
	VertexFunction   string
	FragmentFunction string
	PixelFormat      PixelFormat
	Blend            Blend
	Vertex           VertexLayout
}

// Buffer indices shared with shaders.metal.
const (
	vertexBufferIndex   = 0
	quadBufferIndex     = 1
	viewportBufferIndex = 2
)

// QuadPipeline returns the descriptor for instanced quads. Colour is blended
// with source alpha, and alpha accumulates additively.
func QuadPipeline() PipelineDescriptor {
	return PipelineDescriptor{
		Label:            "quads",
		VertexFunction:   "quad_vertex",
		FragmentFunction: "quad_fragment",
		PixelFormat:      PixelFormatBGRA8Unorm,
		Blend: Blend{
			Enabled:          true,
			RGBOperation:     BlendAdd,
			AlphaOperation:   BlendAdd,
			SourceRGB:        BlendSourceAlpha,
			SourceAlpha:      BlendOne,
			DestinationRGB:   BlendOneMinusSourceAlpha,
			DestinationAlpha: BlendOne,
		},
		Vertex: VertexLayout{Buffer: vertexBufferIndex, Stride: 8, Components: 2},
	}
}
