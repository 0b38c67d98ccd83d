// Package gpu defines what platform windows need from a GPU surface renderer
// and the per-instance data layout shared with the shaders.
package gpu

import (
	"encoding/binary"
	"math"

	"github.com/1broseidon/storm/internal/geometry"
	"github.com/1broseidon/storm/internal/scene"
)

// Renderer draws into the surface bound to one native window. Renderers are
// created once per window and released before the window is destroyed.
type Renderer interface {
	// Draw submits one frame. If no presentable image is available the frame
	// is skipped without error.
	Draw(quads []Quad, viewport Viewport) error
	// Release frees every GPU resource in reverse creation order. It is safe
	// to call more than once.
	Release()
}

// Viewport is the drawable size in pixels.
type Viewport = geometry.Size[float32]

// Quad is the per-instance record consumed by the quad shaders. The field
// order and float32 layout must match the shader struct.
type Quad struct {
	Origin [2]float32
	Size   [2]float32
	Color  [4]float32
}

// QuadStride is the encoded size of one Quad in bytes.
const QuadStride = 8 * 4

// UnitSquare is the triangle-strip vertex base every quad instance expands.
var UnitSquare = [4][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

// EncodeQuads lays quads out as tightly packed little-endian float32 records.
func EncodeQuads(quads []Quad) []byte {
	buf := make([]byte, 0, len(quads)*QuadStride)
	for _, q := range quads {
		buf = appendFloats(buf, q.Origin[:]...)
		buf = appendFloats(buf, q.Size[:]...)
		buf = appendFloats(buf, q.Color[:]...)
	}
	return buf
}

// EncodeViewport lays the viewport out as two float32 values.
func EncodeViewport(v Viewport) []byte {
	return appendFloats(make([]byte, 0, 8), v.Width, v.Height)
}

// EncodeUnitSquare lays out the shared vertex base.
func EncodeUnitSquare() []byte {
	buf := make([]byte, 0, len(UnitSquare)*8)
	for _, v := range UnitSquare {
		buf = appendFloats(buf, v[:]...)
	}
	return buf
}

func appendFloats(buf []byte, vals ...float32) []byte {
	for _, v := range vals {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

// QuadsFromScene converts the scene's quads, already in draw order, into
// GPU instance records. Only solid backgrounds are rendered.
func QuadsFromScene(s *scene.Scene) []Quad {
	if s == nil {
		return nil
	}
	out := make([]Quad, 0, len(s.Quads))
	for _, q := range s.Quads {
		c := q.Background.Solid.Rgba()
		out = append(out, Quad{
			Origin: [2]float32{float32(q.Bounds.Origin.X), float32(q.Bounds.Origin.Y)},
			Size:   [2]float32{float32(q.Bounds.Size.Width), float32(q.Bounds.Size.Height)},
			Color:  c.Array(),
		})
	}
	return out
}
