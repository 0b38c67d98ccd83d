// Package geometry provides the point, size and bounds value types shared by
// scenes and renderers, parameterized over a pixel unit.
package geometry

import "github.com/chewxy/math32"

// Pixels are logical pixels before the display scale factor is applied.
type Pixels float32

// ScaledPixels are logical pixels multiplied by the display scale factor.
type ScaledPixels float32

// DevicePixels are whole physical pixels on the target surface.
type DevicePixels int32

// Scale converts logical pixels to scaled pixels.
func (p Pixels) Scale(factor float32) ScaledPixels {
	return ScaledPixels(float32(p) * factor)
}

// Floor rounds toward negative infinity onto the device pixel grid.
func (p ScaledPixels) Floor() DevicePixels {
	return DevicePixels(math32.Floor(float32(p)))
}

// Ceil rounds toward positive infinity onto the device pixel grid.
func (p ScaledPixels) Ceil() DevicePixels {
	return DevicePixels(math32.Ceil(float32(p)))
}

// Unit is any pixel unit a geometry value can be expressed in.
type Unit interface {
	~int32 | ~float32
}

// Point is a position in a 2D coordinate space.
type Point[T Unit] struct {
	X T
	Y T
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt[T Unit](x, y T) Point[T] {
	return Point[T]{X: x, Y: y}
}

func (p Point[T]) Add(q Point[T]) Point[T] {
	return Point[T]{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point[T]) Sub(q Point[T]) Point[T] {
	return Point[T]{X: p.X - q.X, Y: p.Y - q.Y}
}

// Size is a width and height pair.
type Size[T Unit] struct {
	Width  T
	Height T
}

// Sz is shorthand for Size{Width: w, Height: h}.
func Sz[T Unit](w, h T) Size[T] {
	return Size[T]{Width: w, Height: h}
}

func (s Size[T]) Add(o Size[T]) Size[T] {
	return Size[T]{Width: s.Width + o.Width, Height: s.Height + o.Height}
}

func (s Size[T]) Sub(o Size[T]) Size[T] {
	return Size[T]{Width: s.Width - o.Width, Height: s.Height - o.Height}
}

// Empty reports whether the size has no area.
func (s Size[T]) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Bounds is an axis-aligned rectangle anchored at its top-left origin.
type Bounds[T Unit] struct {
	Origin Point[T]
	Size   Size[T]
}

// Rect builds bounds from an origin and an extent.
func Rect[T Unit](x, y, w, h T) Bounds[T] {
	return Bounds[T]{Origin: Pt(x, y), Size: Sz(w, h)}
}

// Max returns the bottom-right corner.
func (b Bounds[T]) Max() Point[T] {
	return Point[T]{X: b.Origin.X + b.Size.Width, Y: b.Origin.Y + b.Size.Height}
}

// Contains reports whether p lies inside b. The right and bottom edges are exclusive.
func (b Bounds[T]) Contains(p Point[T]) bool {
	max := b.Max()
	return p.X >= b.Origin.X && p.Y >= b.Origin.Y && p.X < max.X && p.Y < max.Y
}

// Intersect returns the overlap of b and o, or zero bounds at b's origin if
// they do not overlap.
func (b Bounds[T]) Intersect(o Bounds[T]) Bounds[T] {
	bMax, oMax := b.Max(), o.Max()
	x0, y0 := max(b.Origin.X, o.Origin.X), max(b.Origin.Y, o.Origin.Y)
	x1, y1 := min(bMax.X, oMax.X), min(bMax.Y, oMax.Y)
	if x1 <= x0 || y1 <= y0 {
		return Bounds[T]{Origin: b.Origin}
	}
	return Rect(x0, y0, x1-x0, y1-y0)
}

// Translate moves b by offset.
func (b Bounds[T]) Translate(offset Point[T]) Bounds[T] {
	return Bounds[T]{Origin: b.Origin.Add(offset), Size: b.Size}
}

// ToDevice snaps scaled bounds outward onto the device pixel grid.
func ToDevice(b Bounds[ScaledPixels]) Bounds[DevicePixels] {
	max := b.Max()
	x0, y0 := b.Origin.X.Floor(), b.Origin.Y.Floor()
	x1, y1 := max.X.Ceil(), max.Y.Ceil()
	return Rect(x0, y0, x1-x0, y1-y0)
}

// Corners holds one value per rectangle corner, used for corner radii.
type Corners[T Unit] struct {
	TopLeft     T
	TopRight    T
	BottomRight T
	BottomLeft  T
}

// Edges holds one value per rectangle edge, used for border widths.
type Edges[T Unit] struct {
	Top    T
	Right  T
	Bottom T
	Left   T
}

// Uniform reports whether all four edges are equal.
func (e Edges[T]) Uniform() bool {
	return e.Top == e.Right && e.Right == e.Bottom && e.Bottom == e.Left
}
