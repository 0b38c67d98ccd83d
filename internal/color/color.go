// Package color defines the colors used by scene primitives.
package color

import (
	"fmt"

	"github.com/chewxy/math32"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Hsla is a color in hue/saturation/lightness space with alpha. Hue is in
// degrees [0, 360); saturation, lightness and alpha are in [0, 1].
type Hsla struct {
	H float32
	S float32
	L float32
	A float32
}

// Rgba is a linear-space-agnostic color with float channels in [0, 1], laid
// out the way shaders read it.
type Rgba struct {
	R float32
	G float32
	B float32
	A float32
}

var (
	Transparent = Hsla{}
	Black       = Hsla{H: 0, S: 0, L: 0, A: 1}
	White       = Hsla{H: 0, S: 0, L: 1, A: 1}
	Red         = Hsla{H: 0, S: 1, L: 0.5, A: 1}
)

// Mul scales alpha by factor, leaving the color channels untouched.
func (c Hsla) Mul(factor float32) Hsla {
	c.A = clamp01(c.A * factor)
	return c
}

// Opaque reports whether the color has full alpha.
func (c Hsla) Opaque() bool {
	return c.A >= 1
}

// Rgba converts c to RGB with alpha carried through.
func (c Hsla) Rgba() Rgba {
	h := math32.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	col := colorful.Hsl(float64(h), float64(clamp01(c.S)), float64(clamp01(c.L))).Clamped()
	return Rgba{R: float32(col.R), G: float32(col.G), B: float32(col.B), A: clamp01(c.A)}
}

// Array returns the channels in RGBA order.
func (c Rgba) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// Hsla converts c back to hue/saturation/lightness.
func (c Rgba) Hsla() Hsla {
	h, s, l := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Hsl()
	return Hsla{H: float32(h), S: float32(s), L: float32(l), A: c.A}
}

// ParseHex parses "#rgb" or "#rrggbb" into an opaque color.
func ParseHex(s string) (Hsla, error) {
	col, err := colorful.Hex(s)
	if err != nil {
		return Hsla{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	h, sat, l := col.Hsl()
	return Hsla{H: float32(h), S: float32(sat), L: float32(l), A: 1}, nil
}

// Background is what fills a primitive. Only solid fills exist today.
type Background struct {
	Solid Hsla
}

// Solid returns a background filled with c.
func Solid(c Hsla) Background {
	return Background{Solid: c}
}

// Mul scales the background's alpha by factor.
func (b Background) Mul(factor float32) Background {
	return Background{Solid: b.Solid.Mul(factor)}
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}
