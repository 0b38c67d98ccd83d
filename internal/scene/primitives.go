package scene

import (
	"github.com/1broseidon/storm/internal/color"
	"github.com/1broseidon/storm/internal/geometry"
)

// DrawOrder sequences primitives within one frame. Lower values draw first.
type DrawOrder uint32

// ContentMask clips a primitive to a region.
type ContentMask struct {
	Bounds geometry.Bounds[geometry.ScaledPixels]
}

// Quad is a filled, optionally bordered and rounded rectangle.
type Quad struct {
	Order        DrawOrder
	Bounds       geometry.Bounds[geometry.ScaledPixels]
	ContentMask  ContentMask
	Background   color.Background
	BorderColor  color.Hsla
	CornerRadii  geometry.Corners[geometry.ScaledPixels]
	BorderWidths geometry.Edges[geometry.ScaledPixels]
}

// Shadow is a blurred rounded rectangle drawn beneath content.
type Shadow struct {
	Order       DrawOrder
	Bounds      geometry.Bounds[geometry.ScaledPixels]
	ContentMask ContentMask
	CornerRadii geometry.Corners[geometry.ScaledPixels]
	Color       color.Hsla
	BlurRadius  geometry.ScaledPixels
}

// Underline decorates a run of text.
type Underline struct {
	Order       DrawOrder
	Bounds      geometry.Bounds[geometry.ScaledPixels]
	ContentMask ContentMask
	Color       color.Hsla
	Thickness   geometry.ScaledPixels
	Wavy        bool
}

// AtlasTextureKind distinguishes single-channel from color atlases.
type AtlasTextureKind uint8

const (
	AtlasMonochrome AtlasTextureKind = iota
	AtlasPolychrome
	AtlasPath
)

// AtlasTextureID names one texture within the glyph/image atlas.
type AtlasTextureID struct {
	Index uint32
	Kind  AtlasTextureKind
}

// AtlasTile is a rectangle within an atlas texture.
type AtlasTile struct {
	TextureID AtlasTextureID
	TileID    uint32
	Bounds    geometry.Bounds[geometry.DevicePixels]
}

// MonochromeSprite is a tinted single-channel atlas tile, such as a glyph.
type MonochromeSprite struct {
	Order       DrawOrder
	Bounds      geometry.Bounds[geometry.ScaledPixels]
	ContentMask ContentMask
	Color       color.Hsla
	Tile        AtlasTile
}

// PolychromeSprite is a full-color atlas tile, such as an emoji or image.
type PolychromeSprite struct {
	Order       DrawOrder
	Bounds      geometry.Bounds[geometry.ScaledPixels]
	ContentMask ContentMask
	CornerRadii geometry.Corners[geometry.ScaledPixels]
	Tile        AtlasTile
	Grayscale   bool
}

// PaintSurface draws externally produced image content.
type PaintSurface struct {
	Order       DrawOrder
	Bounds      geometry.Bounds[geometry.ScaledPixels]
	ContentMask ContentMask
	ImageID     uint64
}

// PathID identifies a path within a scene.
type PathID uint32

// PathVertex is one vertex of a tessellated path.
type PathVertex struct {
	Position    geometry.Point[geometry.ScaledPixels]
	StCoords    geometry.Point[geometry.ScaledPixels]
	ContentMask ContentMask
}

// Path is a filled vector outline, already tessellated into vertices.
type Path struct {
	ID          PathID
	Order       DrawOrder
	Bounds      geometry.Bounds[geometry.ScaledPixels]
	ContentMask ContentMask
	Color       color.Background
	Vertices    []PathVertex
}
