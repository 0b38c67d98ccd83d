// Package scene collects the primitives drawn in one frame and groups them
// into ordered batches a renderer can submit with one pipeline each.
package scene

import (
	"cmp"
	"slices"
)

// Scene holds the primitives for a single frame.
type Scene struct {
	Paths             []Path
	Shadows           []Shadow
	Quads             []Quad
	Underlines        []Underline
	MonochromeSprites []MonochromeSprite
	PolychromeSprites []PolychromeSprite
	Surfaces          []PaintSurface

	nextOrder DrawOrder
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{}
}

// Clear empties the scene for reuse, keeping allocated capacity.
func (s *Scene) Clear() {
	s.Paths = s.Paths[:0]
	s.Shadows = s.Shadows[:0]
	s.Quads = s.Quads[:0]
	s.Underlines = s.Underlines[:0]
	s.MonochromeSprites = s.MonochromeSprites[:0]
	s.PolychromeSprites = s.PolychromeSprites[:0]
	s.Surfaces = s.Surfaces[:0]
	s.nextOrder = 0
}

// Len returns the number of primitives in the scene.
func (s *Scene) Len() int {
	return len(s.Paths) + len(s.Shadows) + len(s.Quads) + len(s.Underlines) +
		len(s.MonochromeSprites) + len(s.PolychromeSprites) + len(s.Surfaces)
}

func (s *Scene) order() DrawOrder {
	o := s.nextOrder
	s.nextOrder++
	return o
}

// InsertQuad appends q in painter's order.
func (s *Scene) InsertQuad(q Quad) {
	q.Order = s.order()
	s.Quads = append(s.Quads, q)
}

// InsertShadow appends sh in painter's order.
func (s *Scene) InsertShadow(sh Shadow) {
	sh.Order = s.order()
	s.Shadows = append(s.Shadows, sh)
}

// InsertUnderline appends u in painter's order.
func (s *Scene) InsertUnderline(u Underline) {
	u.Order = s.order()
	s.Underlines = append(s.Underlines, u)
}

// InsertMonochromeSprite appends sp in painter's order.
func (s *Scene) InsertMonochromeSprite(sp MonochromeSprite) {
	sp.Order = s.order()
	s.MonochromeSprites = append(s.MonochromeSprites, sp)
}

// InsertPolychromeSprite appends sp in painter's order.
func (s *Scene) InsertPolychromeSprite(sp PolychromeSprite) {
	sp.Order = s.order()
	s.PolychromeSprites = append(s.PolychromeSprites, sp)
}

// InsertSurface appends ps in painter's order.
func (s *Scene) InsertSurface(ps PaintSurface) {
	ps.Order = s.order()
	s.Surfaces = append(s.Surfaces, ps)
}

// InsertPath appends p in painter's order and assigns its ID.
func (s *Scene) InsertPath(p Path) {
	p.ID = PathID(len(s.Paths))
	p.Order = s.order()
	s.Paths = append(s.Paths, p)
}

// Finish sorts every primitive list by draw order. Call it once after all
// primitives have been inserted and before Batches.
func (s *Scene) Finish() {
	sortByOrder(s.Paths, func(p Path) DrawOrder { return p.Order })
	sortByOrder(s.Shadows, func(p Shadow) DrawOrder { return p.Order })
	sortByOrder(s.Quads, func(p Quad) DrawOrder { return p.Order })
	sortByOrder(s.Underlines, func(p Underline) DrawOrder { return p.Order })
	sortByOrder(s.MonochromeSprites, func(p MonochromeSprite) DrawOrder { return p.Order })
	sortByOrder(s.PolychromeSprites, func(p PolychromeSprite) DrawOrder { return p.Order })
	sortByOrder(s.Surfaces, func(p PaintSurface) DrawOrder { return p.Order })
}

func sortByOrder[T any](items []T, order func(T) DrawOrder) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(order(a), order(b))
	})
}

// Kind identifies the primitive type of a batch. Kinds are also the tie
// breaker when two primitives share a draw order.
type Kind uint8

const (
	KindShadows Kind = iota
	KindQuads
	KindPaths
	KindUnderlines
	KindMonochromeSprites
	KindPolychromeSprites
	KindSurfaces
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindShadows:
		return "shadows"
	case KindQuads:
		return "quads"
	case KindPaths:
		return "paths"
	case KindUnderlines:
		return "underlines"
	case KindMonochromeSprites:
		return "monochrome_sprites"
	case KindPolychromeSprites:
		return "polychrome_sprites"
	case KindSurfaces:
		return "surfaces"
	default:
		return "unknown"
	}
}

// PrimitiveBatch is a contiguous run of one primitive kind. Only the slice
// matching Kind is set. Sprite batches share a single atlas texture.
type PrimitiveBatch struct {
	Kind              Kind
	TextureID         AtlasTextureID
	Shadows           []Shadow
	Quads             []Quad
	Paths             []Path
	Underlines        []Underline
	MonochromeSprites []MonochromeSprite
	PolychromeSprites []PolychromeSprite
	Surfaces          []PaintSurface
}

// Len returns the number of primitives in the batch.
func (b PrimitiveBatch) Len() int {
	switch b.Kind {
	case KindShadows:
		return len(b.Shadows)
	case KindQuads:
		return len(b.Quads)
	case KindPaths:
		return len(b.Paths)
	case KindUnderlines:
		return len(b.Underlines)
	case KindMonochromeSprites:
		return len(b.MonochromeSprites)
	case KindPolychromeSprites:
		return len(b.PolychromeSprites)
	case KindSurfaces:
		return len(b.Surfaces)
	}
	return 0
}

// Batches groups the finished scene into runs in draw order. A run of one
// kind ends when a primitive of another kind must be drawn in between, or,
// for sprites, when the atlas texture changes.
func (s *Scene) Batches() []PrimitiveBatch {
	var cursor [kindCount]int
	lens := [kindCount]int{
		len(s.Shadows), len(s.Quads), len(s.Paths), len(s.Underlines),
		len(s.MonochromeSprites), len(s.PolychromeSprites), len(s.Surfaces),
	}
	orderAt := func(k Kind, i int) DrawOrder {
		switch k {
		case KindShadows:
			return s.Shadows[i].Order
		case KindQuads:
			return s.Quads[i].Order
		case KindPaths:
			return s.Paths[i].Order
		case KindUnderlines:
			return s.Underlines[i].Order
		case KindMonochromeSprites:
			return s.MonochromeSprites[i].Order
		case KindPolychromeSprites:
			return s.PolychromeSprites[i].Order
		default:
			return s.Surfaces[i].Order
		}
	}
	// before reports whether (order a, kind ka) draws before (order b, kind kb).
	before := func(a DrawOrder, ka Kind, b DrawOrder, kb Kind) bool {
		return a < b || (a == b && ka < kb)
	}

	var batches []PrimitiveBatch
	for {
		// Pick the kind whose next primitive draws first, and remember the runner-up.
		best, next := kindCount, kindCount
		for k := Kind(0); k < kindCount; k++ {
			if cursor[k] >= lens[k] {
				continue
			}
			o := orderAt(k, cursor[k])
			switch {
			case best == kindCount || before(o, k, orderAt(best, cursor[best]), best):
				next = best
				best = k
			case next == kindCount || before(o, k, orderAt(next, cursor[next]), next):
				next = k
			}
		}
		if best == kindCount {
			return batches
		}

		start := cursor[best]
		end := start + 1
		for end < lens[best] {
			if next != kindCount && !before(orderAt(best, end), best, orderAt(next, cursor[next]), next) {
				break
			}
			if !s.sameTexture(best, start, end) {
				break
			}
			end++
		}
		cursor[best] = end
		batches = append(batches, s.batch(best, start, end))
	}
}

func (s *Scene) sameTexture(k Kind, i, j int) bool {
	switch k {
	case KindMonochromeSprites:
		return s.MonochromeSprites[i].Tile.TextureID == s.MonochromeSprites[j].Tile.TextureID
	case KindPolychromeSprites:
		return s.PolychromeSprites[i].Tile.TextureID == s.PolychromeSprites[j].Tile.TextureID
	}
	return true
}

func (s *Scene) batch(k Kind, start, end int) PrimitiveBatch {
	b := PrimitiveBatch{Kind: k}
	switch k {
	case KindShadows:
		b.Shadows = s.Shadows[start:end]
	case KindQuads:
		b.Quads = s.Quads[start:end]
	case KindPaths:
		b.Paths = s.Paths[start:end]
	case KindUnderlines:
		b.Underlines = s.Underlines[start:end]
	case KindMonochromeSprites:
		b.MonochromeSprites = s.MonochromeSprites[start:end]
		b.TextureID = s.MonochromeSprites[start].Tile.TextureID
	case KindPolychromeSprites:
		b.PolychromeSprites = s.PolychromeSprites[start:end]
		b.TextureID = s.PolychromeSprites[start].Tile.TextureID
	case KindSurfaces:
		b.Surfaces = s.Surfaces[start:end]
	}
	return b
}
