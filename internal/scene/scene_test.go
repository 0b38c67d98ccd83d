package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/storm/internal/color"
	"github.com/1broseidon/storm/internal/geometry"
)

func quad(x float32) Quad {
	return Quad{
		Bounds:     geometry.Rect[geometry.ScaledPixels](geometry.ScaledPixels(x), 0, 10, 10),
		Background: color.Solid(color.Red),
	}
}

func TestEmptySceneHasNoBatches(t *testing.T) {
	s := New()
	s.Finish()
	assert.Empty(t, s.Batches())
	assert.Equal(t, 0, s.Len())
}

func TestConsecutiveQuadsShareABatch(t *testing.T) {
	s := New()
	s.InsertQuad(quad(0))
	s.InsertQuad(quad(10))
	s.InsertQuad(quad(20))
	s.Finish()

	batches := s.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, KindQuads, batches[0].Kind)
	assert.Equal(t, 3, batches[0].Len())
}

func TestInterleavedKindsSplitBatches(t *testing.T) {
	s := New()
	s.InsertQuad(quad(0))
	s.InsertShadow(Shadow{})
	s.InsertQuad(quad(10))
	s.InsertQuad(quad(20))
	s.InsertUnderline(Underline{})
	s.Finish()

	batches := s.Batches()
	kinds := make([]Kind, 0, len(batches))
	for _, b := range batches {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []Kind{KindQuads, KindShadows, KindQuads, KindUnderlines}, kinds)
	assert.Equal(t, 2, batches[2].Len())
}

func TestSpriteBatchesSplitOnTextureChange(t *testing.T) {
	texA := AtlasTextureID{Index: 0, Kind: AtlasMonochrome}
	texB := AtlasTextureID{Index: 1, Kind: AtlasMonochrome}

	s := New()
	s.InsertMonochromeSprite(MonochromeSprite{Tile: AtlasTile{TextureID: texA}})
	s.InsertMonochromeSprite(MonochromeSprite{Tile: AtlasTile{TextureID: texA}})
	s.InsertMonochromeSprite(MonochromeSprite{Tile: AtlasTile{TextureID: texB}})
	s.Finish()

	batches := s.Batches()
	require.Len(t, batches, 2)
	assert.Equal(t, texA, batches[0].TextureID)
	assert.Equal(t, 2, batches[0].Len())
	assert.Equal(t, texB, batches[1].TextureID)
}

func TestEqualOrderBreaksTiesByKind(t *testing.T) {
	s := &Scene{
		Quads:   []Quad{{Order: 1}},
		Shadows: []Shadow{{Order: 1}},
	}
	s.Finish()

	batches := s.Batches()
	require.Len(t, batches, 2)
	assert.Equal(t, KindShadows, batches[0].Kind)
	assert.Equal(t, KindQuads, batches[1].Kind)
}

func TestFinishSortsByOrder(t *testing.T) {
	s := &Scene{Quads: []Quad{{Order: 3}, {Order: 1}, {Order: 2}}}
	s.Finish()

	assert.Equal(t, DrawOrder(1), s.Quads[0].Order)
	assert.Equal(t, DrawOrder(3), s.Quads[2].Order)
}

func TestInsertPathAssignsIDs(t *testing.T) {
	s := New()
	s.InsertPath(Path{})
	s.InsertPath(Path{})

	assert.Equal(t, PathID(0), s.Paths[0].ID)
	assert.Equal(t, PathID(1), s.Paths[1].ID)
}

func TestClearResetsOrder(t *testing.T) {
	s := New()
	s.InsertQuad(quad(0))
	s.InsertQuad(quad(1))
	s.Clear()
	s.InsertQuad(quad(2))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, DrawOrder(0), s.Quads[0].Order)
}
