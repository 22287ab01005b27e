package renderer

import (
	"image"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID              int                 // Unique tile identifier, row-major over the grid
	Bounds          image.Rectangle     // Pixel bounds (x0,y0,x1,y1)
	PassesCompleted int                 // Number of passes completed for this tile
	Sampler         *core.RandomSampler // Tile-owned generator, so output does not depend on scheduling
}

// NewTile creates a tile whose sampler is seeded with seed + id
func NewTile(id int, bounds image.Rectangle, seed int64) *Tile {
	return &Tile{
		ID:      id,
		Bounds:  bounds,
		Sampler: core.NewSeededSampler(seed + int64(id)),
	}
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int, seed int64) []*Tile {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}

	var tiles []*Tile
	tileID := 0

	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, NewTile(tileID, image.Rect(x0, y0, x1, y1), seed))
			tileID++
		}
	}

	return tiles
}
