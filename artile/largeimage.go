package artile

import (
	"context"
	"image"
)

// TileMetadata describes a tile pyramid.
type TileMetadata struct {
	SizeX, SizeY          int
	TileWidth, TileHeight int
	// Levels is the number of pyramid levels; level 0 is full resolution.
	Levels        int
	Magnification float64
}

// TileSource is a tile-addressed image pyramid, such as a whole slide image.
type TileSource interface {
	Metadata() TileMetadata
	Tile(ctx context.Context, level, x, y int) (image.Image, error)
}
