package artile

import (
	"errors"
	"fmt"
)

// Tiled is an ordered collection of tiles.
type Tiled []*Tile

// TileFunc processes one tile.
type TileFunc func(*Tile) (*Tile, error)

// WalkFunc is called for each tile in a Walk. Return ErrStopWalk to stop
// early without error.
type WalkFunc func(i int, t *Tile) error

// ErrStopWalk can be returned from a WalkFunc or TileFunc to stop
// iteration.
var ErrStopWalk = errors.New("stop walk")

// IsStopWalk reports whether err is ErrStopWalk.
func IsStopWalk(err error) bool {
	return errors.Is(err, ErrStopWalk)
}

// Walk calls fn for each tile in order. The first error stops the walk and
// is returned wrapped with the tile index, except ErrStopWalk which stops
// the walk and returns nil.
func Walk(tiles Tiled, fn WalkFunc) error {
	if fn == nil {
		return ErrNilFunc
	}
	for i, t := range tiles {
		if err := fn(i, t); err != nil {
			if IsStopWalk(err) {
				return nil
			}
			return fmt.Errorf("tile %d: %w", i, err)
		}
	}
	return nil
}

// ExecuteFunc calls fn once per tile, in order, for its side effects. The
// tiles fn returns are discarded and tiles itself is returned with its
// elements unchanged. Use MapFunc to collect the results. An empty
// collection is returned as is without inspecting fn.
func ExecuteFunc(tiles Tiled, fn TileFunc) (Tiled, error) {
	if len(tiles) == 0 {
		return tiles, nil
	}
	if fn == nil {
		return tiles, ErrNilFunc
	}
	err := Walk(tiles, func(_ int, t *Tile) error {
		_, err := fn(t)
		return err
	})
	return tiles, err
}

// MapFunc calls fn once per tile, in order, and returns a new collection
// holding its results. tiles is left untouched. If iteration is stopped
// with ErrStopWalk the result holds the tiles processed so far.
func MapFunc(tiles Tiled, fn TileFunc) (Tiled, error) {
	if len(tiles) == 0 {
		return Tiled{}, nil
	}
	if fn == nil {
		return nil, ErrNilFunc
	}
	out := make(Tiled, 0, len(tiles))
	err := Walk(tiles, func(_ int, t *Tile) error {
		r, err := fn(t)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
