package artile

import (
	"fmt"
	"log/slog"

	"github.com/robert-malhotra/go-artile/internal/sources/array"
	"github.com/robert-malhotra/go-artile/internal/sources/nd2"
	"github.com/robert-malhotra/go-artile/internal/sources/tiff"
	"github.com/robert-malhotra/go-artile/ndarray"
)

// Load classifies image and builds a tile from it with the matching
// adapter. image may be a *ndarray.Chunked, a *ndarray.Dense, or the path of
// a ".tif", ".tiff" or ".nd2" file.
//
// Chunked arrays are always loaded lazily regardless of WithDask. After
// construction the tile's Dask and LinkData flags are set from the options.
// Errors from the file readers are returned unchanged.
func Load(image any, opts ...LoadOption) (*Tile, error) {
	o := applyLoadOptions(opts)

	src, err := Classify(image)
	if err != nil {
		return nil, err
	}

	dask := o.dask
	if src.Kind == SourceChunked {
		dask = true
	}

	getLogger().Debug("load.dispatch",
		slog.String("source", src.Kind.String()),
		slog.String("path", src.Path),
		slog.Bool("dask", dask),
		slog.Bool("link_data", o.linkData))

	var tile *Tile
	switch src.Kind {
	case SourceChunked, SourceDense:
		tile, err = fromArray(src.Array, dask, o)
	case SourceTIFF:
		tile, err = fromTIFF(src.Path, dask, o)
	case SourceND2:
		tile, err = FromND2(src.Path)
	default:
		return nil, fmt.Errorf("%w: unknown source kind %s", ErrInvalidImage, src.Kind)
	}
	if err != nil {
		return nil, err
	}

	tile.Dask = dask
	tile.LinkData = o.linkData
	return tile, nil
}

// FromArray builds an array tile from an in-memory or chunked array. With
// dask set the data is held as chunks; otherwise it is materialised. The
// tile's Dask flag is set only when the result is chunked. WithDask is
// ignored in favour of the dask argument.
func FromArray(image ndarray.Array, dask bool, opts ...LoadOption) (*Tile, error) {
	return fromArray(image, dask, applyLoadOptions(opts))
}

func fromArray(image ndarray.Array, dask bool, o *loadOptions) (*Tile, error) {
	data, err := array.Read(o.ctx, image, dask, array.Options{
		ChunkBytes: o.chunkBytes,
		Workers:    o.workers,
	})
	if err != nil {
		return nil, err
	}
	return arrayTile(data), nil
}

// FromTIFF builds an array tile from a TIFF file. With dask set, pages are
// decoded on demand; otherwise the whole file is decoded now.
func FromTIFF(path string, dask bool, opts ...LoadOption) (*Tile, error) {
	return fromTIFF(path, dask, applyLoadOptions(opts))
}

func fromTIFF(path string, dask bool, o *loadOptions) (*Tile, error) {
	data, err := tiff.Read(path, dask, tiff.Options{Workers: o.workers})
	if err != nil {
		return nil, err
	}
	return arrayTile(data), nil
}

func arrayTile(data ndarray.Array) *Tile {
	t := newTile(&ArrayData{Data: data})
	if _, ok := data.(*ndarray.Chunked); ok {
		t.Dask = true
	}
	return t
}

// FromND2 builds an ND2 tile from the file's axis metadata. Pixel data is
// not read.
func FromND2(path string) (*Tile, error) {
	sizes, order, err := nd2.Read(path)
	if err != nil {
		return nil, err
	}
	return newTile(&ND2Data{
		Path:      path,
		AxisSizes: sizes,
		AxisOrder: order,
	}), nil
}

// FromLargeImage wraps a tile pyramid source. It is not reachable from Load.
func FromLargeImage(src TileSource) *Tile {
	return newTile(&LargeImageData{Source: src})
}
