package ndarray

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkBytes is the target chunk size used by AutoChunks callers.
const DefaultChunkBytes = 128 << 20

// ChunkFunc loads the chunk at the given grid index. The returned array must
// have the chunk's extent, which is clipped at the array edges.
type ChunkFunc func(ctx context.Context, index []int) (*Dense, error)

// Chunked is a lazily evaluated array split into a regular grid of chunks.
// Nothing is read until Chunk or Compute is called.
type Chunked struct {
	shape   []int
	chunks  []int
	dtype   DType
	load    ChunkFunc
	workers int
}

// NewChunked creates a chunked array whose chunks are produced by load.
func NewChunked(dtype DType, shape, chunks []int, load ChunkFunc) (*Chunked, error) {
	if !dtype.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrDType, dtype)
	}
	if _, err := numElements(shape); err != nil {
		return nil, err
	}
	if len(chunks) != len(shape) {
		return nil, fmt.Errorf("%w: chunk rank %d does not match array rank %d", ErrShape, len(chunks), len(shape))
	}
	for d, c := range chunks {
		if c < 1 {
			return nil, fmt.Errorf("%w: chunk dimension %d is %d", ErrShape, d, c)
		}
	}
	if load == nil {
		return nil, fmt.Errorf("nil chunk loader")
	}
	return &Chunked{
		shape:  slices.Clone(shape),
		chunks: slices.Clone(chunks),
		dtype:  dtype,
		load:   load,
	}, nil
}

// FromDense wraps d as a chunked array. Chunks are regions of d.
func FromDense(d *Dense, chunks []int) (*Chunked, error) {
	var c *Chunked
	c, err := NewChunked(d.dtype, d.shape, chunks, func(_ context.Context, index []int) (*Dense, error) {
		start, count, err := c.ChunkBounds(index)
		if err != nil {
			return nil, err
		}
		return d.Region(start, count)
	})
	return c, err
}

// WithWorkers returns a copy of c whose Compute loads at most n chunks at
// a time. n <= 0 removes the limit.
func (c *Chunked) WithWorkers(n int) *Chunked {
	cp := *c
	cp.workers = n
	return &cp
}

// Shape returns a copy of the array dimensions.
func (c *Chunked) Shape() []int {
	return slices.Clone(c.shape)
}

// DType returns the element type.
func (c *Chunked) DType() DType {
	return c.dtype
}

// ChunkShape returns the nominal chunk extent.
func (c *Chunked) ChunkShape() []int {
	return slices.Clone(c.chunks)
}

// Grid returns the number of chunks along each dimension.
func (c *Chunked) Grid() []int {
	grid := make([]int, len(c.shape))
	for d := range c.shape {
		grid[d] = (c.shape[d] + c.chunks[d] - 1) / c.chunks[d]
	}
	return grid
}

// NumChunks returns the total number of chunks.
func (c *Chunked) NumChunks() int {
	n := 1
	for _, g := range c.Grid() {
		n *= g
	}
	return n
}

// ChunkBounds returns the start and clipped extent of the chunk at index.
func (c *Chunked) ChunkBounds(index []int) (start, count []int, err error) {
	grid := c.Grid()
	if len(index) != len(grid) {
		return nil, nil, fmt.Errorf("%w: chunk index %v for grid %v", ErrShape, index, grid)
	}
	start = make([]int, len(index))
	count = make([]int, len(index))
	for d, i := range index {
		if i < 0 || i >= grid[d] {
			return nil, nil, fmt.Errorf("%w: chunk index %v outside grid %v", ErrShape, index, grid)
		}
		start[d] = i * c.chunks[d]
		count[d] = min(c.chunks[d], c.shape[d]-start[d])
	}
	return start, count, nil
}

// Chunk loads a single chunk and checks it against the expected extent.
func (c *Chunked) Chunk(ctx context.Context, index []int) (*Dense, error) {
	_, count, err := c.ChunkBounds(index)
	if err != nil {
		return nil, err
	}
	chunk, err := c.load(ctx, slices.Clone(index))
	if err != nil {
		return nil, fmt.Errorf("loading chunk %v: %w", index, err)
	}
	if chunk == nil {
		return nil, fmt.Errorf("chunk %v: %w: loader returned no data", index, ErrShape)
	}
	if chunk.dtype != c.dtype {
		return nil, fmt.Errorf("chunk %v: %w: got %s, want %s", index, ErrDType, chunk.dtype, c.dtype)
	}
	if !slices.Equal(chunk.shape, count) {
		return nil, fmt.Errorf("chunk %v: %w: got %v, want %v", index, ErrShape, chunk.shape, count)
	}
	return chunk, nil
}

// Compute loads every chunk and assembles them into a Dense array. Chunks
// are loaded concurrently; the first failure cancels the rest.
func (c *Chunked) Compute(ctx context.Context) (*Dense, error) {
	out, err := New(c.dtype, c.shape, nil)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	if c.workers > 0 {
		g.SetLimit(c.workers)
	}
	itemSize := c.dtype.Size()
	zero := make([]int, len(c.shape))

	_ = forEachIndex(c.Grid(), func(idx []int) error {
		index := slices.Clone(idx)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunk, err := c.Chunk(ctx, index)
			if err != nil {
				return err
			}
			start, _, _ := c.ChunkBounds(index)
			// Chunks cover disjoint boxes of out.
			copyBox(out.data, out.shape, start, chunk.data, chunk.shape, zero, chunk.shape, itemSize)
			return nil
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// AutoChunks picks a chunk shape for an array of the given shape whose
// chunks hold at most limit bytes. Leading dimensions are halved first so
// that trailing (image plane) dimensions stay whole as long as possible.
func AutoChunks(shape []int, itemSize int, limit int64) []int {
	chunks := make([]int, len(shape))
	for d, s := range shape {
		chunks[d] = max(s, 1)
	}
	if limit <= 0 {
		limit = DefaultChunkBytes
	}
	bytesOf := func() int64 {
		n := int64(itemSize)
		for _, c := range chunks {
			n *= int64(c)
		}
		return n
	}
	for bytesOf() > limit {
		d := slices.IndexFunc(chunks, func(c int) bool { return c > 1 })
		if d < 0 {
			break
		}
		chunks[d] = (chunks[d] + 1) / 2
	}
	return chunks
}
