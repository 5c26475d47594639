// Package array normalises in-memory and chunked arrays for tiles.
package array

import (
	"context"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-artile/ndarray"
)

var errNilArray = errors.New("nil array")

// Options configures how lazy arrays are chunked.
type Options struct {
	// ChunkBytes is the chunk size target for AutoChunks.
	ChunkBytes int64
	// Workers bounds concurrent chunk loads during Compute.
	Workers int
}

// Read returns a as a lazily chunked array when lazy is set, otherwise as a
// materialised Dense array. Dense input is never copied; chunked input is
// returned as is when lazy and computed when not.
func Read(ctx context.Context, a ndarray.Array, lazy bool, opts Options) (ndarray.Array, error) {
	switch v := a.(type) {
	case *ndarray.Dense:
		if v == nil {
			return nil, errNilArray
		}
		if !lazy {
			return v, nil
		}
		chunks := ndarray.AutoChunks(v.Shape(), v.DType().Size(), opts.ChunkBytes)
		c, err := ndarray.FromDense(v, chunks)
		if err != nil {
			return nil, err
		}
		return c.WithWorkers(opts.Workers), nil
	case *ndarray.Chunked:
		if v == nil {
			return nil, errNilArray
		}
		if lazy {
			return v, nil
		}
		return v.WithWorkers(opts.Workers).Compute(ctx)
	case nil:
		return nil, errNilArray
	default:
		return nil, fmt.Errorf("unsupported array type %T", a)
	}
}
