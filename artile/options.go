package artile

import (
	"context"

	"github.com/robert-malhotra/go-artile/ndarray"
)

// LoadOption configures Load and the From* constructors.
type LoadOption func(*loadOptions)

type loadOptions struct {
	ctx        context.Context
	dask       bool
	linkData   bool
	chunkBytes int64
	workers    int
}

func defaultLoadOptions() *loadOptions {
	return &loadOptions{
		ctx:        context.Background(),
		dask:       true,
		linkData:   true,
		chunkBytes: ndarray.DefaultChunkBytes,
	}
}

func applyLoadOptions(opts []LoadOption) *loadOptions {
	o := defaultLoadOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDask sets whether array data is loaded lazily in chunks. Defaults to
// true. Already-chunked arrays are always loaded lazily.
func WithDask(dask bool) LoadOption {
	return func(o *loadOptions) {
		o.dask = dask
	}
}

// WithLinkData sets whether output data stays linked to the objects it was
// derived from. Defaults to true; disable it to reduce memory usage.
func WithLinkData(link bool) LoadOption {
	return func(o *loadOptions) {
		o.linkData = link
	}
}

// WithChunkBytes sets the target chunk size when an in-memory array is
// chunked for lazy loading.
func WithChunkBytes(n int64) LoadOption {
	return func(o *loadOptions) {
		if n > 0 {
			o.chunkBytes = n
		}
	}
}

// WithWorkers bounds how many chunks or TIFF pages are decoded at once.
// Zero means no limit.
func WithWorkers(n int) LoadOption {
	return func(o *loadOptions) {
		if n >= 0 {
			o.workers = n
		}
	}
}

// WithContext sets the context used when chunked data is materialised
// during loading.
func WithContext(ctx context.Context) LoadOption {
	return func(o *loadOptions) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}
