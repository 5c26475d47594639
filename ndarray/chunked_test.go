package ndarray

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func rampUint16(t *testing.T, shape ...int) *Dense {
	t.Helper()
	n := 1
	for _, s := range shape {
		n *= s
	}
	vals := make([]uint16, n)
	for i := range vals {
		vals[i] = uint16(i)
	}
	d, err := FromSlice(vals, shape...)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestChunkedGrid(t *testing.T) {
	d := rampUint16(t, 5, 7)
	c, err := FromDense(d, []int{2, 3})
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	if diff := cmp.Diff([]int{3, 3}, c.Grid()); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
	if c.NumChunks() != 9 {
		t.Errorf("NumChunks = %d, want 9", c.NumChunks())
	}

	start, count, err := c.ChunkBounds([]int{2, 2})
	if err != nil {
		t.Fatalf("ChunkBounds failed: %v", err)
	}
	if diff := cmp.Diff([]int{4, 6}, start); diff != "" {
		t.Errorf("start mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1}, count); diff != "" {
		t.Errorf("edge chunk must be clipped (-want +got):\n%s", diff)
	}

	if _, _, err := c.ChunkBounds([]int{3, 0}); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for index outside grid, got %v", err)
	}
}

func TestChunkedComputeMatchesSource(t *testing.T) {
	tests := []struct {
		name   string
		shape  []int
		chunks []int
	}{
		{"1d", []int{10}, []int{3}},
		{"2d edge chunks", []int{5, 7}, []int{2, 3}},
		{"3d planes", []int{4, 3, 5}, []int{1, 3, 5}},
		{"single chunk", []int{3, 3}, []int{8, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := rampUint16(t, tt.shape...)
			c, err := FromDense(d, tt.chunks)
			if err != nil {
				t.Fatalf("FromDense failed: %v", err)
			}
			got, err := c.WithWorkers(2).Compute(context.Background())
			if err != nil {
				t.Fatalf("Compute failed: %v", err)
			}
			if !got.Equal(d) {
				t.Error("computed array differs from source")
			}
		})
	}
}

func TestChunkedLazy(t *testing.T) {
	var loads atomic.Int32
	c, err := NewChunked(Uint8, []int{4, 2}, []int{1, 2}, func(_ context.Context, index []int) (*Dense, error) {
		loads.Add(1)
		return FromSlice([]uint8{uint8(index[0]), uint8(index[0])}, 1, 2)
	})
	if err != nil {
		t.Fatalf("NewChunked failed: %v", err)
	}
	if loads.Load() != 0 {
		t.Fatal("chunks loaded before Compute")
	}

	chunk, err := c.Chunk(context.Background(), []int{3, 0})
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	vals, _ := Values[uint8](chunk)
	if diff := cmp.Diff([]uint8{3, 3}, vals); diff != "" {
		t.Errorf("chunk mismatch (-want +got):\n%s", diff)
	}

	out, err := c.Compute(context.Background())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if loads.Load() != 5 {
		t.Errorf("loads = %d, want 5", loads.Load())
	}
	vals, _ = Values[uint8](out)
	if diff := cmp.Diff([]uint8{0, 0, 1, 1, 2, 2, 3, 3}, vals); diff != "" {
		t.Errorf("computed mismatch (-want +got):\n%s", diff)
	}
}

func TestChunkedLoaderErrors(t *testing.T) {
	boom := errors.New("boom")
	c, _ := NewChunked(Uint8, []int{4}, []int{2}, func(_ context.Context, index []int) (*Dense, error) {
		if index[0] == 1 {
			return nil, boom
		}
		return New(Uint8, []int{2}, nil)
	})
	if _, err := c.Compute(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected loader error, got %v", err)
	}

	wrong, _ := NewChunked(Uint8, []int{4}, []int{2}, func(context.Context, []int) (*Dense, error) {
		return New(Uint8, []int{3}, nil)
	})
	if _, err := wrong.Compute(context.Background()); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for wrong chunk extent, got %v", err)
	}

	wrongType, _ := NewChunked(Uint8, []int{2}, []int{2}, func(context.Context, []int) (*Dense, error) {
		return New(Uint16, []int{2}, nil)
	})
	if _, err := wrongType.Compute(context.Background()); !errors.Is(err, ErrDType) {
		t.Errorf("expected ErrDType for wrong chunk dtype, got %v", err)
	}

	empty, _ := NewChunked(Uint8, []int{2}, []int{2}, func(context.Context, []int) (*Dense, error) {
		return nil, nil
	})
	if _, err := empty.Chunk(context.Background(), []int{0}); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for nil chunk, got %v", err)
	}
	if _, err := empty.Compute(context.Background()); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for nil chunk in Compute, got %v", err)
	}
}

func TestNewChunkedValidation(t *testing.T) {
	load := func(context.Context, []int) (*Dense, error) { return nil, nil }
	if _, err := NewChunked(Uint8, []int{4, 4}, []int{2}, load); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for rank mismatch, got %v", err)
	}
	if _, err := NewChunked(Uint8, []int{4}, []int{0}, load); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for zero chunk, got %v", err)
	}
	if _, err := NewChunked(Uint8, []int{4}, []int{2}, nil); err == nil {
		t.Error("expected error for nil loader")
	}
}

func TestAutoChunks(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
		item  int
		limit int64
		want  []int
	}{
		{"fits", []int{10, 64, 64}, 2, 1 << 20, []int{10, 64, 64}},
		{"split leading", []int{16, 64, 64}, 2, 64 * 64 * 2 * 4, []int{4, 64, 64}},
		{"split plane", []int{1, 64, 64}, 1, 64 * 16, []int{1, 16, 64}},
		{"empty dim", []int{0, 8}, 1, 4, []int{1, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AutoChunks(tt.shape, tt.item, tt.limit)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("AutoChunks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
