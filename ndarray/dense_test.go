package ndarray

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDTypeSize(t *testing.T) {
	tests := []struct {
		dtype DType
		size  int
		name  string
	}{
		{Uint8, 1, "uint8"},
		{Int16, 2, "int16"},
		{Float32, 4, "float32"},
		{Uint64, 8, "uint64"},
		{Invalid, 0, "invalid"},
	}
	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
		if got := tt.dtype.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
	}
	if DTypeOf[uint16]() != Uint16 || DTypeOf[float64]() != Float64 {
		t.Error("DTypeOf returned the wrong dtype")
	}
}

func TestFromSliceRoundTrip(t *testing.T) {
	in := []uint16{1, 2, 3, 4, 5, 6}
	d, err := FromSlice(in, 2, 3)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if diff := cmp.Diff([]int{2, 3}, d.Shape()); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	if d.DType() != Uint16 {
		t.Errorf("dtype = %s, want uint16", d.DType())
	}
	out, err := Values[uint16](d)
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSliceShapeMismatch(t *testing.T) {
	_, err := FromSlice([]float32{1, 2, 3}, 2, 2)
	if !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
}

func TestValuesDTypeMismatch(t *testing.T) {
	d, _ := FromSlice([]uint8{1, 2})
	if _, err := Values[uint16](d); !errors.Is(err, ErrDType) {
		t.Errorf("expected ErrDType, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Invalid, []int{1}, nil); !errors.Is(err, ErrDType) {
		t.Errorf("expected ErrDType for invalid dtype, got %v", err)
	}
	if _, err := New(Uint8, []int{2, -1}, nil); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for negative dim, got %v", err)
	}
	if _, err := New(Uint16, []int{3}, make([]byte, 5)); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for short data, got %v", err)
	}
	d, err := New(Int32, []int{2, 2}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(d.Bytes()) != 16 {
		t.Errorf("expected 16 zero bytes, got %d", len(d.Bytes()))
	}
}

func TestRegion(t *testing.T) {
	// 3x4 array:
	//  0  1  2  3
	//  4  5  6  7
	//  8  9 10 11
	vals := make([]int32, 12)
	for i := range vals {
		vals[i] = int32(i)
	}
	d, _ := FromSlice(vals, 3, 4)

	r, err := d.Region([]int{1, 1}, []int{2, 2})
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	got, _ := Values[int32](r)
	if diff := cmp.Diff([]int32{5, 6, 9, 10}, got); diff != "" {
		t.Errorf("region mismatch (-want +got):\n%s", diff)
	}

	if _, err := d.Region([]int{2, 0}, []int{2, 4}); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for out-of-bounds region, got %v", err)
	}
}

func TestRegionScalar(t *testing.T) {
	s, err := New(Float64, nil, []byte{0, 0, 0, 0, 0, 0, 4, 64})
	if err != nil {
		t.Fatalf("New scalar failed: %v", err)
	}
	r, err := s.Region(nil, nil)
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	if !r.Equal(s) {
		t.Error("scalar region differs from source")
	}
	if got, _ := Values[float64](r); got[0] != 2.5 {
		t.Errorf("scalar value = %v, want 2.5", got[0])
	}
}

func TestStack(t *testing.T) {
	a, _ := FromSlice([]uint8{1, 2, 3, 4}, 2, 2)
	b, _ := FromSlice([]uint8{5, 6, 7, 8}, 2, 2)

	s, err := Stack([]*Dense{a, b})
	if err != nil {
		t.Fatalf("Stack failed: %v", err)
	}
	if diff := cmp.Diff([]int{2, 2, 2}, s.Shape()); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	got, _ := Values[uint8](s)
	if diff := cmp.Diff([]uint8{1, 2, 3, 4, 5, 6, 7, 8}, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	c, _ := FromSlice([]uint8{1, 2, 3})
	if _, err := Stack([]*Dense{a, c}); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
}

func TestEqual(t *testing.T) {
	a, _ := FromSlice([]uint8{1, 2})
	b, _ := FromSlice([]uint8{1, 2})
	c, _ := FromSlice([]int8{1, 2})
	if !a.Equal(b) {
		t.Error("expected equal arrays")
	}
	if a.Equal(c) {
		t.Error("arrays of different dtype compared equal")
	}
}
