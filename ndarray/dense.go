package ndarray

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"slices"
)

// Array is the read-only view shared by Dense and Chunked arrays.
type Array interface {
	Shape() []int
	DType() DType
	// Compute materialises the array. A Dense array returns itself.
	Compute(ctx context.Context) (*Dense, error)
}

// Dense is an eagerly materialised array.
type Dense struct {
	shape []int
	dtype DType
	data  []byte
}

// New wraps data as an array of the given dtype and shape.
// A nil data slice allocates a zero-filled array.
func New(dtype DType, shape []int, data []byte) (*Dense, error) {
	if !dtype.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrDType, dtype)
	}
	n, err := numElements(shape)
	if err != nil {
		return nil, err
	}
	size := n * dtype.Size()
	if data == nil {
		data = make([]byte, size)
	}
	if len(data) != size {
		return nil, fmt.Errorf("%w: %d bytes for shape %v of %s, want %d", ErrShape, len(data), shape, dtype, size)
	}
	return &Dense{shape: slices.Clone(shape), dtype: dtype, data: data}, nil
}

// FromSlice builds an array from values. Without a shape the array is
// one-dimensional.
func FromSlice[T Element](values []T, shape ...int) (*Dense, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	n, err := numElements(shape)
	if err != nil {
		return nil, err
	}
	if n != len(values) {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShape, len(values), shape)
	}
	data, err := binary.Append(make([]byte, 0, n*DTypeOf[T]().Size()), binary.LittleEndian, values)
	if err != nil {
		return nil, fmt.Errorf("encoding values: %w", err)
	}
	return New(DTypeOf[T](), shape, data)
}

// Values decodes the array into a slice of T. T must match the array dtype.
func Values[T Element](d *Dense) ([]T, error) {
	if want := DTypeOf[T](); want != d.dtype {
		return nil, fmt.Errorf("%w: array is %s, requested %s", ErrDType, d.dtype, want)
	}
	out := make([]T, d.Size())
	if _, err := binary.Decode(d.data, binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("decoding values: %w", err)
	}
	return out, nil
}

// Shape returns a copy of the array dimensions.
func (d *Dense) Shape() []int {
	return slices.Clone(d.shape)
}

// DType returns the element type.
func (d *Dense) DType() DType {
	return d.dtype
}

// Ndim returns the number of dimensions.
func (d *Dense) Ndim() int {
	return len(d.shape)
}

// Size returns the total number of elements.
func (d *Dense) Size() int {
	n, _ := numElements(d.shape)
	return n
}

// Bytes returns the raw little-endian data. The slice aliases the array.
func (d *Dense) Bytes() []byte {
	return d.data
}

// Compute returns d.
func (d *Dense) Compute(context.Context) (*Dense, error) {
	return d, nil
}

// Region copies the box of extent count starting at start into a new array.
func (d *Dense) Region(start, count []int) (*Dense, error) {
	if err := checkBox(d.shape, start, count); err != nil {
		return nil, err
	}
	out, err := New(d.dtype, count, nil)
	if err != nil {
		return nil, err
	}
	copyBox(out.data, out.shape, make([]int, len(count)),
		d.data, d.shape, start, count, d.dtype.Size())
	return out, nil
}

// Equal reports whether d and o have the same dtype, shape and contents.
func (d *Dense) Equal(o *Dense) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.dtype == o.dtype && slices.Equal(d.shape, o.shape) && bytes.Equal(d.data, o.data)
}

// Stack joins arrays of identical shape and dtype along a new leading axis.
func Stack(arrays []*Dense) (*Dense, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("%w: nothing to stack", ErrShape)
	}
	first := arrays[0]
	data := make([]byte, 0, len(first.data)*len(arrays))
	for i, a := range arrays {
		if a.dtype != first.dtype {
			return nil, fmt.Errorf("%w: array %d is %s, want %s", ErrDType, i, a.dtype, first.dtype)
		}
		if !slices.Equal(a.shape, first.shape) {
			return nil, fmt.Errorf("%w: array %d has shape %v, want %v", ErrShape, i, a.shape, first.shape)
		}
		data = append(data, a.data...)
	}
	return New(first.dtype, append([]int{len(arrays)}, first.shape...), data)
}

func numElements(shape []int) (int, error) {
	n := 1
	for _, s := range shape {
		if s < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", ErrShape, shape)
		}
		n *= s
	}
	return n, nil
}
