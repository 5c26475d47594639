package ndarray

import "fmt"

// checkBox validates that the box [start, start+count) lies inside shape.
func checkBox(shape, start, count []int) error {
	if len(start) != len(shape) || len(count) != len(shape) {
		return fmt.Errorf("%w: box rank %d/%d does not match array rank %d", ErrShape, len(start), len(count), len(shape))
	}
	for d := range shape {
		if start[d] < 0 || count[d] < 0 || start[d]+count[d] > shape[d] {
			return fmt.Errorf("%w: box start %v count %v outside %v", ErrShape, start, count, shape)
		}
	}
	return nil
}

// rowStrides returns the byte stride of each dimension of a row-major array.
func rowStrides(shape []int, itemSize int) []int {
	strides := make([]int, len(shape))
	stride := itemSize
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= shape[d]
	}
	return strides
}

// copyBox copies a box of extent count from src (at srcStart) into dst (at
// dstStart). Both buffers are row-major with the given shapes.
//
// The copy recurses over every dimension but the last; elements along the
// innermost dimension are adjacent in both buffers and move as one block.
// Region extraction uses a zero dstStart, chunk assembly a zero srcStart.
func copyBox(
	dst []byte, dstShape, dstStart []int,
	src []byte, srcShape, srcStart []int,
	count []int, itemSize int,
) {
	ndims := len(count)
	if ndims == 0 {
		copy(dst[:itemSize], src[:itemSize])
		return
	}
	for _, c := range count {
		if c == 0 {
			return
		}
	}
	copyBoxRecursive(
		dst, rowStrides(dstShape, itemSize), dstStart,
		src, rowStrides(srcShape, itemSize), srcStart,
		count, 0, 0, 0,
	)
}

func copyBoxRecursive(
	dst []byte, dstStrides, dstStart []int,
	src []byte, srcStrides, srcStart []int,
	count []int,
	dstIdx, srcIdx, dim int,
) {
	if dim == len(count)-1 {
		rowBytes := count[dim] * srcStrides[dim]
		d := dstIdx + dstStart[dim]*dstStrides[dim]
		s := srcIdx + srcStart[dim]*srcStrides[dim]
		copy(dst[d:d+rowBytes], src[s:s+rowBytes])
		return
	}
	for i := 0; i < count[dim]; i++ {
		copyBoxRecursive(
			dst, dstStrides, dstStart,
			src, srcStrides, srcStart,
			count,
			dstIdx+(dstStart[dim]+i)*dstStrides[dim],
			srcIdx+(srcStart[dim]+i)*srcStrides[dim],
			dim+1,
		)
	}
}

// forEachIndex calls fn with every index of grid in row-major order.
// An empty grid has exactly one (empty) index; a grid with a zero extent
// has none. fn must not retain idx.
func forEachIndex(grid []int, fn func(idx []int) error) error {
	for _, g := range grid {
		if g == 0 {
			return nil
		}
	}
	idx := make([]int, len(grid))
	for {
		if err := fn(idx); err != nil {
			return err
		}
		d := len(grid) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < grid[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return nil
		}
	}
}
