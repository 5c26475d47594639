// Package ndarray provides the n-dimensional numeric arrays wrapped by tiles.
//
// Data is held as little-endian, row-major bytes tagged with a DType, the
// same representation the source readers decode into. Dense arrays are fully
// materialised; Chunked arrays describe a grid of chunks that are loaded on
// demand and assembled by Compute.
package ndarray

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrShape = errors.New("invalid shape")
	ErrDType = errors.New("dtype mismatch")
)

// DType identifies the element type of an array.
type DType uint8

const (
	Invalid DType = iota
	Uint8
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
)

var dtypeNames = [...]string{
	Invalid: "invalid",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
}

func (d DType) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return fmt.Sprintf("DType(%d)", uint8(d))
}

// Size returns the size of one element in bytes, or 0 for an unknown dtype.
func (d DType) Size() int {
	switch d {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64:
		return 8
	default:
		return 0
	}
}

// Valid reports whether d is a known element type.
func (d DType) Valid() bool {
	return d.Size() > 0
}

// Element is the set of Go types an array can hold.
type Element interface {
	uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64 | float32 | float64
}

// DTypeOf returns the DType corresponding to T.
func DTypeOf[T Element]() DType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return Invalid
}
