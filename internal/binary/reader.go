// Package binary provides low-level positional binary reading and writing
// for the container formats parsed by the source readers.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf16"
)

// Common errors
var (
	ErrShortRead     = errors.New("short read")
	ErrInvalidLength = errors.New("invalid length")
)

// Reader reads fixed-width values at an explicit position of an io.ReaderAt.
type Reader struct {
	r     io.ReaderAt
	order binary.ByteOrder
	pos   int64
	size  int64
}

// Config holds reader and writer configuration.
type Config struct {
	ByteOrder binary.ByteOrder
	// Size is the length of the underlying data. When positive, reads past
	// it fail before any buffer is allocated.
	Size int64
}

// DefaultConfig returns a little-endian configuration.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian}
}

// NewReader creates a binary reader with the given configuration.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	order := cfg.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	return &Reader{r: r, order: order, size: cfg.Size}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{r: r.r, order: r.order, pos: offset, size: r.size}
}

// WithByteOrder returns a new reader at the same position using order.
func (r *Reader) WithByteOrder(order binary.ByteOrder) *Reader {
	return &Reader{r: r.r, order: order, pos: r.pos, size: r.size}
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	if n == 0 {
		return nil, nil
	}
	if rem, ok := r.Remaining(); ok && int64(n) > rem {
		return nil, fmt.Errorf("%w: %d bytes at %d, %d remain", ErrShortRead, n, r.pos, max(rem, 0))
	}
	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, r.pos)
	if got < n {
		if err == nil || err == io.EOF {
			err = ErrShortRead
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// ReadBytes64 reads n bytes where n is a length decoded from the data.
func (r *Reader) ReadBytes64(n uint64) ([]byte, error) {
	if n > math.MaxInt {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	return r.ReadBytes(int(n))
}

// Remaining returns the number of bytes left before the configured size.
// ok is false when the reader has no size.
func (r *Reader) Remaining() (n int64, ok bool) {
	if r.size <= 0 {
		return 0, false
	}
	return r.size - r.pos, true
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	buf, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(buf), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(buf), nil
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadInt64 reads a signed 64-bit integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat64 reads an IEEE 754 double.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadUTF16 reads n UTF-16 code units and decodes them, dropping a trailing NUL.
func (r *Reader) ReadUTF16(n int) (string, error) {
	buf, err := r.ReadBytes(n * 2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = r.order.Uint16(buf[i*2:])
	}
	for len(units) > 0 && units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}
	return string(utf16.Decode(units)), nil
}

// ReadUTF16Z reads UTF-16 code units up to and including a NUL terminator.
func (r *Reader) ReadUTF16Z() (string, error) {
	var units []uint16
	for {
		u, err := r.ReadUint16()
		if err != nil {
			return "", err
		}
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units)), nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) {
	r.pos += n
}

// Peek reads n bytes without advancing the position.
func (r *Reader) Peek(n int) ([]byte, error) {
	pos := r.pos
	buf, err := r.ReadBytes(n)
	r.pos = pos
	return buf, err
}

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}
