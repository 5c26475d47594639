package binary

import (
	"encoding/binary"
	"math"
	"unicode/utf16"
)

// Writer appends fixed-width values to an in-memory buffer. Values can be
// patched in place once their final content is known.
type Writer struct {
	buf   []byte
	order binary.ByteOrder
}

// NewWriter creates a binary writer with the given configuration.
func NewWriter(cfg Config) *Writer {
	order := cfg.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	return &Writer{order: order}
}

// Pos returns the current write position.
func (w *Writer) Pos() int64 {
	return int64(len(w.buf))
}

// Bytes returns the written bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteBytes appends data.
func (w *Writer) WriteBytes(data []byte) {
	w.buf = append(w.buf, data...)
}

// WriteUint8 appends an unsigned 8-bit integer.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 appends an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = append(w.buf, make([]byte, 2)...)
	w.order.PutUint16(w.buf[len(w.buf)-2:], v)
}

// WriteUint32 appends an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = append(w.buf, make([]byte, 4)...)
	w.order.PutUint32(w.buf[len(w.buf)-4:], v)
}

// WriteUint64 appends an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = append(w.buf, make([]byte, 8)...)
	w.order.PutUint64(w.buf[len(w.buf)-8:], v)
}

// WriteFloat64 appends an IEEE 754 double.
func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteUTF16Z appends s as NUL-terminated UTF-16 and returns the number of
// code units written, terminator included.
func (w *Writer) WriteUTF16Z(s string) int {
	units := append(utf16.Encode([]rune(s)), 0)
	for _, u := range units {
		w.WriteUint16(u)
	}
	return len(units)
}

// WriteZeros appends n zero bytes.
func (w *Writer) WriteZeros(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// PutUint32At overwrites the 4 bytes at offset.
func (w *Writer) PutUint32At(offset int64, v uint32) {
	w.order.PutUint32(w.buf[offset:], v)
}

// PutUint64At overwrites the 8 bytes at offset.
func (w *Writer) PutUint64At(offset int64, v uint64) {
	w.order.PutUint64(w.buf[offset:], v)
}

// ByteOrder returns the configured byte order.
func (w *Writer) ByteOrder() binary.ByteOrder {
	return w.order
}
