// Package tifftest writes small uncompressed TIFF files for tests.
package tifftest

import (
	stdbinary "encoding/binary"
	"fmt"
	"os"

	"github.com/robert-malhotra/go-artile/internal/binary"
	"github.com/robert-malhotra/go-artile/ndarray"
)

const (
	typeShort = 3
	typeLong  = 4
)

// Baseline tags, written in ascending order.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
)

// Encode builds a grayscale TIFF with one page per array. Pages must be
// two-dimensional uint8 or uint16 arrays.
func Encode(order stdbinary.ByteOrder, pages ...*ndarray.Dense) ([]byte, error) {
	w := binary.NewWriter(binary.Config{ByteOrder: order})
	if order == stdbinary.BigEndian {
		w.WriteBytes([]byte("MM"))
	} else {
		w.WriteBytes([]byte("II"))
	}
	w.WriteUint16(42)
	nextPtr := w.Pos()
	w.WriteUint32(0)

	for i, p := range pages {
		shape := p.Shape()
		if len(shape) != 2 {
			return nil, fmt.Errorf("page %d: want 2 dimensions, got %v", i, shape)
		}
		var bits uint16
		switch p.DType() {
		case ndarray.Uint8:
			bits = 8
		case ndarray.Uint16:
			bits = 16
		default:
			return nil, fmt.Errorf("page %d: unsupported dtype %s", i, p.DType())
		}

		stripOffset := w.Pos()
		w.WriteBytes(fileOrder(p, order))
		if w.Pos()%2 != 0 {
			w.WriteZeros(1)
		}

		ifd := w.Pos()
		w.PutUint32At(nextPtr, uint32(ifd))
		entries := []struct {
			tag, typ uint16
			value    uint32
		}{
			{tagImageWidth, typeLong, uint32(shape[1])},
			{tagImageLength, typeLong, uint32(shape[0])},
			{tagBitsPerSample, typeShort, uint32(bits)},
			{tagCompression, typeShort, 1},
			{tagPhotometric, typeShort, 1},
			{tagStripOffsets, typeLong, uint32(stripOffset)},
			{tagSamplesPerPixel, typeShort, 1},
			{tagRowsPerStrip, typeLong, uint32(shape[0])},
			{tagStripByteCounts, typeLong, uint32(len(p.Bytes()))},
		}
		w.WriteUint16(uint16(len(entries)))
		for _, e := range entries {
			w.WriteUint16(e.tag)
			w.WriteUint16(e.typ)
			w.WriteUint32(1)
			if e.typ == typeShort {
				// Left-justified in the 4-byte value field.
				w.WriteUint16(uint16(e.value))
				w.WriteUint16(0)
			} else {
				w.WriteUint32(e.value)
			}
		}
		nextPtr = w.Pos()
		w.WriteUint32(0)
	}
	return w.Bytes(), nil
}

// WriteFile encodes pages and writes them to path.
func WriteFile(path string, order stdbinary.ByteOrder, pages ...*ndarray.Dense) error {
	data, err := Encode(order, pages...)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// fileOrder returns the pixel bytes of p in the given byte order.
func fileOrder(p *ndarray.Dense, order stdbinary.ByteOrder) []byte {
	data := append([]byte(nil), p.Bytes()...)
	if p.DType().Size() == 2 && order == stdbinary.BigEndian {
		for i := 0; i+1 < len(data); i += 2 {
			data[i], data[i+1] = data[i+1], data[i]
		}
	}
	return data
}
