package nd2

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-artile/internal/binary"
)

// CLX-lite variant types.
const (
	variantDefault     = 0
	variantBool        = 1
	variantInt32       = 2
	variantUint32      = 3
	variantInt64       = 4
	variantUint64      = 5
	variantDouble      = 6
	variantVoidPointer = 7
	variantString      = 8
	variantByteArray   = 9
	variantDeprecated  = 10
	variantLevel       = 11
	variantCompressed  = 76 // 'L'
)

// compressedHeaderSize precedes the zlib stream of a compressed variant.
const compressedHeaderSize = 10

// maxVariantDepth bounds level nesting.
const maxVariantDepth = 64

// decodeVariant decodes a CLX-lite variant tree.
//
// Every entry is a type byte, a name length in UTF-16 code units, the
// NUL-terminated UTF-16 name and a typed value. Level entries nest further
// entries and are followed by a table of their offsets. Names that repeat
// within a level collect into a []any.
func decodeVariant(data []byte) (map[string]any, error) {
	if len(data) > 0 && data[0] == variantCompressed {
		if len(data) < compressedHeaderSize {
			return nil, fmt.Errorf("compressed variant too short")
		}
		inflated, err := inflate(data[compressedHeaderSize:])
		if err != nil {
			return nil, err
		}
		return decodeVariant(inflated)
	}
	r := binary.NewReader(bytes.NewReader(data), sizedConfig(int64(len(data))))
	return decodeEntries(r, int64(len(data)), -1, 0)
}

// decodeEntries reads count entries, or until end when count is negative.
func decodeEntries(r *binary.Reader, end int64, count int, depth int) (map[string]any, error) {
	if depth > maxVariantDepth {
		return nil, fmt.Errorf("variant nesting deeper than %d", maxVariantDepth)
	}
	out := make(map[string]any)
	for i := 0; count < 0 || i < count; i++ {
		if r.Pos() >= end {
			if count < 0 {
				break
			}
			return nil, fmt.Errorf("level ended after %d of %d entries", i, count)
		}
		name, value, err := decodeEntry(r, depth)
		if err != nil {
			return nil, err
		}
		add(out, name, value)
	}
	return out, nil
}

func decodeEntry(r *binary.Reader, depth int) (string, any, error) {
	start := r.Pos()
	typ, err := r.ReadUint8()
	if err != nil {
		return "", nil, err
	}
	nameLen, err := r.ReadUint8()
	if err != nil {
		return "", nil, err
	}
	if typ == variantDeprecated || typ > variantLevel {
		return "", nil, fmt.Errorf("%w: variant type %d at %d", ErrUnsupported, typ, start)
	}
	name, err := r.ReadUTF16(int(nameLen))
	if err != nil {
		return "", nil, fmt.Errorf("reading name at %d: %w", start, err)
	}

	var value any
	switch typ {
	case variantBool:
		var b uint8
		b, err = r.ReadUint8()
		value = b != 0
	case variantInt32:
		value, err = r.ReadInt32()
	case variantUint32:
		value, err = r.ReadUint32()
	case variantInt64:
		value, err = r.ReadInt64()
	case variantUint64, variantVoidPointer:
		value, err = r.ReadUint64()
	case variantDouble:
		value, err = r.ReadFloat64()
	case variantString:
		value, err = r.ReadUTF16Z()
	case variantByteArray:
		var n uint64
		if n, err = r.ReadUint64(); err == nil {
			value, err = r.ReadBytes64(n)
		}
	case variantLevel:
		value, err = decodeLevel(r, start, depth)
	case variantDefault:
		value = nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("entry %q: %w", name, err)
	}
	return name, value, nil
}

// decodeLevel reads a nested level. length spans from the start of the
// level entry to the end of its children; the offset table follows.
func decodeLevel(r *binary.Reader, start int64, depth int) (map[string]any, error) {
	count, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	length, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	if rem, ok := r.Remaining(); ok && length > uint64(r.Pos()-start+rem) {
		return nil, fmt.Errorf("%w: level length %d exceeds data", binary.ErrShortRead, length)
	}
	end := start + int64(length)
	if end < r.Pos() {
		return nil, fmt.Errorf("level length %d shorter than its header", length)
	}
	children, err := decodeEntries(r, end, int(count), depth+1)
	if err != nil {
		return nil, err
	}
	r.Skip(end - r.Pos())
	r.Skip(int64(count) * 8)
	return children, nil
}

func add(m map[string]any, name string, value any) {
	prev, ok := m[name]
	if !ok {
		m[name] = value
		return
	}
	if list, ok := prev.([]any); ok {
		m[name] = append(list, value)
		return
	}
	m[name] = []any{prev, value}
}

// inflate decompresses a zlib stream.
func inflate(input []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer r.Close()

	output, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return output, nil
}
