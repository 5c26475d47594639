// Package nd2test builds small synthetic ND2 files for tests. The files
// carry the chunks and metadata the reader needs; image data chunks hold
// zero-filled frames.
package nd2test

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"os"
	"unicode/utf16"

	"github.com/robert-malhotra/go-artile/internal/binary"
)

const (
	chunkMagic        = 0x0ABECEDA
	fileSignature     = "ND2 FILE SIGNATURE CHUNK NAME01!"
	chunkMapSignature = "ND2 CHUNK MAP SIGNATURE 0000001!"
	fileMapSignature  = "ND2 FILEMAP SIGNATURE NAME 0001!"
)

// Variant value types understood by the encoder.
const (
	typeBool      = 1
	typeInt32     = 2
	typeUint32    = 3
	typeUint64    = 5
	typeDouble    = 6
	typeString    = 8
	typeByteArray = 9
	typeLevel     = 11
)

// Loop describes one experiment loop. Type uses the ND2 loop type codes
// (1 time, 2 XY position, 4 Z stack, 8 NE time).
type Loop struct {
	Type  int
	Count int
	// Valid, when set, is written as the loop's pItemValid mask.
	Valid []byte
}

// Spec describes a synthetic file.
type Spec struct {
	Width, Height int
	Channels      int
	Components    int // per channel; 0 means 1
	Loops         []Loop
	// SequenceCount overrides the frame count derived from the loops.
	SequenceCount int
	// Compress writes the metadata chunks as zlib-compressed variants.
	Compress bool
}

// Entry is a CLX-lite variant entry. Value is one of bool, int32, uint32,
// uint64, float64, string, []byte or []Entry (a nested level).
type Entry struct {
	Name  string
	Value any
}

// Build encodes spec as an ND2 file.
func Build(spec Spec) ([]byte, error) {
	frames := spec.SequenceCount
	if frames == 0 {
		frames = 1
		for _, l := range spec.Loops {
			frames *= max(l.Count, 1)
		}
	}
	channels := max(spec.Channels, 1)
	comps := max(spec.Components, 1)

	w := binary.NewWriter(binary.DefaultConfig())
	writeChunk(w, fileSignature, append([]byte("Ver3.0"), make([]byte, 58)...))

	locs := make(map[string]int64)
	sizes := make(map[string]int)
	var names []string
	add := func(name string, data []byte) {
		locs[name] = w.Pos()
		sizes[name] = len(data)
		names = append(names, name)
		writeChunk(w, name, data)
	}

	attrs := []Entry{{"SLxImageAttributes", []Entry{
		{"uiWidth", uint32(spec.Width)},
		{"uiWidthBytes", uint32(spec.Width * channels * comps * 2)},
		{"uiHeight", uint32(spec.Height)},
		{"uiComp", uint32(channels * comps)},
		{"uiBpcInMemory", uint32(16)},
		{"uiBpcSignificant", uint32(12)},
		{"uiSequenceCount", uint32(frames)},
		{"ePixelType", uint32(1)},
	}}}
	data, err := Encode(attrs, spec.Compress)
	if err != nil {
		return nil, err
	}
	add("ImageAttributesLV!", data)

	if len(spec.Loops) > 0 {
		if data, err = Encode([]Entry{{"SLxExperiment", experiment(spec.Loops)}}, spec.Compress); err != nil {
			return nil, err
		}
		add("ImageMetadataLV!", data)
	}

	planes := []Entry{{"uiCount", uint32(channels)}, {"uiSampleCount", uint32(channels * comps)}}
	for c := 0; c < channels; c++ {
		planes = append(planes, Entry{fmt.Sprintf("a%d", c), []Entry{
			{"sDescription", fmt.Sprintf("Channel %d", c)},
			{"uiCompCount", uint32(comps)},
		}})
	}
	picture := []Entry{{"SLxPictureMetadata", []Entry{
		{"dCalibration", 0.325},
		{"bCalibrated", true},
		{"sPicturePlanes", planes},
	}}}
	if data, err = Encode(picture, spec.Compress); err != nil {
		return nil, err
	}
	add("ImageMetadataSeqLV|0!", data)

	frameBytes := spec.Width * spec.Height * channels * comps * 2
	for i := 0; i < frames; i++ {
		add(fmt.Sprintf("ImageDataSeq|%d!", i), make([]byte, 8+frameBytes))
	}

	var m bytes.Buffer
	for _, name := range names {
		m.WriteString(name)
		mw := binary.NewWriter(binary.DefaultConfig())
		mw.WriteUint64(uint64(locs[name]))
		mw.WriteUint64(uint64(sizes[name]))
		m.Write(mw.Bytes())
	}
	mapOffset := w.Pos()
	m.WriteString(chunkMapSignature)
	tail := binary.NewWriter(binary.DefaultConfig())
	tail.WriteUint64(uint64(mapOffset))
	m.Write(tail.Bytes())
	writeChunk(w, fileMapSignature, m.Bytes())

	return w.Bytes(), nil
}

// WriteFile builds spec and writes it to path.
func WriteFile(path string, spec Spec) error {
	data, err := Build(spec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func experiment(loops []Loop) []Entry {
	l := loops[0]
	pars := []Entry{{"uiCount", uint32(l.Count)}, {"dPeriod", 100.0}}
	level := []Entry{
		{"uiLoopType", uint32(l.Type)},
		{"uLoopPars", pars},
	}
	if l.Valid != nil {
		level = append(level, Entry{"pItemValid", l.Valid})
	}
	var next []Entry
	if len(loops) > 1 {
		next = []Entry{{"i0000000000", experiment(loops[1:])}}
	}
	return append(level, Entry{"ppNextLevelEx", next})
}

// Encode serialises entries as a CLX-lite variant, optionally compressed.
func Encode(entries []Entry, compress bool) ([]byte, error) {
	w := binary.NewWriter(binary.DefaultConfig())
	for _, e := range entries {
		if err := encodeEntry(w, e); err != nil {
			return nil, err
		}
	}
	if !compress {
		return w.Bytes(), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('L')
	buf.Write(make([]byte, 9))
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(w.Bytes()); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeEntry(w *binary.Writer, e Entry) error {
	start := w.Pos()
	var typ uint8
	switch e.Value.(type) {
	case bool:
		typ = typeBool
	case int32:
		typ = typeInt32
	case uint32:
		typ = typeUint32
	case uint64:
		typ = typeUint64
	case float64:
		typ = typeDouble
	case string:
		typ = typeString
	case []byte:
		typ = typeByteArray
	case []Entry:
		typ = typeLevel
	default:
		return fmt.Errorf("entry %q: unsupported value type %T", e.Name, e.Value)
	}
	w.WriteUint8(typ)
	w.WriteUint8(uint8(len(utf16.Encode([]rune(e.Name))) + 1))
	w.WriteUTF16Z(e.Name)

	switch v := e.Value.(type) {
	case bool:
		if v {
			w.WriteUint8(1)
		} else {
			w.WriteUint8(0)
		}
	case int32:
		w.WriteUint32(uint32(v))
	case uint32:
		w.WriteUint32(v)
	case uint64:
		w.WriteUint64(v)
	case float64:
		w.WriteFloat64(v)
	case string:
		w.WriteUTF16Z(v)
	case []byte:
		w.WriteUint64(uint64(len(v)))
		w.WriteBytes(v)
	case []Entry:
		w.WriteUint32(uint32(len(v)))
		lengthPos := w.Pos()
		w.WriteUint64(0)
		offsets := make([]int64, len(v))
		for i, child := range v {
			offsets[i] = w.Pos() - start
			if err := encodeEntry(w, child); err != nil {
				return err
			}
		}
		w.PutUint64At(lengthPos, uint64(w.Pos()-start))
		for _, off := range offsets {
			w.WriteUint64(uint64(off))
		}
	}
	return nil
}

func writeChunk(w *binary.Writer, name string, data []byte) {
	w.WriteUint32(chunkMagic)
	w.WriteUint32(uint32(len(name)))
	w.WriteUint64(uint64(len(data)))
	w.WriteBytes([]byte(name))
	w.WriteBytes(data)
}
