package binary

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWriterLittleEndian(t *testing.T) {
	w := NewWriter(DefaultConfig())
	w.WriteUint8(0x01)
	w.WriteUint16(0x0302)
	w.WriteUint32(0x07060504)

	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got %x, want %x", w.Bytes(), want)
	}
	if w.Pos() != int64(len(want)) {
		t.Errorf("Pos = %d, want %d", w.Pos(), len(want))
	}
}

func TestWriterBigEndian(t *testing.T) {
	w := NewWriter(Config{ByteOrder: binary.BigEndian})
	w.WriteUint16(42)

	if !bytes.Equal(w.Bytes(), []byte{0x00, 0x2A}) {
		t.Errorf("got %x", w.Bytes())
	}
}

func TestWriterByteOrders(t *testing.T) {
	tests := []struct {
		name  string
		order binary.ByteOrder
		want  []byte
	}{
		{"little", binary.LittleEndian, []byte{
			0x02, 0x01,
			0x06, 0x05, 0x04, 0x03,
			0x0e, 0x0d, 0x0c, 0x0b, 0x0a, 0x09, 0x08, 0x07,
		}},
		{"big", binary.BigEndian, []byte{
			0x01, 0x02,
			0x03, 0x04, 0x05, 0x06,
			0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(Config{ByteOrder: tt.order})
			w.WriteUint16(0x0102)
			w.WriteUint32(0x03040506)
			w.WriteUint64(0x0708090a0b0c0d0e)
			if !bytes.Equal(w.Bytes(), tt.want) {
				t.Errorf("got %x, want %x", w.Bytes(), tt.want)
			}

			r := NewReader(bytesReaderAt(w.Bytes()), Config{ByteOrder: tt.order})
			v16, _ := r.ReadUint16()
			v32, _ := r.ReadUint32()
			v64, err := r.ReadUint64()
			if err != nil {
				t.Fatalf("reading back: %v", err)
			}
			if v16 != 0x0102 || v32 != 0x03040506 || v64 != 0x0708090a0b0c0d0e {
				t.Errorf("read back %#x %#x %#x", v16, v32, v64)
			}
		})
	}
}

func TestWriterPatch(t *testing.T) {
	w := NewWriter(DefaultConfig())
	w.WriteUint32(0)
	w.WriteUint64(0)
	w.WriteZeros(2)

	w.PutUint32At(0, 0xCAFEBABE)
	w.PutUint64At(4, 99)

	r := NewReader(bytes.NewReader(w.Bytes()), DefaultConfig())
	v32, _ := r.ReadUint32()
	v64, _ := r.ReadUint64()
	if v32 != 0xCAFEBABE || v64 != 99 {
		t.Errorf("patched values = %#x, %d", v32, v64)
	}
	if len(w.Bytes()) != 14 {
		t.Errorf("length = %d, want 14", len(w.Bytes()))
	}
}

func TestWriterFloat64RoundTrip(t *testing.T) {
	w := NewWriter(DefaultConfig())
	w.WriteFloat64(0.325)

	r := NewReader(bytes.NewReader(w.Bytes()), DefaultConfig())
	v, err := r.ReadFloat64()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0.325 {
		t.Errorf("got %v", v)
	}
}
