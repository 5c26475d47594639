package nd2

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-artile/internal/binary"
)

const (
	chunkMagic       = 0x0ABECEDA
	chunkHeaderSize  = 16
	signatureSize    = 32
	chunkMapTrailer  = signatureSize + 8
	maxChunkDataSize = 1 << 32
)

const (
	fileSignature     = "ND2 FILE SIGNATURE CHUNK NAME01!"
	chunkMapSignature = "ND2 CHUNK MAP SIGNATURE 0000001!"
	fileMapSignature  = "ND2 FILEMAP SIGNATURE NAME 0001!"
)

// Metadata chunk names.
const (
	chunkAttributes = "ImageAttributesLV!"
	chunkExperiment = "ImageMetadataLV!"
	chunkPicture    = "ImageMetadataSeqLV|0!"
	chunkImageData  = "ImageDataSeq|"
)

var jp2Signature = []byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' '}

// chunkLoc is a chunk map entry.
type chunkLoc struct {
	offset int64
}

// chunkHeader precedes every chunk: magic, name length, data length.
type chunkHeader struct {
	nameLen uint32
	dataLen uint64
}

// sizedConfig bounds reads to size bytes so that corrupt lengths fail
// before allocating.
func sizedConfig(size int64) binary.Config {
	cfg := binary.DefaultConfig()
	cfg.Size = size
	return cfg
}

func readChunkHeader(r *binary.Reader) (chunkHeader, error) {
	magic, err := r.ReadUint32()
	if err != nil {
		return chunkHeader{}, err
	}
	if magic != chunkMagic {
		return chunkHeader{}, fmt.Errorf("%w: bad chunk magic %#x at %d", ErrNotND2, magic, r.Pos()-4)
	}
	var h chunkHeader
	if h.nameLen, err = r.ReadUint32(); err != nil {
		return chunkHeader{}, err
	}
	if h.dataLen, err = r.ReadUint64(); err != nil {
		return chunkHeader{}, err
	}
	if h.dataLen > maxChunkDataSize {
		return chunkHeader{}, fmt.Errorf("%w: chunk data length %d", ErrNotND2, h.dataLen)
	}
	return h, nil
}

// readChunkAt returns the name and payload of the chunk whose header is at
// offset.
func readChunkAt(r *binary.Reader, offset int64) (string, []byte, error) {
	cr := r.At(offset)
	h, err := readChunkHeader(cr)
	if err != nil {
		return "", nil, fmt.Errorf("chunk at %d: %w", offset, err)
	}
	name, err := cr.ReadBytes(int(h.nameLen))
	if err != nil {
		return "", nil, fmt.Errorf("chunk at %d: reading name: %w", offset, err)
	}
	data, err := cr.ReadBytes64(h.dataLen)
	if err != nil {
		return "", nil, fmt.Errorf("chunk at %d: reading %d bytes: %w", offset, h.dataLen, err)
	}
	return string(bytes.TrimRight(name, "\x00")), data, nil
}

// readSignature validates the leading signature chunk and returns the
// version string stored in it.
func readSignature(r *binary.Reader) (string, error) {
	head, err := r.At(0).Peek(len(jp2Signature))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotND2, err)
	}
	if isLegacy(head) {
		return "", ErrLegacyFormat
	}

	cr := r.At(0)
	h, err := readChunkHeader(cr)
	if err != nil {
		if errors.Is(err, ErrNotND2) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrNotND2, err)
	}
	name, err := cr.ReadBytes(int(h.nameLen))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotND2, err)
	}
	if string(bytes.TrimRight(name, "\x00")) != fileSignature {
		return "", fmt.Errorf("%w: missing file signature", ErrNotND2)
	}
	data, err := cr.ReadBytes64(h.dataLen)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotND2, err)
	}
	return string(bytes.TrimRight(data, "\x00")), nil
}

// readChunkMap locates the chunk map through the trailer at the end of the
// file and parses its entries. Each entry is a '!'-terminated name followed
// by the chunk offset and size.
func readChunkMap(r *binary.Reader, fileSize int64) (map[string]chunkLoc, error) {
	if fileSize < chunkMapTrailer {
		return nil, fmt.Errorf("%w: file too small", ErrNotND2)
	}
	tr := r.At(fileSize - chunkMapTrailer)
	sig, err := tr.ReadBytes(signatureSize)
	if err != nil {
		return nil, err
	}
	if string(sig) != chunkMapSignature {
		return nil, fmt.Errorf("%w: missing chunk map signature", ErrNotND2)
	}
	mapOffset, err := tr.ReadUint64()
	if err != nil {
		return nil, err
	}
	if mapOffset >= uint64(fileSize) {
		return nil, fmt.Errorf("%w: chunk map offset %d beyond end of file", ErrNotND2, mapOffset)
	}

	name, data, err := readChunkAt(r, int64(mapOffset))
	if err != nil {
		return nil, err
	}
	if name != fileMapSignature {
		return nil, fmt.Errorf("%w: chunk map has name %q", ErrNotND2, name)
	}

	chunks := make(map[string]chunkLoc)
	mr := binary.NewReader(bytes.NewReader(data), sizedConfig(int64(len(data))))
	for int(mr.Pos()) < len(data) {
		rest := data[mr.Pos():]
		end := bytes.IndexByte(rest, '!')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated chunk map entry", ErrNotND2)
		}
		name := string(rest[:end+1])
		if name == chunkMapSignature {
			break
		}
		mr.Skip(int64(end + 1))
		off, err := mr.ReadUint64()
		if err != nil {
			return nil, fmt.Errorf("chunk map entry %q: %w", name, err)
		}
		// The recorded size duplicates the chunk header's data length.
		mr.Skip(8)
		if off >= uint64(fileSize) {
			return nil, fmt.Errorf("%w: chunk %q offset %d beyond end of file", ErrNotND2, name, off)
		}
		chunks[name] = chunkLoc{offset: int64(off)}
	}
	return chunks, nil
}
