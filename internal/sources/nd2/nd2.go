// Package nd2 reads the metadata of Nikon ND2 files.
//
// An ND2 file is a sequence of named chunks. A chunk map at the end of the
// file locates them by name; metadata chunks hold CLX-lite variant trees
// from which the axis layout of the acquisition is derived. Pixel data
// chunks are located but never decoded here.
package nd2

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/robert-malhotra/go-artile/internal/binary"
)

// Common errors
var (
	ErrNotND2        = errors.New("not an ND2 file")
	ErrLegacyFormat  = errors.New("legacy JPEG2000-based ND2 files are not supported")
	ErrChunkNotFound = errors.New("chunk not found")
	ErrUnsupported   = errors.New("unsupported ND2 feature")
)

// Read returns the axis sizes and the native axis order of the ND2 file at
// path. The keys of sizes are exactly the entries of order.
func Read(path string) (map[string]int, []string, error) {
	f, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return f.Axes()
}

// File is an open ND2 file.
type File struct {
	path    string
	file    *os.File
	reader  *binary.Reader
	version string
	chunks  map[string]chunkLoc
	closed  bool
}

// Open opens an ND2 file and reads its chunk map.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	nd := &File{
		path:   path,
		file:   f,
		reader: binary.NewReader(f, sizedConfig(info.Size())),
	}
	if nd.version, err = readSignature(nd.reader); err != nil {
		f.Close()
		return nil, err
	}
	if nd.chunks, err = readChunkMap(nd.reader, info.Size()); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading chunk map: %w", err)
	}
	return nd, nil
}

// Close closes the file.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Version returns the format version recorded in the signature chunk,
// for example "Ver3.0".
func (f *File) Version() string {
	return f.version
}

// ChunkNames returns the names in the chunk map, sorted.
func (f *File) ChunkNames() []string {
	names := make([]string, 0, len(f.chunks))
	for name := range f.chunks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasChunk reports whether the chunk map lists name.
func (f *File) HasChunk(name string) bool {
	_, ok := f.chunks[name]
	return ok
}

// ReadChunk returns the payload of the named chunk.
func (f *File) ReadChunk(name string) ([]byte, error) {
	if f.closed {
		return nil, os.ErrClosed
	}
	loc, ok := f.chunks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, name)
	}
	_, data, err := readChunkAt(f.reader, loc.offset)
	return data, err
}

// Metadata decodes the named CLX-lite chunk.
func (f *File) Metadata(name string) (map[string]any, error) {
	data, err := f.ReadChunk(name)
	if err != nil {
		return nil, err
	}
	m, err := decodeVariant(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return m, nil
}

// Frames returns the number of image data chunks in the file.
func (f *File) Frames() int {
	n := 0
	for name := range f.chunks {
		if strings.HasPrefix(name, chunkImageData) {
			n++
		}
	}
	return n
}

// Axes reads the metadata chunks and derives the axis layout.
func (f *File) Axes() (map[string]int, []string, error) {
	attrs, err := f.Metadata(chunkAttributes)
	if err != nil {
		return nil, nil, err
	}

	var experiment, picture map[string]any
	if f.HasChunk(chunkExperiment) {
		if experiment, err = f.Metadata(chunkExperiment); err != nil {
			return nil, nil, err
		}
	}
	if f.HasChunk(chunkPicture) {
		if picture, err = f.Metadata(chunkPicture); err != nil {
			return nil, nil, err
		}
	}
	return axes(attrs, experiment, picture)
}

// isLegacy reports whether head starts with a JPEG 2000 signature box.
func isLegacy(head []byte) bool {
	return bytes.HasPrefix(head, jp2Signature)
}
