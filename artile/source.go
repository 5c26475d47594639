package artile

import (
	"fmt"
	"os"
	"strings"

	"github.com/robert-malhotra/go-artile/ndarray"
)

// SourceKind identifies what an image input is.
type SourceKind int

const (
	SourceChunked SourceKind = iota + 1
	SourceDense
	SourceTIFF
	SourceND2
)

func (k SourceKind) String() string {
	switch k {
	case SourceChunked:
		return "chunked"
	case SourceDense:
		return "dense"
	case SourceTIFF:
		return "tiff"
	case SourceND2:
		return "nd2"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Source is a classified image input. Array is set for the array kinds,
// Path for the file kinds.
type Source struct {
	Kind  SourceKind
	Array ndarray.Array
	Path  string
}

// Classify determines the kind of an image input. The checks run in order
// and the first match wins:
//
//  1. *ndarray.Chunked
//  2. *ndarray.Dense
//  3. a string naming an existing regular file, routed by suffix:
//     ".tif" and ".tiff" to TIFF, ".nd2" to ND2
//
// Suffixes are matched case-sensitively. An existing file with any other
// suffix fails with ErrUnsupportedFileType; every other input, including a
// path that does not resolve to a regular file, fails with ErrInvalidImage.
func Classify(image any) (Source, error) {
	switch v := image.(type) {
	case *ndarray.Chunked:
		if v != nil {
			return Source{Kind: SourceChunked, Array: v}, nil
		}
	case *ndarray.Dense:
		if v != nil {
			return Source{Kind: SourceDense, Array: v}, nil
		}
	case string:
		return classifyPath(v)
	}
	return Source{}, fmt.Errorf("%w: unsupported input %T", ErrInvalidImage, image)
}

func classifyPath(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if !info.Mode().IsRegular() {
		return Source{}, fmt.Errorf("%w: %s is not a regular file", ErrInvalidImage, path)
	}

	switch {
	case strings.HasSuffix(path, ".tif"), strings.HasSuffix(path, ".tiff"):
		return Source{Kind: SourceTIFF, Path: path}, nil
	case strings.HasSuffix(path, ".nd2"):
		return Source{Kind: SourceND2, Path: path}, nil
	}
	return Source{}, fmt.Errorf("%w: %s", ErrUnsupportedFileType, path)
}
