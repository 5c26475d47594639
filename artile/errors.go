// Package artile loads microscopy images from arrays, TIFF files and ND2
// files into uniform tiles, and applies functions across collections of
// tiles.
package artile

import "errors"

// Common errors
var (
	ErrInvalidImage        = errors.New("invalid image")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNilFunc             = errors.New("nil tile function")
)
