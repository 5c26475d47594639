// Package tiff reads TIFF files, including multi-page stacks, into arrays.
//
// Pixel decoding is done by golang.org/x/image/tiff, which only decodes the
// first image of a file. Further pages are reached by presenting the decoder
// a view of the file whose header points at the page's IFD.
package tiff

import (
	"context"
	stdbinary "encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"slices"

	xtiff "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/go-artile/internal/binary"
	"github.com/robert-malhotra/go-artile/ndarray"
)

// Common errors
var (
	ErrNotTIFF      = errors.New("not a TIFF file")
	ErrUnsupported  = errors.New("unsupported TIFF feature")
	ErrPageMismatch = errors.New("TIFF pages differ in shape or dtype")
)

// maxPages bounds the IFD chain walk.
const maxPages = 1 << 20

// Options configures reading.
type Options struct {
	// Workers bounds concurrent page decodes.
	Workers int
}

// Read reads the TIFF file at path. A single page yields a [Y, X] or
// [Y, X, S] array, a stack of pages gets a leading page axis. When lazy is
// set the result is chunked one page per chunk and nothing is decoded yet.
func Read(path string, lazy bool, opts Options) (ndarray.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	l, err := scan(f)
	if err != nil {
		return nil, err
	}
	cfg, err := xtiff.DecodeConfig(l.page(f, 0))
	if err != nil {
		return nil, fmt.Errorf("reading page 0 header: %w", err)
	}
	dtype, samples, err := pixelFormat(cfg.ColorModel)
	if err != nil {
		return nil, err
	}
	pageShape := []int{cfg.Height, cfg.Width}
	if samples > 1 {
		pageShape = append(pageShape, samples)
	}

	if lazy {
		return l.chunked(path, dtype, pageShape, opts)
	}
	return l.decodeAll(f, dtype, pageShape, opts)
}

// Pages returns the number of images in the TIFF file at path.
func Pages(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	l, err := scan(f)
	if err != nil {
		return 0, err
	}
	return len(l.ifds), nil
}

// layout describes the page structure of a TIFF file.
type layout struct {
	magic [4]byte
	r     *binary.Reader
	ifds  []uint32
}

// scan reads the header and follows the IFD chain.
func scan(ra io.ReaderAt) (*layout, error) {
	r := binary.NewReader(ra, binary.DefaultConfig())
	hdr, err := r.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrNotTIFF, err)
	}
	switch string(hdr[:2]) {
	case "II":
	case "MM":
		r = r.WithByteOrder(stdbinary.BigEndian)
	default:
		return nil, ErrNotTIFF
	}
	switch magic := r.ByteOrder().Uint16(hdr[2:]); magic {
	case 42:
	case 43:
		return nil, fmt.Errorf("%w: BigTIFF", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: bad magic %d", ErrNotTIFF, magic)
	}

	l := &layout{r: r}
	copy(l.magic[:], hdr)

	off, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading first IFD offset: %w", err)
	}
	seen := make(map[uint32]bool)
	for off != 0 {
		if seen[off] || len(l.ifds) >= maxPages {
			return nil, fmt.Errorf("%w: IFD chain loops at offset %d", ErrNotTIFF, off)
		}
		seen[off] = true
		l.ifds = append(l.ifds, off)

		ir := r.At(int64(off))
		n, err := ir.ReadUint16()
		if err != nil {
			return nil, fmt.Errorf("reading IFD at %d: %w", off, err)
		}
		ir.Skip(int64(n) * 12)
		if off, err = ir.ReadUint32(); err != nil {
			return nil, fmt.Errorf("reading next IFD offset: %w", err)
		}
	}
	if len(l.ifds) == 0 {
		return nil, fmt.Errorf("%w: no images", ErrNotTIFF)
	}
	return l, nil
}

// page returns a view of ra in which page i is the first image.
func (l *layout) page(ra io.ReaderAt, i int) *pageReader {
	p := &pageReader{ra: ra}
	copy(p.header[:4], l.magic[:])
	l.r.ByteOrder().PutUint32(p.header[4:], l.ifds[i])
	return p
}

func (l *layout) decodePage(ra io.ReaderAt, i int, dtype ndarray.DType, shape []int) (*ndarray.Dense, error) {
	img, err := xtiff.Decode(l.page(ra, i))
	if err != nil {
		return nil, fmt.Errorf("decoding page %d: %w", i, err)
	}
	d, err := toDense(img)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", i, err)
	}
	if d.DType() != dtype || !slices.Equal(d.Shape(), shape) {
		return nil, fmt.Errorf("%w: page %d is %s%v, page 0 is %s%v",
			ErrPageMismatch, i, d.DType(), d.Shape(), dtype, shape)
	}
	return d, nil
}

func (l *layout) decodeAll(ra io.ReaderAt, dtype ndarray.DType, pageShape []int, opts Options) (ndarray.Array, error) {
	pages := make([]*ndarray.Dense, len(l.ifds))

	var g errgroup.Group
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i := range pages {
		g.Go(func() error {
			d, err := l.decodePage(ra, i, dtype, pageShape)
			pages[i] = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(pages) == 1 {
		return pages[0], nil
	}
	return ndarray.Stack(pages)
}

// chunked builds a lazy array that opens the file once per page load.
func (l *layout) chunked(path string, dtype ndarray.DType, pageShape []int, opts Options) (ndarray.Array, error) {
	shape, chunks := pageShape, pageShape
	stacked := len(l.ifds) > 1
	if stacked {
		shape = append([]int{len(l.ifds)}, pageShape...)
		chunks = append([]int{1}, pageShape...)
	}

	load := func(_ context.Context, index []int) (*ndarray.Dense, error) {
		page := 0
		if stacked {
			page = index[0]
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		defer f.Close()

		d, err := l.decodePage(f, page, dtype, pageShape)
		if err != nil || !stacked {
			return d, err
		}
		return ndarray.New(dtype, chunks, d.Bytes())
	}

	c, err := ndarray.NewChunked(dtype, shape, chunks, load)
	if err != nil {
		return nil, err
	}
	return c.WithWorkers(opts.Workers), nil
}

// pageReader overlays a rewritten 8-byte header on the underlying file.
// It implements io.ReaderAt so the decoder reads strips in place.
type pageReader struct {
	ra     io.ReaderAt
	header [8]byte
	pos    int64
}

func (p *pageReader) ReadAt(b []byte, off int64) (int, error) {
	n, err := p.ra.ReadAt(b, off)
	if off < int64(len(p.header)) {
		copy(b[:n], p.header[off:])
	}
	return n, err
}

func (p *pageReader) Read(b []byte) (int, error) {
	n, err := p.ReadAt(b, p.pos)
	p.pos += int64(n)
	return n, err
}

// pixelFormat maps a decoder colour model to an element type and the
// number of samples per pixel.
func pixelFormat(m color.Model) (ndarray.DType, int, error) {
	if _, ok := m.(color.Palette); ok {
		return ndarray.Uint8, 1, nil
	}
	switch m {
	case color.GrayModel:
		return ndarray.Uint8, 1, nil
	case color.Gray16Model:
		return ndarray.Uint16, 1, nil
	case color.RGBAModel, color.NRGBAModel:
		return ndarray.Uint8, 4, nil
	case color.RGBA64Model, color.NRGBA64Model:
		return ndarray.Uint16, 4, nil
	}
	return ndarray.Invalid, 0, fmt.Errorf("%w: colour model %T", ErrUnsupported, m)
}

// toDense copies the pixels of a decoded image into a row-major array.
// Sixteen-bit pixels are stored big-endian by the image package.
func toDense(img image.Image) (*ndarray.Dense, error) {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	switch m := img.(type) {
	case *image.Gray:
		return pixels(ndarray.Uint8, []int{h, w}, m.Pix, m.Stride, w, false)
	case *image.Paletted:
		return pixels(ndarray.Uint8, []int{h, w}, m.Pix, m.Stride, w, false)
	case *image.Gray16:
		return pixels(ndarray.Uint16, []int{h, w}, m.Pix, m.Stride, w*2, true)
	case *image.RGBA:
		return pixels(ndarray.Uint8, []int{h, w, 4}, m.Pix, m.Stride, w*4, false)
	case *image.NRGBA:
		return pixels(ndarray.Uint8, []int{h, w, 4}, m.Pix, m.Stride, w*4, false)
	case *image.RGBA64:
		return pixels(ndarray.Uint16, []int{h, w, 4}, m.Pix, m.Stride, w*8, true)
	case *image.NRGBA64:
		return pixels(ndarray.Uint16, []int{h, w, 4}, m.Pix, m.Stride, w*8, true)
	}
	return nil, fmt.Errorf("%w: decoded image type %T", ErrUnsupported, img)
}

func pixels(dtype ndarray.DType, shape []int, pix []byte, stride, rowBytes int, swap16 bool) (*ndarray.Dense, error) {
	h := shape[0]
	data := make([]byte, 0, h*rowBytes)
	for y := 0; y < h; y++ {
		data = append(data, pix[y*stride:y*stride+rowBytes]...)
	}
	if swap16 {
		for i := 0; i+1 < len(data); i += 2 {
			data[i], data[i+1] = data[i+1], data[i]
		}
	}
	return ndarray.New(dtype, shape, data)
}
