package artile

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-artile/ndarray"
)

// Kind identifies the payload a Tile carries.
type Kind int

const (
	KindArray Kind = iota + 1
	KindND2
	KindLargeImage
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindND2:
		return "nd2"
	case KindLargeImage:
		return "large-image"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Tile is a loaded image. It carries exactly one payload variant, fixed at
// construction, along with the Dask and LinkData flags.
type Tile struct {
	// Dask reports whether the data is held lazily in chunks.
	Dask bool
	// LinkData reports whether derived output stays linked to this tile.
	LinkData bool

	payload payload
}

type payload interface {
	kind() Kind
}

// ArrayData is the payload of tiles backed by an in-memory or chunked array.
type ArrayData struct {
	Data ndarray.Array
}

// ND2Data is the payload of tiles backed by an ND2 file. The file path is
// kept as is; AxisSizes maps each name in AxisOrder to its length.
type ND2Data struct {
	Path      string
	AxisSizes map[string]int
	AxisOrder []string
}

// LargeImageData is the payload of tiles backed by a tile pyramid source.
type LargeImageData struct {
	Source TileSource
}

func (*ArrayData) kind() Kind      { return KindArray }
func (*ND2Data) kind() Kind        { return KindND2 }
func (*LargeImageData) kind() Kind { return KindLargeImage }

func newTile(p payload) *Tile {
	return &Tile{LinkData: true, payload: p}
}

// Kind returns the payload variant, or 0 for a zero Tile.
func (t *Tile) Kind() Kind {
	if t == nil || t.payload == nil {
		return 0
	}
	return t.payload.kind()
}

// Array returns the array payload.
func (t *Tile) Array() (*ArrayData, bool) {
	if t == nil {
		return nil, false
	}
	p, ok := t.payload.(*ArrayData)
	return p, ok
}

// ND2 returns the ND2 payload.
func (t *Tile) ND2() (*ND2Data, bool) {
	if t == nil {
		return nil, false
	}
	p, ok := t.payload.(*ND2Data)
	return p, ok
}

// LargeImage returns the large-image payload.
func (t *Tile) LargeImage() (*LargeImageData, bool) {
	if t == nil {
		return nil, false
	}
	p, ok := t.payload.(*LargeImageData)
	return p, ok
}

// Shape returns the image dimensions in axis order. For large-image tiles
// this is the full-resolution [Y, X].
func (t *Tile) Shape() []int {
	switch p := t.payloadOrNil().(type) {
	case *ArrayData:
		if p.Data == nil {
			return nil
		}
		return p.Data.Shape()
	case *ND2Data:
		shape := make([]int, len(p.AxisOrder))
		for i, name := range p.AxisOrder {
			shape[i] = p.AxisSizes[name]
		}
		return shape
	case *LargeImageData:
		if p.Source == nil {
			return nil
		}
		md := p.Source.Metadata()
		return []int{md.SizeY, md.SizeX}
	}
	return nil
}

func (t *Tile) payloadOrNil() payload {
	if t == nil {
		return nil
	}
	return t.payload
}

func (t *Tile) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tile{kind=%s", t.Kind())
	if p, ok := t.ND2(); ok {
		fmt.Fprintf(&b, ", path=%s, axes=%s", p.Path, strings.Join(p.AxisOrder, ""))
	}
	if p, ok := t.Array(); ok && p.Data != nil {
		fmt.Fprintf(&b, ", dtype=%s", p.Data.DType())
	}
	fmt.Fprintf(&b, ", shape=%v, dask=%t, link_data=%t}", t.Shape(), t.Dask, t.LinkData)
	return b.String()
}
