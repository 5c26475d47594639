package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/robert-malhotra/go-artile/artile"
)

// tileSummary is the printable description of a loaded tile.
type tileSummary struct {
	Path     string         `json:"path,omitempty"`
	Kind     string         `json:"kind"`
	Shape    []int          `json:"shape"`
	DType    string         `json:"dtype,omitempty"`
	Pages    int            `json:"pages,omitempty"`
	Axes     []string       `json:"axes,omitempty"`
	Sizes    map[string]int `json:"sizes,omitempty"`
	Dask     bool           `json:"dask"`
	LinkData bool           `json:"link_data"`
}

func summarize(path string, t *artile.Tile) tileSummary {
	s := tileSummary{
		Path:     path,
		Kind:     t.Kind().String(),
		Shape:    t.Shape(),
		Dask:     t.Dask,
		LinkData: t.LinkData,
	}
	if a, ok := t.Array(); ok && a.Data != nil {
		s.DType = a.Data.DType().String()
	}
	if p, ok := t.ND2(); ok {
		s.Axes = p.AxisOrder
		s.Sizes = p.AxisSizes
	}
	return s
}

func printSummaries(w io.Writer, runID string, sums []tileSummary, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		payload := map[string]any{"tiles": sums}
		if runID != "" {
			payload["run_id"] = runID
		}
		return enc.Encode(payload)
	case "pretty", "":
		if runID != "" {
			fmt.Fprintf(w, "Run ID: %s\n\n", runID)
		}
		for _, s := range sums {
			printPretty(w, s)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
	}
}

func printPretty(w io.Writer, s tileSummary) {
	if s.Path != "" {
		fmt.Fprintf(w, "%s\n", s.Path)
	}
	fmt.Fprintf(w, "  kind:      %s\n", s.Kind)
	fmt.Fprintf(w, "  shape:     %v\n", s.Shape)
	if s.DType != "" {
		fmt.Fprintf(w, "  dtype:     %s\n", s.DType)
	}
	if s.Pages > 0 {
		fmt.Fprintf(w, "  pages:     %d\n", s.Pages)
	}
	if len(s.Axes) > 0 {
		fmt.Fprintf(w, "  axes:      %s\n", strings.Join(s.Axes, ""))
	}
	fmt.Fprintf(w, "  dask:      %t\n", s.Dask)
	fmt.Fprintf(w, "  link_data: %t\n", s.LinkData)
}
