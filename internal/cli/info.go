package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-artile/artile"
	"github.com/robert-malhotra/go-artile/internal/sources/nd2"
	"github.com/robert-malhotra/go-artile/internal/sources/tiff"
)

func infoCmd() *cobra.Command {
	var dask bool
	var linkData bool
	var chunks bool
	var format string

	c := &cobra.Command{
		Use:   "info <image>",
		Short: "Load an image and describe the resulting tile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			tile, err := artile.Load(path,
				artile.WithDask(dask),
				artile.WithLinkData(linkData),
				artile.WithContext(cmd.Context()))
			if err != nil {
				return err
			}

			sum := summarize(path, tile)
			if src, err := artile.Classify(path); err == nil && src.Kind == artile.SourceTIFF {
				if sum.Pages, err = tiff.Pages(path); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if err := printSummaries(out, "", []tileSummary{sum}, format); err != nil {
				return err
			}
			if chunks && tile.Kind() == artile.KindND2 {
				return printChunks(out, path)
			}
			return nil
		},
	}

	c.Flags().BoolVar(&dask, "dask", true, "Load array data lazily in chunks")
	c.Flags().BoolVar(&linkData, "link-data", true, "Keep output data linked to its source")
	c.Flags().BoolVar(&chunks, "chunks", false, "List the chunks of an ND2 file")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")
	return c
}

func printChunks(w io.Writer, path string) error {
	f, err := nd2.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(w, "  version:   %s\n", f.Version())
	fmt.Fprintf(w, "  frames:    %d\n", f.Frames())
	fmt.Fprintln(w, "  chunks:")
	for _, name := range f.ChunkNames() {
		if strings.HasPrefix(name, "ImageDataSeq|") {
			continue
		}
		fmt.Fprintf(w, "    %s\n", name)
	}
	return nil
}
