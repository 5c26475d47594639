package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-artile/artile"
	"github.com/robert-malhotra/go-artile/internal/logger"
)

func batchCmd() *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Load every image listed in a manifest and describe each tile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := LoadManifest(args[0])
			if err != nil {
				return err
			}

			runID := uuid.New().String()
			log := logger.L().With("run_id", runID)
			started := time.Now()

			tiles, err := loadAll(cmd, m)
			if err != nil {
				return err
			}

			sums := make([]tileSummary, 0, len(tiles))
			_, err = artile.ExecuteFunc(tiles, func(t *artile.Tile) (*artile.Tile, error) {
				path := m.Images[len(sums)].Path
				sums = append(sums, summarize(path, t))
				log.Debug("batch.tile", "path", path, "kind", t.Kind().String())
				return t, nil
			})
			if err != nil {
				return err
			}

			log.Info("batch.completed",
				"manifest", m.Path,
				"tiles", len(tiles),
				"duration_ms", time.Since(started).Milliseconds())
			return printSummaries(cmd.OutOrStdout(), runID, sums, format)
		},
	}

	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")
	return c
}

func loadAll(cmd *cobra.Command, m Manifest) (artile.Tiled, error) {
	tiles := make(artile.Tiled, 0, len(m.Images))
	for _, img := range m.Images {
		opts := append(img.Options(), artile.WithContext(cmd.Context()))
		t, err := artile.Load(img.Path, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", img.Path, err)
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}
