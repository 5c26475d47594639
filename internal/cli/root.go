package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-artile/artile"
	"github.com/robert-malhotra/go-artile/internal/logger"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:          "artile",
		Short:        "Load microscopy images into tiles",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			artile.SetLogger(logger.Setup(logger.Config{
				Debug:  debug,
				Writer: cmd.ErrOrStderr(),
			}))
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose logging to stderr")
	cmd.AddCommand(infoCmd(), batchCmd())
	return cmd
}
