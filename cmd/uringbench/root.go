package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/go-uringbench/internal/logging"
)

const progVersion = "0.1.0"

// globalFlags are shared by every subcommand
type globalFlags struct {
	verbose   bool
	quiet     bool
	logFormat string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "uringbench",
		Short:         "Sequential write benchmark over io_uring",
		Long:          "Writes a target extent with a bounded number of io_uring operations in flight, interleaving data-sync barriers, and reports IOPS and throughput once per interval.",
		Version:       progVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setupLogging()
		},
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "only log warnings and errors")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "log format (text or json)")

	root.AddCommand(newWriteCmd(), newProbeCmd())
	return root
}

func (g *globalFlags) setupLogging() error {
	if g.logFormat != "text" && g.logFormat != "json" {
		return fmt.Errorf("invalid log format %q", g.logFormat)
	}
	config := logging.DefaultConfig()
	config.Format = g.logFormat
	config.Output = os.Stderr
	switch {
	case g.verbose:
		config.Level = logging.LevelDebug
	case g.quiet:
		config.Level = logging.LevelWarn
	}
	logging.SetDefault(logging.NewLogger(config))
	return nil
}
