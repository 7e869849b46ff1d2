package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version is set at build time.
	Version = "dev"

	configFile string
	verbose    bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "thredds",
		Short: "Harvest dataset metadata from THREDDS catalogs",
		Long: `thredds crawls a THREDDS catalog tree, reads the NcML metadata of every
dataset it finds and writes a JSON index of datasets that share one schema,
including selected coordinate values fetched over OPeNDAP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./thredds.yaml if present)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	root.AddCommand(newHarvestCommand())
	root.AddCommand(newStatsCommand())
	root.AddCommand(newInspectCommand())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "thredds", Version)
		},
	})
	return root
}

// newLogger installs the global logger used by the library.
func newLogger(debug bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
