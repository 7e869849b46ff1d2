package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tmc/thredds"
	"github.com/tmc/thredds/internal/config"
)

func newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show disk cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}

			cache, err := thredds.OpenDiskCache(cfg.CacheDir)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer cache.Close()

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			out := cmd.OutOrStdout()
			title := color.New(color.FgCyan, color.Bold)
			title.Fprint(out, "Cache:    ")
			fmt.Fprintln(out, cache.Root())
			title.Fprint(out, "Entries:  ")
			fmt.Fprintln(out, stats.Entries)
			title.Fprint(out, "Bytes:    ")
			fmt.Fprintln(out, stats.Bytes)
			if stats.Entries > 0 {
				title.Fprint(out, "Oldest:   ")
				fmt.Fprintln(out, stats.Oldest.Format(time.RFC3339))
				title.Fprint(out, "Newest:   ")
				fmt.Fprintln(out, stats.Newest.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().String("cache-dir", ".cache", "Local cache folder")
	return cmd
}
