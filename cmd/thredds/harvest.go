package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tmc/thredds"
	"github.com/tmc/thredds/internal/config"
)

const rootCatalog = "catalog.xml"

func newHarvestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest <url> <output-file>",
		Short: "Crawl a catalog tree and write a dataset index",
		Long: `Recursively load catalogs from the given server, read each dataset's NcML
metadata and write an index of all datasets sharing the first dataset's schema.`,
		Example: `  thredds harvest http://eos.scc.kit.edu/ index.json
  thredds harvest --base-folder icon/ --dataset-include DOM01 --modify-timestamp excel http://eos.scc.kit.edu/ index.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			cfg.URL, cfg.Output = args[0], args[1]
			return runHarvest(cmd.Context(), cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.String("catalog-folder", "thredds/catalog/", "Appended to the URL to point to the catalog folder")
	f.String("base-folder", "", "Start at this sub folder instead of the top of the hierarchy")
	f.StringSlice("dataset-include", nil, "Comma separated include patterns for dataset IDs")
	f.StringSlice("dataset-exclude", nil, "Comma separated exclude patterns for dataset IDs")
	f.StringSlice("catalog-include", nil, "Comma separated include patterns for catalog IDs")
	f.StringSlice("catalog-exclude", nil, "Comma separated exclude patterns for catalog IDs")
	f.String("cache-dir", ".cache", "Local cache folder (will be created)")
	f.String("cache-backend", "disk", "Cache backend: disk, memory or redis")
	f.String("redis-addr", "localhost:6379", "Redis address for the redis cache backend")
	f.Bool("force-remote", false, "Ignore cached documents (results are still cached)")
	f.StringSlice("coordinates", []string{"time"}, "Coordinate dimensions to retrieve for every dataset")
	f.String("modify-timestamp", "none", "Timestamp decoding for the time coordinate: none or excel")
	f.Bool("keep-attributes", false, "Store each dataset's global attributes in the index")
	f.Int("catalog-workers", 3, "Concurrent catalog loads per catalog")
	f.Int("dataset-workers", 3, "Concurrent NcML loads per catalog")
	f.Duration("timeout", thredds.DefaultTimeout, "Per-request network timeout")
	return cmd
}

func runHarvest(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run", uuid.NewString()))
	zap.ReplaceGlobals(logger)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	remote := thredds.NewRemoteProvider(cfg.URL, &http.Client{Timeout: cfg.Timeout})
	provider := thredds.NewCachedOrRemoteProvider(store, remote, cfg.ForceRemote)

	crawler := thredds.NewCrawler(provider, &thredds.CrawlOptions{
		CatalogFolder:  cfg.CatalogFolder,
		CatalogWorkers: cfg.CatalogWorkers,
		DatasetWorkers: cfg.DatasetWorkers,
		Logger:         logger,
	})
	if err := addFilters(crawler, cfg); err != nil {
		return err
	}

	if err := crawler.Crawl(ctx, cfg.BaseFolder, rootCatalog); err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	timeDecoder, err := thredds.TimestampDecoder(cfg.ModifyTimestamp)
	if err != nil {
		return err
	}
	coords := make(map[string]thredds.ValueDecoder, len(cfg.Coordinates))
	for _, name := range cfg.Coordinates {
		coords[name] = thredds.Identity
	}
	if _, ok := coords["time"]; ok {
		coords["time"] = timeDecoder
	}

	index := thredds.NewIndex(cfg.URL, crawler, coords)
	index.KeepAttributes = cfg.KeepAttributes

	datasets := crawler.Datasets()
	for i, ds := range datasets {
		logger.Debug("adding entry", zap.String("dataset", ds.ID), zap.Int("n", i), zap.Int("of", len(datasets)))
		if err := index.AddDataset(ctx, ds); err != nil {
			return fmt.Errorf("build index: %w", err)
		}
	}
	if err := index.Save(cfg.Output); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	title := color.New(color.FgCyan, color.Bold)
	title.Fprint(out, "Catalogs:  ")
	fmt.Fprintln(out, len(crawler.Catalogs()))
	title.Fprint(out, "Datasets:  ")
	fmt.Fprintf(out, "%d indexed, %d dropped\n", len(index.Entries()), len(datasets)-len(index.Entries()))
	title.Fprint(out, "Index:     ")
	fmt.Fprintln(out, cfg.Output)
	return nil
}

func addFilters(c *thredds.Crawler, cfg *config.Config) error {
	groups := []struct {
		patterns []string
		include  bool
		target   thredds.FilterTarget
	}{
		{cfg.DatasetInclude, true, thredds.FilterDatasets},
		{cfg.DatasetExclude, false, thredds.FilterDatasets},
		{cfg.CatalogInclude, true, thredds.FilterCatalogs},
		{cfg.CatalogExclude, false, thredds.FilterCatalogs},
	}
	for _, g := range groups {
		for _, p := range g.patterns {
			var (
				f   thredds.Filter
				err error
			)
			if g.include {
				f, err = thredds.NewInclude(p)
			} else {
				f, err = thredds.NewExclude(p)
			}
			if err != nil {
				return err
			}
			c.AddFilter(f, g.target)
		}
	}
	return nil
}

// openStore opens the configured cache backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (thredds.Store, func(), error) {
	switch cfg.CacheBackend {
	case "memory":
		return thredds.NewMemoryCache(0), func() {}, nil
	case "redis":
		rc, err := thredds.OpenRedisCache(ctx, thredds.RedisOptions{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, func() { rc.Close() }, nil
	}
	dc, err := thredds.OpenDiskCache(cfg.CacheDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	return dc, func() { dc.Close() }, nil
}
