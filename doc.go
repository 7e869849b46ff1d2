// Package thredds harvests dataset metadata from THREDDS-style catalog servers.
//
// This package implements:
//   - A content provider that prefers a local cache and falls back to HTTP
//   - A parser for hierarchical catalog documents (catalog.xml)
//   - A parser for per-dataset NcML metadata documents
//   - A recursive catalog crawler with include/exclude filters and bounded concurrency
//   - An index builder that checks every dataset against one canonical schema,
//     pulls selected coordinate arrays over OPeNDAP and writes a JSON index
//
// Remote catalogs are slow and large, so every fetched document is written to
// the cache directory (or a Redis or in-memory store) and later runs are served
// from there.
//
// Basic usage:
//
//	store, err := thredds.OpenDiskCache(".cache")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	provider := thredds.NewCachedOrRemoteProvider(store, thredds.NewRemoteProvider(url, nil), false)
//	crawler := thredds.NewCrawler(provider, &thredds.CrawlOptions{CatalogFolder: "thredds/catalog/"})
//	if err := crawler.Crawl(ctx, "", "catalog.xml"); err != nil {
//		log.Fatal(err)
//	}
//
//	index := thredds.NewIndex(url, crawler, map[string]thredds.ValueDecoder{"time": thredds.Identity})
//	for _, ds := range crawler.Datasets() {
//		if err := index.AddDataset(ctx, ds); err != nil {
//			log.Fatal(err)
//		}
//	}
//	if err := index.Save("index.json"); err != nil {
//		log.Fatal(err)
//	}
package thredds
