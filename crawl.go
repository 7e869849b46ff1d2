package thredds

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CrawlOptions configures a Crawler.
type CrawlOptions struct {
	// CatalogFolder is prepended to the first catalog path (e.g. "thredds/catalog/")
	CatalogFolder string

	// CatalogWorkers bounds concurrent child catalog loads per catalog (default 3)
	CatalogWorkers int

	// DatasetWorkers bounds concurrent NcML loads per catalog (default 3)
	DatasetWorkers int

	// Logger defaults to the global zap logger
	Logger *zap.Logger
}

// Crawler walks a catalog tree and collects every catalog and dataset
// metadata record it is allowed to follow.
//
// A Crawler is not safe for concurrent use; workers it starts only return
// results, and all accumulated state is updated by the goroutine that called
// Crawl once a batch has drained.
type Crawler struct {
	provider Provider
	opts     CrawlOptions
	log      *zap.Logger

	catalogFilters []Filter
	datasetFilters []Filter

	catalogs []*CatalogInfo
	datasets []*DatasetInfo
	services serviceBases
}

// serviceBases holds the active service endpoints. A catalog that declares a
// service replaces the inherited one.
type serviceBases struct {
	opendap string
	ncml    string
}

func (s serviceBases) override(o serviceBases) serviceBases {
	if o.opendap != "" {
		s.opendap = o.opendap
	}
	if o.ncml != "" {
		s.ncml = o.ncml
	}
	return s
}

// crawlResult is what one unit of work hands back to its parent.
type crawlResult struct {
	catalogs []*CatalogInfo
	datasets []*DatasetInfo
	services serviceBases
}

func (r *crawlResult) absorb(child *crawlResult) {
	r.catalogs = append(r.catalogs, child.catalogs...)
	r.datasets = append(r.datasets, child.datasets...)
	r.services = r.services.override(child.services)
}

// NewCrawler creates a crawler that reads documents through provider.
func NewCrawler(provider Provider, opts *CrawlOptions) *Crawler {
	var o CrawlOptions
	if opts != nil {
		o = *opts
	}
	if o.CatalogWorkers <= 0 {
		o.CatalogWorkers = 3
	}
	if o.DatasetWorkers <= 0 {
		o.DatasetWorkers = 3
	}
	if o.Logger == nil {
		o.Logger = zap.L()
	}
	return &Crawler{
		provider: provider,
		opts:     o,
		log:      o.Logger.Named("crawler"),
	}
}

// AddFilter registers f for datasets, catalogs or both. Filters of one kind
// are combined with a logical AND.
func (c *Crawler) AddFilter(f Filter, target FilterTarget) {
	if target&FilterDatasets != 0 {
		c.datasetFilters = append(c.datasetFilters, f)
	}
	if target&FilterCatalogs != 0 {
		c.catalogFilters = append(c.catalogFilters, f)
	}
}

// Catalogs returns every catalog visited so far, the first crawled root first.
func (c *Crawler) Catalogs() []*CatalogInfo { return c.catalogs }

// Datasets returns every dataset metadata record loaded so far, in completion order.
func (c *Crawler) Datasets() []*DatasetInfo { return c.datasets }

// OpendapBaseURL returns the active array-service base, or "".
func (c *Crawler) OpendapBaseURL() string { return c.services.opendap }

// NcMLBaseURL returns the active metadata-service base, or "".
func (c *Crawler) NcMLBaseURL() string { return c.services.ncml }

// Crawl loads the catalog at CatalogFolder/baseFolder/uri and recursively
// every catalog and dataset it references that passes the filters.
//
// The first error aborts the crawl, but only after every sibling already
// scheduled has finished; whatever was collected up to then stays available
// through Catalogs and Datasets.
func (c *Crawler) Crawl(ctx context.Context, baseFolder, uri string) error {
	res, err := c.crawl(ctx, joinCatalogPath(c.opts.CatalogFolder, baseFolder, uri), c.services)
	if res != nil {
		c.catalogs = append(c.catalogs, res.catalogs...)
		c.datasets = append(c.datasets, res.datasets...)
		c.services = res.services
	}
	return err
}

func joinCatalogPath(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "/") {
			b.WriteByte('/')
		}
		b.WriteString(strings.TrimLeft(p, "/"))
	}
	return b.String()
}

// resolveHref resolves a catalogRef href against the path of the catalog
// that declared it.
func resolveHref(parent, href string) string {
	if strings.Contains(href, "://") || strings.HasPrefix(href, "/") {
		return href
	}
	return path.Join(path.Dir(parent), href)
}

func (c *Crawler) crawl(ctx context.Context, catalogPath string, inherited serviceBases) (*crawlResult, error) {
	c.log.Debug("loading catalog", zap.String("catalog", catalogPath))

	root, err := FetchXML(ctx, c.provider, catalogPath)
	if err != nil {
		return nil, err
	}
	info, err := CatalogFromXML(root)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", catalogPath, err)
	}

	refs, nodes := c.selectChildren(info)
	res := &crawlResult{
		catalogs: []*CatalogInfo{info},
		services: inherited.override(serviceBases{opendap: info.OpendapBaseURL, ncml: info.NcMLBaseURL}),
	}

	active := res.services
	children, err := runBatch(ctx, c.opts.CatalogWorkers, refs, func(ctx context.Context, ref CatalogRef) (*crawlResult, error) {
		return c.crawl(ctx, resolveHref(catalogPath, ref.Href), active)
	})
	for _, child := range children {
		res.absorb(child)
	}
	if err != nil {
		return res, err
	}

	if len(nodes) > 0 && res.services.ncml == "" {
		return res, fmt.Errorf("catalog %s: %w", catalogPath, ErrServiceRequired)
	}
	ncmlBase := res.services.ncml
	loaded, err := runBatch(ctx, c.opts.DatasetWorkers, nodes, func(ctx context.Context, node *DatasetNode) (*crawlResult, error) {
		ds, err := c.loadDatasetMeta(ctx, ncmlBase, node.URLPath)
		if err != nil {
			return nil, err
		}
		return &crawlResult{datasets: []*DatasetInfo{ds}}, nil
	})
	for _, r := range loaded {
		res.datasets = append(res.datasets, r.datasets...)
	}
	return res, err
}

// selectChildren applies the filters to a catalog's refs and datasets.
// Datasets without a urlPath are containers and are never queued.
func (c *Crawler) selectChildren(info *CatalogInfo) ([]CatalogRef, []*DatasetNode) {
	var refs []CatalogRef
	for _, ref := range info.CatalogRefs {
		if passes(c.catalogFilters, ref.ID) {
			refs = append(refs, ref)
		}
	}
	c.log.Debug("filter result", zap.String("kind", "catalog"),
		zap.Int("passed", len(refs)), zap.Int("total", len(info.CatalogRefs)))

	var nodes []*DatasetNode
	for _, node := range info.Datasets {
		if !passes(c.datasetFilters, node.ID) {
			continue
		}
		if node.URLPath == "" {
			c.log.Debug("skipping container dataset", zap.String("dataset", node.ID))
			continue
		}
		nodes = append(nodes, node)
	}
	c.log.Debug("filter result", zap.String("kind", "dataset"),
		zap.Int("passed", len(nodes)), zap.Int("total", len(info.Datasets)))

	c.log.Debug("queued", zap.Int("catalogs", len(refs)), zap.Int("datasets", len(nodes)))
	return refs, nodes
}

func (c *Crawler) loadDatasetMeta(ctx context.Context, ncmlBase, urlPath string) (*DatasetInfo, error) {
	uri := ncmlBase + urlPath
	c.log.Debug("loading dataset meta", zap.String("url", uri))
	root, err := FetchXML(ctx, c.provider, uri)
	if err != nil {
		return nil, err
	}
	ds, err := NcMLFromXML(root, urlPath)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", urlPath, err)
	}
	ds.URLPath = urlPath
	return ds, nil
}

// runBatch runs fn over items with at most limit goroutines. It waits for
// every call to return, then reports the first error. Results, including
// partial results returned alongside an error, arrive in completion order.
func runBatch[T any](ctx context.Context, limit int, items []T, fn func(context.Context, T) (*crawlResult, error)) ([]*crawlResult, error) {
	if len(items) == 0 {
		return nil, nil
	}
	var g errgroup.Group
	g.SetLimit(limit)
	results := make(chan *crawlResult, len(items))
	for _, item := range items {
		item := item
		g.Go(func() error {
			res, err := fn(ctx, item)
			if res != nil {
				results <- res
			}
			return err
		})
	}
	err := g.Wait()
	close(results)

	out := make([]*crawlResult, 0, len(items))
	for res := range results {
		out = append(out, res)
	}
	return out, err
}
