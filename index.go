package thredds

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// ArrayLoader retrieves coordinate arrays. *Crawler implements it.
type ArrayLoader interface {
	LoadArray(ctx context.Context, urlPath, variable string, count int, decode ValueDecoder) ([]any, error)
	OpendapBaseURL() string
}

// IndexEntry is one accepted dataset.
type IndexEntry struct {
	ID         string           `json:"id"`
	Data       map[string][]any `json:"data"`
	Attributes Attributes       `json:"attributes,omitempty"`
}

// IndexFile is the persisted form of an Index.
type IndexFile struct {
	BaseURL    string       `json:"baseUrl"`
	OpendapURL string       `json:"opendapUrl"`
	Meta       *DatasetMeta `json:"meta"`
	Datasets   []IndexEntry `json:"datasets"`
}

// Index accumulates datasets that share one schema. The schema of the first
// dataset added becomes canonical; later datasets with a different schema
// are dropped.
//
// An Index is built by one goroutine: AddDataset calls followed by a single Save.
type Index struct {
	// KeepAttributes copies each dataset's global attributes into its entry.
	KeepAttributes bool

	baseURL  string
	loader   ArrayLoader
	coords   []string
	decoders map[string]ValueDecoder
	log      *zap.Logger

	meta    *DatasetMeta
	entries []IndexEntry
	saved   bool
}

// NewIndex creates an index for datasets served under baseURL. coords names
// the coordinate dimensions whose values are retrieved for every dataset,
// each with the decoder applied to its values.
func NewIndex(baseURL string, loader ArrayLoader, coords map[string]ValueDecoder) *Index {
	names := make([]string, 0, len(coords))
	for name := range coords {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Index{
		baseURL:  baseURL,
		loader:   loader,
		coords:   names,
		decoders: coords,
		log:      zap.L().Named("index"),
	}
}

// Meta returns the canonical schema, or nil before the first dataset.
func (ix *Index) Meta() *DatasetMeta { return ix.meta }

// Entries returns the accepted datasets in the order they were added.
func (ix *Index) Entries() []IndexEntry { return ix.entries }

// AddDataset checks ds against the canonical schema and, if it matches,
// retrieves its coordinate values and appends it.
//
// The first dataset must declare every configured coordinate as a dimension;
// otherwise a *MetaInformationMismatchError is returned. A later dataset
// whose schema differs is logged and skipped without error.
func (ix *Index) AddDataset(ctx context.Context, ds *DatasetInfo) error {
	if ix.meta == nil {
		for _, name := range ix.coords {
			if _, ok := ds.Meta.Dimensions[name]; !ok {
				return &MetaInformationMismatchError{Dimension: name}
			}
		}
		ix.meta = ds.Meta
	} else if diff := ix.meta.Diff(ds.Meta); !diff.Equal() {
		ix.log.Info("meta information mismatch, ignoring dataset",
			zap.String("dataset", ds.ID),
			zap.Strings("variables", diff.Variables),
			zap.Strings("dimensions", diff.Dimensions))
		return nil
	} else if len(diff.Attributes) > 0 {
		ix.log.Debug("attribute mismatch ignored",
			zap.String("dataset", ds.ID), zap.Strings("attributes", diff.Attributes))
	}

	urlPath := ds.URLPath
	if urlPath == "" {
		urlPath = ds.ID
	}

	entry := IndexEntry{ID: ds.ID, Data: make(map[string][]any, len(ix.coords))}
	for _, name := range ix.coords {
		count, err := strconv.Atoi(ds.Meta.Dimensions[name])
		if err != nil {
			return fmt.Errorf("dataset %s: dimension %s length: %w", ds.ID, name, err)
		}
		values, err := ix.loader.LoadArray(ctx, urlPath, name, count, ix.decoders[name])
		if err != nil {
			return fmt.Errorf("dataset %s: load %s: %w", ds.ID, name, err)
		}
		entry.Data[name] = values
	}
	if ix.KeepAttributes {
		entry.Attributes = ds.Meta.Attributes
	}
	ix.entries = append(ix.entries, entry)
	return nil
}

// File returns the persisted form of the index.
func (ix *Index) File() *IndexFile {
	entries := ix.entries
	if entries == nil {
		entries = []IndexEntry{}
	}
	return &IndexFile{
		BaseURL:    ix.baseURL,
		OpendapURL: ix.baseURL + ix.loader.OpendapBaseURL(),
		Meta:       ix.meta,
		Datasets:   entries,
	}
}

// Save writes the index as JSON to path. It can be called once.
func (ix *Index) Save(path string) error {
	if ix.saved {
		return ErrIndexSaved
	}
	data, err := json.Marshal(ix.File())
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	ix.saved = true
	ix.log.Debug("index written", zap.String("path", path), zap.Int("datasets", len(ix.entries)))
	return nil
}

// LoadIndex reads an index written by Save.
func LoadIndex(path string) (*IndexFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f IndexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	return &f, nil
}
