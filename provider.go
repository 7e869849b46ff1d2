package thredds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is the per-request network timeout.
const DefaultTimeout = 10 * time.Second

// Provider fetches the raw bytes behind a URI.
type Provider interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FetchXML fetches uri and decodes it as an XML document.
func FetchXML(ctx context.Context, p Provider, uri string) (*Element, error) {
	data, err := p.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	root, err := ParseXML(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", uri, err)
	}
	return root, nil
}

// Store is a persistent key/value cache for fetched documents.
// Get reports a miss with found == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Put(ctx context.Context, key string, data []byte) error
}

// CacheProvider serves documents from a Store only.
type CacheProvider struct {
	store Store
	log   *zap.Logger
}

// NewCacheProvider creates a provider backed by store.
func NewCacheProvider(store Store) *CacheProvider {
	return &CacheProvider{store: store, log: zap.L().Named("cache")}
}

// Fetch returns the cached document or an error wrapping ErrNotCached.
func (p *CacheProvider) Fetch(ctx context.Context, uri string) ([]byte, error) {
	data, found, err := p.lookup(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &ProviderError{URI: uri, Err: ErrNotCached}
	}
	return data, nil
}

func (p *CacheProvider) lookup(ctx context.Context, uri string) ([]byte, bool, error) {
	data, found, err := p.store.Get(ctx, cacheKey(uri))
	if err != nil {
		p.log.Error("failed to read cache entry", zap.String("uri", uri), zap.Error(err))
		return nil, false, &ProviderError{URI: uri, Err: err}
	}
	if found {
		p.log.Debug("read from local cache", zap.String("uri", uri))
	}
	return data, found, nil
}

// Save writes data for uri into the store.
func (p *CacheProvider) Save(ctx context.Context, uri string, data []byte) error {
	if err := p.store.Put(ctx, cacheKey(uri), data); err != nil {
		p.log.Error("failed to write cache entry", zap.String("uri", uri), zap.Error(err))
		return &ProviderError{URI: uri, Err: err}
	}
	p.log.Debug("written to local cache", zap.String("uri", uri))
	return nil
}

// cacheKey maps a URI to its cache key: the URI without leading slashes and,
// for absolute URLs, without the scheme.
func cacheKey(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		uri = uri[i+3:]
	}
	return strings.TrimLeft(uri, "/")
}

// RemoteProvider fetches documents over HTTP relative to a base URL.
type RemoteProvider struct {
	client  *http.Client
	baseURL string
	log     *zap.Logger
}

// NewRemoteProvider creates a network provider. A nil client gets one with
// DefaultTimeout.
func NewRemoteProvider(baseURL string, client *http.Client) *RemoteProvider {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &RemoteProvider{
		client:  client,
		baseURL: baseURL,
		log:     zap.L().Named("remote"),
	}
}

// BaseURL returns the URL every relative URI is joined to.
func (p *RemoteProvider) BaseURL() string { return p.baseURL }

// Fetch performs a single GET. Absolute URLs are requested as-is. There are
// no retries.
func (p *RemoteProvider) Fetch(ctx context.Context, uri string) ([]byte, error) {
	reqURL := p.resolve(uri)
	p.log.Debug("requesting", zap.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, &ProviderError{URI: reqURL, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Error("failed to request url", zap.String("url", reqURL), zap.Error(err))
		return nil, &ProviderError{URI: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.Error("unexpected status", zap.String("url", reqURL), zap.Int("status", resp.StatusCode))
		return nil, &ProviderError{URI: reqURL, Err: fmt.Errorf("http %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{URI: reqURL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func (p *RemoteProvider) resolve(uri string) string {
	if strings.Contains(uri, "://") {
		return uri
	}
	if p.baseURL == "" {
		return uri
	}
	return strings.TrimRight(p.baseURL, "/") + "/" + strings.TrimLeft(uri, "/")
}

// CachedOrRemoteProvider reads through a cache: hits are served locally,
// misses are fetched remotely and written back before returning.
type CachedOrRemoteProvider struct {
	cache  *CacheProvider
	remote Provider

	// ForceRemote skips the cache read. Results are still written through.
	ForceRemote bool
}

// NewCachedOrRemoteProvider composes store and remote.
func NewCachedOrRemoteProvider(store Store, remote Provider, forceRemote bool) *CachedOrRemoteProvider {
	return &CachedOrRemoteProvider{
		cache:       NewCacheProvider(store),
		remote:      remote,
		ForceRemote: forceRemote,
	}
}

// Fetch implements Provider.
func (p *CachedOrRemoteProvider) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if !p.ForceRemote {
		data, found, err := p.cache.lookup(ctx, uri)
		if err != nil {
			return nil, err
		}
		if found {
			return data, nil
		}
	}

	data, err := p.remote.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Save(ctx, uri, data); err != nil {
		return nil, err
	}
	return data, nil
}
