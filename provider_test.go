package thredds

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	tests := map[string]string{
		"catalog.xml":                      "catalog.xml",
		"/ncml/ds1.nc":                     "ncml/ds1.nc",
		"https://example.org/thredds/x.nc": "example.org/thredds/x.nc",
		"///a":                             "a",
	}
	for in, want := range tests {
		assert.Equal(t, want, cacheKey(in), in)
	}
}

func TestRemoteProvider(t *testing.T) {
	srv := newFakeServer(t, defaultDocs())
	remote := NewRemoteProvider(srv.URL+"/", nil)
	ctx := context.Background()

	data, err := remote.Fetch(ctx, "catalog.xml")
	require.NoError(t, err)
	assert.Equal(t, rootCatalog, string(data))

	data, err = remote.Fetch(ctx, srv.URL+"/sub.xml")
	require.NoError(t, err)
	assert.Equal(t, subCatalog, string(data))

	_, err = remote.Fetch(ctx, "missing.xml")
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.URI, "/missing.xml")
	assert.Contains(t, perr.Error(), "404")
}

func TestRemoteProviderCanceled(t *testing.T) {
	srv := newFakeServer(t, defaultDocs())
	remote := NewRemoteProvider(srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := remote.Fetch(ctx, "catalog.xml")

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCacheProvider(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheProvider(NewMemoryCache(0))

	_, err := cache.Fetch(ctx, "catalog.xml")
	assert.ErrorIs(t, err, ErrNotCached)

	require.NoError(t, cache.Save(ctx, "/catalog.xml", []byte("doc")))
	data, err := cache.Fetch(ctx, "catalog.xml")
	require.NoError(t, err)
	assert.Equal(t, "doc", string(data))
}

func TestCachedOrRemoteProviderFetchesOnce(t *testing.T) {
	srv := newFakeServer(t, defaultDocs())
	store, err := OpenDiskCache(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	p := NewCachedOrRemoteProvider(store, NewRemoteProvider(srv.URL, nil), false)
	ctx := context.Background()

	first, err := p.Fetch(ctx, "/ncml/ds1.nc")
	require.NoError(t, err)
	second, err := p.Fetch(ctx, "/ncml/ds1.nc")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, srv.Hits("/ncml/ds1.nc"))

	cached, err := os.ReadFile(filepath.Join(store.Root(), "ncml", "ds1.nc"))
	require.NoError(t, err)
	assert.Equal(t, first, cached)
}

func TestCachedOrRemoteProviderForceRemote(t *testing.T) {
	srv := newFakeServer(t, defaultDocs())
	store := NewMemoryCache(0)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "catalog.xml", []byte("stale")))

	p := NewCachedOrRemoteProvider(store, NewRemoteProvider(srv.URL, nil), true)
	data, err := p.Fetch(ctx, "catalog.xml")
	require.NoError(t, err)
	assert.Equal(t, rootCatalog, string(data))
	assert.Equal(t, 1, srv.Hits("/catalog.xml"))

	updated, found, err := store.Get(ctx, "catalog.xml")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rootCatalog, string(updated), "forced fetches are still written through")
}

func TestCachedOrRemoteProviderRemoteError(t *testing.T) {
	srv := newFakeServer(t, defaultDocs())
	store := NewMemoryCache(0)
	p := NewCachedOrRemoteProvider(store, NewRemoteProvider(srv.URL, nil), false)

	_, err := p.Fetch(context.Background(), "nope.xml")
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, store.Len(), "failed fetches are not cached")
}

func TestCachedOrRemoteProviderCacheReadError(t *testing.T) {
	srv := newFakeServer(t, defaultDocs())
	store, err := OpenDiskCache(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	// A directory where the document should be cannot be read as a file.
	require.NoError(t, os.MkdirAll(filepath.Join(store.Root(), "catalog.xml"), 0755))

	p := NewCachedOrRemoteProvider(store, NewRemoteProvider(srv.URL, nil), false)
	_, err = p.Fetch(context.Background(), "catalog.xml")

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, srv.Total(), "a broken cache does not fall back to the network")
}

func TestFetchXML(t *testing.T) {
	store := NewMemoryCache(0)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "good.xml", []byte(`<a><b/></a>`)))
	require.NoError(t, store.Put(ctx, "bad.xml", []byte(`<a>`)))
	p := NewCacheProvider(store)

	root, err := FetchXML(ctx, p, "good.xml")
	require.NoError(t, err)
	assert.Equal(t, "a", root.Name.Local)
	assert.Len(t, root.Children, 1)

	_, err = FetchXML(ctx, p, "bad.xml")
	assert.Error(t, err)
}
