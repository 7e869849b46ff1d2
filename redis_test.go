package thredds

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := OpenRedisCache(ctx, RedisOptions{Addr: mr.Addr(), TTL: time.Hour})
	require.NoError(t, err)
	defer c.Close()

	_, found, err := c.Get(ctx, "ncml/ds1.nc")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Put(ctx, "ncml/ds1.nc", []byte("<netcdf/>")))
	data, found, err := c.Get(ctx, "ncml/ds1.nc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "<netcdf/>", string(data))

	assert.True(t, mr.Exists("thredds:ncml/ds1.nc"))
	assert.Equal(t, time.Hour, mr.TTL("thredds:ncml/ds1.nc"))

	mr.FastForward(2 * time.Hour)
	_, found, err = c.Get(ctx, "ncml/ds1.nc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheAsProviderStore(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newFakeServer(t, defaultDocs())
	ctx := context.Background()

	c, err := OpenRedisCache(ctx, RedisOptions{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	defer c.Close()

	p := NewCachedOrRemoteProvider(c, NewRemoteProvider(srv.URL, nil), false)
	for i := 0; i < 3; i++ {
		_, err := p.Fetch(ctx, "catalog.xml")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, srv.Hits("/catalog.xml"))

	got, err := mr.Get("test:catalog.xml")
	require.NoError(t, err)
	assert.Equal(t, rootCatalog, got)
}

func TestOpenRedisCacheUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenRedisCache(context.Background(), RedisOptions{Addr: addr})
	assert.Error(t, err)
}
