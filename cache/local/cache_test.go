package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	c, err := NewCache(Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	err := c.Set(ctx, "key1", "value1", 0)
	require.NoError(t, err)

	v, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", v)
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	err := c.Set(ctx, "ttl_key", "val", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = c.Get(ctx, "ttl_key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDel(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 0)
	_ = c.Del(ctx, "k")
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExists(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_ = c.Set(ctx, "k", "v", 0)
	ok, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetNX(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "a", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "b", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := c.Get(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestSetNX_ExpiredKeyIsFree(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "a", 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	ok, err = c.SetNX(ctx, "lock", "b", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpire(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Expire(ctx, "missing", time.Minute), ErrNotFound)

	_ = c.Set(ctx, "k", "v", 0)
	require.NoError(t, c.Expire(ctx, "k", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGCRemovesExpired(t *testing.T) {
	c, err := NewCache(Config{GCInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	ctx := context.Background()

	_ = c.Set(ctx, "gc_key", "v", 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	_, loaded := c.kv.Load("gc_key")
	assert.False(t, loaded, "GC should remove the expired entry")
}
