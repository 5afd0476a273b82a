package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client), mr
}

func TestRedisStoreSetGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "pawsmart:cache:regions:1", []byte(`{"a":1}`), 0))

	got, err := store.Get(ctx, "pawsmart:cache:regions:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)
}

func TestRedisStoreSetAppliesTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "expiring", []byte("v"), time.Minute))
	require.NoError(t, store.Set(ctx, "pinned", []byte("v"), 0))

	assert.Equal(t, time.Minute, mr.TTL("expiring"))
	assert.Equal(t, time.Duration(0), mr.TTL("pinned"), "zero ttl must not expire the entry")

	// Entries past their ttl disappear without a read touching them.
	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "expiring")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "pinned")
	assert.NoError(t, err)
}

func TestRedisStoreGetMissing(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	_, err := store.Get(ctx, "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreEmptyKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.Set(ctx, "", []byte("x"), 0))
}

func TestRedisStoreRemove(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "k1", []byte("v1"), 0))
	require.NoError(t, store.Remove(ctx, "k1"))

	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreRemoveMany(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "k1", []byte("v1"), 0))
	require.NoError(t, store.Set(ctx, "k2", []byte("v2"), 0))
	require.NoError(t, store.RemoveMany(ctx, []string{"k1", "k2"}))
	require.NoError(t, store.RemoveMany(ctx, nil))

	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "k2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreKeysScopedToPrefix(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "pawsmart:cache:regions:1", []byte("a"), 0))
	require.NoError(t, store.Set(ctx, "pawsmart:cache:postal_codes:5", []byte("b"), 0))
	require.NoError(t, store.Set(ctx, "other:key", []byte("c"), 0))

	keys, err := store.Keys(ctx, "pawsmart:cache:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"pawsmart:cache:regions:1",
		"pawsmart:cache:postal_codes:5",
	}, keys)
}
