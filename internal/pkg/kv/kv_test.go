package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Load(ctx, "default:tour.actor")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, "default:tour.actor", []byte(`"employee:1"`)))
	got, err := store.Load(ctx, "default:tour.actor")
	require.NoError(t, err)
	assert.Equal(t, `"employee:1"`, string(got))

	require.NoError(t, store.Save(ctx, "default:tour.actor", []byte(`"area:Nord"`)))
	got, err = store.Load(ctx, "default:tour.actor")
	require.NoError(t, err)
	assert.Equal(t, `"area:Nord"`, string(got))

	// keys are independent
	require.NoError(t, store.Save(ctx, "default:tour.weekday", []byte(`"monday"`)))
	require.NoError(t, store.Delete(ctx, "default:tour.actor"))
	_, err = store.Load(ctx, "default:tour.actor")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err = store.Load(ctx, "default:tour.weekday")
	require.NoError(t, err)
	assert.Equal(t, `"monday"`, string(got))

	// deleting a missing key is fine
	assert.NoError(t, store.Delete(ctx, "default:missing"))
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profile")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	testStoreContract(t, store)
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(context.Background(), "user/1:tour.completion.v3", []byte("{}")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "user%2F1:tour.completion.v3.json", entries[0].Name())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "tour:", 0)
	testStoreContract(t, store)
}

func TestRedisStore_PrefixAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "tour:", time.Hour)
	require.NoError(t, store.Save(context.Background(), "u1:tour.weekday", []byte(`"friday"`)))

	assert.True(t, mr.Exists("tour:u1:tour.weekday"))
	assert.Equal(t, time.Hour, mr.TTL("tour:u1:tour.weekday"))

	mr.FastForward(2 * time.Hour)
	_, err := store.Load(context.Background(), "u1:tour.weekday")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisClient(context.Background(), RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
