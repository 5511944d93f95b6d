package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/internal/config"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test:bookings"), mr
}

func TestRedisStore_SaveLoad(t *testing.T) {
	s, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.Revision)
	require.Len(t, snap.Bookings, 2)
	assert.Equal(t, "2024-06-01", snap.Bookings[0].Date)
}

func TestRedisStore_LoadMissing(t *testing.T) {
	s, _ := setupRedisStore(t)
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_LoadCorrupted(t *testing.T) {
	s, mr := setupRedisStore(t)
	require.NoError(t, mr.Set("test:bookings", "{broken"))

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestRedisStore_Overwrites(t *testing.T) {
	s, _ := setupRedisStore(t)
	ctx := context.Background()

	first := sampleSnapshot()
	require.NoError(t, s.Save(ctx, first))

	second := sampleSnapshot()
	second.Revision = 8
	second.Bookings = second.Bookings[:1]
	require.NoError(t, s.Save(ctx, second))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), snap.Revision)
	assert.Len(t, snap.Bookings, 1)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	assert.NoError(t, Ping(context.Background(), client))
}
