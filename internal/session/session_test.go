package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateLookupRevoke(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	token, err := s.Create(ctx, "operator", time.Hour)
	require.NoError(t, err)
	assert.Len(t, token, 72)

	role, ok, err := s.Lookup(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "operator", role)

	require.NoError(t, s.Revoke(ctx, token))
	_, ok, err = s.Lookup(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Revoke(ctx, ""), ErrEmptyToken)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	short, err := s.Create(ctx, "viewer", time.Minute)
	require.NoError(t, err)
	forever, err := s.Create(ctx, "operator", 0)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	_, ok, err := s.Lookup(ctx, short)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Lookup(ctx, forever)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_UnknownToken(t *testing.T) {
	_, ok, err := NewMemoryStore().Lookup(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := NewRedisStore(client)
	require.NoError(t, s.Ping(ctx))

	token, err := s.Create(ctx, "viewer", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists(redisKeyPrefix+token))

	role, ok, err := s.Lookup(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "viewer", role)

	mr.FastForward(2 * time.Minute)
	_, ok, err = s.Lookup(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	token, err = s.Create(ctx, "operator", 0)
	require.NoError(t, err)
	require.NoError(t, s.Revoke(ctx, token))
	_, ok, err = s.Lookup(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}
