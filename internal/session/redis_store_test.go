package session

import (
	"context"
	"testing"
	"time"

	"healthcare-portal/internal/clinicalapi"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, 0)

	_, err := s.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	creds := clinicalapi.Credentials{UserID: "u1", Token: "tok"}
	require.NoError(t, s.Save(ctx, "u1", creds))
	assert.True(t, mr.Exists(redisKeyPrefix+"u1"))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	require.NoError(t, s.Clear(ctx, "u1"))
	_, err = s.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, time.Minute)

	require.NoError(t, s.Save(ctx, "u1", clinicalapi.Credentials{UserID: "u1"}))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, 0)
	require.NoError(t, mr.Set(redisKeyPrefix+"u1", "not json"))

	_, err := s.Get(ctx, "u1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), addr, "")
	assert.Error(t, err)
}
