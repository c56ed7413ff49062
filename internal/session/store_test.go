package session

import (
	"context"
	"testing"
	"time"

	"healthcare-portal/internal/clinicalapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, err := s.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	creds := clinicalapi.Credentials{UserID: "u1", Token: "t"}
	require.NoError(t, s.Save(ctx, "u1", creds))
	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	require.NoError(t, s.Clear(ctx, "u1"))
	_, err = s.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	// clearing twice is fine
	assert.NoError(t, s.Clear(ctx, "u1"))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "u1", clinicalapi.Credentials{UserID: "u1"}))
	now = now.Add(59 * time.Second)
	_, err := s.Get(ctx, "u1")
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = s.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}
