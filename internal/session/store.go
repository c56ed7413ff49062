// Package session keeps the credentials the portal forwards to the clinical
// API on behalf of each viewer.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"healthcare-portal/internal/clinicalapi"
)

// ErrNotFound is returned when no credentials are stored for a viewer.
var ErrNotFound = errors.New("session: credentials not found")

// Store holds per-viewer clinical API credentials.
type Store interface {
	Save(ctx context.Context, viewerID string, creds clinicalapi.Credentials) error
	Get(ctx context.Context, viewerID string) (clinicalapi.Credentials, error)
	Clear(ctx context.Context, viewerID string) error
}

type memoryEntry struct {
	creds     clinicalapi.Credentials
	expiresAt time.Time
}

// MemoryStore is an in-process Store with optional expiry.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore creates a MemoryStore. A zero ttl keeps entries until cleared.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Save(_ context.Context, viewerID string, creds clinicalapi.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{creds: creds}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[viewerID] = e
	return nil
}

func (s *MemoryStore) Get(_ context.Context, viewerID string) (clinicalapi.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[viewerID]
	if !ok {
		return clinicalapi.Credentials{}, ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, viewerID)
		return clinicalapi.Credentials{}, ErrNotFound
	}
	return e.creds, nil
}

func (s *MemoryStore) Clear(_ context.Context, viewerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, viewerID)
	return nil
}
