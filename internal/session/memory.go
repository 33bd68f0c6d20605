package session

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore keeps sessions in process memory. Sessions do not survive a restart.
type MemoryStore struct {
	cache *ttlcache.Cache[string, Session]
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a memory store and starts its expiry janitor.
// Call Close to stop it.
func NewMemoryStore() *MemoryStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, Session](),
	)
	go cache.Start()
	return &MemoryStore{cache: cache, now: time.Now}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	ttl := s.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	m.cache.Set(s.ID, *s, ttl)
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	item := m.cache.Get(id)
	if item == nil {
		return nil, ErrNotFound
	}
	s := item.Value()
	if s.Expired(m.now()) {
		m.cache.Delete(id)
		return nil, ErrNotFound
	}
	return &s, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Close stops the expiry janitor.
func (m *MemoryStore) Close() {
	m.cache.Stop()
}
