package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter keeps counters in process memory.
type MemoryCounter struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, window]
	now   func() time.Time
}

var _ Counter = (*MemoryCounter)(nil)

// NewMemoryCounter creates a counter and starts its expiry janitor.
func NewMemoryCounter() *MemoryCounter {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, window](),
	)
	go cache.Start()
	return &MemoryCounter{cache: cache, now: time.Now}
}

// Incr implements Counter.
func (m *MemoryCounter) Incr(_ context.Context, key string, d time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w := window{resetAt: now.Add(d)}
	if item := m.cache.Get(key); item != nil && now.Before(item.Value().resetAt) {
		w = item.Value()
	}
	w.count++

	resetIn := w.resetAt.Sub(now)
	m.cache.Set(key, w, resetIn)
	return w.count, resetIn, nil
}

// Close stops the expiry janitor.
func (m *MemoryCounter) Close() {
	m.cache.Stop()
}
