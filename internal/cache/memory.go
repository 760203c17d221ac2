package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache with per-entry expiry.
type Memory struct {
	store *gocache.Cache
}

// NewMemory returns a cache whose entries expire after ttl. Expired entries are purged every
// two ttl periods.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{store: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	value, ok := m.store.Get(key)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.store.SetDefault(key, value)
	return nil
}
