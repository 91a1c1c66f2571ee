package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
)

// MemoryCache is an in-process cache bounded to a fixed number of bytes. The
// oldest entries are evicted when it fills up.
type MemoryCache struct {
	store *freecache.Cache
}

func NewMemoryCache(sizeBytes int) *MemoryCache {
	return &MemoryCache{store: freecache.NewCache(sizeBytes)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, err := m.store.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("[MemoryCache] get %q: %w", key, err)
	}
	return value, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := max(int(ttl/time.Second), 1)
	if err := m.store.Set([]byte(key), value, seconds); err != nil {
		return fmt.Errorf("[MemoryCache] set %q: %w", key, err)
	}
	return nil
}

func (m *MemoryCache) Ping(context.Context) bool {
	return true
}

func (m *MemoryCache) Len() int64 {
	return m.store.EntryCount()
}
