package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	KEY_PREFIX  = "verity:news"
	DEFAULT_TTL = 300 * time.Second
)

// Cache stores encoded responses. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) bool
}

// PageKey is the cache key for one page of analyzed headlines.
func PageKey(page, pageSize int) string {
	return fmt.Sprintf("%s:page:%d:size:%d", KEY_PREFIX, page, pageSize)
}
