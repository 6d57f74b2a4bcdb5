// Package cache maintains a path-keyed response cache in redis. Write
// operations in the service layer report which public paths they made stale;
// controllers purge those entries and surface the list to clients so
// downstream edge caches can follow suit.
package cache

import (
	"context"
	"sort"
	"time"

	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
	"github.com/handcrafted-haven/marketplace-backend/pkg/redis"
)

// Store is the redis surface the purger needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Purger evicts cached responses for invalidated paths.
type Purger struct {
	store Store
	log   *logger.Logger
}

// NewPurger wires a purger over the shared redis client.
func NewPurger(store Store, log *logger.Logger) *Purger {
	return &Purger{store: store, log: log}
}

// PathKey maps a public path to its cache key. The path keeps its leading
// slash so "hh:cache:path:/products" reads naturally in redis.
func PathKey(path string) string {
	return redis.Key(redis.PrefixCache, "path", path)
}

// Purge evicts every listed path and returns the deduplicated, sorted list
// that was acted on. Eviction failures are logged, never surfaced; a stale
// cache entry expires on its own TTL.
func (p *Purger) Purge(ctx context.Context, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}

	purged := dedupe(paths)
	for _, path := range purged {
		// Trailing * also clears keyed variants, e.g. paginated pages.
		if err := p.store.DeleteByPattern(ctx, PathKey(path)+"*"); err != nil && p.log != nil {
			warnCtx := p.log.WithFields(ctx, map[string]any{
				"path":  path,
				"error": err.Error(),
			})
			p.log.Warn(warnCtx, "cache purge failed")
		}
	}

	return purged
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
