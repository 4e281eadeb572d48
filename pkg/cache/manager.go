package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// DefaultStaleRetention is how long a page outlives its expiry in Redis so it
// can still be revalidated with its ETag.
const DefaultStaleRetention = 6 * time.Hour

// purgeBatch is the SCAN page size used by Purge.
const purgeBatch = 200

// Manager stores collection pages in Redis.
//
// Entries stay in Redis for their freshness lifetime plus the stale
// retention. Get returns stale entries too; callers check IsExpired and
// revalidate.
type Manager struct {
	redis     *redis.Client
	retention time.Duration
}

// NewManager creates a cache manager. It panics on a nil client.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis:     redisClient,
		retention: DefaultStaleRetention,
	}
}

// SetStaleRetention changes how long expired entries are kept. Zero drops
// entries as soon as they expire.
func (m *Manager) SetStaleRetention(d time.Duration) {
	if d < 0 {
		d = 0
	}
	m.retention = d
}

// Get retrieves the entry stored under key, fresh or stale.
// Returns ErrCacheMiss if nothing is stored.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		_ = m.Delete(ctx, key)
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		CacheHits.WithLabelValues("stale").Inc()
	} else {
		CacheHits.WithLabelValues("fresh").Inc()
	}
	return &entry, nil
}

// Set stores entry. An expired entry is kept only if it can be revalidated
// and the stale retention is not over.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	keep := m.retention
	if !entry.CanRevalidate() {
		keep = 0
	}
	expiration := time.Until(entry.Expires) + keep
	if expiration <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, expiration).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheWrites.Inc()
	CacheBytesWritten.Add(float64(len(data)))
	return nil
}

// Refresh extends an entry after the API confirmed it with 304 Not Modified.
func (m *Manager) Refresh(ctx context.Context, key Key, expires time.Time) error {
	entry, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	entry.Expires = expires
	entry.CachedAt = time.Now()
	return m.Set(ctx, key, entry)
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Purge deletes every cached page and returns how many keys were removed.
// Rate limit state lives under its own prefix and is left alone.
func (m *Manager) Purge(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, KeyPrefix+":*", purgeBatch).Result()
		if err != nil {
			CacheErrors.WithLabelValues("purge").Inc()
			return removed, fmt.Errorf("redis scan: %w", err)
		}

		if len(keys) > 0 {
			n, err := m.redis.Del(ctx, keys...).Result()
			if err != nil {
				CacheErrors.WithLabelValues("purge").Inc()
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += int(n)
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
