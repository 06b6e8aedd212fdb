package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/shared"
)

// Cache is a TTL key-value store for resolved vehicles and analyses.
// Values are JSON encoded, so readers get their own copy.
type Cache interface {
	// Get decodes the value stored at key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) CacheStats
}

// CacheStats is reported by the admin endpoint.
type CacheStats struct {
	Backend   string `json:"backend"`
	Size      int    `json:"size"`
	MaxSize   int    `json:"max_size,omitempty"`
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
	Evictions int64  `json:"evictions"`
}

// GetCached reads a typed value from cache. A nil result means a miss.
func GetCached[T any](ctx context.Context, cache Cache, key string) (*T, error) {
	var value T
	found, err := cache.Get(ctx, key, &value)
	if err != nil || !found {
		return nil, err
	}
	return &value, nil
}

func cacheNamespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}

// CacheEntry is an encoded value with its expiry.
type CacheEntry struct {
	Data      []byte
	ExpiresAt time.Time
}

func (ce *CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(ce.ExpiresAt)
}

// CacheService is the in-process Cache. Expired entries are invisible to
// readers and removed by CleanupExpired; when full, the entry closest to
// expiry is evicted.
type CacheService struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	defaultTTL time.Duration
	maxSize    int
	now        func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

func NewCacheService(defaultTTL time.Duration, maxSize int) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &CacheService{
		cache:      make(map[string]*CacheEntry),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
		now:        time.Now,
	}
}

// WithClock swaps the time source; used by tests.
func (cs *CacheService) WithClock(now func() time.Time) *CacheService {
	cs.now = now
	return cs
}

func (cs *CacheService) Get(_ context.Context, key string, dest any) (bool, error) {
	cs.mutex.RLock()
	entry, exists := cs.cache[key]
	cs.mutex.RUnlock()

	namespace := cacheNamespace(key)
	if !exists || entry.IsExpired(cs.now()) {
		cs.mutex.Lock()
		cs.misses++
		cs.mutex.Unlock()
		shared.CacheMissesTotal.WithLabelValues(namespace).Inc()
		return false, nil
	}

	if err := json.Unmarshal(entry.Data, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}

	cs.mutex.Lock()
	cs.hits++
	cs.mutex.Unlock()
	shared.CacheHitsTotal.WithLabelValues(namespace).Inc()
	return true, nil
}

// Set stores value under key. A non-positive ttl uses the default TTL.
func (cs *CacheService) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	if ttl <= 0 {
		ttl = cs.defaultTTL
	}

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if _, exists := cs.cache[key]; !exists && len(cs.cache) >= cs.maxSize {
		cs.evictOldest()
	}

	cs.cache[key] = &CacheEntry{
		Data:      data,
		ExpiresAt: cs.now().Add(ttl),
	}
	return nil
}

// evictOldest drops the entry that would expire first.
func (cs *CacheService) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range cs.cache {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(cs.cache, oldestKey)
		cs.evictions++
	}
}

func (cs *CacheService) Delete(_ context.Context, key string) error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	delete(cs.cache, key)
	return nil
}

func (cs *CacheService) Clear(_ context.Context) error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache = make(map[string]*CacheEntry)
	return nil
}

func (cs *CacheService) Size() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return len(cs.cache)
}

func (cs *CacheService) Stats(_ context.Context) CacheStats {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return CacheStats{
		Backend:   "memory",
		Size:      len(cs.cache),
		MaxSize:   cs.maxSize,
		Hits:      cs.hits,
		Misses:    cs.misses,
		Evictions: cs.evictions,
	}
}

// CleanupExpired removes expired entries and returns how many were dropped.
func (cs *CacheService) CleanupExpired() int {
	now := cs.now()

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	removed := 0
	for key, entry := range cs.cache {
		if entry.IsExpired(now) {
			delete(cs.cache, key)
			removed++
		}
	}

	if removed > 0 {
		logrus.WithFields(logrus.Fields{
			"component": "CacheService",
			"removed":   removed,
			"remaining": len(cs.cache),
		}).Debug("Removed expired cache entries")
	}
	return removed
}
