package linkverify

import (
	"context"
	"sync"
	"time"
)

// CacheEntry is a cached verification result for one URL.
type CacheEntry struct {
	URL             string    `json:"url"`
	Status          int       `json:"status"`
	IsValid         bool      `json:"is_valid"`
	Error           string    `json:"error,omitempty"`
	LastChecked     time.Time `json:"last_checked"`
	FailureCount    int       `json:"failure_count"`
	FirstFailedAt   time.Time `json:"first_failed_at,omitzero"`
	ConsecutiveFail bool      `json:"consecutive_fail"`
}

// Cache stores verification results and page hashes between runs, and
// carries broken-link events to whoever listens. The NATS client is the
// shared implementation; MemoryCache serves single-process runs.
type Cache interface {
	GetCachedResult(ctx context.Context, url string) (*CacheEntry, error)
	SetCachedResult(ctx context.Context, entry *CacheEntry) error
	IsCacheValid(entry *CacheEntry) bool
	GetPageHash(ctx context.Context, path string) (string, error)
	SetPageHash(ctx context.Context, path string, hash string) error
	PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error
	Close() error
}

// MemoryCache is the in-process Cache used when no NATS URL is configured.
// Broken-link events are dropped; the run Result still collects them.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*CacheEntry
	pageHashes map[string]string
	ttl        time.Duration
	failureTTL time.Duration
}

// NewMemoryCache creates an in-process cache with the given TTLs for valid
// and failed entries.
func NewMemoryCache(ttl, failureTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*CacheEntry),
		pageHashes: make(map[string]string),
		ttl:        ttl,
		failureTTL: failureTTL,
	}
}

func (c *MemoryCache) GetCachedResult(_ context.Context, url string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[url]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (c *MemoryCache) SetCachedResult(_ context.Context, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *entry
	cp.LastChecked = time.Now()
	c.entries[entry.URL] = &cp
	return nil
}

func (c *MemoryCache) IsCacheValid(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	ttl := c.ttl
	if !entry.IsValid {
		ttl = c.failureTTL
	}
	return time.Since(entry.LastChecked) < ttl
}

func (c *MemoryCache) GetPageHash(_ context.Context, path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageHashes[path], nil
}

func (c *MemoryCache) SetPageHash(_ context.Context, path string, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageHashes[path] = hash
	return nil
}

func (c *MemoryCache) PublishBrokenLink(context.Context, *BrokenLinkEvent) error {
	return nil
}

func (c *MemoryCache) Close() error { return nil }
