// Package discovery queries configured servers for their tool lists
// and caches the results between passes.
package discovery

import (
	"sync"
	"time"

	"mcpbridge/internal/domain"
)

type cacheEntry struct {
	at        time.Time
	transport domain.TransportKind
	tools     []domain.RemoteTool
}

// Cache holds per-server-key discovery results. Validity is bounded by
// TTL and by the aggregate configuration signature: any signature
// change purges the whole cache.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]cacheEntry
	signature string
	now       func() time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// SyncSignature compares the aggregate config signature against the
// one recorded at the previous pass and purges all entries when it
// differs. It reports whether the cache was purged.
func (c *Cache) SyncSignature(signature string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.signature == signature {
		return false
	}
	purged := len(c.entries) > 0
	c.entries = make(map[string]cacheEntry)
	c.signature = signature
	return purged
}

// Get returns the cached tools for a key when the entry exists, its
// transport matches, and it is within ttl. A ttl of zero or less
// disables time-based expiry.
func (c *Cache) Get(key string, transport domain.TransportKind, ttl time.Duration) ([]domain.RemoteTool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if entry.transport != transport {
		return nil, false
	}
	if ttl > 0 && c.now().Sub(entry.at) > ttl {
		return nil, false
	}
	return copyTools(entry.tools), true
}

// Put stores a discovery result, overwriting any previous entry.
func (c *Cache) Put(key string, transport domain.TransportKind, tools []domain.RemoteTool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		at:        c.now(),
		transport: transport,
		tools:     copyTools(tools),
	}
}

// Clear drops all entries but keeps the recorded signature.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// PersistedEntry is the serializable form of one cache entry.
type PersistedEntry struct {
	At        time.Time            `json:"at"`
	Transport domain.TransportKind `json:"transport"`
	Tools     []domain.RemoteTool  `json:"tools"`
}

// Export snapshots the cache for persistence.
func (c *Cache) Export() (string, map[string]PersistedEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]PersistedEntry, len(c.entries))
	for key, entry := range c.entries {
		out[key] = PersistedEntry{
			At:        entry.at,
			Transport: entry.transport,
			Tools:     copyTools(entry.tools),
		}
	}
	return c.signature, out
}

// Restore replaces the cache contents from a persisted snapshot.
// Entries restored under an outdated signature are purged by the next
// SyncSignature call.
func (c *Cache) Restore(signature string, entries map[string]PersistedEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signature = signature
	c.entries = make(map[string]cacheEntry, len(entries))
	for key, entry := range entries {
		c.entries[key] = cacheEntry{
			at:        entry.At,
			transport: entry.Transport,
			tools:     copyTools(entry.Tools),
		}
	}
}

func copyTools(tools []domain.RemoteTool) []domain.RemoteTool {
	if tools == nil {
		return nil
	}
	out := make([]domain.RemoteTool, len(tools))
	copy(out, tools)
	return out
}
