package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpbridge/internal/domain"
)

func testTools(names ...string) []domain.RemoteTool {
	out := make([]domain.RemoteTool, 0, len(names))
	for _, n := range names {
		out = append(out, domain.RemoteTool{Name: n})
	}
	return out
}

func TestCacheGetPut(t *testing.T) {
	c := NewCache()
	c.Put("stdio::npx server", domain.TransportStdio, testTools("search", "fetch"))

	tools, ok := c.Get("stdio::npx server", domain.TransportStdio, time.Minute)
	require.True(t, ok)
	require.Len(t, tools, 2)
	assert.Equal(t, "search", tools[0].Name)

	_, ok = c.Get("missing", domain.TransportStdio, time.Minute)
	assert.False(t, ok)
}

func TestCacheTransportMismatch(t *testing.T) {
	c := NewCache()
	c.Put("key", domain.TransportHTTP, testTools("a"))

	_, ok := c.Get("key", domain.TransportSSE, time.Minute)
	assert.False(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache()
	c.now = func() time.Time { return now }

	c.Put("key", domain.TransportHTTP, testTools("a"))

	now = now.Add(299 * time.Second)
	_, ok := c.Get("key", domain.TransportHTTP, 300*time.Second)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("key", domain.TransportHTTP, 300*time.Second)
	assert.False(t, ok)
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache()
	c.now = func() time.Time { return now }

	c.Put("key", domain.TransportHTTP, testTools("a"))
	now = now.Add(24 * time.Hour)

	_, ok := c.Get("key", domain.TransportHTTP, 0)
	assert.True(t, ok)
}

func TestCacheSyncSignaturePurges(t *testing.T) {
	c := NewCache()
	assert.False(t, c.SyncSignature("sig-1"), "first sync on empty cache purges nothing")

	c.Put("key", domain.TransportStdio, testTools("a"))
	assert.False(t, c.SyncSignature("sig-1"), "unchanged signature keeps entries")
	assert.Equal(t, 1, c.Len())

	assert.True(t, c.SyncSignature("sig-2"))
	assert.Equal(t, 0, c.Len())

	_, ok := c.Get("key", domain.TransportStdio, 0)
	assert.False(t, ok)
}

func TestCacheCopiesOnGet(t *testing.T) {
	c := NewCache()
	c.Put("key", domain.TransportStdio, testTools("a"))

	tools, ok := c.Get("key", domain.TransportStdio, 0)
	require.True(t, ok)
	tools[0].Name = "mutated"

	again, ok := c.Get("key", domain.TransportStdio, 0)
	require.True(t, ok)
	assert.Equal(t, "a", again[0].Name)
}

func TestCacheExportRestore(t *testing.T) {
	c := NewCache()
	c.SyncSignature("sig")
	c.Put("k1", domain.TransportStdio, testTools("a"))
	c.Put("k2", domain.TransportHTTP, testTools("b", "c"))

	sig, entries := c.Export()
	require.Equal(t, "sig", sig)
	require.Len(t, entries, 2)

	restored := NewCache()
	restored.Restore(sig, entries)
	assert.False(t, restored.SyncSignature("sig"), "restored signature matches")

	tools, ok := restored.Get("k2", domain.TransportHTTP, 0)
	require.True(t, ok)
	assert.Len(t, tools, 2)
}
