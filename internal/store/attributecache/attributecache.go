// Package attributecache implements the Attribute Cache (C1): a
// persistent key/value store fronted by an in-memory layer of recently
// accessed values, with a negative-caching convention used throughout
// the metadata pipeline.
package attributecache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/store/kvstore"
)

// Entry mirrors AttributeCacheEntry from the data model.
type Entry struct {
	Key       string
	Value     json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
	Size      int
}

// Cache is the process-wide attribute cache handle. The disk layer is a
// kvstore.Store; the memory layer is a redis client (real Redis in
// production, miniredis in tests) so that "most recently accessed"
// eviction and TTL come for free instead of being hand-rolled.
type Cache struct {
	disk     *kvstore.Store
	mem      *redis.Client
	memTTL   time.Duration
	disabled bool
}

// New wires a Cache over an already-open disk store and memory client.
// Passing a nil redis client disables the memory layer only; disk reads
// still work (this happens when the process wants a durable cache
// without paying for a Redis round-trip, e.g. in single-shot CLI tools).
func New(disk *kvstore.Store, mem *redis.Client, memTTL time.Duration) *Cache {
	return &Cache{disk: disk, mem: mem, memTTL: memTTL}
}

// Disabled returns a cache that fails (treats as miss) every operation.
func Disabled() *Cache {
	return &Cache{disabled: true}
}

// Set serialises value as JSON and writes both layers, flushing to disk
// before returning.
func (c *Cache) Set(key string, value any) error {
	if c.disabled {
		return kvstore.ErrDisabled
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("attributecache: marshal %q: %w", key, err)
	}
	if err := c.disk.Set(key, raw); err != nil {
		return err
	}
	if c.mem != nil {
		if err := c.mem.Set(context.Background(), key, raw, c.memTTL).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("attributecache: memory layer write failed")
		}
	}
	return nil
}

// Get looks up key, checking memory first. On a memory hit it does not
// touch disk. A disk hit populates memory. Any I/O or deserialisation
// failure is treated as a miss per §4.1 — callers never see cache
// errors as data loss.
func (c *Cache) Get(key string, out any) bool {
	if c.disabled {
		return false
	}
	if c.mem != nil {
		raw, err := c.mem.Get(context.Background(), key).Bytes()
		if err == nil {
			if json.Unmarshal(raw, out) == nil {
				return true
			}
		}
	}
	raw, ok := c.disk.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false
	}
	if c.mem != nil {
		_ = c.mem.Set(context.Background(), key, raw, c.memTTL).Err()
	}
	return true
}

// Remove deletes key from both layers.
func (c *Cache) Remove(key string) bool {
	if c.disabled {
		return false
	}
	ok, _ := c.disk.Remove(key)
	if c.mem != nil {
		c.mem.Del(context.Background(), key)
	}
	return ok
}

// Clear empties both layers.
func (c *Cache) Clear() error {
	if c.disabled {
		return kvstore.ErrDisabled
	}
	if c.mem != nil {
		c.mem.FlushDB(context.Background())
	}
	return c.disk.Clear()
}

// Cleanup removes disk entries older than maxAge. The memory layer ages
// out on its own TTL.
func (c *Cache) Cleanup(maxAge time.Duration) (int64, error) {
	if c.disabled {
		return 0, kvstore.ErrDisabled
	}
	return c.disk.Cleanup(maxAge)
}

// ListKeys enumerates keys with prefix, lexicographically ordered.
func (c *Cache) ListKeys(prefix string) ([]string, error) {
	if c.disabled {
		return nil, kvstore.ErrDisabled
	}
	return c.disk.ListKeys(prefix)
}

// ListEntries enumerates entries with prefix, lexicographically ordered.
func (c *Cache) ListEntries(prefix string) ([]Entry, error) {
	if c.disabled {
		return nil, kvstore.ErrDisabled
	}
	raw, err := c.disk.ListEntries(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(raw))
	for i, e := range raw {
		out[i] = Entry{
			Key:       e.Key,
			Value:     json.RawMessage(e.Value),
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
			Size:      len(e.Value),
		}
	}
	return out, nil
}

// negativeSuffix is appended to a lookup key to store a "not found"
// marker per the negative-caching convention in §4.1.
const negativeSuffix = "::not_found"

// NegativeKey derives the "K::X::not_found" marker key for kind/id key
// "K::X".
func NegativeKey(key string) string {
	return key + negativeSuffix
}

// SetFound writes a positive entry at key and clears any stale negative
// marker, upholding the invariant that a positive entry and its
// matching negative marker must never both be present.
func (c *Cache) SetFound(key string, value any) error {
	if err := c.Set(key, value); err != nil {
		return err
	}
	c.Remove(NegativeKey(key))
	return nil
}

// SetNotFound writes the negative marker for key and clears any stale
// positive entry.
func (c *Cache) SetNotFound(key string) error {
	if err := c.Set(NegativeKey(key), true); err != nil {
		return err
	}
	c.Remove(key)
	return nil
}

// Lookup is the result of a negative-cache-aware read.
type Lookup int

const (
	// LookupMiss means neither a positive entry nor a negative marker
	// exists; the caller should consult the network.
	LookupMiss Lookup = iota
	// LookupFound means a positive entry was read into out.
	LookupFound
	// LookupNotFound means the negative marker was present; the caller
	// must not make a network call.
	LookupNotFound
)

// GetWithNegative checks the negative marker before the real entry, as
// required by §4.1: readers must not hit the network when a prior
// lookup already recorded a miss.
func (c *Cache) GetWithNegative(key string, out any) Lookup {
	if c.disabled {
		return LookupMiss
	}
	var notFound bool
	if c.Get(NegativeKey(key), &notFound) && notFound {
		return LookupNotFound
	}
	if c.Get(key, out) {
		return LookupFound
	}
	return LookupMiss
}

// Stats is a snapshot of disk/memory layer sizes for /api/cache/stats.
type Stats struct {
	DiskEntries      int64
	MemoryEntries    int64
	MemoryBytes      int64
	MemoryLimitBytes int64
}

// Stats reports disk entry count (via a full key scan) and, when the
// memory layer is present, its key count and approximate byte usage
// from Redis's own DBSIZE and INFO memory commands.
func (c *Cache) Stats() Stats {
	if c.disabled {
		return Stats{}
	}
	var s Stats
	if keys, err := c.disk.ListKeys(""); err == nil {
		s.DiskEntries = int64(len(keys))
	}
	if c.mem != nil {
		ctx := context.Background()
		if n, err := c.mem.DBSize(ctx).Result(); err == nil {
			s.MemoryEntries = n
		}
		if info, err := c.mem.Info(ctx, "memory").Result(); err == nil {
			s.MemoryBytes = parseUsedMemory(info)
		}
	}
	return s
}

func parseUsedMemory(info string) int64 {
	for _, line := range strings.Split(info, "\r\n") {
		if strings.HasPrefix(line, "used_memory:") {
			var n int64
			fmt.Sscanf(strings.TrimPrefix(line, "used_memory:"), "%d", &n)
			return n
		}
	}
	return 0
}

// SanitiseKeyPart replaces characters unsafe in a composite cache key
// with underscores and lowercases the result. Shared with the settings
// store's favourite-key derivation (§4.2); the encoding is lossy and
// intentionally so (see DESIGN.md).
func SanitiseKeyPart(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_")
	s = replacer.Replace(s)
	fields := strings.Fields(s)
	return strings.Join(fields, "_")
}
