package wire

import (
	"strconv"
	"strings"
	"sync"
)

// cacheKey identifies one delta-cache entry: a packet type plus the ordered
// tuple of that packet's key-field values. Go maps need comparable keys, so
// the key tuple is flattened to a string rather than kept as []Value.
type cacheKey struct {
	packetType int
	keyTuple   string
}

// Cache is the per-connection delta cache (C3): the last fully decoded
// record for each (packet_type, key_tuple) pair. The zero value is ready to
// use.
//
// Cache is owned by a single ConnectionState for the life of a connection
// (spec.md §9 DESIGN NOTES: never a package-level singleton) and is cleared
// wholesale on disconnect. The mutex exists only so an implementation that
// chooses to share a Cache across goroutines has a safe fallback; the
// connection driver's normal single-task use never contends it.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Record
}

// NewCache returns an empty delta cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Record)}
}

// Get returns the cached record for (packetType, keyTuple), and whether one
// was present. The returned Record is a private copy; mutating it never
// affects the cache.
func (c *Cache) Get(packetType int, keyTuple []Value) (*Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[cacheKey{packetType, flattenKey(keyTuple)}]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// Put stores an independent copy of record under (packetType, keyTuple).
// Callers must not expect later mutations to record to be observed through
// the cache.
func (c *Cache) Put(packetType int, keyTuple []Value, record *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[cacheKey]*Record)
	}
	c.entries[cacheKey{packetType, flattenKey(keyTuple)}] = record.Clone()
}

// ClearAll drops every cache entry. The connection driver calls this on
// disconnect so no entry from a prior connection is ever observable again
// (spec.md §8 property 7).
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*Record)
}

// flattenKey renders a key tuple as a string suitable for use as a Go map
// key. Values are already bounded (integers, short strings, bools), so a
// simple delimited encoding is sufficient; the empty tuple (packets with no
// key fields) flattens to the empty string.
func flattenKey(keyTuple []Value) string {
	if len(keyTuple) == 0 {
		return ""
	}
	var b strings.Builder
	for i, v := range keyTuple {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		switch v.Kind {
		case KindU8, KindU16, KindU32:
			b.WriteString(strconv.FormatUint(uint64(v.U32), 10))
		case KindS8, KindS16, KindS32:
			b.WriteString(strconv.FormatInt(int64(v.S32), 10))
		case KindBool:
			if v.Bool {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		case KindString:
			b.WriteString(v.String)
		default:
			// Arrays are never key fields (spec.md §3); nothing else to encode.
		}
	}
	return b.String()
}
