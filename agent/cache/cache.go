// Package cache memoizes read-only agent results with a TTL. Keys
// canonicalize params so semantically identical calls collide regardless of
// incidental key ordering.
package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

type entry struct {
	value     any
	createdAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.After(e.createdAt.Add(e.ttl))
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	if now != nil {
		c.now = now
	}
	return c
}

// Get returns the cached value for (agent, method, params) when present and
// unexpired. An expired entry counts as a miss and is evicted lazily.
func (c *Cache) Get(agent contractx.AgentID, method string, params map[string]any) (any, bool) {
	key := Key(agent, method, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under the canonicalized key. Entries are immutable:
// refreshing replaces the entry wholesale.
func (c *Cache) Put(agent contractx.AgentID, method string, params map[string]any, value any, ttl time.Duration) {
	key := Key(agent, method, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		createdAt: c.now(),
		ttl:       ttl,
	}
}

// Len reports the number of live entries, expired ones included until their
// next access.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Key builds the canonical cache key: agent and method joined with the
// canonical encoding of params.
func Key(agent contractx.AgentID, method string, params map[string]any) string {
	var b strings.Builder
	b.WriteString(string(agent))
	b.WriteByte(0)
	b.WriteString(method)
	b.WriteByte(0)
	writeCanonical(&b, params)
	return b.String()
}

// writeCanonical encodes v deterministically: object keys sorted, numbers in
// shortest form, so {"a":1,"b":2} and {"b":2,"a":1} encode identically.
func writeCanonical(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case string:
		b.WriteString(strconv.Quote(val))
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case int:
		b.WriteString(strconv.Itoa(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			writeCanonical(b, val[k])
		}
		b.WriteByte('}')
	default:
		// Params decoded from JSON never reach here; anything else falls back
		// to its Go representation.
		b.WriteString(strconv.Quote(fmt.Sprintf("%v", val)))
	}
}
