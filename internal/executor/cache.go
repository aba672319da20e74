package executor

import (
	"container/list"
	"sync"
	"time"
)

type cacheEntry struct {
	key           string
	rows          []map[string]interface{}
	rowsTruncated bool
	expires       time.Time
}

// resultCache is a TTL cache with LRU eviction once capacity is reached.
type resultCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

func newResultCache(ttl time.Duration, capacity int) *resultCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &resultCache{
		ttl:      ttl,
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *resultCache) get(key string, now time.Time) ([]map[string]interface{}, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}
	entry := el.Value.(*cacheEntry)
	if now.After(entry.expires) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false, false
	}
	c.order.MoveToFront(el)
	return entry.rows, entry.rowsTruncated, true
}

func (c *resultCache) put(key string, rows []map[string]interface{}, truncated bool, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.rows = rows
		entry.rowsTruncated = truncated
		entry.expires = now.Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	for c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}

	el := c.order.PushFront(&cacheEntry{
		key:           key,
		rows:          rows,
		rowsTruncated: truncated,
		expires:       now.Add(c.ttl),
	})
	c.entries[key] = el
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
