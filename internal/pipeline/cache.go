package pipeline

import (
	"fmt"
	"sync"

	"github.com/almadenlabs/covidlag/internal/domain"
)

// projectionCache is a thread-safe LRU cache of computed projections.
// Entries belong to the bundle they were computed from; seeing a different
// bundle pointer empties the cache, so stale projections never outlive a
// refresh.
type projectionCache struct {
	maxEntries int

	mu      sync.Mutex
	bundle  *Bundle
	entries map[string]*cacheEntry
	head    *cacheEntry // most recently used
	tail    *cacheEntry // least recently used
}

type cacheEntry struct {
	key   string
	value domain.Projection
	prev  *cacheEntry
	next  *cacheEntry
}

func newProjectionCache(maxEntries int) *projectionCache {
	return &projectionCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
	}
}

func cacheKey(county string, outcome domain.Outcome, params domain.Params) string {
	return fmt.Sprintf("%s|%s|%d|%g", county, outcome, params.Lag, params.Rate)
}

func (c *projectionCache) get(bundle *Bundle, key string) (domain.Projection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bundle != bundle {
		return domain.Projection{}, false
	}
	e, ok := c.entries[key]
	if !ok {
		return domain.Projection{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *projectionCache) put(bundle *Bundle, key string, value domain.Projection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bundle != bundle {
		c.bundle = bundle
		c.entries = make(map[string]*cacheEntry)
		c.head = nil
		c.tail = nil
	}

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &cacheEntry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *projectionCache) moveToFront(e *cacheEntry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *projectionCache) addToFront(e *cacheEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *projectionCache) remove(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *projectionCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
