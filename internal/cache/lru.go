package cache

import (
	"container/list"
	"sync"
	"time"
)

// ViewCache is an LRU cache with TTL, size-based eviction and
// generation-based bulk invalidation. Entries written before the last
// InvalidateAll are treated as misses without being walked eagerly.
type ViewCache[T any] struct {
	mu         sync.Mutex
	maxSize    int
	ttl        time.Duration
	generation uint64
	items      map[string]*list.Element
	lru        *list.List
}

type viewEntry[T any] struct {
	key        string
	data       T
	generation uint64
	expiresAt  time.Time
}

// NewViewCache creates a view cache holding at most maxSize entries,
// each valid for ttl after being set.
func NewViewCache[T any](maxSize int, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get retrieves a value from the cache
func (c *ViewCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	entry := elem.Value.(*viewEntry[T])
	if entry.generation != c.generation || time.Now().After(entry.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return entry.data, true
}

// Set stores a value in the cache
func (c *ViewCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &viewEntry[T]{
		key:        key,
		data:       data,
		generation: c.generation,
		expiresAt:  time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = entry
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(entry)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// InvalidateAll marks every current entry stale. Stale entries are
// reclaimed lazily on Get or by CleanExpired.
func (c *ViewCache[T]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
}

func (c *ViewCache[T]) removeElement(elem *list.Element) {
	entry := elem.Value.(*viewEntry[T])
	delete(c.items, entry.key)
	c.lru.Remove(elem)
}

// CleanExpired removes expired and stale entries and returns how many
// were removed.
func (c *ViewCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element

	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*viewEntry[T])
		if entry.generation != c.generation || now.After(entry.expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem)
	}

	return len(toRemove)
}

// Size returns the current number of items in the cache
func (c *ViewCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
