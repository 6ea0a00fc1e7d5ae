package session

import (
	"container/list"
	"sync"
)

// Cache is the fast-path copy of session records in front of durable
// storage. Implementations must be safe for concurrent use. A cache never
// owns a record: dropping an entry only forces the next load back to the
// durable store.
type Cache interface {
	Get(id string) (*Record, bool)
	Put(id string, record *Record)
	Pop(id string)
}

// lruCache is a bounded least-recently-used cache guarded by a single
// coarse lock.
type lruCache struct {
	capacity int
	mutex    sync.Mutex
	order    *list.List
	entries  map[string]*list.Element
}

type lruEntry struct {
	id     string
	record *Record
}

// NewLRUCache creates a Cache that holds at most capacity records and
// evicts the least recently used one when full.
func NewLRUCache(capacity int) Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &lruCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached record and marks it most recently used.
func (c *lruCache) Get(id string) (*Record, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	element, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(element)
	return element.Value.(*lruEntry).record, true
}

// Put inserts or replaces the record, evicting the least recently used
// entry when the cache is full. Eviction never touches durable storage.
func (c *lruCache) Put(id string, record *Record) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if element, ok := c.entries[id]; ok {
		element.Value.(*lruEntry).record = record
		c.order.MoveToFront(element)
		return
	}

	c.entries[id] = c.order.PushFront(&lruEntry{id: id, record: record})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*lruEntry).id)
		}
	}
}

// Pop drops the entry if present.
func (c *lruCache) Pop(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if element, ok := c.entries[id]; ok {
		c.order.Remove(element)
		delete(c.entries, id)
	}
}

// nopCache satisfies Cache without retaining anything. Used where the
// fast path is unwanted, e.g. in tests exercising the durable store.
type nopCache struct{}

// NewNopCache returns a Cache that never holds a record.
func NewNopCache() Cache {
	return nopCache{}
}

func (nopCache) Get(string) (*Record, bool) { return nil, false }
func (nopCache) Put(string, *Record)        {}
func (nopCache) Pop(string)                 {}
