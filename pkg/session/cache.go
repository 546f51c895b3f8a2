package session

import (
	"sync"
	"time"
)

// Entry is the in-memory, volatile state of a warm session. It exists only
// while cached and is destroyed (handle closed) on removal, never serialized.
type Entry struct {
	ID           string
	Filename     string
	StoragePath  string
	CreatedAt    time.Time
	LastModified time.Time
	PageCount    int

	// Handle is the open document, exclusively owned by this entry.
	// Editing helpers derive from the concrete handle type.
	Handle Handle
}

// Cache maps session ids to live entries. It is the single source of truth
// for "is this session currently materialized in memory".
//
// The cache never closes handles itself; removal returns the entry so the
// Manager can apply its destruction policy. There is no eviction beyond
// explicit removal.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// Put stores the entry, replacing any prior entry for the same id.
// The caller must have closed the prior entry's handle first.
func (c *Cache) Put(e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.ID] = e
}

// Get returns the entry for id, or nil.
func (c *Cache) Get(id string) *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[id]
}

// Remove deletes and returns the entry for id, or nil if absent.
func (c *Cache) Remove(id string) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[id]
	delete(c.entries, id)
	return e
}

// Len reports the number of warm sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// IDs returns the ids of all warm sessions.
func (c *Cache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	return ids
}
