package prayertimes

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	tt      Timetable
	expires time.Time
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Cache = (*memoryCache)(nil)

// NewMemoryCache returns a process-local Cache, used when no redis is configured.
func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *memoryCache) Get(_ context.Context, key string) (Timetable, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Timetable{}, false, nil
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return Timetable{}, false, nil
	}
	return entry.tt, true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, tt Timetable, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries { // evict expired entries
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{tt: tt, expires: now.Add(ttl)}
	return nil
}
