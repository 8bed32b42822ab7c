package forge

import "sync"

// ProjectIDCache maps GitLab project paths to numeric project ids.
// Entries are never invalidated; a project's id does not change when it
// is renamed, only its path does, which simply produces a new entry.
type ProjectIDCache struct {
	mu  sync.Mutex
	ids map[string]int
}

// NewProjectIDCache creates an empty cache.
func NewProjectIDCache() *ProjectIDCache {
	return &ProjectIDCache{ids: make(map[string]int)}
}

// Get returns the id cached for key.
func (c *ProjectIDCache) Get(key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[key]
	return id, ok
}

// Set caches id for key.
func (c *ProjectIDCache) Set(key string, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[key] = id
}

// Len returns the number of cached ids.
func (c *ProjectIDCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}
