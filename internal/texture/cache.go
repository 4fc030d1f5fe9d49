package texture

import (
	"sync"
)

// Cache is a concurrency-safe texture cache keyed by file path.
// Decoding may run on a background goroutine; every caller observes either
// no entry or a fully decoded texture.
type Cache struct {
	mu    sync.RWMutex
	items map[cacheKey]*Texture
	index *Index
}

type cacheKey struct {
	path          string
	premultiplied bool
}

// NewCache creates a new texture cache. index may be nil, in which case
// paths are used verbatim.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[cacheKey]*Texture),
		index: index,
	}
}

// Resolve loads and caches the texture at path. Failed loads are not cached
// so a corrected file can be retried.
func (c *Cache) Resolve(path string, premultiplied bool) (*Texture, error) {
	if c.index != nil {
		if p, ok := c.index.ResolvePath(path); ok {
			path = p
		}
	}
	key := cacheKey{path: path, premultiplied: premultiplied}

	// Fast path: read lock
	c.mu.RLock()
	if tex, exists := c.items[key]; exists {
		c.mu.RUnlock()
		return tex, nil
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	tex, err := LoadTexture(path, premultiplied)
	if err != nil {
		return nil, err
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, exists := c.items[key]; exists {
		return existing, nil
	}
	c.items[key] = tex
	return tex, nil
}

// Len returns the number of decoded textures.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
