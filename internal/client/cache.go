package client

import (
	"github.com/patrickmn/go-cache"

	"hairstudio/internal/domain"
)

// Cache holds completed previews for one session. Entries never expire; the
// session flushes the whole cache when the photo or the user changes.
type Cache struct {
	c *cache.Cache
}

func NewCache() *Cache {
	return &Cache{c: cache.New(cache.NoExpiration, 0)}
}

// Add stores url under key unless an entry already exists.
func (c *Cache) Add(key domain.GenerationKey, url string) bool {
	return c.c.Add(key.String(), url, cache.NoExpiration) == nil
}

func (c *Cache) Get(key domain.GenerationKey) (string, bool) {
	v, ok := c.c.Get(key.String())
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *Cache) Has(key domain.GenerationKey) bool {
	_, ok := c.c.Get(key.String())
	return ok
}

func (c *Cache) Len() int { return c.c.ItemCount() }

func (c *Cache) Flush() { c.c.Flush() }
