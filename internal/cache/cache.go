package cache

import (
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

type Cache interface {
	Get(key string, dst any) bool
	Set(key string, value any)
	Clear()
}

var _ Cache = (*JSONCache)(nil)

// JSONCache stores values JSON encoded in a freecache segment, entries expire after ttl.
type JSONCache struct {
	cache *freecache.Cache
	ttl   time.Duration
}

func NewJSONCache(sizeMB int, ttl time.Duration) *JSONCache {
	return &JSONCache{
		cache: freecache.NewCache(max(1, sizeMB) * megabyte),
		ttl:   ttl,
	}
}

// Get unmarshals the cached value into dst, false on miss or a broken entry.
func (c *JSONCache) Get(key string, dst any) bool {
	b, err := c.cache.Get([]byte(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		log.Errorf("cache: unmarshal [%s]: %s", key, err)
		c.cache.Del([]byte(key))
		return false
	}
	return true
}

func (c *JSONCache) Set(key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		log.Errorf("cache: marshal [%s]: %s", key, err)
		return
	}
	if err := c.cache.Set([]byte(key), b, int(c.ttl.Seconds())); err != nil {
		log.Errorf("cache: set [%s]: %s", key, err)
	}
}

func (c *JSONCache) Clear() {
	c.cache.Clear()
}

func (c *JSONCache) EntryCount() int64 {
	return c.cache.EntryCount()
}
