// Package kvstore provides core.Cache implementations: an in-process map for
// DEV/tests and a redis-backed store for deployments with several API nodes.
package kvstore

import (
	"encoding/json"
	"sync"

	"github.com/fnedigital/genera/core"
)

type memoryCache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ core.Cache = (*memoryCache)(nil)

func NewMemoryCache() core.Cache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(key string, dest interface{}) error {
	c.mu.RLock()
	raw, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return core.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(key string, val interface{}) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Clear() error {
	c.mu.Lock()
	c.data = make(map[string][]byte)
	c.mu.Unlock()
	return nil
}
