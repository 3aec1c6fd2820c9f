package core

import "errors"

// ErrCacheMiss is returned by Cache.Get when a key is absent.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is a small injected key-value store (per-user permission maps,
// notification read-state and the like). Implementations live in storage/kvstore.
type Cache interface {
	Get(key string, dest interface{}) error
	Set(key string, val interface{}) error
	Delete(key string) error
	// Clear removes all entries.
	Clear() error
}
