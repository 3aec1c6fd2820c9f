package kvstore

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"github.com/fnedigital/genera/core"
)

func TestRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() failed: %v", err)
	}
	defer mr.Close()

	cache, err := NewRedisCache(core.RedisConfig{Addr: mr.Addr()}, "genera-test")
	if err != nil {
		t.Fatalf("NewRedisCache() failed: %v", err)
	}

	type entry struct {
		Granted bool `json:"granted"`
	}

	t.Run("miss", func(t *testing.T) {
		var got entry
		assert.Equal(t, core.ErrCacheMiss, cache.Get("nope", &got))
	})

	t.Run("set get delete", func(t *testing.T) {
		assert.NoError(t, cache.Set("k1", entry{Granted: true}))

		var got entry
		assert.NoError(t, cache.Get("k1", &got))
		assert.True(t, got.Granted)

		assert.NoError(t, cache.Delete("k1"))
		assert.Equal(t, core.ErrCacheMiss, cache.Get("k1", &got))
	})

	t.Run("clear only removes namespaced keys", func(t *testing.T) {
		assert.NoError(t, cache.Set("k2", entry{}))
		mr.Set("unrelated", "x")

		assert.NoError(t, cache.Clear())

		var got entry
		assert.Equal(t, core.ErrCacheMiss, cache.Get("k2", &got))
		assert.True(t, mr.Exists("unrelated"))
	})
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()

	var got map[string]bool
	assert.Equal(t, core.ErrCacheMiss, cache.Get("perms", &got))

	assert.NoError(t, cache.Set("perms", map[string]bool{"view_reports": true}))
	assert.NoError(t, cache.Get("perms", &got))
	assert.True(t, got["view_reports"])

	assert.NoError(t, cache.Clear())
	assert.Equal(t, core.ErrCacheMiss, cache.Get("perms", &got))
}
