package kvstore

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core"
)

// redisCache namespaces all keys under a prefix so Clear only removes this
// app's entries, not the whole DB.
type redisCache struct {
	client *redis.Client
	prefix string
}

var _ core.Cache = (*redisCache)(nil)

func NewRedisCache(conf core.RedisConfig, prefix string) (core.Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: conf.Addr,
		DB:   conf.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &redisCache{client: client, prefix: prefix + ":"}, nil
}

func (c *redisCache) Get(key string, dest interface{}) error {
	raw, err := c.client.Get(context.Background(), c.prefix+key).Bytes()
	if err == redis.Nil {
		return core.ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (c *redisCache) Set(key string, val interface{}) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.client.Set(context.Background(), c.prefix+key, raw, 0).Err()
}

func (c *redisCache) Delete(key string) error {
	return c.client.Del(context.Background(), c.prefix+key).Err()
}

func (c *redisCache) Clear() error {
	ctx := context.Background()
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
