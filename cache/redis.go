package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Redis stores entries in a Redis server, so they can be shared by several
// processes.
type Redis struct {
	client    goredis.UniversalClient
	namespace string
	ttl       time.Duration
}

// NewRedis creates a cache on top of an existing Redis client.
//
// Keys are prefixed with namespace, when not empty. A zero ttl keeps entries
// until Redis evicts them.
func NewRedis(client goredis.UniversalClient, namespace string, ttl time.Duration) *Redis {
	return &Redis{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (c *Redis) prefixKey(key string) string {
	if c.namespace == "" {
		return key
	}

	return c.namespace + ":" + key
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, c.prefixKey(key)).Bytes()

	switch {
	case errors.Is(err, goredis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, errors.Wrap(err, "could not read from redis cache")
	}

	return value, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.prefixKey(key), value, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "could not write to redis cache")
	}

	return nil
}
