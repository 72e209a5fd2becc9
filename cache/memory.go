package cache

import (
	"context"
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache.
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates an in-process cache whose entries expire after ttl. A
// zero or negative ttl keeps entries forever.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		return &Memory{store: gocache.New(gocache.NoExpiration, 0)}
	}

	return &Memory{store: gocache.New(ttl, 2*ttl)}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}

	buf, ok := value.([]byte)
	if !ok {
		return nil, false, nil
	}

	return slices.Clone(buf), true, nil
}

func (c *Memory) Set(_ context.Context, key string, value []byte) error {
	c.store.Set(key, slices.Clone(value), gocache.DefaultExpiration)

	return nil
}
