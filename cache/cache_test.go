package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	params := func() map[string]any {
		return map[string]any{
			"model":         "https://api.deepinfra.com/v1/inference/model",
			"temperature":   0.1,
			"top_k":         50,
			"messages":      []message{{"user", "Hi"}},
			"dialogue_type": "default",
		}
	}

	key, err := Key(params())

	require.NoError(t, err)
	assert.Len(t, key, 64)

	for range 10 {
		again, err := Key(params())

		require.NoError(t, err)
		assert.Equal(t, key, again)
	}

	changed := params()
	changed["messages"] = []message{{"user", "Hello"}}

	other, err := Key(changed)

	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	changed = params()
	changed["max_new_tokens"] = 10

	other, err = Key(changed)

	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, err = Key(map[string]any{"fn": func() {}})

	assert.ErrorContains(t, err, "could not encode cache key parameters")
}

func testBackend(t *testing.T, c Cache) {
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		value, ok, err := c.Get(ctx, "missing")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, value)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "key", []byte("value")))

		value, ok, err := c.Get(ctx, "key")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("value"), value)
	})

	t.Run("last writer wins", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "key", []byte("first")))
		require.NoError(t, c.Set(ctx, "key", []byte("second")))

		value, ok, err := c.Get(ctx, "key")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("second"), value)
	})
}

func TestMemory(t *testing.T) {
	testBackend(t, NewMemory(0))
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	value := []byte("value")

	require.NoError(t, c.Set(ctx, "key", value))

	value[0] = 'X'

	stored, _, _ := c.Get(ctx, "key")

	assert.Equal(t, []byte("value"), stored)
}

func TestMemoryExpiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(50 * time.Millisecond)

	require.NoError(t, c.Set(ctx, "key", []byte("value")))

	_, ok, _ := c.Get(ctx, "key")

	assert.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	_, ok, _ = c.Get(ctx, "key")

	assert.False(t, ok)
}

func TestRedis(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})

	testBackend(t, NewRedis(client, "textgen", time.Minute))

	assert.True(t, s.Exists("textgen:key"))
	assert.False(t, s.Exists("key"))
}

func TestRedisExpiration(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	c := NewRedis(client, "", time.Minute)

	require.NoError(t, c.Set(ctx, "key", []byte("value")))
	assert.True(t, s.Exists("key"))

	s.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "key")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisUnavailable(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr(), MaxRetries: -1})
	c := NewRedis(client, "", 0)

	s.Close()

	_, _, err := c.Get(ctx, "key")

	assert.ErrorContains(t, err, "could not read from redis cache")
	assert.ErrorContains(t, c.Set(ctx, "key", []byte("value")), "could not write to redis cache")
}
