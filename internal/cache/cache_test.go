package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// Both backends must satisfy the same observable behavior, so the core
// suite runs against each.
func backends(t *testing.T) map[string]Cache {
	mr := miniredis.RunT(t)
	return map[string]Cache{
		"memory": NewMemoryCache(),
		"redis":  NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})),
	}
}

func TestCacheSetGet(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c.Set("flows:bot1", "all", `[{"id":"f1"}]`, time.Minute)

			got, ok := c.Get("flows:bot1", "all")
			assert.True(t, ok)
			assert.Equal(t, `[{"id":"f1"}]`, got)
		})
	}
}

func TestCacheMiss(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := c.Get("flows:bot1", "missing")
			assert.False(t, ok)
		})
	}
}

func TestCacheDelete(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c.Set("welcome:bot1", "active", "hey", time.Minute)
			c.Delete("welcome:bot1", "active")

			_, ok := c.Get("welcome:bot1", "active")
			assert.False(t, ok)
		})
	}
}

func TestCacheClearScopeLeavesOtherScopes(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c.Set("flows:bot1", "all", "a", time.Minute)
			c.Set("flows:bot1", "extra", "b", time.Minute)
			c.Set("flows:bot2", "all", "c", time.Minute)

			c.ClearScope("flows:bot1")

			_, ok := c.Get("flows:bot1", "all")
			assert.False(t, ok)
			_, ok = c.Get("flows:bot1", "extra")
			assert.False(t, ok)

			got, ok := c.Get("flows:bot2", "all")
			assert.True(t, ok)
			assert.Equal(t, "c", got)
		})
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	c.Set("airesponse:bot1", "hola", "reply", 30*time.Millisecond)

	_, ok := c.Get("airesponse:bot1", "hola")
	assert.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	_, ok = c.Get("airesponse:bot1", "hola")
	assert.False(t, ok)
}

func TestRedisCacheTTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	c.Set("airesponse:bot1", "hola", "reply", time.Minute)
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get("airesponse:bot1", "hola")
	assert.False(t, ok)
}

func TestRedisCacheBackendDownDegradesToMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	c.Set("flows:bot1", "all", "cached", time.Minute)
	mr.Close()

	// Reads must degrade to a miss, never an error or panic.
	_, ok := c.Get("flows:bot1", "all")
	assert.False(t, ok)

	// Writes must be silently dropped.
	assert.NotPanics(t, func() {
		c.Set("flows:bot1", "all", "again", time.Minute)
		c.Delete("flows:bot1", "all")
		c.ClearScope("flows:bot1")
	})
}
