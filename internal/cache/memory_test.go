package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chatnslate/internal/cache"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("SetGet", func(t *testing.T) {
		c, err := cache.NewMemoryCache(4)
		assert.NoError(t, err)

		assert.NoError(t, c.Set(ctx, "k", "v", 0))
		v, err := c.Get(ctx, "k")
		assert.NoError(t, err)
		assert.Equal(t, "v", v)
	})

	t.Run("MissIsTyped", func(t *testing.T) {
		c, _ := cache.NewMemoryCache(4)

		_, err := c.Get(ctx, "absent")
		assert.ErrorIs(t, err, cache.ErrMiss)
	})

	t.Run("TTLExpires", func(t *testing.T) {
		c, _ := cache.NewMemoryCache(4)

		assert.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
		time.Sleep(30 * time.Millisecond)
		_, err := c.Get(ctx, "k")
		assert.ErrorIs(t, err, cache.ErrMiss)
	})

	t.Run("Del", func(t *testing.T) {
		c, _ := cache.NewMemoryCache(4)

		assert.NoError(t, c.Set(ctx, "k", "v", 0))
		assert.NoError(t, c.Del(ctx, "k"))
		_, err := c.Get(ctx, "k")
		assert.ErrorIs(t, err, cache.ErrMiss)
	})

	t.Run("EvictsOldest", func(t *testing.T) {
		c, _ := cache.NewMemoryCache(2)

		assert.NoError(t, c.Set(ctx, "a", "1", 0))
		assert.NoError(t, c.Set(ctx, "b", "2", 0))
		assert.NoError(t, c.Set(ctx, "c", "3", 0))

		_, err := c.Get(ctx, "a")
		assert.ErrorIs(t, err, cache.ErrMiss)
		v, err := c.Get(ctx, "c")
		assert.NoError(t, err)
		assert.Equal(t, "3", v)
	})
}
