package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/vidyalaya/core"
)

func TestMemoryCache(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	core.NowFunc = func() time.Time { return now }
	defer func() { core.NowFunc = time.Now }()

	ctx := context.Background()
	c := NewMemory()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, c.Set(ctx, "b", "2", 0))

	val, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	ok, _ := c.Exists(ctx, "b")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrCacheMiss, "expired")
	ok, _ = c.Exists(ctx, "b")
	assert.True(t, ok, "no ttl")

	require.NoError(t, c.Delete(ctx, "b", "unknown"))
	ok, _ = c.Exists(ctx, "b")
	assert.False(t, ok)
}
