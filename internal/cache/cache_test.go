package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetRespectsTTL(t *testing.T) {
	c := New[string](time.Hour)
	defer c.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v", time.Minute)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)

	v, ok = c.Stale("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCache_CleanupEvictsAfterGrace(t *testing.T) {
	c := New[int](time.Hour)
	defer c.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("k", 1, time.Minute)

	now = now.Add(30 * time.Minute)
	c.cleanup()
	_, ok := c.Stale("k")
	assert.True(t, ok, "entry within grace should survive cleanup")

	now = now.Add(2 * time.Hour)
	c.cleanup()
	_, ok = c.Stale("k")
	assert.False(t, ok)
}
