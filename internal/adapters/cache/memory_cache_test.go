package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCacheSetAndGet(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Minute, time.Minute)
	defer c.Stop()

	c.Set("m1", []float32{0.1, 0.2, 0.3})

	emb, ok := c.Get("m1")
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, emb)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Minute, time.Minute)
	defer c.Stop()

	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 10*time.Millisecond, time.Minute)
	defer c.Stop()

	c.Set("m1", []float32{1})
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("m1")
	assert.False(t, ok)
}

func TestMemoryCacheCleanupRemovesExpiredEntries(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 5*time.Millisecond, time.Minute)
	defer c.Stop()

	c.Set("m1", []float32{1})
	time.Sleep(10 * time.Millisecond)
	c.cleanup()

	c.mu.RLock()
	_, present := c.entries["m1"]
	c.mu.RUnlock()
	assert.False(t, present)
}

func TestMemoryCacheOverwrite(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Minute, time.Minute)
	defer c.Stop()

	c.Set("m1", []float32{1})
	c.Set("m1", []float32{2})

	emb, ok := c.Get("m1")
	require.True(t, ok)
	assert.Equal(t, []float32{2}, emb)
}
