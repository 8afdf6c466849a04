package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	embedding []float32
	expiresAt time.Time
}

// MemoryCache is an in-memory embedding cache keyed by message id,
// with TTL-based expiry and a background cleanup task
type MemoryCache struct {
	entries     map[string]entry
	mu          sync.RWMutex
	logger      *zap.Logger
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryCache creates a new in-memory embedding cache
func NewMemoryCache(logger *zap.Logger, ttl, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]entry),
		logger:      logger,
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache
}

// Get retrieves a cached embedding for a message
func (c *MemoryCache) Get(messageID string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[messageID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.embedding, true
}

// Set stores an embedding for a message
func (c *MemoryCache) Set(messageID string, embedding []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[messageID] = entry{
		embedding: embedding,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// cleanup removes expired entries
func (c *MemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned up expired embeddings", zap.Int("expired_count", expiredCount))
	}
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}
