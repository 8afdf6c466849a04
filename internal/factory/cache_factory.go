package factory

import (
	"fmt"

	"github.com/finsurv/comms-triage/internal/adapters/cache"
	"github.com/finsurv/comms-triage/internal/config"
	"github.com/finsurv/comms-triage/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates embedding caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new embedding cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEmbeddingCache creates an embedding cache, or returns nil when
// caching is disabled
func (f *CacheFactory) CreateEmbeddingCache() (core.EmbeddingCache, error) {
	if !f.cfg.GetBool("cache.enabled") {
		return nil, nil
	}

	ttl, err := f.cfg.GetDuration("cache.ttl")
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL: %w", err)
	}
	cleanupFreq, err := f.cfg.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}

	return cache.NewMemoryCache(f.logger, ttl, cleanupFreq), nil
}
