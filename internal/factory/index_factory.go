package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/finsurv/comms-triage/internal/adapters/index"
	"github.com/finsurv/comms-triage/internal/config"
	"github.com/finsurv/comms-triage/internal/core"
	"go.uber.org/zap"
)

// IndexFactory creates similarity indexes based on configuration
type IndexFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewIndexFactory creates a new similarity index factory
func NewIndexFactory(cfg *config.Config, logger *zap.Logger) *IndexFactory {
	return &IndexFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSimilarityIndex creates a similarity index based on the configuration
func (f *IndexFactory) CreateSimilarityIndex() (core.SimilarityIndex, error) {
	dim := f.cfg.GetInt("triage.embedding_dim")

	switch indexType := f.cfg.GetString("index.type"); indexType {
	case "memory":
		return index.NewMemoryIndex(dim, f.logger), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("index.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return index.NewSQLiteIndex(sqlitePath, dim, f.logger)
	default:
		return nil, fmt.Errorf("unsupported similarity index type: %s", indexType)
	}
}
