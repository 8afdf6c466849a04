package factory

import (
	"fmt"

	"github.com/finsurv/comms-triage/internal/adapters/bedrock"
	"github.com/finsurv/comms-triage/internal/adapters/gemini"
	"github.com/finsurv/comms-triage/internal/adapters/openai"
	"github.com/finsurv/comms-triage/internal/config"
	"github.com/finsurv/comms-triage/internal/core"
	"github.com/finsurv/comms-triage/internal/utils"
	"go.uber.org/zap"
)

// EmbeddingFactory creates embedding providers
type EmbeddingFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEmbeddingFactory creates a new embedding provider factory
func NewEmbeddingFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *EmbeddingFactory {
	return &EmbeddingFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEmbeddingProvider creates an embedding provider based on the configuration
func (f *EmbeddingFactory) CreateEmbeddingProvider() (core.EmbeddingProvider, error) {
	switch provider := f.cfg.GetString("embedding.provider"); provider {
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateEmbeddingClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateEmbeddingClient()
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateEmbeddingClient()
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
