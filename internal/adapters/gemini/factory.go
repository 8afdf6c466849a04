package gemini

import (
	"github.com/finsurv/comms-triage/internal/config"
	"github.com/finsurv/comms-triage/internal/utils"
	"go.uber.org/zap"
)

// Factory creates Gemini clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Gemini factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateAnalyzerClient creates a new Gemini deep analyzer
func (f *Factory) CreateAnalyzerClient() (*AnalyzerClient, error) {
	geminiCfg := f.cfg.GetGemini()
	return NewAnalyzerClient(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}

// CreateEmbeddingClient creates a new Gemini embedding provider
func (f *Factory) CreateEmbeddingClient() (*EmbeddingClient, error) {
	geminiCfg := f.cfg.GetGemini()
	return NewEmbeddingClient(
		geminiCfg.APIKey,
		geminiCfg.EmbeddingModelName,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
