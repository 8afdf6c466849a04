package openai

import (
	"github.com/finsurv/comms-triage/internal/config"
	"github.com/finsurv/comms-triage/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates new OpenAI-backed clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAI clients
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateAnalyzerClient creates a new OpenAI deep analyzer
func (f *Factory) CreateAnalyzerClient() (*AnalyzerClient, error) {
	openaiCfg := f.cfg.GetOpenAI()
	client := openai.NewClient(openaiCfg.APIKey)

	return NewAnalyzerClient(
		client,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		openaiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

// CreateEmbeddingClient creates a new OpenAI embedding provider
func (f *Factory) CreateEmbeddingClient() (*EmbeddingClient, error) {
	openaiCfg := f.cfg.GetOpenAI()
	client := openai.NewClient(openaiCfg.APIKey)

	return NewEmbeddingClient(
		client,
		openaiCfg.EmbeddingModelName,
		openaiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}
