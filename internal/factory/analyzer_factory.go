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

// AnalyzerFactory creates deep analyzers
type AnalyzerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewAnalyzerFactory creates a new deep analyzer factory
func NewAnalyzerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateDeepAnalyzer creates a deep analyzer based on the configuration
func (f *AnalyzerFactory) CreateDeepAnalyzer() (core.DeepAnalyzer, error) {
	switch provider := f.cfg.GetString("analyzer.provider"); provider {
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateAnalyzerClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateAnalyzerClient()
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateAnalyzerClient()
	default:
		return nil, fmt.Errorf("unsupported analyzer provider: %s", provider)
	}
}
