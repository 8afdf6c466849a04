package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/finsurv/comms-triage/internal/config"
	"github.com/finsurv/comms-triage/internal/utils"
	"go.uber.org/zap"
)

// Factory creates Bedrock clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

func (f *Factory) newRuntimeClient() (*bedrockruntime.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(f.cfg.GetBedrock().Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

// CreateAnalyzerClient creates a new Bedrock deep analyzer
func (f *Factory) CreateAnalyzerClient() (*AnalyzerClient, error) {
	client, err := f.newRuntimeClient()
	if err != nil {
		return nil, err
	}

	bedrockCfg := f.cfg.GetBedrock()
	return NewAnalyzerClient(
		client,
		bedrockCfg.ModelID,
		bedrockCfg.MaxTokens,
		bedrockCfg.Temperature,
		bedrockCfg.TopP,
		bedrockCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

// CreateEmbeddingClient creates a new Bedrock embedding provider
func (f *Factory) CreateEmbeddingClient() (*EmbeddingClient, error) {
	client, err := f.newRuntimeClient()
	if err != nil {
		return nil, err
	}

	bedrockCfg := f.cfg.GetBedrock()
	return NewEmbeddingClient(
		client,
		bedrockCfg.EmbeddingModelID,
		bedrockCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}
