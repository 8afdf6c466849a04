package gemini

import (
	"context"
	"fmt"

	"github.com/finsurv/comms-triage/internal/utils"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// EmbeddingClient is an implementation of the EmbeddingProvider
// interface using Gemini embedding models
type EmbeddingClient struct {
	client        *genai.Client
	model         *genai.EmbeddingModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEmbeddingClient creates a new Gemini embedding provider
func NewEmbeddingClient(
	apiKey string,
	modelName string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*EmbeddingClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &EmbeddingClient{
		client:        client,
		model:         client.EmbeddingModel(modelName),
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *EmbeddingClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Embed maps message text to a dense vector
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	processed := c.textProcessor.ProcessText(text, c.maxBodySize)

	resp, err := c.model.EmbedContent(ctx, genai.Text(processed))
	if err != nil {
		return nil, classifyError(err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding from model %s", c.modelName)
	}

	return resp.Embedding.Values, nil
}
