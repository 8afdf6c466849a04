package openai

import (
	"context"
	"fmt"

	"github.com/finsurv/comms-triage/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// EmbeddingClient is an implementation of the EmbeddingProvider
// interface using the OpenAI embeddings API
type EmbeddingClient struct {
	client        *openai.Client
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEmbeddingClient creates a new OpenAI embedding provider
func NewEmbeddingClient(
	client *openai.Client,
	modelName string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *EmbeddingClient {
	return &EmbeddingClient{
		client:        client,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Embed maps message text to a dense vector
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	processed := c.textProcessor.ProcessText(text, c.maxBodySize)

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.modelName),
		Input: []string{processed},
	})
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response from OpenAI")
	}

	return resp.Data[0].Embedding, nil
}
