package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/finsurv/comms-triage/internal/utils"
	"go.uber.org/zap"
)

// EmbeddingClient is an implementation of the EmbeddingProvider
// interface using Amazon Titan text embeddings on Bedrock
type EmbeddingClient struct {
	client        *bedrockruntime.Client
	modelID       string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEmbeddingClient creates a new Bedrock embedding provider
func NewEmbeddingClient(
	client *bedrockruntime.Client,
	modelID string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *EmbeddingClient {
	return &EmbeddingClient{
		client:        client,
		modelID:       modelID,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Embed maps message text to a dense vector via the Titan embedding model
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	processed := c.textProcessor.ProcessText(text, c.maxBodySize)

	payload, err := json.Marshal(map[string]interface{}{
		"inputText": processed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, classifyError(err)
	}

	var embResp struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(resp.Body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding response: %w", err)
	}
	if len(embResp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding from model %s", c.modelID)
	}

	return embResp.Embedding, nil
}
