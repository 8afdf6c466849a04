package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/finsurv/comms-triage/internal/core"
	"github.com/finsurv/comms-triage/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// AnalyzerClient is an implementation of the DeepAnalyzer interface
// using OpenAI chat completions
type AnalyzerClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	promptFormat  string
	textProcessor *utils.TextProcessor
}

// complianceResponse represents the structured response from the LLM
type complianceResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// NewAnalyzerClient creates a new OpenAI deep analyzer
func NewAnalyzerClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *AnalyzerClient {
	return &AnalyzerClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `Analyze the following internal email for compliance violations.
Respond with a JSON object containing:
- label: one of "INSIDER_TRADING", "CONFIDENTIALITY_BREACH", "PERSONAL_TRADING", "INFO_BARRIER_VIOLATION", "CLEAN"
- confidence: number between 0 and 1 (how confident you are in your assessment)
- rationale: string (brief explanation of your assessment)

Email:
From: %s (%s)
To: %s (%s)
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`,
	}
}

// Analyze returns a structured compliance verdict for a message
func (c *AnalyzerClient) Analyze(ctx context.Context, msg *core.Message) (*core.DeepAnalysis, error) {
	processedBody := c.textProcessor.ProcessText(msg.Body, c.maxBodySize)

	prompt := fmt.Sprintf(c.promptFormat,
		msg.Sender, msg.SenderGroup,
		msg.Recipient, msg.RecipientGroup,
		msg.Subject, processedBody)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a financial compliance analyst. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	responseText := resp.Choices[0].Message.Content

	var parsed complianceResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		jsonStart := strings.Index(responseText, "{")
		jsonEnd := strings.LastIndex(responseText, "}")
		if jsonStart < 0 || jsonEnd <= jsonStart {
			return nil, fmt.Errorf("failed to extract JSON from LLM response: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd+1]), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}

	if parsed.Label == "" {
		return nil, fmt.Errorf("LLM response is missing a label")
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return nil, fmt.Errorf("LLM response confidence %f outside [0, 1]", parsed.Confidence)
	}

	c.logger.Debug("Deep analysis complete",
		zap.String("message_id", msg.ID),
		zap.String("label", parsed.Label),
		zap.Float64("confidence", parsed.Confidence),
		zap.String("model", c.modelName),
		zap.String("processing_id", resp.ID))

	return &core.DeepAnalysis{
		Label:      parsed.Label,
		Confidence: parsed.Confidence,
		Rationale:  parsed.Rationale,
	}, nil
}

// classifyError maps OpenAI API failures onto the core error taxonomy
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", core.ErrRateLimited, err)
		}
		if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 {
			return err
		}
	}
	return fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err)
}
