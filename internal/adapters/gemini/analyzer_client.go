package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finsurv/comms-triage/internal/core"
	"github.com/finsurv/comms-triage/internal/utils"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// AnalyzerClient is an implementation of the DeepAnalyzer interface
// using Google Gemini
type AnalyzerClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
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

// NewAnalyzerClient creates a new Gemini deep analyzer
func NewAnalyzerClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*AnalyzerClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &AnalyzerClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are a financial compliance analyst. Analyze the following internal email for compliance violations.
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
	}, nil
}

// Close closes the Gemini client
func (c *AnalyzerClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Analyze returns a structured compliance verdict for a message
func (c *AnalyzerClient) Analyze(ctx context.Context, msg *core.Message) (*core.DeepAnalysis, error) {
	processedBody := c.textProcessor.ProcessText(msg.Body, c.maxBodySize)

	prompt := fmt.Sprintf(c.promptFormat,
		msg.Sender, msg.SenderGroup,
		msg.Recipient, msg.RecipientGroup,
		msg.Subject, processedBody)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

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
		zap.String("model", c.modelName))

	return &core.DeepAnalysis{
		Label:      parsed.Label,
		Confidence: parsed.Confidence,
		Rationale:  parsed.Rationale,
	}, nil
}

// classifyError maps Gemini API failures onto the core error taxonomy
func classifyError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "ResourceExhausted") || strings.Contains(msg, "rateLimitExceeded") {
		return fmt.Errorf("%w: %v", core.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err)
}
