package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/finsurv/comms-triage/internal/core"
	"github.com/finsurv/comms-triage/internal/utils"
	"go.uber.org/zap"
)

// AnalyzerClient is an implementation of the DeepAnalyzer interface
// using Amazon Bedrock
type AnalyzerClient struct {
	client        *bedrockruntime.Client
	modelID       string
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

// NewAnalyzerClient creates a new Bedrock deep analyzer
func NewAnalyzerClient(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *AnalyzerClient {
	return &AnalyzerClient{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
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
	}
}

// Analyze returns a structured compliance verdict for a message
func (c *AnalyzerClient) Analyze(ctx context.Context, msg *core.Message) (*core.DeepAnalysis, error) {
	processedBody := c.textProcessor.ProcessText(msg.Body, c.maxBodySize)

	prompt := fmt.Sprintf(c.promptFormat,
		msg.Sender, msg.SenderGroup,
		msg.Recipient, msg.RecipientGroup,
		msg.Subject, processedBody)

	var payload []byte
	var err error

	if c.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
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

	var responseText string
	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		responseText = claudeResp.Completion
	} else {
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(resp.Body, &genericResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		switch {
		case genericResp.Output != "":
			responseText = genericResp.Output
		case genericResp.Text != "":
			responseText = genericResp.Text
		case genericResp.Response != "":
			responseText = genericResp.Response
		default:
			responseText = string(resp.Body)
		}
	}

	analysis, err := parseComplianceJSON(responseText)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Deep analysis complete",
		zap.String("message_id", msg.ID),
		zap.String("label", analysis.Label),
		zap.Float64("confidence", analysis.Confidence),
		zap.String("model", c.modelID))

	return analysis, nil
}

// parseComplianceJSON parses the LLM's JSON response, tolerating
// surrounding prose by extracting the outermost JSON object
func parseComplianceJSON(responseText string) (*core.DeepAnalysis, error) {
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

	return &core.DeepAnalysis{
		Label:      parsed.Label,
		Confidence: parsed.Confidence,
		Rationale:  parsed.Rationale,
	}, nil
}

// classifyError maps Bedrock failures onto the core error taxonomy so
// the orchestrator can pick the right retry policy
func classifyError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "ThrottlingException") || strings.Contains(msg, "TooManyRequests") {
		return fmt.Errorf("%w: %v", core.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err)
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *AnalyzerClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}
