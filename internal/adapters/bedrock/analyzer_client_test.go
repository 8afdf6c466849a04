package bedrock

import (
	"errors"
	"testing"

	"github.com/finsurv/comms-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComplianceJSON(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		analysis, err := parseComplianceJSON(`{"label": "INSIDER_TRADING", "confidence": 0.92, "rationale": "references MNPI"}`)
		require.NoError(t, err)
		assert.Equal(t, core.LabelInsiderTrading, analysis.Label)
		assert.Equal(t, 0.92, analysis.Confidence)
		assert.Equal(t, "references MNPI", analysis.Rationale)
	})

	t.Run("JSON wrapped in prose", func(t *testing.T) {
		analysis, err := parseComplianceJSON(`Here is my assessment:
{"label": "CLEAN", "confidence": 0.8, "rationale": "routine scheduling"}
Let me know if you need more detail.`)
		require.NoError(t, err)
		assert.Equal(t, core.LabelClean, analysis.Label)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := parseComplianceJSON("I cannot analyze this email.")
		assert.Error(t, err)
	})

	t.Run("missing label", func(t *testing.T) {
		_, err := parseComplianceJSON(`{"confidence": 0.5, "rationale": "unsure"}`)
		assert.Error(t, err)
	})

	t.Run("confidence out of range", func(t *testing.T) {
		_, err := parseComplianceJSON(`{"label": "CLEAN", "confidence": 1.4}`)
		assert.Error(t, err)
	})
}

func TestClassifyError(t *testing.T) {
	t.Run("throttling maps to rate limited", func(t *testing.T) {
		err := classifyError(errors.New("operation error Bedrock Runtime: InvokeModel, ThrottlingException: rate exceeded"))
		assert.ErrorIs(t, err, core.ErrRateLimited)
	})

	t.Run("other failures map to provider unavailable", func(t *testing.T) {
		err := classifyError(errors.New("connection reset by peer"))
		assert.ErrorIs(t, err, core.ErrProviderUnavailable)
	})
}

func TestIsAnthropicModel(t *testing.T) {
	claude := &AnalyzerClient{modelID: "anthropic.claude-v2"}
	assert.True(t, claude.isAnthropicModel())

	titan := &AnalyzerClient{modelID: "amazon.titan-text-express-v1"}
	assert.False(t, titan.isAnthropicModel())
}
