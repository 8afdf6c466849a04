package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedScorer returns a preset probability regardless of features
type fixedScorer struct {
	p        float64
	category string
}

func (s *fixedScorer) Score(features RiskFeatures) (float64, error) { return s.p, nil }
func (s *fixedScorer) BestCategory(features RiskFeatures) string { return s.category }

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name    string
		low     float64
		high    float64
		wantErr bool
	}{
		{"defaults", 0.3, 0.7, false},
		{"tight band", 0.49, 0.51, false},
		{"full range", 0, 1, false},
		{"inverted", 0.8, 0.2, true},
		{"equal", 0.5, 0.5, true},
		{"low negative", -0.1, 0.7, true},
		{"high above one", 0.3, 1.1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Thresholds{Low: tt.low, High: tt.high}.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidThresholdConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClassifierRejectsInvalidThresholds(t *testing.T) {
	_, err := NewClassifier(&fixedScorer{}, Thresholds{Low: 0.8, High: 0.2})
	assert.ErrorIs(t, err, ErrInvalidThresholdConfig)
}

func TestClassifierDecide(t *testing.T) {
	classifier, err := NewClassifier(&fixedScorer{}, Thresholds{Low: 0.3, High: 0.7})
	require.NoError(t, err)

	tests := []struct {
		name        string
		probability float64
		want        Decision
	}{
		{"well below low", 0.2, DecisionAutoClear},
		{"between bands", 0.5, DecisionEscalate},
		{"well above high", 0.9, DecisionAutoFlag},
		{"exactly t_low clears", 0.3, DecisionAutoClear},
		{"exactly t_high flags", 0.7, DecisionAutoFlag},
		{"just above t_low escalates", 0.30001, DecisionEscalate},
		{"just below t_high escalates", 0.69999, DecisionEscalate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Decide(tt.probability))
		})
	}
}

func TestClassifierScoreRejectsOutOfRangeProbability(t *testing.T) {
	classifier, err := NewClassifier(&fixedScorer{p: 1.5}, Thresholds{Low: 0.3, High: 0.7})
	require.NoError(t, err)

	_, err = classifier.Score(RiskFeatures{})
	assert.Error(t, err)
}

func TestLogisticScorerMonotonicity(t *testing.T) {
	concepts := testConceptSet()
	scorer, err := NewLogisticScorer(DefaultScorerWeights(concepts), -1.0, nil)
	require.NoError(t, err)

	low := RiskFeatures{
		FeatureRelativeRiskPrefix + "insider_trading":  0.1,
		FeatureRelativeRiskPrefix + "personal_trading": 0.2,
	}
	high := RiskFeatures{
		FeatureRelativeRiskPrefix + "insider_trading":  0.5,
		FeatureRelativeRiskPrefix + "personal_trading": 0.2,
	}

	pLow, err := scorer.Score(low)
	require.NoError(t, err)
	pHigh, err := scorer.Score(high)
	require.NoError(t, err)

	// Raising any single risk feature never lowers the probability.
	assert.Greater(t, pHigh, pLow)
	assert.GreaterOrEqual(t, pLow, 0.0)
	assert.LessOrEqual(t, pHigh, 1.0)
}

func TestNewLogisticScorerRejectsNegativeWeights(t *testing.T) {
	_, err := NewLogisticScorer(map[string]float64{"relative_risk:insider_trading": -1}, 0, nil)
	assert.Error(t, err)
}

func TestLogisticScorerBestCategory(t *testing.T) {
	concepts := testConceptSet()
	scorer, err := NewLogisticScorer(DefaultScorerWeights(concepts), -1.0, DefaultCategoryWeights(concepts))
	require.NoError(t, err)

	features := RiskFeatures{
		FeatureRelativeRiskPrefix + "insider_trading":  0.6,
		FeatureRelativeRiskPrefix + "personal_trading": 0.1,
	}
	assert.Equal(t, LabelInsiderTrading, scorer.BestCategory(features))
}

func TestLogisticScorerBestCategoryWithoutCategories(t *testing.T) {
	scorer, err := NewLogisticScorer(map[string]float64{}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, LabelUnspecifiedHighRisk, scorer.BestCategory(RiskFeatures{}))
}
