package factory

import (
	"github.com/finsurv/comms-triage/internal/config"
	"github.com/finsurv/comms-triage/internal/core"
	"go.uber.org/zap"
)

// ScorerFactory creates risk scorers
type ScorerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScorerFactory creates a new risk scorer factory
func NewScorerFactory(cfg *config.Config, logger *zap.Logger) *ScorerFactory {
	return &ScorerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRiskScorer creates the configured risk scorer over the loaded
// concept set. Per-feature weights from triage.scorer_weights override
// the uniform defaults.
func (f *ScorerFactory) CreateRiskScorer(concepts core.ConceptSet) (core.RiskScorer, error) {
	weights := core.DefaultScorerWeights(concepts)
	for feature, weight := range f.cfg.GetViper().GetStringMap("triage.scorer_weights") {
		if w, ok := weight.(float64); ok {
			weights[core.FeatureRelativeRiskPrefix+feature] = w
		}
	}

	bias := f.cfg.GetFloat64("triage.scorer_bias")

	return core.NewLogisticScorer(weights, bias, core.DefaultCategoryWeights(concepts))
}
