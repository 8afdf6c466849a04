package core

import (
	"fmt"
	"math"
	"strings"
)

// LogisticScorer is the default RiskScorer: a logistic function over a
// weighted sum of the relative-risk features. Weights must be
// non-negative so the score is monotone in every risk feature.
type LogisticScorer struct {
	weights  map[string]float64
	bias     float64
	hasCats  bool
	category map[string]map[string]float64
}

// NewLogisticScorer creates a logistic scorer from per-feature weights
// and an intercept. categoryWeights optionally maps a violation label
// to its own per-feature weights, used to pick the best-guess category
// for auto-flagged messages; pass nil for a pure binary scorer.
func NewLogisticScorer(weights map[string]float64, bias float64, categoryWeights map[string]map[string]float64) (*LogisticScorer, error) {
	for name, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("weight for feature %q is negative (%f); risk weights must be non-negative", name, w)
		}
	}
	return &LogisticScorer{
		weights:  weights,
		bias:     bias,
		hasCats:  len(categoryWeights) > 0,
		category: categoryWeights,
	}, nil
}

// Score returns sigmoid(bias + sum(w_f * feature_f)) over the risk
// features named in the weight map
func (s *LogisticScorer) Score(features RiskFeatures) (float64, error) {
	z := s.bias
	for name, w := range s.weights {
		z += w * features[name]
	}
	return 1.0 / (1.0 + math.Exp(-z)), nil
}

// BestCategory returns the violation label whose category weights give
// the highest activation for the feature vector
func (s *LogisticScorer) BestCategory(features RiskFeatures) string {
	if !s.hasCats {
		return LabelUnspecifiedHighRisk
	}
	best := LabelUnspecifiedHighRisk
	bestScore := math.Inf(-1)
	for label, weights := range s.category {
		var z float64
		for name, w := range weights {
			z += w * features[name]
		}
		if z > bestScore {
			bestScore = z
			best = label
		}
	}
	return best
}

// DefaultScorerWeights builds uniform unit weights for the relative-risk
// feature of every non-baseline concept in the set
func DefaultScorerWeights(concepts ConceptSet) map[string]float64 {
	weights := make(map[string]float64)
	for name := range concepts {
		if name == BaselineConcept {
			continue
		}
		weights[FeatureRelativeRiskPrefix+name] = 1.0
	}
	return weights
}

// DefaultCategoryWeights maps each risk concept's relative-risk feature
// onto a compliance label when the concept is named after one, e.g. a
// concept "insider_trading" feeds the INSIDER_TRADING category.
func DefaultCategoryWeights(concepts ConceptSet) map[string]map[string]float64 {
	cats := make(map[string]map[string]float64)
	for name := range concepts {
		if name == BaselineConcept {
			continue
		}
		label := strings.ToUpper(name)
		cats[label] = map[string]float64{
			FeatureRelativeRiskPrefix + name: 1.0,
		}
	}
	return cats
}
