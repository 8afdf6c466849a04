package core

import (
	"fmt"
)

// Thresholds holds the two ordered probabilities that partition the
// score range into the three routing bands
type Thresholds struct {
	Low  float64
	High float64
}

// Validate checks 0 <= t_low < t_high <= 1
func (t Thresholds) Validate() error {
	if t.Low < 0 || t.High > 1 || t.Low >= t.High {
		return fmt.Errorf("t_low=%f t_high=%f: %w", t.Low, t.High, ErrInvalidThresholdConfig)
	}
	return nil
}

// Classifier triages a risk feature vector into a calibrated
// probability and a three-way routing decision
type Classifier struct {
	scorer     RiskScorer
	thresholds Thresholds
}

// NewClassifier creates a classifier; the threshold configuration is
// validated here so a misconfigured service fails before any message
// is processed
func NewClassifier(scorer RiskScorer, thresholds Thresholds) (*Classifier, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{scorer: scorer, thresholds: thresholds}, nil
}

// Score returns the calibrated risk probability for a feature vector
func (c *Classifier) Score(features RiskFeatures) (float64, error) {
	p, err := c.scorer.Score(features)
	if err != nil {
		return 0, fmt.Errorf("failed to score features: %w", err)
	}
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("scorer returned probability %f outside [0, 1]", p)
	}
	return p, nil
}

// Decide maps a probability onto the routing decision. Boundaries are
// inclusive: p == t_low clears, p == t_high flags.
func (c *Classifier) Decide(probability float64) Decision {
	switch {
	case probability <= c.thresholds.Low:
		return DecisionAutoClear
	case probability >= c.thresholds.High:
		return DecisionAutoFlag
	default:
		return DecisionEscalate
	}
}

// BestCategory delegates to the scorer's most-likely-category output
func (c *Classifier) BestCategory(features RiskFeatures) string {
	return c.scorer.BestCategory(features)
}
