package core

import (
	"fmt"
	"math"
)

// Feature names emitted by the deriver. Relative-risk features are
// prefixed with FeatureRelativeRiskPrefix followed by the concept name.
const (
	FeatureBaselineSimilarity = "baseline_similarity"
	FeatureRelativeRiskPrefix = "relative_risk:"
)

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||) for two vectors
// of equal length. Accumulation is done in float64 for stability.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors of length %d and %d: %w", len(a), len(b), ErrDimensionMismatch)
	}
	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// FeatureDeriver computes semantic risk features from a message
// embedding against a fixed concept set
type FeatureDeriver struct {
	concepts ConceptSet
}

// NewFeatureDeriver creates a feature deriver over a validated concept set
func NewFeatureDeriver(concepts ConceptSet) *FeatureDeriver {
	return &FeatureDeriver{concepts: concepts}
}

// Derive computes the risk feature vector for an embedding.
// For every non-baseline concept c it emits
// relative_risk:c = similarity(e, c) - similarity(e, baseline),
// centering scores so 0 means "as risky as ordinary business language".
// The raw baseline similarity is emitted as its own feature.
// Pure function: identical inputs always yield identical output.
func (d *FeatureDeriver) Derive(embedding []float32) (RiskFeatures, error) {
	baselineSim, err := CosineSimilarity(embedding, d.concepts[BaselineConcept])
	if err != nil {
		return nil, fmt.Errorf("failed to compute baseline similarity: %w", err)
	}

	features := make(RiskFeatures, len(d.concepts))
	features[FeatureBaselineSimilarity] = baselineSim

	for name, conceptEmb := range d.concepts {
		if name == BaselineConcept {
			continue
		}
		sim, err := CosineSimilarity(embedding, conceptEmb)
		if err != nil {
			return nil, fmt.Errorf("failed to compute similarity for concept %q: %w", name, err)
		}
		features[FeatureRelativeRiskPrefix+name] = sim - baselineSim
	}

	return features, nil
}
