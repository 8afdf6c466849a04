package core

import (
	"context"
)

// EmbeddingProvider defines the interface for text embedding services
type EmbeddingProvider interface {
	// Embed maps message text to a fixed-dimension dense vector
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DeepAnalyzer defines the interface for expensive deep-reasoning analysis
// of escalated messages
type DeepAnalyzer interface {
	// Analyze returns a structured compliance verdict for a message
	Analyze(ctx context.Context, msg *Message) (*DeepAnalysis, error)
}

// RiskScorer is a pluggable scoring function over derived risk features
type RiskScorer interface {
	// Score returns a calibrated risk probability in [0, 1]
	Score(features RiskFeatures) (float64, error)

	// BestCategory returns the most likely violation category for a
	// high-risk feature vector, or LabelUnspecifiedHighRisk when the
	// scorer cannot distinguish categories
	BestCategory(features RiskFeatures) string
}

// VerdictStore persists the current verdict per message plus an
// append-only history of superseded verdicts
type VerdictStore interface {
	// Put replaces the current verdict for a message, appending any
	// prior current verdict to history
	Put(ctx context.Context, v *Verdict) error

	// Get retrieves the current verdict for a message
	Get(ctx context.Context, messageID string) (*Verdict, error)

	// History returns superseded verdicts for a message, oldest first
	History(ctx context.Context, messageID string) ([]*Verdict, error)
}

// SimilarityIndex serves nearest-neighbor queries over message embeddings
type SimilarityIndex interface {
	// Upsert stores or replaces the embedding and label for a message
	Upsert(ctx context.Context, messageID string, embedding []float32, label string) error

	// Query returns up to k neighbors ordered most-similar first.
	// labelFilter restricts results to a single label when non-empty.
	Query(ctx context.Context, embedding []float32, k int, labelFilter string) ([]Neighbor, error)
}

// EmbeddingCache caches embeddings keyed by message id
type EmbeddingCache interface {
	Get(messageID string) ([]float32, bool)
	Set(messageID string, embedding []float32)
}
