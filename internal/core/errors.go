package core

import "errors"

var (
	// ErrDimensionMismatch is returned when two vectors disagree in length
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrDegenerateVector is returned when a vector has zero norm
	ErrDegenerateVector = errors.New("degenerate zero-norm vector")
	// ErrInvalidThresholdConfig is returned for thresholds outside 0 <= t_low < t_high <= 1
	ErrInvalidThresholdConfig = errors.New("invalid threshold configuration")
	// ErrEmbeddingUnavailable is returned when the embedding provider fails after retries
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrDeepAnalysisUnavailable is returned when the deep analyzer fails after retries
	ErrDeepAnalysisUnavailable = errors.New("deep analysis unavailable")
	// ErrProviderUnavailable marks a transient upstream failure eligible for retry
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrRateLimited marks an upstream throttle response; retried with a longer backoff
	ErrRateLimited = errors.New("provider rate limited")
	// ErrVerdictNotFound is returned when no current verdict exists for a message
	ErrVerdictNotFound = errors.New("verdict not found")
)
