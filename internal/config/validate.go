package config

import (
	"fmt"

	"github.com/finsurv/comms-triage/internal/core"
)

// Validate checks the loaded configuration for values that would leave
// the orchestrator in an unusable state. It runs before any component
// is constructed so a bad deployment fails whole, never partially.
func (c *Config) Validate() error {
	thresholds := core.Thresholds{
		Low:  c.GetFloat64("triage.t_low"),
		High: c.GetFloat64("triage.t_high"),
	}
	if err := thresholds.Validate(); err != nil {
		return err
	}

	if dim := c.GetInt("triage.embedding_dim"); dim <= 0 {
		return fmt.Errorf("triage.embedding_dim must be positive, got %d: %w", dim, core.ErrDimensionMismatch)
	}

	if limit := c.GetInt("triage.worker_limit"); limit <= 0 {
		return fmt.Errorf("triage.worker_limit must be positive, got %d", limit)
	}
	if inflight := c.GetInt("triage.max_deep_inflight"); inflight <= 0 {
		return fmt.Errorf("triage.max_deep_inflight must be positive, got %d", inflight)
	}

	for _, key := range []string{
		"triage.embedding_timeout",
		"triage.deep_analysis_timeout",
		"triage.retry_interval",
		"triage.rate_limit_pause",
	} {
		d, err := c.GetDuration(key)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}

	return nil
}
