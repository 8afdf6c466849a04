package concepts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/finsurv/comms-triage/internal/core"
	"go.uber.org/zap"
)

// Load reads a concept set from a JSON file mapping concept name to
// embedding, e.g. {"baseline": [0.1, ...], "insider_trading": [...]}.
// The set is validated against the configured embedding dimension
// before anything else can run.
func Load(path string, dim int, logger *zap.Logger) (core.ConceptSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read concepts file: %w", err)
	}

	var raw map[string][]float32
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse concepts file %s: %w", path, err)
	}

	cs := core.ConceptSet(raw)
	if err := cs.Validate(dim); err != nil {
		return nil, err
	}

	logger.Info("Loaded concept set",
		zap.String("path", path),
		zap.Strings("risk_concepts", cs.RiskConcepts()),
		zap.Int("dimension", dim))

	return cs, nil
}
