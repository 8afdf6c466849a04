package core

import (
	"fmt"
)

// BaselineConcept is the reference embedding for ordinary business
// language; every other concept is scored relative to it.
const BaselineConcept = "baseline"

// ConceptSet maps a concept name to its reference embedding.
// Loaded once at startup and read-only afterwards, so it is safe to
// share across concurrent triage pipelines without locking.
type ConceptSet map[string][]float32

// Validate checks that a baseline concept exists and that every
// concept embedding has the expected dimension
func (cs ConceptSet) Validate(dim int) error {
	baseline, ok := cs[BaselineConcept]
	if !ok {
		return fmt.Errorf("concept set is missing the %q concept", BaselineConcept)
	}
	if len(baseline) != dim {
		return fmt.Errorf("concept %q has dimension %d, expected %d: %w",
			BaselineConcept, len(baseline), dim, ErrDimensionMismatch)
	}
	for name, emb := range cs {
		if len(emb) != dim {
			return fmt.Errorf("concept %q has dimension %d, expected %d: %w",
				name, len(emb), dim, ErrDimensionMismatch)
		}
	}
	return nil
}

// RiskConcepts returns the names of all non-baseline concepts
func (cs ConceptSet) RiskConcepts() []string {
	names := make([]string, 0, len(cs)-1)
	for name := range cs {
		if name != BaselineConcept {
			names = append(names, name)
		}
	}
	return names
}
