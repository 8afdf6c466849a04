package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/finsurv/comms-triage/internal/core"
	"go.uber.org/zap"
)

type indexEntry struct {
	embedding []float32
	label     string
}

// MemoryIndex is an in-memory implementation of the SimilarityIndex
// interface: a flat cosine scan over all stored embeddings. Vectors are
// copied on write so concurrent readers never observe a torn vector.
type MemoryIndex struct {
	entries map[string]indexEntry
	dim     int
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryIndex creates a new in-memory similarity index with a fixed
// embedding dimension
func NewMemoryIndex(dim int, logger *zap.Logger) *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]indexEntry),
		dim:     dim,
		logger:  logger,
	}
}

// Upsert stores or replaces the embedding and label for a message
func (idx *MemoryIndex) Upsert(_ context.Context, messageID string, embedding []float32, label string) error {
	if len(embedding) != idx.dim {
		return fmt.Errorf("embedding of length %d, index dimension %d: %w", len(embedding), idx.dim, core.ErrDimensionMismatch)
	}

	cp := make([]float32, len(embedding))
	copy(cp, embedding)

	idx.mu.Lock()
	idx.entries[messageID] = indexEntry{embedding: cp, label: label}
	idx.mu.Unlock()

	return nil
}

// Query returns up to k neighbors ordered most-similar first.
// labelFilter restricts results to a single label when non-empty.
func (idx *MemoryIndex) Query(_ context.Context, embedding []float32, k int, labelFilter string) ([]core.Neighbor, error) {
	if len(embedding) != idx.dim {
		return nil, fmt.Errorf("query embedding of length %d, index dimension %d: %w", len(embedding), idx.dim, core.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	neighbors := make([]core.Neighbor, 0, len(idx.entries))
	for id, e := range idx.entries {
		if labelFilter != "" && e.label != labelFilter {
			continue
		}
		score, err := core.CosineSimilarity(embedding, e.embedding)
		if err != nil {
			idx.mu.RUnlock()
			return nil, fmt.Errorf("failed to score neighbor %s: %w", id, err)
		}
		neighbors = append(neighbors, core.Neighbor{MessageID: id, Score: score, Label: e.label})
	}
	idx.mu.RUnlock()

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Score != neighbors[j].Score {
			return neighbors[i].Score > neighbors[j].Score
		}
		return neighbors[i].MessageID < neighbors[j].MessageID
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}
