package store

import (
	"context"
	"sync"

	"github.com/finsurv/comms-triage/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the VerdictStore
// interface. A single lock covers the "append prior, set current"
// update, which serializes concurrent writes for the same message id.
type MemoryStore struct {
	current map[string]*core.Verdict
	history map[string][]*core.Verdict
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory verdict store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		current: make(map[string]*core.Verdict),
		history: make(map[string][]*core.Verdict),
		logger:  logger,
	}
}

// Put replaces the current verdict for a message, appending any prior
// current verdict to history
func (s *MemoryStore) Put(_ context.Context, v *core.Verdict) error {
	cp := *v

	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.current[v.MessageID]; ok {
		s.history[v.MessageID] = append(s.history[v.MessageID], prior)
	}
	s.current[v.MessageID] = &cp

	return nil
}

// Get retrieves the current verdict for a message
func (s *MemoryStore) Get(_ context.Context, messageID string) (*core.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.current[messageID]
	if !ok {
		return nil, core.ErrVerdictNotFound
	}
	cp := *v
	return &cp, nil
}

// History returns superseded verdicts for a message, oldest first
func (s *MemoryStore) History(_ context.Context, messageID string) ([]*core.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prior := s.history[messageID]
	out := make([]*core.Verdict, len(prior))
	for i, v := range prior {
		cp := *v
		out[i] = &cp
	}
	return out, nil
}
