package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockProvider serves embeddings keyed by message body and can be
// scripted to fail a number of leading calls
type mockProvider struct {
	mu         sync.Mutex
	embeddings map[string][]float32
	failures   []error
	calls      int
}

func (p *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.failures) > 0 {
		err := p.failures[0]
		p.failures = p.failures[1:]
		return nil, err
	}
	emb, ok := p.embeddings[text]
	if !ok {
		return nil, fmt.Errorf("no embedding for %q", text)
	}
	return emb, nil
}

func (p *mockProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type mockAnalyzer struct {
	mu       sync.Mutex
	analysis *DeepAnalysis
	err      error
	calls    int
}

func (a *mockAnalyzer) Analyze(ctx context.Context, msg *Message) (*DeepAnalysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.analysis, nil
}

func (a *mockAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type mockStore struct {
	mu      sync.Mutex
	current map[string]*Verdict
	history map[string][]*Verdict
}

func newMockStore() *mockStore {
	return &mockStore{
		current: make(map[string]*Verdict),
		history: make(map[string][]*Verdict),
	}
}

func (s *mockStore) Put(ctx context.Context, v *Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.current[v.MessageID]; ok {
		s.history[v.MessageID] = append(s.history[v.MessageID], prev)
	}
	s.current[v.MessageID] = v
	return nil
}

func (s *mockStore) Get(ctx context.Context, messageID string) (*Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.current[messageID]
	if !ok {
		return nil, ErrVerdictNotFound
	}
	return v, nil
}

func (s *mockStore) History(ctx context.Context, messageID string) ([]*Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[messageID], nil
}

type mockIndex struct {
	mu     sync.Mutex
	labels map[string]string
}

func newMockIndex() *mockIndex {
	return &mockIndex{labels: make(map[string]string)}
}

func (i *mockIndex) Upsert(ctx context.Context, messageID string, embedding []float32, label string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.labels[messageID] = label
	return nil
}

func (i *mockIndex) Query(ctx context.Context, embedding []float32, k int, labelFilter string) ([]Neighbor, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []Neighbor
	for id, label := range i.labels {
		if labelFilter != "" && label != labelFilter {
			continue
		}
		out = append(out, Neighbor{MessageID: id, Score: 1, Label: label})
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (i *mockIndex) labelFor(messageID string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.labels[messageID]
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string][]float32
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]float32)}
}

func (c *mockCache) Get(messageID string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	emb, ok := c.entries[messageID]
	return emb, ok
}

func (c *mockCache) Set(messageID string, embedding []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[messageID] = embedding
}

type exemptAll struct{}

func (exemptAll) IsExempt(sender string) bool { return true }

// rampScorer maps the insider-trading relative risk from [-1, 1] onto
// [0, 1] so test embeddings steer the routing decision directly
type rampScorer struct{}

func (rampScorer) Score(features RiskFeatures) (float64, error) {
	return (features[FeatureRelativeRiskPrefix+"insider_trading"] + 1) / 2, nil
}

func (rampScorer) BestCategory(features RiskFeatures) string {
	return LabelInsiderTrading
}

// Embeddings chosen against testConceptSet: the first axis is the
// baseline direction, the second the insider-trading direction.
var (
	clearEmbedding    = []float32{1, 0, 0, 0}
	escalateEmbedding = []float32{1, 1, 0, 0}
	flagEmbedding     = []float32{0, 1, 0, 0}
)

type serviceFixture struct {
	service  *TriageService
	provider *mockProvider
	analyzer *mockAnalyzer
	store    *mockStore
	index    *mockIndex
	cache    *mockCache
}

func newServiceFixture(t *testing.T, opts ...func(*serviceFixture)) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		provider: &mockProvider{embeddings: map[string][]float32{
			"clear body":    clearEmbedding,
			"escalate body": escalateEmbedding,
			"flag body":     flagEmbedding,
		}},
		analyzer: &mockAnalyzer{analysis: &DeepAnalysis{
			Label:      LabelConfidentialityBreach,
			Confidence: 0.85,
			Rationale:  "discusses an unreleased earnings figure",
		}},
		store: newMockStore(),
		index: newMockIndex(),
		cache: newMockCache(),
	}
	for _, opt := range opts {
		opt(f)
	}

	classifier, err := NewClassifier(rampScorer{}, Thresholds{Low: 0.3, High: 0.7})
	require.NoError(t, err)

	f.service = NewTriageService(
		f.provider,
		f.analyzer,
		NewFeatureDeriver(testConceptSet()),
		classifier,
		f.store,
		f.index,
		f.cache,
		nil,
		zap.NewNop(),
		TriageOptions{
			WorkerLimit:     4,
			MaxDeepInflight: 2,
			MaxRetries:      2,
			RetryInterval:   time.Millisecond,
			RateLimitPause:  time.Millisecond,
		},
	)
	return f
}

func testMessage(id, body string) *Message {
	return &Message{
		ID:        id,
		Sender:    "trader@bank.example",
		Recipient: "desk@bank.example",
		Subject:   "re: today",
		Body:      body,
		SentAt:    time.Now(),
	}
}

func TestTriageAutoClear(t *testing.T) {
	f := newServiceFixture(t)

	verdict, err := f.service.Triage(context.Background(), testMessage("m1", "clear body"))
	require.NoError(t, err)

	assert.Equal(t, LabelClean, verdict.Label)
	assert.Equal(t, SourceML, verdict.Source)
	assert.InDelta(t, 1.0, verdict.Confidence, 1e-9)
	assert.Equal(t, 0, f.analyzer.callCount())

	stored, err := f.store.Get(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, verdict, stored)
	assert.Equal(t, LabelClean, f.index.labelFor("m1"))
}

func TestTriageAutoFlag(t *testing.T) {
	f := newServiceFixture(t)

	verdict, err := f.service.Triage(context.Background(), testMessage("m2", "flag body"))
	require.NoError(t, err)

	assert.Equal(t, LabelInsiderTrading, verdict.Label)
	assert.Equal(t, SourceML, verdict.Source)
	assert.InDelta(t, 1.0, verdict.Confidence, 1e-9)
	assert.Equal(t, 0, f.analyzer.callCount(), "auto-flagged messages skip deep analysis")
	assert.Equal(t, LabelInsiderTrading, f.index.labelFor("m2"))
}

func TestTriageEscalate(t *testing.T) {
	f := newServiceFixture(t)

	verdict, err := f.service.Triage(context.Background(), testMessage("m3", "escalate body"))
	require.NoError(t, err)

	assert.Equal(t, LabelConfidentialityBreach, verdict.Label)
	assert.Equal(t, SourceLLM, verdict.Source)
	assert.InDelta(t, 0.85, verdict.Confidence, 1e-9)
	assert.Equal(t, "discusses an unreleased earnings figure", verdict.Rationale)
	assert.Equal(t, 1, f.analyzer.callCount())
}

func TestTriageDeepAnalysisFailureRecordsPendingReview(t *testing.T) {
	f := newServiceFixture(t, func(f *serviceFixture) {
		f.analyzer.err = errors.New("model refused the request")
	})

	_, err := f.service.Triage(context.Background(), testMessage("m4", "escalate body"))
	require.ErrorIs(t, err, ErrDeepAnalysisUnavailable)

	stored, gerr := f.store.Get(context.Background(), "m4")
	require.NoError(t, gerr)
	assert.Equal(t, LabelPendingReview, stored.Label)
	assert.Equal(t, 0.0, stored.Confidence)
	assert.NotEmpty(t, stored.Rationale)
	assert.Equal(t, LabelPendingReview, f.index.labelFor("m4"))
}

func TestTriageEmbeddingFailureRecordsPendingReview(t *testing.T) {
	f := newServiceFixture(t, func(f *serviceFixture) {
		f.provider.failures = []error{ErrProviderUnavailable, ErrProviderUnavailable}
	})

	_, err := f.service.Triage(context.Background(), testMessage("m5", "clear body"))
	require.ErrorIs(t, err, ErrEmbeddingUnavailable)

	assert.Equal(t, 2, f.provider.callCount(), "transient failures retried up to the limit")

	stored, gerr := f.store.Get(context.Background(), "m5")
	require.NoError(t, gerr)
	assert.Equal(t, LabelPendingReview, stored.Label)
}

func TestTriageRetriesTransientEmbeddingFailure(t *testing.T) {
	f := newServiceFixture(t, func(f *serviceFixture) {
		f.provider.failures = []error{ErrProviderUnavailable}
	})

	verdict, err := f.service.Triage(context.Background(), testMessage("m6", "clear body"))
	require.NoError(t, err)
	assert.Equal(t, LabelClean, verdict.Label)
	assert.Equal(t, 2, f.provider.callCount())
}

func TestTriageRetriesRateLimitedProvider(t *testing.T) {
	f := newServiceFixture(t, func(f *serviceFixture) {
		f.provider.failures = []error{ErrRateLimited}
	})

	verdict, err := f.service.Triage(context.Background(), testMessage("m7", "clear body"))
	require.NoError(t, err)
	assert.Equal(t, LabelClean, verdict.Label)
	assert.Equal(t, 2, f.provider.callCount())
}

func TestTriageDoesNotRetryPermanentFailure(t *testing.T) {
	f := newServiceFixture(t, func(f *serviceFixture) {
		f.provider.failures = []error{errors.New("invalid credentials"), errors.New("invalid credentials")}
	})

	_, err := f.service.Triage(context.Background(), testMessage("m8", "clear body"))
	require.ErrorIs(t, err, ErrEmbeddingUnavailable)
	assert.Equal(t, 1, f.provider.callCount())
}

func TestTriageUsesEmbeddingCache(t *testing.T) {
	f := newServiceFixture(t)
	msg := testMessage("m9", "clear body")

	_, err := f.service.Triage(context.Background(), msg)
	require.NoError(t, err)
	_, err = f.service.Triage(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, 1, f.provider.callCount(), "second run served from cache")

	_, err = f.service.Retriage(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, 2, f.provider.callCount(), "retriage bypasses the cache")
}

func TestRetriageSupersedesVerdict(t *testing.T) {
	f := newServiceFixture(t)
	msg := testMessage("m10", "clear body")

	first, err := f.service.Triage(context.Background(), msg)
	require.NoError(t, err)
	second, err := f.service.Retriage(context.Background(), msg)
	require.NoError(t, err)

	current, err := f.store.Get(context.Background(), "m10")
	require.NoError(t, err)
	assert.Equal(t, second, current)

	history, err := f.store.History(context.Background(), "m10")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, first, history[0])
}

func TestTriageExemptSender(t *testing.T) {
	f := newServiceFixture(t)
	f.service.exempt = exemptAll{}

	verdict, err := f.service.Triage(context.Background(), testMessage("m11", "flag body"))
	require.NoError(t, err)

	assert.Equal(t, LabelClean, verdict.Label)
	assert.Equal(t, SourceExempt, verdict.Source)
	assert.Equal(t, 0, f.provider.callCount(), "exempt messages never reach the provider")
}

func TestTriageDegenerateEmbedding(t *testing.T) {
	f := newServiceFixture(t, func(f *serviceFixture) {
		f.provider.embeddings["zero body"] = []float32{0, 0, 0, 0}
	})

	_, err := f.service.Triage(context.Background(), testMessage("m12", "zero body"))
	require.ErrorIs(t, err, ErrDegenerateVector)

	stored, gerr := f.store.Get(context.Background(), "m12")
	require.NoError(t, gerr)
	assert.Equal(t, LabelPendingReview, stored.Label)
}

func TestTriageCancelledContext(t *testing.T) {
	f := newServiceFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Triage(ctx, testMessage("m13", "clear body"))
	require.Error(t, err)

	// The only state a cancelled run may leave behind is the explicit
	// terminal marker, never a partial classification.
	if stored, gerr := f.store.Get(context.Background(), "m13"); gerr == nil {
		assert.Equal(t, LabelPendingReview, stored.Label)
	}
}

func TestTriageBatch(t *testing.T) {
	f := newServiceFixture(t)

	msgs := []*Message{
		testMessage("b1", "clear body"),
		testMessage("b2", "flag body"),
		testMessage("b3", "unembeddable body"),
		testMessage("b4", "clear body"),
		testMessage("b5", "escalate body"),
	}

	items := f.service.TriageBatch(context.Background(), msgs)
	require.Len(t, items, 5)

	for i, msg := range msgs {
		assert.Equal(t, msg.ID, items[i].MessageID, "results keep input order")
	}

	assert.Equal(t, LabelClean, items[0].Verdict.Label)
	assert.Equal(t, LabelInsiderTrading, items[1].Verdict.Label)
	assert.Equal(t, LabelClean, items[3].Verdict.Label)
	assert.Equal(t, LabelConfidentialityBreach, items[4].Verdict.Label)
	assert.Equal(t, SourceLLM, items[4].Verdict.Source)

	// The message with no embedding fails alone without aborting the batch.
	require.Error(t, items[2].Err)
	assert.ErrorIs(t, items[2].Err, ErrEmbeddingUnavailable)
	stored, err := f.store.Get(context.Background(), "b3")
	require.NoError(t, err)
	assert.Equal(t, LabelPendingReview, stored.Label)
}

func TestSimilarMessagesExcludesSelf(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.Triage(ctx, testMessage("m15", "clear body"))
	require.NoError(t, err)
	_, err = f.service.Triage(ctx, testMessage("m16", "flag body"))
	require.NoError(t, err)

	neighbors, err := f.service.SimilarMessages(ctx, testMessage("m15", "clear body"), 5, "")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "m16", neighbors[0].MessageID)
}

func TestTriageIdempotentForSameInput(t *testing.T) {
	f := newServiceFixture(t)

	first, err := f.service.Triage(context.Background(), testMessage("m14", "flag body"))
	require.NoError(t, err)
	second, err := f.service.Retriage(context.Background(), testMessage("m14", "flag body"))
	require.NoError(t, err)

	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Source, second.Source)
}
