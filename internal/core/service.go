package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ExemptChecker decides whether a sender bypasses triage entirely
type ExemptChecker interface {
	IsExempt(sender string) bool
}

// TriageOptions holds the tunable limits of the orchestrator
type TriageOptions struct {
	WorkerLimit         int
	MaxDeepInflight     int
	EmbeddingTimeout    time.Duration
	DeepAnalysisTimeout time.Duration
	MaxRetries          int
	RetryInterval       time.Duration
	RateLimitPause      time.Duration
}

// TriageService drives each message through feature derivation,
// classification, optional deep analysis, and verdict persistence
type TriageService struct {
	provider   EmbeddingProvider
	analyzer   DeepAnalyzer
	deriver    *FeatureDeriver
	classifier *Classifier
	store      VerdictStore
	index      SimilarityIndex
	cache      EmbeddingCache
	exempt     ExemptChecker
	logger     *zap.Logger
	opts       TriageOptions
	deepSem    *semaphore.Weighted
}

// NewTriageService creates the triage orchestrator
func NewTriageService(
	provider EmbeddingProvider,
	analyzer DeepAnalyzer,
	deriver *FeatureDeriver,
	classifier *Classifier,
	store VerdictStore,
	index SimilarityIndex,
	cache EmbeddingCache,
	exempt ExemptChecker,
	logger *zap.Logger,
	opts TriageOptions,
) *TriageService {
	if opts.WorkerLimit <= 0 {
		opts.WorkerLimit = 1
	}
	if opts.MaxDeepInflight <= 0 {
		opts.MaxDeepInflight = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	if opts.RateLimitPause <= 0 {
		opts.RateLimitPause = 5 * time.Second
	}
	return &TriageService{
		provider:   provider,
		analyzer:   analyzer,
		deriver:    deriver,
		classifier: classifier,
		store:      store,
		index:      index,
		cache:      cache,
		exempt:     exempt,
		logger:     logger,
		opts:       opts,
		deepSem:    semaphore.NewWeighted(int64(opts.MaxDeepInflight)),
	}
}

// Triage runs the full pipeline for one message and commits exactly one
// current verdict. Deterministic on the ML-only paths: the same message
// under the same concept set and thresholds routes the same way.
func (s *TriageService) Triage(ctx context.Context, msg *Message) (*Verdict, error) {
	return s.triage(ctx, msg, true)
}

// Retriage supersedes the current verdict for a message, bypassing the
// embedding cache so a changed provider deployment is picked up
func (s *TriageService) Retriage(ctx context.Context, msg *Message) (*Verdict, error) {
	return s.triage(ctx, msg, false)
}

func (s *TriageService) triage(ctx context.Context, msg *Message, useCache bool) (*Verdict, error) {
	if s.exempt != nil && s.exempt.IsExempt(msg.Sender) {
		s.logger.Info("Skipping triage for exempt sender",
			zap.String("message_id", msg.ID),
			zap.String("sender", msg.Sender))
		verdict := &Verdict{
			MessageID:  msg.ID,
			Label:      LabelClean,
			Confidence: 1.0,
			Source:     SourceExempt,
			Rationale:  "Sender domain is exempt from surveillance",
			DecidedAt:  time.Now(),
		}
		if err := s.store.Put(ctx, verdict); err != nil {
			return nil, fmt.Errorf("failed to persist verdict: %w", err)
		}
		return verdict, nil
	}

	embedding, err := s.obtainEmbedding(ctx, msg, useCache)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
		if perr := s.recordPendingReview(ctx, msg.ID, err); perr != nil {
			return nil, perr
		}
		return nil, err
	}

	features, err := s.deriver.Derive(embedding)
	if err != nil {
		if errors.Is(err, ErrDegenerateVector) {
			if perr := s.recordPendingReview(ctx, msg.ID, err); perr != nil {
				return nil, perr
			}
		}
		return nil, fmt.Errorf("failed to derive risk features for message %s: %w", msg.ID, err)
	}

	probability, err := s.classifier.Score(features)
	if err != nil {
		return nil, fmt.Errorf("failed to classify message %s: %w", msg.ID, err)
	}
	decision := s.classifier.Decide(probability)

	s.logger.Debug("Message triaged",
		zap.String("message_id", msg.ID),
		zap.Float64("probability", probability),
		zap.String("decision", string(decision)))

	var verdict *Verdict
	switch decision {
	case DecisionAutoClear:
		verdict = &Verdict{
			MessageID:  msg.ID,
			Label:      LabelClean,
			Confidence: 1 - probability,
			Source:     SourceML,
			DecidedAt:  time.Now(),
		}
	case DecisionAutoFlag:
		verdict = &Verdict{
			MessageID:  msg.ID,
			Label:      s.classifier.BestCategory(features),
			Confidence: probability,
			Source:     SourceML,
			DecidedAt:  time.Now(),
		}
	case DecisionEscalate:
		analysis, aerr := s.deepAnalyze(ctx, msg)
		if aerr != nil {
			aerr = fmt.Errorf("%w: %v", ErrDeepAnalysisUnavailable, aerr)
			if perr := s.recordPendingReview(ctx, msg.ID, aerr); perr != nil {
				return nil, perr
			}
			if ierr := s.index.Upsert(ctx, msg.ID, embedding, LabelPendingReview); ierr != nil {
				s.logger.Error("Failed to update similarity index", zap.Error(ierr))
			}
			return nil, aerr
		}
		verdict = &Verdict{
			MessageID:  msg.ID,
			Label:      analysis.Label,
			Confidence: analysis.Confidence,
			Source:     SourceLLM,
			Rationale:  analysis.Rationale,
			DecidedAt:  time.Now(),
		}
	}

	// The verdict is committed whole or not at all; a cancelled batch
	// must never leave a partially-built record behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, verdict); err != nil {
		return nil, fmt.Errorf("failed to persist verdict for message %s: %w", msg.ID, err)
	}
	if err := s.index.Upsert(ctx, msg.ID, embedding, verdict.Label); err != nil {
		s.logger.Error("Failed to update similarity index",
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}

	return verdict, nil
}

// TriageBatch processes messages independently up to the worker limit.
// A failing message never aborts the batch; each outcome is reported
// in its input position.
func (s *TriageService) TriageBatch(ctx context.Context, msgs []*Message) []BatchItem {
	items := make([]BatchItem, len(msgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.WorkerLimit)

	for i, msg := range msgs {
		g.Go(func() error {
			verdict, err := s.Triage(gctx, msg)
			items[i] = BatchItem{MessageID: msg.ID, Verdict: verdict, Err: err}
			return nil
		})
	}

	// Workers always return nil; the group is used for its limit and
	// context plumbing only.
	_ = g.Wait()

	return items
}

// SimilarMessages returns the k most similar previously triaged
// messages, optionally restricted to one label. The message itself is
// excluded when it has already been indexed.
func (s *TriageService) SimilarMessages(ctx context.Context, msg *Message, k int, labelFilter string) ([]Neighbor, error) {
	embedding, err := s.obtainEmbedding(ctx, msg, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	neighbors, err := s.index.Query(ctx, embedding, k+1, labelFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar messages: %w", err)
	}

	out := neighbors[:0]
	for _, n := range neighbors {
		if n.MessageID == msg.ID {
			continue
		}
		out = append(out, n)
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// obtainEmbedding fetches the message embedding from the cache or the
// provider, with a per-call timeout and bounded retries
func (s *TriageService) obtainEmbedding(ctx context.Context, msg *Message, useCache bool) ([]float32, error) {
	if useCache && s.cache != nil {
		if emb, ok := s.cache.Get(msg.ID); ok {
			return emb, nil
		}
	}

	var embedding []float32
	err := s.retry(ctx, func(callCtx context.Context) error {
		var err error
		embedding, err = s.provider.Embed(callCtx, msg.Body)
		return err
	}, s.opts.EmbeddingTimeout)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(msg.ID, embedding)
	}
	return embedding, nil
}

// deepAnalyze invokes the deep analyzer under the in-flight cap
func (s *TriageService) deepAnalyze(ctx context.Context, msg *Message) (*DeepAnalysis, error) {
	if err := s.deepSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.deepSem.Release(1)

	var analysis *DeepAnalysis
	err := s.retry(ctx, func(callCtx context.Context) error {
		var err error
		analysis, err = s.analyzer.Analyze(callCtx, msg)
		return err
	}, s.opts.DeepAnalysisTimeout)
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// retry runs op with exponential backoff. Transient provider errors
// and timeouts are retried up to MaxRetries; throttle responses get an
// extra pause on top of the standard backoff; anything else is
// permanent.
func (s *TriageService) retry(ctx context.Context, op func(ctx context.Context) error, timeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.opts.MaxRetries-1)), ctx)

	return backoff.Retry(func() error {
		callCtx := ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		err := op(callCtx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrRateLimited):
			select {
			case <-time.After(s.opts.RateLimitPause):
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
			return err
		case errors.Is(err, ErrProviderUnavailable), errors.Is(err, context.DeadlineExceeded):
			return err
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		default:
			return backoff.Permanent(err)
		}
	}, policy)
}

// recordPendingReview commits the explicit terminal verdict for a
// message whose automated pipeline could not complete
func (s *TriageService) recordPendingReview(ctx context.Context, messageID string, cause error) error {
	s.logger.Warn("Marking message for human review",
		zap.String("message_id", messageID),
		zap.Error(cause))

	verdict := &Verdict{
		MessageID:  messageID,
		Label:      LabelPendingReview,
		Confidence: 0,
		Source:     SourceML,
		Rationale:  cause.Error(),
		DecidedAt:  time.Now(),
	}
	// Persist with a fresh context so a cancelled batch still leaves
	// the terminal state behind rather than an unrecorded failure.
	putCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		putCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.store.Put(putCtx, verdict); err != nil {
		return fmt.Errorf("failed to record pending-review verdict for message %s: %w", messageID, err)
	}
	return nil
}
