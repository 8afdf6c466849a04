package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/finsurv/comms-triage/internal/concepts"
	"github.com/finsurv/comms-triage/internal/config"
	"github.com/finsurv/comms-triage/internal/core"
	"github.com/finsurv/comms-triage/internal/exempt"
	"github.com/finsurv/comms-triage/internal/factory"
	"github.com/finsurv/comms-triage/internal/logging"
	"github.com/finsurv/comms-triage/internal/ports"
	"github.com/finsurv/comms-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewEmbeddingFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewAnalyzerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewIndexFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewScorerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewIntakeFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register embedding provider
	if err := container.Provide(func(f *factory.EmbeddingFactory) (core.EmbeddingProvider, error) {
		return f.CreateEmbeddingProvider()
	}); err != nil {
		return nil, err
	}

	// Register deep analyzer
	if err := container.Provide(func(f *factory.AnalyzerFactory) (core.DeepAnalyzer, error) {
		return f.CreateDeepAnalyzer()
	}); err != nil {
		return nil, err
	}

	// Register verdict store
	if err := container.Provide(func(f *factory.StoreFactory) (core.VerdictStore, error) {
		return f.CreateVerdictStore()
	}); err != nil {
		return nil, err
	}

	// Register similarity index
	if err := container.Provide(func(f *factory.IndexFactory) (core.SimilarityIndex, error) {
		return f.CreateSimilarityIndex()
	}); err != nil {
		return nil, err
	}

	// Register embedding cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.EmbeddingCache, error) {
		return f.CreateEmbeddingCache()
	}); err != nil {
		return nil, err
	}

	// Register concept set
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.ConceptSet, error) {
		triageCfg := cfg.GetTriage()
		return concepts.Load(triageCfg.ConceptsPath, triageCfg.EmbeddingDim, logger)
	}); err != nil {
		return nil, err
	}

	// Register feature deriver
	if err := container.Provide(core.NewFeatureDeriver); err != nil {
		return nil, err
	}

	// Register risk scorer
	if err := container.Provide(func(f *factory.ScorerFactory, conceptSet core.ConceptSet) (core.RiskScorer, error) {
		return f.CreateRiskScorer(conceptSet)
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(cfg *config.Config, scorer core.RiskScorer) (*core.Classifier, error) {
		triageCfg := cfg.GetTriage()
		return core.NewClassifier(scorer, core.Thresholds{
			Low:  triageCfg.TLow,
			High: triageCfg.THigh,
		})
	}); err != nil {
		return nil, err
	}

	// Register exempt sender checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.ExemptChecker {
		exemptDomains := cfg.GetStringSlice("triage.exempt_domains")
		if len(exemptDomains) > 0 {
			logger.Info("Loaded exempt domains", zap.Strings("domains", exemptDomains))
		}
		return exempt.NewChecker(exemptDomains, logger)
	}); err != nil {
		return nil, err
	}

	// Register triage options
	if err := container.Provide(func(cfg *config.Config) (core.TriageOptions, error) {
		triageCfg := cfg.GetTriage()
		embeddingTimeout, err := cfg.GetDuration("triage.embedding_timeout")
		if err != nil {
			return core.TriageOptions{}, err
		}
		deepTimeout, err := cfg.GetDuration("triage.deep_analysis_timeout")
		if err != nil {
			return core.TriageOptions{}, err
		}
		retryInterval, err := cfg.GetDuration("triage.retry_interval")
		if err != nil {
			return core.TriageOptions{}, err
		}
		rateLimitPause, err := cfg.GetDuration("triage.rate_limit_pause")
		if err != nil {
			return core.TriageOptions{}, err
		}
		return core.TriageOptions{
			WorkerLimit:         triageCfg.WorkerLimit,
			MaxDeepInflight:     triageCfg.MaxDeepInflight,
			EmbeddingTimeout:    embeddingTimeout,
			DeepAnalysisTimeout: deepTimeout,
			MaxRetries:          triageCfg.MaxRetries,
			RetryInterval:       retryInterval,
			RateLimitPause:      rateLimitPause,
		}, nil
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(core.NewTriageService); err != nil {
		return nil, err
	}

	// Register message intake
	if err := container.Provide(func(f *factory.IntakeFactory, service *core.TriageService) (ports.MessageIntake, error) {
		return f.CreateMessageIntake(service)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
