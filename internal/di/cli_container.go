package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/finsurv/comms-triage/internal/adapters/intake"
	"github.com/finsurv/comms-triage/internal/concepts"
	"github.com/finsurv/comms-triage/internal/config"
	"github.com/finsurv/comms-triage/internal/core"
	"github.com/finsurv/comms-triage/internal/factory"
	"github.com/finsurv/comms-triage/internal/logging"
	"github.com/finsurv/comms-triage/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Bedrock flags
	BedrockRegion           string
	BedrockModelID          string
	BedrockEmbeddingModelID string

	// Gemini flags
	GeminiAPIKey             string
	GeminiModelName          string
	GeminiEmbeddingModelName string

	// OpenAI flags
	OpenAIAPIKey             string
	OpenAIModelName          string
	OpenAIEmbeddingModelName string

	// Triage flags
	TLow         float64
	THigh        float64
	EmbeddingDim int
	ConceptsPath string

	// Input flags
	InputFile  string
	CSVFile    string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Provider flags
	flag.StringVar(&flags.Provider, "provider", "bedrock", "Model provider (bedrock, gemini, openai)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for deep analysis response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for deep analysis generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for deep analysis generation")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum message body size to send to the provider")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID for deep analysis")
	flag.StringVar(&flags.BedrockEmbeddingModelID, "bedrock-embedding-model", "amazon.titan-embed-text-v1", "Bedrock model ID for embeddings")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name for deep analysis")
	flag.StringVar(&flags.GeminiEmbeddingModelName, "gemini-embedding-model", "embedding-001", "Gemini model name for embeddings")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name for deep analysis")
	flag.StringVar(&flags.OpenAIEmbeddingModelName, "openai-embedding-model", "text-embedding-3-small", "OpenAI model name for embeddings")

	// Triage flags
	flag.Float64Var(&flags.TLow, "t-low", 0.3, "Upper bound of the auto-clear risk band")
	flag.Float64Var(&flags.THigh, "t-high", 0.7, "Lower bound of the auto-flag risk band")
	flag.IntVar(&flags.EmbeddingDim, "embedding-dim", 768, "Expected embedding dimensionality")
	flag.StringVar(&flags.ConceptsPath, "concepts", "./configs/concepts.json", "Path to the concept embeddings file")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input message file (use stdin if not specified)")
	flag.StringVar(&flags.CSVFile, "csv", "", "CSV file of messages to triage as a batch")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags)
	}); err != nil {
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
	if err := container.Provide(factory.NewScorerFactory); err != nil {
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

	// Register triage service with no cache and no exempt list
	if err := container.Provide(func(
		provider core.EmbeddingProvider,
		analyzer core.DeepAnalyzer,
		deriver *core.FeatureDeriver,
		classifier *core.Classifier,
		store core.VerdictStore,
		index core.SimilarityIndex,
		cfg *config.Config,
		logger *zap.Logger,
	) (*core.TriageService, error) {
		triageCfg := cfg.GetTriage()
		embeddingTimeout, err := cfg.GetDuration("triage.embedding_timeout")
		if err != nil {
			return nil, err
		}
		deepTimeout, err := cfg.GetDuration("triage.deep_analysis_timeout")
		if err != nil {
			return nil, err
		}
		retryInterval, err := cfg.GetDuration("triage.retry_interval")
		if err != nil {
			return nil, err
		}
		rateLimitPause, err := cfg.GetDuration("triage.rate_limit_pause")
		if err != nil {
			return nil, err
		}
		return core.NewTriageService(
			provider,
			analyzer,
			deriver,
			classifier,
			store,
			index,
			nil, // No embedding cache for one-shot runs
			nil, // No exempt senders for one-shot runs
			logger,
			core.TriageOptions{
				WorkerLimit:         triageCfg.WorkerLimit,
				MaxDeepInflight:     triageCfg.MaxDeepInflight,
				EmbeddingTimeout:    embeddingTimeout,
				DeepAnalysisTimeout: deepTimeout,
				MaxRetries:          triageCfg.MaxRetries,
				RetryInterval:       retryInterval,
				RateLimitPause:      rateLimitPause,
			},
		), nil
	}); err != nil {
		return nil, err
	}

	// Register CLI intake
	if err := container.Provide(func(
		service *core.TriageService,
		logger *zap.Logger,
		flags *CLIFlags,
	) (*intake.CliIntake, error) {
		return intake.NewCliIntake(service, logger, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) (*config.Config, error) {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("cli.verbose", flags.Verbose)

	// Set providers
	v.Set("embedding.provider", flags.Provider)
	v.Set("analyzer.provider", flags.Provider)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.embedding_model_id", flags.BedrockEmbeddingModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
		v.Set("bedrock.max_body_size", flags.MaxBodySize)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.embedding_model_name", flags.GeminiEmbeddingModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
		v.Set("gemini.max_body_size", flags.MaxBodySize)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.embedding_model_name", flags.OpenAIEmbeddingModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
		v.Set("openai.max_body_size", flags.MaxBodySize)
	}

	// Set triage thresholds and concept set location
	v.Set("triage.t_low", flags.TLow)
	v.Set("triage.t_high", flags.THigh)
	v.Set("triage.embedding_dim", flags.EmbeddingDim)
	v.Set("triage.concepts_path", flags.ConceptsPath)

	cfg := config.NewFromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
