package config

// TriageConfig represents the configuration for the triage pipeline
type TriageConfig struct {
	TLow            float64
	THigh           float64
	EmbeddingDim    int
	ConceptsPath    string
	WorkerLimit     int
	MaxDeepInflight int
	MaxRetries      int
	ExemptDomains   []string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region           string
	ModelID          string
	EmbeddingModelID string
	MaxTokens        int
	Temperature      float32
	TopP             float32
	MaxBodySize      int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey             string
	ModelName          string
	EmbeddingModelName string
	MaxTokens          int
	Temperature        float32
	TopP               float32
	MaxBodySize        int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey             string
	ModelName          string
	EmbeddingModelName string
	MaxTokens          int
	Temperature        float32
	TopP               float32
	MaxBodySize        int
}

// GetTriage returns the triage pipeline configuration
func (c *Config) GetTriage() TriageConfig {
	return TriageConfig{
		TLow:            c.GetFloat64("triage.t_low"),
		THigh:           c.GetFloat64("triage.t_high"),
		EmbeddingDim:    c.GetInt("triage.embedding_dim"),
		ConceptsPath:    c.GetString("triage.concepts_path"),
		WorkerLimit:     c.GetInt("triage.worker_limit"),
		MaxDeepInflight: c.GetInt("triage.max_deep_inflight"),
		MaxRetries:      c.GetInt("triage.max_retries"),
		ExemptDomains:   c.GetStringSlice("triage.exempt_domains"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:           c.GetString("bedrock.region"),
		ModelID:          c.GetString("bedrock.model_id"),
		EmbeddingModelID: c.GetString("bedrock.embedding_model_id"),
		MaxTokens:        c.GetInt("bedrock.max_tokens"),
		Temperature:      float32(c.GetFloat64("bedrock.temperature")),
		TopP:             float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize:      c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:             c.GetString("gemini.api_key"),
		ModelName:          c.GetString("gemini.model_name"),
		EmbeddingModelName: c.GetString("gemini.embedding_model_name"),
		MaxTokens:          c.GetInt("gemini.max_tokens"),
		Temperature:        float32(c.GetFloat64("gemini.temperature")),
		TopP:               float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize:        c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:             c.GetString("openai.api_key"),
		ModelName:          c.GetString("openai.model_name"),
		EmbeddingModelName: c.GetString("openai.embedding_model_name"),
		MaxTokens:          c.GetInt("openai.max_tokens"),
		Temperature:        float32(c.GetFloat64("openai.temperature")),
		TopP:               float32(c.GetFloat64("openai.top_p")),
		MaxBodySize:        c.GetInt("openai.max_body_size"),
	}
}
