// Package config loads service settings from the environment and an
// optional config file, with the canonical keys the deployment has
// always used.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Settings is the full service configuration.
type Settings struct {
	// HTTP
	Host        string `mapstructure:"HOST"`
	Port        int    `mapstructure:"PORT"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	// Retrieval tuning
	DefaultTopK            int     `mapstructure:"DEFAULT_TOP_K"`
	MinSimilarityThreshold float64 `mapstructure:"MIN_SIMILARITY_THRESHOLD"`
	RetrievalMultiplier    int     `mapstructure:"RETRIEVAL_MULTIPLIER"`
	AlwaysUseLLMReranking  bool    `mapstructure:"ALWAYS_USE_LLM_RERANKING"`

	// Filtering policy
	UntimedPassesMaxDuration bool `mapstructure:"UNTIMED_PASSES_MAX_DURATION"`

	// Providers
	UseMockData      bool   `mapstructure:"USE_MOCK_DATA"`
	EmbeddingModelID string `mapstructure:"EMBEDDING_MODEL_ID"`
	EmbeddingDim     int    `mapstructure:"EMBEDDING_DIM"`
	LLMModelID       string `mapstructure:"LLM_MODEL_ID"`
	OpenAIAPIKey     string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `mapstructure:"OPENAI_BASE_URL"`

	// Storage
	StoreDriver string `mapstructure:"STORE_DRIVER"` // memory | sqlite | postgres
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	PostgresDSN string `mapstructure:"POSTGRES_DSN"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"` // empty disables the embedding cache

	// Data
	DataDir string `mapstructure:"DATA_DIR"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogJSON  bool   `mapstructure:"LOG_JSON"`
}

// Load reads settings from the environment (and configFile when
// non-empty), applying defaults for everything unset.
func Load(configFile string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("HOST", "127.0.0.1")
	v.SetDefault("PORT", 8000)
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("DEFAULT_TOP_K", 5)
	v.SetDefault("MIN_SIMILARITY_THRESHOLD", 0.6)
	v.SetDefault("RETRIEVAL_MULTIPLIER", 3)
	v.SetDefault("ALWAYS_USE_LLM_RERANKING", false)
	v.SetDefault("UNTIMED_PASSES_MAX_DURATION", false)

	v.SetDefault("USE_MOCK_DATA", false)
	v.SetDefault("EMBEDDING_MODEL_ID", "text-embedding-004")
	v.SetDefault("EMBEDDING_DIM", 768)
	v.SetDefault("LLM_MODEL_ID", "gemini-1.5-pro")

	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("SQLITE_PATH", "data/catalog.db")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("REDIS_ADDR", "")

	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)

	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	if s.MinSimilarityThreshold < 0 || s.MinSimilarityThreshold > 1 {
		return fmt.Errorf("MIN_SIMILARITY_THRESHOLD must be in [0,1], got %g", s.MinSimilarityThreshold)
	}
	if s.RetrievalMultiplier < 1 {
		return fmt.Errorf("RETRIEVAL_MULTIPLIER must be >= 1, got %d", s.RetrievalMultiplier)
	}
	if s.DefaultTopK < 1 || s.DefaultTopK > 20 {
		return fmt.Errorf("DEFAULT_TOP_K must be in [1,20], got %d", s.DefaultTopK)
	}
	switch s.StoreDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("STORE_DRIVER must be memory, sqlite or postgres, got %q", s.StoreDriver)
	}
	if s.StoreDriver == "postgres" && s.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required with the postgres store driver")
	}
	return nil
}

// Origins splits the CORS origin list.
func (s *Settings) Origins() []string {
	parts := strings.Split(s.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
