package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hirestack/assessrec/catalog"
	"github.com/hirestack/assessrec/config"
	"github.com/hirestack/assessrec/provider"
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "assessrec",
		Short:         "Assessment recommendation service",
		Long:          "Recommends hiring assessments for natural-language job queries using vector retrieval and LLM reranking.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (env vars work without one)")

	load := func() (*config.Settings, error) { return config.Load(configFile) }
	root.AddCommand(
		newServeCmd(load),
		newLoadCmd(load),
		newEmbedCmd(load),
		newEvalCmd(load),
	)
	return root
}

func buildLogger(s *config.Settings) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(s.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	cfg := zap.NewDevelopmentConfig()
	if s.LogJSON {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func buildStore(ctx context.Context, s *config.Settings, logger *zap.Logger) (catalog.Store, error) {
	switch s.StoreDriver {
	case "memory":
		logger.Info("using in-memory catalog store seeded with the demo catalog")
		return catalog.NewSeededMemoryStore(catalog.SeedAssessments()), nil
	case "sqlite":
		logger.Info("using sqlite catalog store", zap.String("path", s.SQLitePath))
		return catalog.NewSQLiteStore(s.SQLitePath)
	case "postgres":
		logger.Info("using postgres catalog store")
		return catalog.OpenPostgresStore(ctx, s.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", s.StoreDriver)
	}
}

// buildProviders selects the real or deterministic provider pair.
// Mock mode wins whenever USE_MOCK_DATA is set or no API key is
// configured, so the service always starts.
func buildProviders(s *config.Settings, logger *zap.Logger) (provider.Embedder, provider.LLM, error) {
	if s.UseMockData || s.OpenAIAPIKey == "" {
		if !s.UseMockData {
			logger.Warn("no API key configured, falling back to deterministic mock providers")
		}
		return provider.NewMockEmbedder(s.EmbeddingDim), provider.NewMockLLM(), nil
	}

	var opts []openai.Option
	opts = append(opts, openai.WithToken(s.OpenAIAPIKey), openai.WithModel(s.LLMModelID))
	if s.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(s.OpenAIBaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating chat model: %w", err)
	}

	var embedder provider.Embedder = provider.NewOpenAIEmbedder(provider.OpenAIEmbedderConfig{
		APIKey:    s.OpenAIAPIKey,
		BaseURL:   s.OpenAIBaseURL,
		Model:     s.EmbeddingModelID,
		Dimension: s.EmbeddingDim,
	})
	if s.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: s.RedisAddr})
		embedder = provider.NewCachedEmbedder(embedder, rdb, 0, logger)
		logger.Info("embedding cache enabled", zap.String("redis", s.RedisAddr))
	}
	return embedder, provider.NewChatLLM(model, logger), nil
}

func evaluationDir(s *config.Settings) string {
	return filepath.Join(s.DataDir, "evaluation")
}
