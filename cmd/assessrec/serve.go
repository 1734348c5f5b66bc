package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hirestack/assessrec/config"
	"github.com/hirestack/assessrec/evaluation"
	"github.com/hirestack/assessrec/filter"
	"github.com/hirestack/assessrec/indexer"
	"github.com/hirestack/assessrec/pipeline"
	"github.com/hirestack/assessrec/server"
)

func newServeCmd(load func() (*config.Settings, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the recommendation HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			logger, err := buildLogger(s)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := buildStore(ctx, s, logger)
			if err != nil {
				return err
			}
			embedder, llm, err := buildProviders(s, logger)
			if err != nil {
				return err
			}

			// The seeded memory store ships without vectors; embed it
			// on boot so mock mode answers immediately.
			if s.StoreDriver == "memory" {
				x := indexer.New(store, embedder, logger)
				x.Pacing = 0
				if _, err := x.Run(ctx, false); err != nil {
					return err
				}
			}

			engine := filter.NewEngine(logger)
			engine.UntimedPassesMaxDuration = s.UntimedPassesMaxDuration

			p := pipeline.New(store, embedder, llm, engine, pipeline.Config{
				DefaultTopK:         s.DefaultTopK,
				MinSimilarity:       s.MinSimilarityThreshold,
				RetrievalMultiplier: s.RetrievalMultiplier,
				AlwaysRerank:        s.AlwaysUseLLMReranking,
			}, logger)

			evalStore, err := evaluation.NewFileStore(evaluationDir(s))
			if err != nil {
				return err
			}
			harness := evaluation.NewHarness(p, evalStore, logger)

			srv := server.New(p, store, harness, evalStore, server.Config{
				DefaultTopK: s.DefaultTopK,
				CORSOrigins: s.Origins(),
			}, logger)
			return srv.Start(ctx, fmt.Sprintf("%s:%d", s.Host, s.Port))
		},
	}
}
