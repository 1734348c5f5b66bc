package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirestack/assessrec/config"
	"github.com/hirestack/assessrec/evaluation"
	"github.com/hirestack/assessrec/filter"
	"github.com/hirestack/assessrec/pipeline"
)

func newEvalCmd(load func() (*config.Settings, error)) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the offline evaluation harness against the ground-truth set",
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

			store, err := buildStore(cmd.Context(), s, logger)
			if err != nil {
				return err
			}
			embedder, llm, err := buildProviders(s, logger)
			if err != nil {
				return err
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

			summary, err := evaluation.NewHarness(p, evalStore, logger).EvaluateAll(cmd.Context(), k)
			if err != nil {
				return err
			}
			fmt.Printf("queries=%d  mean_recall@%d=%.4f  MAP@%d=%.4f\n",
				summary.TotalQueries, k, summary.MeanRecallAtK, k, summary.MeanAveragePrecision)
			return nil
		},
	}
	cmd.Flags().IntVar(&k, "k", 10, "cutoff K for recall and MAP")
	return cmd
}
