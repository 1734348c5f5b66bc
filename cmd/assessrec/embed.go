package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirestack/assessrec/config"
	"github.com/hirestack/assessrec/indexer"
)

func newEmbedCmd(load func() (*config.Settings, error)) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Generate embeddings for assessments missing one",
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
			embedder, _, err := buildProviders(s, logger)
			if err != nil {
				return err
			}

			report, err := indexer.New(store, embedder, logger).Run(cmd.Context(), force)
			if err != nil {
				return err
			}
			fmt.Printf("processed %d, succeeded %d, failed %d, skipped %d\n",
				report.Processed, report.Succeeded, report.Failed, report.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "regenerate every embedding, not just missing ones")
	return cmd
}
