package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hirestack/assessrec/catalog"
	"github.com/hirestack/assessrec/config"
)

func newLoadCmd(load func() (*config.Settings, error)) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Ingest the scraped catalog CSV into the store",
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

			report, err := catalog.NewLoader(store, logger).LoadFile(cmd.Context(), csvPath)
			if err != nil {
				return err
			}
			for _, rowErr := range report.Errors {
				logger.Warn("skipped row", zap.String("cause", rowErr))
			}
			fmt.Printf("loaded %d assessments, skipped %d\n", report.Loaded, report.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "data/assessments.csv", "path to the catalog CSV")
	return cmd
}
