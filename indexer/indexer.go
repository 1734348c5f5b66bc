// Package indexer implements the batch embedding (re)generation job
// that prepares the catalog for vector search.
package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hirestack/assessrec/catalog"
	"github.com/hirestack/assessrec/provider"
)

// Report aggregates one indexing run. Per-row failures are counted,
// never fatal.
type Report struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Indexer embeds assessment descriptions in batches with a pacing
// delay between provider calls to stay under rate limits.
type Indexer struct {
	store    catalog.Store
	embedder provider.Embedder
	logger   *zap.Logger

	// BatchSize is the number of assessments fetched per page.
	BatchSize int
	// Pacing is the delay between consecutive embedding calls.
	Pacing time.Duration
}

// New creates an Indexer with the stock batch size and pacing.
func New(store catalog.Store, embedder provider.Embedder, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		store:     store,
		embedder:  embedder,
		logger:    logger,
		BatchSize: 25,
		Pacing:    200 * time.Millisecond,
	}
}

// Run embeds every assessment missing a vector; force regenerates all
// of them. Re-running is idempotent.
func (x *Indexer) Run(ctx context.Context, force bool) (Report, error) {
	var report Report

	for skip := 0; ; skip += x.BatchSize {
		page, err := x.store.List(ctx, catalog.ListFilter{}, skip, x.BatchSize)
		if err != nil {
			return report, err
		}
		if len(page) == 0 {
			break
		}

		for _, a := range page {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if a.Embedding != nil && !force {
				report.Skipped++
				continue
			}
			if x.Pacing > 0 && report.Processed > 0 {
				select {
				case <-time.After(x.Pacing):
				case <-ctx.Done():
					return report, ctx.Err()
				}
			}
			report.Processed++

			text := a.Description
			if text == "" {
				text = a.Name
			}
			v, err := x.embedder.Embed(ctx, text)
			if err != nil {
				report.Failed++
				x.logger.Warn("embedding generation failed",
					zap.String("assessment", a.Name), zap.Error(err))
				continue
			}
			if err := x.store.SetEmbedding(ctx, a.ID, v); err != nil {
				report.Failed++
				x.logger.Warn("storing embedding failed",
					zap.String("assessment", a.Name), zap.Error(err))
				continue
			}
			report.Succeeded++
		}
	}

	x.logger.Info("embedding generation finished",
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report, nil
}
