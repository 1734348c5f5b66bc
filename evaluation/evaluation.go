// Package evaluation scores the recommendation pipeline against a
// labeled ground-truth set, computing Recall@K and MAP@K, and
// persists each run as an append-only JSON artifact.
package evaluation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hirestack/assessrec/filter"
	"github.com/hirestack/assessrec/pipeline"
)

// GroundTruth labels one query with the assessment names that are
// relevant to it. Order is irrelevant; matching is exact and
// case-sensitive.
type GroundTruth struct {
	ID                  string   `json:"id"`
	Query               string   `json:"query"`
	RelevantAssessments []string `json:"relevant_assessments"`
	Description         string   `json:"description,omitempty"`
}

// Result holds the metrics for one evaluated query.
type Result struct {
	QueryID                string    `json:"query_id"`
	QueryText              string    `json:"query_text"`
	RecallAtK              float64   `json:"recall_at_k"`
	PrecisionAtK           []float64 `json:"precision_at_k"`
	AveragePrecision       float64   `json:"average_precision"`
	RecommendedAssessments []string  `json:"recommended_assessments"`
	RelevantRecommended    []string  `json:"relevant_recommended"`
	TotalRelevant          int       `json:"total_relevant"`
}

// Summary aggregates a full evaluation run.
type Summary struct {
	MeanRecallAtK        float64   `json:"mean_recall_at_k"`
	MeanAveragePrecision float64   `json:"mean_average_precision"`
	KValue               int       `json:"k_value"`
	TotalQueries         int       `json:"total_queries"`
	Timestamp            time.Time `json:"timestamp"`
	EvaluationResults    []Result  `json:"evaluation_results"`
}

// Recommender is the slice of the pipeline the harness drives.
type Recommender interface {
	Recommend(ctx context.Context, query string, topK int, f filter.Filters) (*pipeline.Result, error)
}

// Harness runs the pipeline over the ground-truth set. Ground truth
// only scores the pipeline; it never constrains it.
type Harness struct {
	rec    Recommender
	store  *FileStore
	logger *zap.Logger
}

// NewHarness creates a Harness persisting through store.
func NewHarness(rec Recommender, store *FileStore, logger *zap.Logger) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{rec: rec, store: store, logger: logger}
}

// Score computes the per-query metrics for a returned name list
// against the relevant set.
func Score(gt GroundTruth, recommended []string) Result {
	relevant := make(map[string]bool, len(gt.RelevantAssessments))
	for _, name := range gt.RelevantAssessments {
		relevant[name] = true
	}

	var (
		precisionAt []float64
		hits        []string
		ap          float64
		counted     = make(map[string]bool, len(recommended))
	)
	for i, name := range recommended {
		hit := relevant[name] && !counted[name]
		if hit {
			counted[name] = true
			hits = append(hits, name)
		}
		precision := float64(len(hits)) / float64(i+1)
		precisionAt = append(precisionAt, precision)
		if hit {
			ap += precision
		}
	}

	recall := 0.0
	if len(gt.RelevantAssessments) > 0 {
		recall = float64(len(hits)) / float64(len(gt.RelevantAssessments))
		ap /= float64(len(gt.RelevantAssessments))
	} else {
		ap = 0
	}

	return Result{
		QueryID:                gt.ID,
		QueryText:              gt.Query,
		RecallAtK:              recall,
		PrecisionAtK:           precisionAt,
		AveragePrecision:       ap,
		RecommendedAssessments: recommended,
		RelevantRecommended:    hits,
		TotalRelevant:          len(gt.RelevantAssessments),
	}
}

// EvaluateQuery scores a single ground-truth entry by id. A pipeline
// failure yields a zero-result Result rather than an error; an
// unknown id is ErrUnknownQuery.
func (h *Harness) EvaluateQuery(ctx context.Context, queryID string, k int) (Result, error) {
	gt, err := h.store.GroundTruthByID(queryID)
	if err != nil {
		return Result{}, err
	}
	return h.evaluate(ctx, gt, k), nil
}

func (h *Harness) evaluate(ctx context.Context, gt GroundTruth, k int) Result {
	res, err := h.rec.Recommend(ctx, gt.Query, k, filter.Filters{})
	if err != nil {
		h.logger.Warn("evaluation query failed, recording zero result",
			zap.String("query_id", gt.ID), zap.Error(err))
		return Score(gt, nil)
	}
	names := make([]string, len(res.Items))
	for i, it := range res.Items {
		names[i] = it.Name
	}
	return Score(gt, names)
}

// EvaluateAll runs every ground-truth query, persists the summary
// artifact, and returns it.
func (h *Harness) EvaluateAll(ctx context.Context, k int) (*Summary, error) {
	entries, err := h.store.GroundTruth()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no ground truth data available")
	}

	summary := &Summary{
		KValue:    k,
		Timestamp: time.Now().UTC(),
	}
	for _, gt := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := h.evaluate(ctx, gt, k)
		summary.EvaluationResults = append(summary.EvaluationResults, r)
		summary.MeanRecallAtK += r.RecallAtK
		summary.MeanAveragePrecision += r.AveragePrecision
	}
	n := float64(len(summary.EvaluationResults))
	summary.MeanRecallAtK /= n
	summary.MeanAveragePrecision /= n
	summary.TotalQueries = len(summary.EvaluationResults)

	if err := h.store.SaveRun(summary); err != nil {
		return nil, err
	}
	return summary, nil
}
