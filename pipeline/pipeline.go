// Package pipeline orchestrates the recommendation flow: concurrent
// filter extraction and query embedding, vector retrieval, post-
// retrieval filtering with fail-open relaxation, and optional LLM
// reranking with a similarity-order fallback.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hirestack/assessrec/catalog"
	"github.com/hirestack/assessrec/filter"
	"github.com/hirestack/assessrec/provider"
)

// Error kinds surfaced to the transport layer.
var (
	ErrBadRequest = errors.New("bad request")
	ErrRetrieval  = errors.New("retrieval failed")
)

// Per-call deadlines for the external capabilities.
const (
	embedTimeout   = 10 * time.Second
	rerankTimeout  = 15 * time.Second
	extractTimeout = 10 * time.Second
)

// Config carries the tunables of the recommendation flow.
type Config struct {
	DefaultTopK         int
	MinSimilarity       float64
	RetrievalMultiplier int
	AlwaysRerank        bool
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		DefaultTopK:         5,
		MinSimilarity:       0.6,
		RetrievalMultiplier: 3,
	}
}

// Recommendation is one result row: the assessment, its retrieval
// similarity, its 1-based rank, and a short explanation.
type Recommendation struct {
	catalog.Assessment
	SimilarityScore float64 `json:"similarity_score"`
	Rank            int     `json:"rank"`
	Explanation     string  `json:"explanation"`
}

// Result is the outcome of one recommendation request.
type Result struct {
	Items           []Recommendation `json:"recommended_assessments"`
	ProcessingTime  float64          `json:"processing_time"`
	TotalCandidates int              `json:"total_assessments"`
	QueryEmbedding  []float32        `json:"query_embedding,omitempty"`
}

// Pipeline composes the catalog store, the embedding provider, the
// LLM provider and the filter engine into the recommendation flow.
// All collaborators are injected; none are package state.
type Pipeline struct {
	store    catalog.Store
	embedder provider.Embedder
	llm      provider.LLM
	engine   *filter.Engine
	cfg      Config
	logger   *zap.Logger
}

// New creates a Pipeline. A nil logger is replaced with a no-op one.
func New(store catalog.Store, embedder provider.Embedder, llm provider.LLM, engine *filter.Engine, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.RetrievalMultiplier < 1 {
		cfg.RetrievalMultiplier = 3
	}
	return &Pipeline{store: store, embedder: embedder, llm: llm, engine: engine, cfg: cfg, logger: logger}
}

// Recommend runs the full flow for one query. An empty candidate set
// is a successful empty result; provider failures follow the
// propagation policy (rerank and filter extraction recover, embedding
// and retrieval are fatal).
func (p *Pipeline) Recommend(ctx context.Context, query string, topK int, callerFilters filter.Filters) (*Result, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if len(query) < 3 {
		return nil, fmt.Errorf("%w: query must be at least 3 characters", ErrBadRequest)
	}
	if topK == 0 {
		topK = p.cfg.DefaultTopK
	}
	if topK < 1 || topK > 20 {
		return nil, fmt.Errorf("%w: top_k must be between 1 and 20, got %d", ErrBadRequest, topK)
	}

	// Filter extraction and query embedding run concurrently; they
	// are independent external calls.
	var (
		inferred filter.Filters
		qvec     []float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ectx, cancel := context.WithTimeout(gctx, extractTimeout)
		defer cancel()
		f, err := p.llm.ExtractFilters(ectx, query)
		if err != nil {
			// Always recoverable: continue with no inferred filters.
			p.logger.Warn("filter extraction failed", zap.Error(err))
			return nil
		}
		inferred = f
		return nil
	})
	g.Go(func() error {
		ectx, cancel := context.WithTimeout(gctx, embedTimeout)
		defer cancel()
		v, err := p.embedder.Embed(ectx, query)
		if err != nil {
			return fmt.Errorf("embedding query: %w", err)
		}
		qvec = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := filter.Merge(callerFilters, inferred)

	minSim := p.cfg.MinSimilarity
	if merged.MinSimilarity != nil {
		minSim = *merged.MinSimilarity
	}

	raw, err := p.store.Match(ctx, qvec, topK*p.cfg.RetrievalMultiplier, minSim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	candidates := p.engine.Apply(raw, merged)
	if len(candidates) == 0 && !inferred.IsZero() {
		// Fail open: inferred filters are dropped once, caller
		// filters never are.
		p.logger.Info("post-retrieval filters eliminated all candidates, relaxing inferred filters",
			zap.String("query", query))
		candidates = p.engine.Apply(raw, callerFilters)
	}

	result := &Result{
		TotalCandidates: len(raw),
		QueryEmbedding:  qvec,
	}
	if len(candidates) == 0 {
		result.ProcessingTime = time.Since(start).Seconds()
		return result, nil
	}

	var ordered []catalog.Match
	if len(candidates) > topK || p.cfg.AlwaysRerank {
		ordered = p.rerank(ctx, query, candidates, topK)
	} else {
		ordered = candidates
	}
	if len(ordered) > topK {
		ordered = ordered[:topK]
	}

	result.Items = make([]Recommendation, len(ordered))
	for i, m := range ordered {
		result.Items[i] = Recommendation{
			Assessment:      m.Assessment,
			SimilarityScore: m.Similarity,
			Rank:            i + 1,
			Explanation: fmt.Sprintf(
				"This assessment has semantic relevance %.2f to your query about '%s'", m.Similarity, query),
		}
	}
	result.ProcessingTime = time.Since(start).Seconds()
	return result, nil
}

// rerank asks the LLM for an index ordering and repairs whatever
// comes back: out-of-range indices are dropped, duplicates keep their
// first occurrence, and short lists are padded with the remaining
// candidates in similarity order. Any rerank failure falls back to
// similarity order.
func (p *Pipeline) rerank(ctx context.Context, query string, candidates []catalog.Match, topK int) []catalog.Match {
	docs := make([]string, len(candidates))
	for i, m := range candidates {
		docs[i] = BuildContextDoc(m)
	}

	rctx, cancel := context.WithTimeout(ctx, rerankTimeout)
	defer cancel()
	indices, err := p.llm.Rerank(rctx, query, docs, topK)
	if err != nil {
		p.logger.Warn("reranking failed, falling back to similarity order", zap.Error(err))
		return candidates
	}

	used := make(map[int]bool, len(indices))
	ordered := make([]catalog.Match, 0, topK)
	for _, idx := range indices {
		if idx < 0 || idx >= len(candidates) || used[idx] {
			continue
		}
		used[idx] = true
		ordered = append(ordered, candidates[idx])
		if len(ordered) == topK {
			break
		}
	}
	for idx := range candidates {
		if len(ordered) == topK {
			break
		}
		if !used[idx] {
			ordered = append(ordered, candidates[idx])
		}
	}
	return ordered
}
