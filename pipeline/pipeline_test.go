package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/assessrec/catalog"
	"github.com/hirestack/assessrec/filter"
	"github.com/hirestack/assessrec/provider"
)

const testDim = 128

// newMockFixture builds a pipeline over the seed catalog with all
// deterministic providers, embedding every description up front.
func newMockFixture(t *testing.T, cfg Config) (*Pipeline, *catalog.MemoryStore) {
	t.Helper()
	ctx := context.Background()

	embedder := provider.NewMockEmbedder(testDim)
	store := catalog.NewSeededMemoryStore(catalog.SeedAssessments())
	all, err := store.List(ctx, catalog.ListFilter{}, 0, 0)
	require.NoError(t, err)
	for _, a := range all {
		v, err := embedder.Embed(ctx, a.Description)
		require.NoError(t, err)
		require.NoError(t, store.SetEmbedding(ctx, a.ID, v))
	}

	p := New(store, embedder, provider.NewMockLLM(), filter.NewEngine(nil), cfg, nil)
	return p, store
}

func intp(n int) *int           { return &n }
func floatp(f float64) *float64 { return &f }

func itemNames(r *Result) []string {
	out := make([]string, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Name
	}
	return out
}

func TestRecommend_Validation(t *testing.T) {
	p, _ := newMockFixture(t, DefaultConfig())
	ctx := context.Background()

	_, err := p.Recommend(ctx, "  a ", 5, filter.Filters{})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = p.Recommend(ctx, "valid query", 21, filter.Filters{})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = p.Recommend(ctx, "valid query", -1, filter.Filters{})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestRecommend_CodingQuery(t *testing.T) {
	p, _ := newMockFixture(t, DefaultConfig())
	ctx := context.Background()

	got, err := p.Recommend(ctx, "software developer with coding skills", 10, filter.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, got.Items)
	assert.LessOrEqual(t, len(got.Items), 10)
	assert.Equal(t, "Coding Skills Assessment", got.Items[0].Name)
	assert.Equal(t, 1, got.Items[0].Rank)
	assert.Greater(t, got.ProcessingTime, 0.0)
	assert.Len(t, got.QueryEmbedding, testDim)
	assert.Contains(t, got.Items[0].Explanation, "semantic relevance")
}

func TestRecommend_LeadershipQuery(t *testing.T) {
	p, _ := newMockFixture(t, DefaultConfig())
	ctx := context.Background()

	got, err := p.Recommend(ctx, "leadership for senior executives", 3, filter.Filters{})
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	assert.GreaterOrEqual(t, got.TotalCandidates, 3)

	top2 := itemNames(got)[:2]
	assert.Contains(t, top2, "Leadership Assessment")
}

func TestRecommend_MaxDurationFilter(t *testing.T) {
	p, _ := newMockFixture(t, DefaultConfig())
	ctx := context.Background()

	got, err := p.Recommend(ctx, "cognitive under 30 minutes", 10,
		filter.Filters{MaxDurationMinutes: intp(30)})
	require.NoError(t, err)
	require.NotEmpty(t, got.Items)

	names := itemNames(got)
	assert.NotContains(t, names, "Numerical Reasoning Assessment", "40 minutes exceeds the cap")
	assert.NotContains(t, names, "Personality Assessment", "range max 35 exceeds the cap")
	for _, it := range got.Items {
		assert.LessOrEqual(t, catalog.DurationMinutes(it.Assessment), 30)
	}
}

func TestRecommend_HighFloorYieldsEmptySuccess(t *testing.T) {
	p, _ := newMockFixture(t, DefaultConfig())
	ctx := context.Background()

	got, err := p.Recommend(ctx, "anything", 5, filter.Filters{MinSimilarity: floatp(0.99)})
	require.NoError(t, err, "an empty result is success, not an error")
	assert.Empty(t, got.Items)
}

func TestRecommend_ExplicitZeroFloorMeansNoFloor(t *testing.T) {
	p, _ := newMockFixture(t, DefaultConfig())
	ctx := context.Background()

	got, err := p.Recommend(ctx, "anything", 5, filter.Filters{MinSimilarity: floatp(0)})
	require.NoError(t, err)
	assert.Equal(t, 7, got.TotalCandidates, "zero floor admits the whole catalog")
}

func TestRecommend_Determinism(t *testing.T) {
	p, _ := newMockFixture(t, DefaultConfig())
	ctx := context.Background()

	a, err := p.Recommend(ctx, "graduate reasoning test", 5, filter.Filters{})
	require.NoError(t, err)
	b, err := p.Recommend(ctx, "graduate reasoning test", 5, filter.Filters{})
	require.NoError(t, err)
	assert.Equal(t, itemNames(a), itemNames(b))
	assert.Equal(t, a.TotalCandidates, b.TotalCandidates)
}

func TestRecommend_Invariants(t *testing.T) {
	p, _ := newMockFixture(t, DefaultConfig())
	ctx := context.Background()

	for _, q := range []string{"manager hiring", "personality screen", "verbal skills", "executive search"} {
		for _, k := range []int{1, 3, 10} {
			got, err := p.Recommend(ctx, q, k, filter.Filters{})
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got.Items), k)

			seen := make(map[string]bool)
			for i, it := range got.Items {
				assert.False(t, seen[it.ID], "duplicate id %s for %q", it.ID, q)
				seen[it.ID] = true
				assert.Equal(t, i+1, it.Rank)
				assert.GreaterOrEqual(t, it.SimilarityScore, 0.6)
			}
		}
	}
}

func TestRecommend_RelaxesInferredFilters(t *testing.T) {
	// "simulation" infers a test type no seed assessment has; with no
	// caller filters the inferred axis must be dropped rather than
	// returning empty.
	p, _ := newMockFixture(t, DefaultConfig())
	ctx := context.Background()

	got, err := p.Recommend(ctx, "simulation exercise", 5, filter.Filters{})
	require.NoError(t, err)
	assert.NotEmpty(t, got.Items, "inferred-only filters fail open")
}

func TestRecommend_NeverRelaxesCallerFilters(t *testing.T) {
	p, _ := newMockFixture(t, DefaultConfig())
	ctx := context.Background()

	got, err := p.Recommend(ctx, "any assessment", 5,
		filter.Filters{TestTypes: []string{"Simulations"}})
	require.NoError(t, err)
	assert.Empty(t, got.Items, "caller filters are never dropped")
}

// erroringLLM fails rerank and extraction on demand.
type erroringLLM struct {
	rerankErr  error
	extractErr error
	inner      provider.LLM
}

func (e *erroringLLM) Rerank(ctx context.Context, query string, docs []string, k int) ([]int, error) {
	if e.rerankErr != nil {
		return nil, e.rerankErr
	}
	return e.inner.Rerank(ctx, query, docs, k)
}

func (e *erroringLLM) ExtractFilters(ctx context.Context, query string) (filter.Filters, error) {
	if e.extractErr != nil {
		return filter.Filters{}, e.extractErr
	}
	return e.inner.ExtractFilters(ctx, query)
}

type erroringEmbedder struct{ err error }

func (e *erroringEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, e.err }
func (e *erroringEmbedder) Dimension() int                                   { return testDim }

func TestRecommend_RerankFailureFallsBackToSimilarityOrder(t *testing.T) {
	ctx := context.Background()
	embedder := provider.NewMockEmbedder(testDim)
	store := catalog.NewSeededMemoryStore(catalog.SeedAssessments())
	all, _ := store.List(ctx, catalog.ListFilter{}, 0, 0)
	for _, a := range all {
		v, err := embedder.Embed(ctx, a.Description)
		require.NoError(t, err)
		require.NoError(t, store.SetEmbedding(ctx, a.ID, v))
	}
	llm := &erroringLLM{rerankErr: errors.New("llm down"), inner: provider.NewMockLLM()}
	p := New(store, embedder, llm, filter.NewEngine(nil), DefaultConfig(), nil)

	got, err := p.Recommend(ctx, "reasoning assessment for anyone", 2, filter.Filters{})
	require.NoError(t, err, "rerank failure is always recoverable")
	require.Len(t, got.Items, 2)
	assert.GreaterOrEqual(t, got.Items[0].SimilarityScore, got.Items[1].SimilarityScore,
		"fallback preserves similarity order")
}

func TestRecommend_ExtractionFailureUsesEmptyFilters(t *testing.T) {
	ctx := context.Background()
	embedder := provider.NewMockEmbedder(testDim)
	store := catalog.NewSeededMemoryStore(catalog.SeedAssessments())
	all, _ := store.List(ctx, catalog.ListFilter{}, 0, 0)
	for _, a := range all {
		v, err := embedder.Embed(ctx, a.Description)
		require.NoError(t, err)
		require.NoError(t, store.SetEmbedding(ctx, a.ID, v))
	}
	llm := &erroringLLM{extractErr: errors.New("llm down"), inner: provider.NewMockLLM()}
	p := New(store, embedder, llm, filter.NewEngine(nil), DefaultConfig(), nil)

	got, err := p.Recommend(ctx, "software developer with coding skills", 5, filter.Filters{})
	require.NoError(t, err)
	assert.NotEmpty(t, got.Items)
}

func TestRecommend_EmbeddingFailureIsFatal(t *testing.T) {
	store := catalog.NewSeededMemoryStore(catalog.SeedAssessments())
	p := New(store, &erroringEmbedder{err: errors.New("embedder down")},
		provider.NewMockLLM(), filter.NewEngine(nil), DefaultConfig(), nil)

	_, err := p.Recommend(context.Background(), "valid query", 5, filter.Filters{})
	assert.Error(t, err)
}

func TestBuildContextDoc(t *testing.T) {
	m := catalog.Match{
		Assessment: catalog.Assessment{
			Name:               "Coding Skills Assessment",
			Description:        "Practical coding assessment.",
			TestTypes:          []string{"Knowledge & Skills"},
			JobLevels:          []string{"Entry-Level"},
			Languages:          []string{"English"},
			KeyFeatures:        []string{"Online"},
			RemoteTesting:      true,
			DurationMinMinutes: intp(60),
			DurationMaxMinutes: intp(60),
		},
		Similarity: 0.91,
	}
	doc := BuildContextDoc(m)

	assert.Contains(t, doc, "Assessment: Coding Skills Assessment")
	assert.Contains(t, doc, "Duration: 60 minutes")
	assert.Contains(t, doc, "Remote Testing: Yes")
	assert.Contains(t, doc, "Vector Similarity Score: 0.91")

	// Field order is stable.
	nameIdx := strings.Index(doc, "Assessment:")
	durIdx := strings.Index(doc, "Duration:")
	simIdx := strings.Index(doc, "Vector Similarity Score:")
	assert.Less(t, nameIdx, durIdx)
	assert.Less(t, durIdx, simIdx)

	t.Run("empty fields are omitted", func(t *testing.T) {
		doc := BuildContextDoc(catalog.Match{Assessment: catalog.Assessment{Name: "Bare"}})
		assert.NotContains(t, doc, "Description:")
		assert.NotContains(t, doc, "Languages:")
	})
}
