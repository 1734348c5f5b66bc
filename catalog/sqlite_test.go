package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	seed := SeedAssessments()
	report, err := s.BatchUpsert(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, len(seed), report.SuccessCount)

	got, err := s.Get(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, "Personality Assessment", got.Name)
	assert.Equal(t, []string{"Personality & Behavior"}, got.TestTypes)
	require.NotNil(t, got.DurationMinMinutes)
	assert.Equal(t, 25, *got.DurationMinMinutes)
	require.NotNil(t, got.DurationMaxMinutes)
	assert.Equal(t, 35, *got.DurationMaxMinutes)
	assert.True(t, got.IsVariableDuration)
	assert.Nil(t, got.Embedding)
}

func TestSQLiteStore_ListAndFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	_, err := s.BatchUpsert(ctx, SeedAssessments())
	require.NoError(t, err)

	all, err := s.List(ctx, ListFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 7)
	assert.Equal(t, "1", all[0].ID)

	byType, err := s.List(ctx, ListFilter{TestTypes: []string{"Knowledge & Skills"}}, 0, 0)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "Coding Skills Assessment", byType[0].Name)

	page, err := s.List(ctx, ListFilter{}, 5, 10)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestSQLiteStore_MatchAndEmbeddings(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	_, err := s.BatchUpsert(ctx, SeedAssessments())
	require.NoError(t, err)

	// Nothing embedded yet: empty result, not an error.
	got, err := s.Match(ctx, []float32{1, 0, 0}, 5, 0.0)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SetEmbedding(ctx, "1", []float32{1, 0, 0}))
	require.NoError(t, s.SetEmbedding(ctx, "2", []float32{0, 1, 0}))

	got, err = s.Match(ctx, []float32{1, 0, 0}, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-6)
	assert.Equal(t, []float32{1, 0, 0}, got[0].Embedding)
}

func TestSQLiteStore_UpdateEmbeddingSemantics(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	a, err := s.Create(ctx, Assessment{Name: "A", Description: "d", Embedding: []float32{1, 0}})
	require.NoError(t, err)

	a.Embedding = nil
	a.URL = "/changed"
	updated, err := s.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, updated.Embedding)

	a.Embedding = nil
	a.Description = "changed"
	updated, err = s.Update(ctx, a)
	require.NoError(t, err)
	assert.Nil(t, updated.Embedding)

	stored, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Embedding)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, s.SetEmbedding(ctx, "nope", []float32{1}), ErrNotFound)
	_, err = s.Update(ctx, Assessment{ID: "nope", Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}
