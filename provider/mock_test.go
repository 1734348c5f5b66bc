package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/assessrec/vec"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	e := NewMockEmbedder(768)

	a, err := e.Embed(ctx, "software developer with coding skills")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "software developer with coding skills")
	require.NoError(t, err)
	assert.Equal(t, a, b, "same text, same vector")

	c, err := NewMockEmbedder(768).Embed(ctx, "software developer with coding skills")
	require.NoError(t, err)
	assert.Equal(t, a, c, "deterministic across instances")
}

func TestMockEmbedder_UnitNormAndDimension(t *testing.T) {
	ctx := context.Background()
	e := NewMockEmbedder(768)

	v, err := e.Embed(ctx, "any text at all")
	require.NoError(t, err)
	assert.Len(t, v, 768)
	assert.InDelta(t, 1.0, vec.Norm(v), 1e-3)
	assert.Equal(t, 768, e.Dimension())
}

func TestMockEmbedder_SharedTokensScoreCloser(t *testing.T) {
	ctx := context.Background()
	e := NewMockEmbedder(768)

	query, err := e.Embed(ctx, "software developer with coding skills")
	require.NoError(t, err)
	coding, err := e.Embed(ctx, "Practical coding assessment to evaluate software development skills and problem-solving abilities in real-world programming scenarios.")
	require.NoError(t, err)
	verbal, err := e.Embed(ctx, "Test for verbal reasoning skills and language comprehension. Evaluates ability to understand and analyze written information.")
	require.NoError(t, err)

	simCoding, err := vec.Cosine(query, coding)
	require.NoError(t, err)
	simVerbal, err := vec.Cosine(query, verbal)
	require.NoError(t, err)

	assert.Greater(t, simCoding, simVerbal)
	assert.GreaterOrEqual(t, simCoding, 0.6, "related documents clear the default floor")
	assert.GreaterOrEqual(t, simVerbal, 0.6, "unrelated documents still clear the baseline")
}

func TestMockLLM_Rerank(t *testing.T) {
	ctx := context.Background()
	llm := NewMockLLM()
	docs := []string{
		"Assessment: Verbal Reasoning Assessment\nDescription: verbal reasoning and comprehension",
		"Assessment: Leadership Assessment\nDescription: leadership potential and executive competencies",
		"Assessment: Coding Skills Assessment\nDescription: coding and software development",
	}

	got, err := llm.Rerank(ctx, "leadership for senior executives", docs, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0], "the leadership document wins on token overlap")

	t.Run("deterministic", func(t *testing.T) {
		again, err := llm.Rerank(ctx, "leadership for senior executives", docs, 2)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	})

	t.Run("empty docs", func(t *testing.T) {
		got, err := llm.Rerank(ctx, "anything", nil, 3)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("no overlap keeps input order", func(t *testing.T) {
		got, err := llm.Rerank(ctx, "zzz qqq", docs, 3)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, got)
	})
}

func TestMockLLM_ExtractFilters(t *testing.T) {
	ctx := context.Background()
	llm := NewMockLLM()

	t.Run("test types and duration", func(t *testing.T) {
		f, err := llm.ExtractFilters(ctx, "cognitive test under 30 minutes")
		require.NoError(t, err)
		assert.Equal(t, []string{"Ability & Aptitude"}, f.TestTypes)
		require.NotNil(t, f.MaxDurationMinutes)
		assert.Equal(t, 30, *f.MaxDurationMinutes)
	})

	t.Run("hours convert to minutes", func(t *testing.T) {
		f, err := llm.ExtractFilters(ctx, "personality screen within 1 hour")
		require.NoError(t, err)
		assert.Equal(t, []string{"Personality & Behavior"}, f.TestTypes)
		require.NotNil(t, f.MaxDurationMinutes)
		assert.Equal(t, 60, *f.MaxDurationMinutes)
	})

	t.Run("job levels", func(t *testing.T) {
		f, err := llm.ExtractFilters(ctx, "leadership for senior executives")
		require.NoError(t, err)
		assert.Contains(t, f.JobLevels, "Professional Individual Contributor")
		assert.Contains(t, f.JobLevels, "Executive")
	})

	t.Run("remote preference", func(t *testing.T) {
		f, err := llm.ExtractFilters(ctx, "remote coding assessment")
		require.NoError(t, err)
		require.NotNil(t, f.RemoteTesting)
		assert.True(t, *f.RemoteTesting)

		f, err = llm.ExtractFilters(ctx, "must be taken in person")
		require.NoError(t, err)
		require.NotNil(t, f.RemoteTesting)
		assert.False(t, *f.RemoteTesting)
	})

	t.Run("conservative on no evidence", func(t *testing.T) {
		f, err := llm.ExtractFilters(ctx, "find something suitable")
		require.NoError(t, err)
		assert.True(t, f.IsZero())
	})
}
