package catalog

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleCSV = `name,url,remote_testing,adaptive_irt,test_types,description,job_levels,duration,languages,key_features,source
Verbal Reasoning Assessment,/view/verbal/,True,False,"[""Ability & Aptitude""]",Reading comprehension under time pressure.,"[""Entry-Level"", ""Graduate""]",30,"English, French","[""Online""]",catalog
Coding Skills Assessment,/view/coding/,yes,no,"K, P",<p>Hands-on <b>coding</b> tasks.</p>,Professional Individual Contributor,60,English,"[""Live Coding""]",catalog
,missing-name.example,true,false,A,desc,Graduate,10,English,[],catalog
Untimed Personality,/view/personality/,1,0,P,Personality profile.,General Population,Untimed,English,[],catalog
`

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	loader := NewLoader(store, zap.NewNop())

	report, err := loader.Load(ctx, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Loaded)
	assert.Equal(t, 1, report.Skipped, "row with empty name is skipped, not fatal")
	require.Len(t, report.Errors, 1)

	all, err := store.List(ctx, ListFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	byName := make(map[string]Assessment, len(all))
	for _, a := range all {
		byName[a.Name] = a
	}

	t.Run("json list column", func(t *testing.T) {
		a := byName["Verbal Reasoning Assessment"]
		assert.Equal(t, []string{"Ability & Aptitude"}, a.TestTypes)
		assert.Equal(t, []string{"Entry-Level", "Graduate"}, a.JobLevels)
		assert.Equal(t, []string{"English", "French"}, a.Languages)
		assert.True(t, a.RemoteTesting)
		require.NotNil(t, a.DurationMinMinutes)
		assert.Equal(t, 30, *a.DurationMinMinutes)
	})

	t.Run("code expansion and html stripping", func(t *testing.T) {
		a := byName["Coding Skills Assessment"]
		assert.Equal(t, []string{"Knowledge & Skills", "Personality & Behavior"}, a.TestTypes)
		assert.Equal(t, "Hands-on coding tasks.", a.Description)
		assert.True(t, a.RemoteTesting)
		assert.False(t, a.AdaptiveIRT)
	})

	t.Run("untimed duration", func(t *testing.T) {
		a := byName["Untimed Personality"]
		assert.True(t, a.IsUntimed)
		assert.Nil(t, a.DurationMinMinutes)
	})
}

func TestLoader_RoundTrip(t *testing.T) {
	ctx := context.Background()
	first := NewMemoryStore()
	loader := NewLoader(first, nil)
	_, err := loader.Load(ctx, strings.NewReader(sampleCSV))
	require.NoError(t, err)

	loaded, err := first.List(ctx, ListFilter{}, 0, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, loaded))

	second := NewMemoryStore()
	_, err = NewLoader(second, nil).Load(ctx, &buf)
	require.NoError(t, err)
	reloaded, err := second.List(ctx, ListFilter{}, 0, 0)
	require.NoError(t, err)

	require.Len(t, reloaded, len(loaded))
	byName := make(map[string]Assessment, len(reloaded))
	for _, a := range reloaded {
		byName[a.Name] = a
	}
	for _, want := range loaded {
		got := byName[want.Name]
		got.ID = want.ID // ids are assigned per store
		assert.Equal(t, want, got)
	}
}

func TestParseListString(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`["a", "b"]`, []string{"a", "b"}},
		{`a, b`, []string{"a", "b"}},
		{`['a', 'b']`, []string{"a", "b"}},
		{``, nil},
		{`n/a`, nil},
		{`single`, []string{"single"}},
		{`[]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseListString(tt.in))
		})
	}
}

func TestNormalizeTestTypes(t *testing.T) {
	got := NormalizeTestTypes([]string{"A", "Ability & Aptitude", "K", "bogus", "K"})
	assert.Equal(t, []string{"Ability & Aptitude", "Knowledge & Skills"}, got)
}
