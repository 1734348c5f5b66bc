package provider

import (
	"context"
	"hash/fnv"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/hirestack/assessrec/filter"
	"github.com/hirestack/assessrec/vec"
)

// MockEmbedder is the deterministic embedding fallback. Every vector
// is the unit-norm sum of three components: a fixed anchor shared by
// all texts (so unrelated documents still clear the default
// similarity floor), a hashed bag-of-tokens (so texts sharing words
// score closer), and a tiny text-seeded pseudorandom component that
// breaks ties. Same text, same vector, every time.
type MockEmbedder struct {
	dim    int
	anchor []float32
}

const (
	anchorWeight = 1.4142135 // sqrt(2): baseline cosine ~= 2/3
	noiseWeight  = 0.05
)

// NewMockEmbedder creates a deterministic embedder of the given
// dimension.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{dim: dim, anchor: seededVector("anchor", dim)}
}

// Embed returns the deterministic unit-norm vector for text.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, m.dim)

	bag := make([]float32, m.dim)
	for _, tok := range tokenize(text) {
		bag[int(hashString(tok)%uint64(m.dim))]++
	}
	vec.Normalize(bag)

	noise := seededVector(text, m.dim)

	for i := range v {
		v[i] = anchorWeight*m.anchor[i] + bag[i] + noiseWeight*noise[i]
	}
	return vec.Normalize(v), nil
}

// Dimension returns the configured output dimension.
func (m *MockEmbedder) Dimension() int { return m.dim }

// seededVector builds a unit-norm pseudorandom vector from the hash
// of seed.
func seededVector(seed string, dim int) []float32 {
	rnd := rand.New(rand.NewSource(int64(hashString(seed))))
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rnd.Float64()*2 - 1)
	}
	return vec.Normalize(v)
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// tokenize lowercases, splits on non-alphanumerics, trims a plural
// "s" and drops single-character tokens.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if len(t) > 3 {
			t = strings.TrimSuffix(t, "s")
		}
		if len(t) < 2 {
			continue
		}
		out = append(out, t)
	}
	return out
}

// MockLLM is the deterministic fallback for both generative
// capabilities. Reranking orders candidates by lexical overlap with
// the query; filter extraction is a conservative keyword-rule pass.
type MockLLM struct{}

// NewMockLLM creates the deterministic LLM fallback.
func NewMockLLM() *MockLLM { return &MockLLM{} }

// Rerank orders doc indices by shared-token count with the query,
// ties resolved by the original position, and returns at most k.
func (m *MockLLM) Rerank(_ context.Context, query string, docs []string, k int) ([]int, error) {
	if len(docs) == 0 || k <= 0 {
		return nil, nil
	}

	queryTokens := make(map[string]bool)
	for _, t := range tokenize(query) {
		queryTokens[t] = true
	}

	scores := make([]int, len(docs))
	for i, doc := range docs {
		seen := make(map[string]bool)
		for _, t := range tokenize(doc) {
			if queryTokens[t] && !seen[t] {
				seen[t] = true
				scores[i]++
			}
		}
	}

	indices := make([]int, len(docs))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})
	if len(indices) > k {
		indices = indices[:k]
	}
	return indices, nil
}

var (
	mockJobLevelKeywords = []struct{ keyword, level string }{
		{"entry", "Entry-Level"},
		{"graduate", "Graduate"},
		{"mid", "Mid-Professional"},
		{"senior", "Professional Individual Contributor"},
		{"supervisor", "Supervisor"},
		{"manager", "Manager"},
		{"director", "Director"},
		{"executive", "Executive"},
	}
	mockDurationPattern = regexp.MustCompile(`(\d+)\s*(min|minute|minutes|hour|hours)`)
)

// ExtractFilters fills only the axes with unambiguous keyword
// evidence in the query.
func (m *MockLLM) ExtractFilters(_ context.Context, query string) (filter.Filters, error) {
	q := strings.ToLower(query)
	var f filter.Filters

	for _, kw := range mockJobLevelKeywords {
		if strings.Contains(q, kw.keyword) {
			f.JobLevels = append(f.JobLevels, kw.level)
		}
	}

	addType := func(label string, keywords ...string) {
		for _, kw := range keywords {
			if strings.Contains(q, kw) {
				f.TestTypes = append(f.TestTypes, label)
				return
			}
		}
	}
	addType("Knowledge & Skills", "knowledge", "skill")
	addType("Personality & Behavior", "personality")
	addType("Ability & Aptitude", "cognitive", "ability", "aptitude")
	addType("Simulations", "simulation")
	addType("Biodata & Situational Judgement", "situational")

	if match := mockDurationPattern.FindStringSubmatch(q); match != nil {
		n := 0
		for _, ch := range match[1] {
			n = n*10 + int(ch-'0')
		}
		if strings.HasPrefix(match[2], "hour") {
			n *= 60
		}
		f.MaxDurationMinutes = &n
	}

	remote := true
	inPerson := false
	switch {
	case strings.Contains(q, "remote") || strings.Contains(q, "online"):
		f.RemoteTesting = &remote
	case strings.Contains(q, "in-person") || strings.Contains(q, "in person") || strings.Contains(q, "on-site"):
		f.RemoteTesting = &inPerson
	}

	return f, nil
}

var (
	_ Embedder = (*MockEmbedder)(nil)
	_ LLM      = (*MockLLM)(nil)
)
