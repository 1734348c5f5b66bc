// Package catalog holds the assessment data model and the stores that
// persist it: an in-memory store for tests and mock mode, a SQLite
// store for local deployments, and a Postgres store mirroring the
// hosted pgvector setup. All stores answer top-N cosine similarity
// search with a similarity floor.
package catalog

import "slices"

// TestTypeVocabulary is the fixed set of valid test-type labels.
var TestTypeVocabulary = []string{
	"Ability & Aptitude",
	"Biodata & Situational Judgement",
	"Competencies",
	"Development & 360",
	"Assessment Exercises",
	"Knowledge & Skills",
	"Personality & Behavior",
	"Simulations",
}

// TestTypeCodes maps single-letter catalog codes to vocabulary labels.
var TestTypeCodes = map[string]string{
	"A": "Ability & Aptitude",
	"B": "Biodata & Situational Judgement",
	"C": "Competencies",
	"D": "Development & 360",
	"E": "Assessment Exercises",
	"K": "Knowledge & Skills",
	"P": "Personality & Behavior",
	"S": "Simulations",
}

// JobLevelVocabulary is the fixed set of valid job-level labels.
var JobLevelVocabulary = []string{
	"Entry-Level",
	"Graduate",
	"Mid-Professional",
	"Professional Individual Contributor",
	"Front Line Manager",
	"Supervisor",
	"Manager",
	"Director",
	"Executive",
	"General Population",
}

// Assessment is the unit of recommendation. The ID is a stable opaque
// identifier; Name is unique across the catalog and serves as the
// ground-truth key for evaluation.
type Assessment struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	URL           string   `json:"url"`
	RemoteTesting bool     `json:"remote_testing"`
	AdaptiveIRT   bool     `json:"adaptive_irt"`
	TestTypes     []string `json:"test_types"`
	JobLevels     []string `json:"job_levels"`
	Languages     []string `json:"languages"`
	KeyFeatures   []string `json:"key_features"`

	DurationText       string `json:"duration_text"`
	DurationMinMinutes *int   `json:"duration_min_minutes,omitempty"`
	DurationMaxMinutes *int   `json:"duration_max_minutes,omitempty"`
	IsUntimed          bool   `json:"is_untimed"`
	IsVariableDuration bool   `json:"is_variable_duration"`

	// Embedding is the unit-norm description vector. Nil means the
	// assessment is not retrievable by vector search yet.
	Embedding []float32 `json:"embedding,omitempty"`
}

// IsValidTestType reports whether label is in the test-type vocabulary.
func IsValidTestType(label string) bool {
	return slices.Contains(TestTypeVocabulary, label)
}

// NormalizeTestTypes expands single-letter codes, drops labels outside
// the vocabulary, and dedupes while keeping first-seen order.
func NormalizeTestTypes(raw []string) []string {
	var out []string
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		if full, ok := TestTypeCodes[t]; ok {
			t = full
		}
		if !IsValidTestType(t) || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Dedupe removes duplicates from an ordered string set, keeping the
// first occurrence of each value.
func Dedupe(raw []string) []string {
	var out []string
	seen := make(map[string]bool, len(raw))
	for _, s := range raw {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
