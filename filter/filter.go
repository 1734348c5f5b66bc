// Package filter owns the structured-attribute filtering semantics:
// merging caller-supplied filters with LLM-inferred ones and applying
// the predicates the store cannot enforce after retrieval.
package filter

import (
	"go.uber.org/zap"

	"github.com/hirestack/assessrec/catalog"
)

// DurationType classifies an assessment's timing model.
type DurationType string

const (
	DurationFixed    DurationType = "Fixed"
	DurationVariable DurationType = "Variable"
	DurationUntimed  DurationType = "Untimed"
)

// Filters restricts recommendation candidates. Nil pointers and empty
// slices mean no constraint on that axis. MinSimilarity is a pointer
// so that an explicit 0 ("no floor") is distinguishable from absent
// ("use the configured default").
type Filters struct {
	JobLevels          []string     `json:"job_levels,omitempty"`
	TestTypes          []string     `json:"test_types,omitempty"`
	Languages          []string     `json:"languages,omitempty"`
	MaxDurationMinutes *int         `json:"max_duration_minutes,omitempty"`
	DurationType       DurationType `json:"duration_type,omitempty"`
	MinSimilarity      *float64     `json:"min_similarity,omitempty"`
	RemoteTesting      *bool        `json:"remote_testing,omitempty"`
}

// IsZero reports whether no axis is constrained.
func (f Filters) IsZero() bool {
	return len(f.JobLevels) == 0 && len(f.TestTypes) == 0 && len(f.Languages) == 0 &&
		f.MaxDurationMinutes == nil && f.DurationType == "" &&
		f.MinSimilarity == nil && f.RemoteTesting == nil
}

// Merge combines caller-supplied filters with LLM-inferred ones. The
// caller wins on every axis it set; inferred values only fill gaps.
// Merging is idempotent.
func Merge(caller, inferred Filters) Filters {
	out := caller
	if len(out.JobLevels) == 0 {
		out.JobLevels = inferred.JobLevels
	}
	if len(out.TestTypes) == 0 {
		out.TestTypes = inferred.TestTypes
	}
	if len(out.Languages) == 0 {
		out.Languages = inferred.Languages
	}
	if out.MaxDurationMinutes == nil {
		out.MaxDurationMinutes = inferred.MaxDurationMinutes
	}
	if out.DurationType == "" {
		out.DurationType = inferred.DurationType
	}
	if out.MinSimilarity == nil {
		out.MinSimilarity = inferred.MinSimilarity
	}
	if out.RemoteTesting == nil {
		out.RemoteTesting = inferred.RemoteTesting
	}
	return out
}

// Engine applies post-retrieval filters. MinSimilarity is not applied
// here; the store enforces it at match time.
type Engine struct {
	// UntimedPassesMaxDuration flips the policy for untimed
	// assessments under a max_duration_minutes filter. The default
	// (false) fails them.
	UntimedPassesMaxDuration bool

	logger *zap.Logger
}

// NewEngine creates an Engine with the canonical untimed policy.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Apply returns the candidates passing every constrained axis,
// preserving input order.
func (e *Engine) Apply(candidates []catalog.Match, f Filters) []catalog.Match {
	out := make([]catalog.Match, 0, len(candidates))
	for _, c := range candidates {
		if e.passes(c.Assessment, f) {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) passes(a catalog.Assessment, f Filters) bool {
	if len(f.JobLevels) > 0 && !intersects(a.JobLevels, f.JobLevels) {
		return false
	}
	if len(f.TestTypes) > 0 && !intersects(a.TestTypes, f.TestTypes) {
		return false
	}
	if len(f.Languages) > 0 && !intersects(a.Languages, f.Languages) {
		return false
	}
	if f.RemoteTesting != nil && a.RemoteTesting != *f.RemoteTesting {
		return false
	}
	if f.MaxDurationMinutes != nil && !e.passesMaxDuration(a, *f.MaxDurationMinutes) {
		return false
	}
	if f.DurationType != "" && classifyDuration(a) != f.DurationType {
		return false
	}
	return true
}

func (e *Engine) passesMaxDuration(a catalog.Assessment, max int) bool {
	switch {
	case a.IsUntimed:
		return e.UntimedPassesMaxDuration
	case a.DurationMaxMinutes != nil:
		return *a.DurationMaxMinutes <= max
	case a.DurationMinMinutes != nil:
		return *a.DurationMinMinutes <= max
	default:
		// No numeric duration to evaluate: the constraint cannot
		// exclude the candidate.
		e.logger.Debug("duration unknown, max-duration filter passes",
			zap.String("assessment", a.Name))
		return true
	}
}

func classifyDuration(a catalog.Assessment) DurationType {
	switch {
	case a.IsUntimed:
		return DurationUntimed
	case a.IsVariableDuration:
		return DurationVariable
	case a.DurationMinMinutes != nil && a.DurationMaxMinutes != nil:
		if *a.DurationMinMinutes == *a.DurationMaxMinutes {
			return DurationFixed
		}
		return DurationVariable
	default:
		return ""
	}
}

func intersects(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
