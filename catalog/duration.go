package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// DurationInfo is the normalized form of a free-form duration string.
// Untimed durations set only IsUntimed; fixed durations set the min/max
// pair; ranges set the min/max pair together with IsVariableDuration;
// variable tokens set only IsVariableDuration. All-empty means the
// duration is unknown and imposes no filter constraint.
type DurationInfo struct {
	MinMinutes         *int
	MaxMinutes         *int
	IsUntimed          bool
	IsVariableDuration bool
}

var (
	reBareInt      = regexp.MustCompile(`^\d+$`)
	reMaxN         = regexp.MustCompile(`^max\s+(\d+)$`)
	reBareRange    = regexp.MustCompile(`^(\d+)\s+to\s+(\d+)$`)
	reUnitRange    = regexp.MustCompile(`(\d+)\s*(?:-|to)\s*(\d+)\s*(min|minute|minutes|hr|hrs|hour|hours)`)
	reUnitSingle   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(min|minute|minutes|hr|hrs|hour|hours)`)
	variableTokens = map[string]bool{"variable": true, "tbc": true, "n/a": true, "-": true}
)

// ParseDuration normalizes a duration string. It is a total function:
// every input yields a well-formed tuple, and inputs that cannot be
// interpreted come back as unknown rather than an error.
func ParseDuration(text string) DurationInfo {
	s := strings.ToLower(strings.TrimSpace(text))

	switch {
	case s == "" || s == "na" || s == "unknown":
		return DurationInfo{}

	case reBareInt.MatchString(s):
		n, err := strconv.Atoi(s)
		if err != nil {
			return DurationInfo{}
		}
		return DurationInfo{MinMinutes: &n, MaxMinutes: &n}

	case reMaxN.MatchString(s):
		m := reMaxN.FindStringSubmatch(s)
		n, _ := strconv.Atoi(m[1])
		return DurationInfo{MaxMinutes: &n}

	case reBareRange.MatchString(s):
		m := reBareRange.FindStringSubmatch(s)
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			return DurationInfo{}
		}
		return DurationInfo{MinMinutes: &lo, MaxMinutes: &hi, IsVariableDuration: true}

	case strings.HasPrefix(s, "untimed") || strings.Contains(s, "no time limit"):
		return DurationInfo{IsUntimed: true}

	case variableTokens[s] || strings.Contains(s, "variable"),
		strings.Contains(s, "varies") && !strings.ContainsAny(s, "0123456789"):
		return DurationInfo{IsVariableDuration: true}
	}

	if m := reUnitRange.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if isHourUnit(m[3]) {
			lo *= 60
			hi *= 60
		}
		if lo > hi {
			return DurationInfo{}
		}
		return DurationInfo{MinMinutes: &lo, MaxMinutes: &hi, IsVariableDuration: true}
	}

	if m := reUnitSingle.FindStringSubmatch(s); m != nil {
		f, _ := strconv.ParseFloat(m[1], 64)
		if isHourUnit(m[2]) {
			f *= 60
		}
		n := int(f)
		return DurationInfo{MinMinutes: &n, MaxMinutes: &n}
	}

	return DurationInfo{}
}

func isHourUnit(unit string) bool {
	return strings.HasPrefix(unit, "hr") || strings.HasPrefix(unit, "hour")
}

// RenderDuration produces the human-readable duration line used in
// reranker context docs.
func RenderDuration(a Assessment) string {
	switch {
	case a.IsUntimed:
		return "Untimed assessment"
	case a.DurationMinMinutes != nil && a.DurationMaxMinutes != nil && *a.DurationMinMinutes == *a.DurationMaxMinutes:
		return "Duration: " + strconv.Itoa(*a.DurationMinMinutes) + " minutes"
	case a.IsVariableDuration:
		return "Variable duration"
	case a.DurationText != "":
		return a.DurationText
	default:
		return "Unknown"
	}
}

// DurationMinutes derives the single integer minute value used by the
// compact recommendation response: max wins, then min, then a bare
// integer duration text, then zero.
func DurationMinutes(a Assessment) int {
	switch {
	case a.DurationMaxMinutes != nil:
		return *a.DurationMaxMinutes
	case a.DurationMinMinutes != nil:
		return *a.DurationMinMinutes
	}
	if n, err := strconv.Atoi(strings.TrimSpace(a.DurationText)); err == nil {
		return n
	}
	return 0
}
