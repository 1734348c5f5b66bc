package pipeline

import (
	"fmt"
	"strings"

	"github.com/hirestack/assessrec/catalog"
)

// BuildContextDoc renders one candidate into the stable text layout
// the reranker sees. Fields appear in a fixed order and are simply
// omitted when empty.
func BuildContextDoc(m catalog.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assessment: %s\n", m.Name)
	if m.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", m.Description)
	}
	if len(m.TestTypes) > 0 {
		fmt.Fprintf(&b, "Test Types: %s\n", strings.Join(m.TestTypes, ", "))
	}
	if len(m.JobLevels) > 0 {
		fmt.Fprintf(&b, "Job Levels: %s\n", strings.Join(m.JobLevels, ", "))
	}
	fmt.Fprintf(&b, "Duration: %s\n", catalog.RenderDuration(m.Assessment))
	fmt.Fprintf(&b, "Remote Testing: %s\n", yesNo(m.RemoteTesting))
	if len(m.Languages) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(m.Languages, ", "))
	}
	if len(m.KeyFeatures) > 0 {
		fmt.Fprintf(&b, "Features: %s\n", strings.Join(m.KeyFeatures, ", "))
	}
	fmt.Fprintf(&b, "Vector Similarity Score: %g\n", m.Similarity)
	return b.String()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
