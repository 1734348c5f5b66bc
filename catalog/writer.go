package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// WriteCSV serializes assessments in the loader's column layout.
// List-valued columns are written as JSON arrays so a load/serialize/
// reload cycle round-trips exactly.
func WriteCSV(w io.Writer, assessments []Assessment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, a := range assessments {
		record := []string{
			a.Name,
			a.URL,
			boolString(a.RemoteTesting),
			boolString(a.AdaptiveIRT),
			jsonList(a.TestTypes),
			a.Description,
			jsonList(a.JobLevels),
			a.DurationText,
			jsonList(a.Languages),
			jsonList(a.KeyFeatures),
			"",
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row for %q: %w", a.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func jsonList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
