package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// LoadReport aggregates the outcome of a CSV ingest. Malformed rows
// are recorded and skipped; they never abort the load.
type LoadReport struct {
	Loaded  int
	Skipped int
	Errors  []string
}

// Loader ingests the scraped catalog CSV into a Store. Descriptions
// arrive from the scraper with stray HTML and markdown, so the loader
// renders and sanitizes them down to plain text before storage.
type Loader struct {
	store     Store
	logger    *zap.Logger
	sanitizer *bluemonday.Policy
}

// NewLoader creates a Loader writing into store.
func NewLoader(store Store, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		store:     store,
		logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// expected CSV columns; "duration" carries the free-form duration text.
var csvColumns = []string{
	"name", "url", "remote_testing", "adaptive_irt", "test_types",
	"description", "job_levels", "duration", "languages", "key_features", "source",
}

// LoadFile reads the CSV at path and upserts every well-formed row.
func (l *Loader) LoadFile(ctx context.Context, path string) (LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadReport{}, fmt.Errorf("opening catalog csv: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load reads CSV rows from r and upserts every well-formed row.
func (l *Loader) Load(ctx context.Context, r io.Reader) (LoadReport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return LoadReport{}, fmt.Errorf("reading csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")] = i
	}
	if _, ok := col["name"]; !ok {
		return LoadReport{}, fmt.Errorf("catalog csv is missing the name column")
	}

	var (
		report  LoadReport
		pending []Assessment
	)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		a, err := l.parseRow(col, record)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			l.logger.Warn("skipping malformed catalog row", zap.Int("line", line), zap.Error(err))
			continue
		}
		pending = append(pending, a)
	}

	up, err := l.store.BatchUpsert(ctx, pending)
	if err != nil {
		return report, fmt.Errorf("upserting catalog rows: %w", err)
	}
	report.Loaded = up.SuccessCount
	report.Skipped += up.ErrorCount
	l.logger.Info("catalog load finished",
		zap.Int("loaded", report.Loaded), zap.Int("skipped", report.Skipped))
	return report, nil
}

func (l *Loader) parseRow(col map[string]int, record []string) (Assessment, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	name := field("name")
	if name == "" {
		return Assessment{}, fmt.Errorf("empty name")
	}

	a := Assessment{
		Name:          name,
		URL:           field("url"),
		Description:   l.cleanText(field("description")),
		RemoteTesting: parseBool(field("remote_testing")),
		AdaptiveIRT:   parseBool(field("adaptive_irt")),
		TestTypes:     NormalizeTestTypes(ParseListString(field("test_types"))),
		JobLevels:     Dedupe(ParseListString(field("job_levels"))),
		Languages:     Dedupe(ParseListString(field("languages"))),
		KeyFeatures:   Dedupe(ParseListString(field("key_features"))),
		DurationText:  field("duration"),
	}
	d := ParseDuration(a.DurationText)
	a.DurationMinMinutes = d.MinMinutes
	a.DurationMaxMinutes = d.MaxMinutes
	a.IsUntimed = d.IsUntimed
	a.IsVariableDuration = d.IsVariableDuration
	return a, nil
}

var spaceRun = regexp.MustCompile(`\s+`)

// cleanText renders any markdown in a scraped description, strips all
// HTML, and collapses whitespace, leaving plain text for storage and
// embedding.
func (l *Loader) cleanText(s string) string {
	if s == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	rendered := markdown.ToHTML([]byte(s), p, mdhtml.NewRenderer(mdhtml.RendererOptions{}))
	plain := html.UnescapeString(l.sanitizer.Sanitize(string(rendered)))
	return strings.TrimSpace(spaceRun.ReplaceAllString(plain, " "))
}

// ParseListString converts a list-valued CSV cell to a string slice.
// It accepts either a JSON array or a comma-separated value; scalar
// junk becomes a single-element list.
func ParseListString(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "na") || strings.EqualFold(s, "n/a") {
		return nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var arr []string
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			var out []string
			for _, item := range arr {
				if item = strings.TrimSpace(item); item != "" {
					out = append(out, item)
				}
			}
			return out
		}
		// Python-style list literal: strip brackets and quotes, then
		// fall through to comma splitting.
		s = strings.Trim(s, "[]")
		s = strings.NewReplacer("'", "", `"`, "").Replace(s)
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "t":
		return true
	}
	return false
}
