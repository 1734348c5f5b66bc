package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/hirestack/assessrec/filter"
)

// ChatLLM adapts a langchaingo model to the LLM capability pair. Any
// backend langchaingo supports (OpenAI-compatible endpoints, Gemini,
// local servers) plugs in unchanged.
type ChatLLM struct {
	model  llms.Model
	logger *zap.Logger
}

// NewChatLLM wraps model.
func NewChatLLM(model llms.Model, logger *zap.Logger) *ChatLLM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatLLM{model: model, logger: logger}
}

const rerankSystemPrompt = "You rank hiring assessments by relevance to a query. " +
	"You respond with a JSON array of document indices and nothing else."

// Rerank asks the model to order candidate documents for the query and
// parses the returned index list.
func (c *ChatLLM) Rerank(ctx context.Context, query string, docs []string, k int) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your task is to rank the most relevant documents for a given query.\n\nQUERY: %s\n\n", query)
	b.WriteString("Below are the available documents with their scores from a vector search:\n\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "DOCUMENT %d:\n%s\n\n", i+1, doc)
	}
	fmt.Fprintf(&b, `INSTRUCTIONS:
1. Analyze the query to understand the user's intent and requirements
2. Evaluate each document for its relevance to the query
3. Consider both the semantic similarity and the assessment characteristics
4. Return a JSON array containing the indices of the top %d most relevant documents
   (0-indexed, based on the DOCUMENT numbers above minus 1)

Example valid outputs:
[0, 2, 1] - This means DOCUMENT 1, DOCUMENT 3, and DOCUMENT 2 are the most relevant, in that order

YOUR RESPONSE (just a JSON array of indices):
`, k)

	content, err := c.generate(ctx, rerankSystemPrompt, b.String(),
		llms.WithTemperature(0.2), llms.WithMaxTokens(100))
	if err != nil {
		return nil, fmt.Errorf("%w: rerank: %v", ErrUnavailable, err)
	}

	indices, err := parseIndexList(content)
	if err != nil {
		return nil, fmt.Errorf("parsing rerank response: %w", err)
	}
	return indices, nil
}

var indexArrayPattern = regexp.MustCompile(`\[\s*\d+(?:\s*,\s*\d+)*\s*\]`)

// parseIndexList accepts either a bare JSON integer array or prose
// containing one.
func parseIndexList(content string) ([]int, error) {
	content = strings.TrimSpace(content)

	var indices []int
	if err := json.Unmarshal([]byte(content), &indices); err == nil {
		return indices, nil
	}
	if m := indexArrayPattern.FindString(content); m != "" {
		if err := json.Unmarshal([]byte(m), &indices); err == nil {
			return indices, nil
		}
	}
	return nil, fmt.Errorf("no index array in %q", content)
}

const extractFiltersPrompt = `I need to extract structured filters from the following job requirement or assessment query:

%q

Extract only filters that are EXPLICITLY mentioned and return them as a valid JSON object. Only include non-empty values. If a filter is not mentioned, leave it out of the JSON or set it to null.

These are the available filters:
- job_levels: array of strings (Entry-Level, Graduate, Mid-Professional, Professional Individual Contributor, Front Line Manager, Supervisor, Manager, Director, Executive, General Population)
- test_types: array of strings (Knowledge & Skills, Simulations, Personality & Behavior, Competencies, Assessment Exercises, Biodata & Situational Judgement, Development & 360, Ability & Aptitude)
- languages: array of strings (English, Spanish, French, etc.)
- max_duration_minutes: integer representing maximum duration in minutes
- remote_testing: boolean (true if remote testing is mentioned, false if in-person is required)

Examples of extracting duration information:
- "within 30 minutes" -> {"max_duration_minutes": 30}
- "less than 1 hour" -> {"max_duration_minutes": 60}

Return ONLY a valid JSON object with no additional text or explanation.`

// ExtractFilters derives structured filters from the query. The
// response is parsed tolerantly: bare JSON, fenced code blocks, or
// prose-wrapped objects all work.
func (c *ChatLLM) ExtractFilters(ctx context.Context, query string) (filter.Filters, error) {
	content, err := c.generate(ctx, "", fmt.Sprintf(extractFiltersPrompt, query),
		llms.WithTemperature(0.0), llms.WithMaxTokens(2048))
	if err != nil {
		return filter.Filters{}, fmt.Errorf("%w: extract filters: %v", ErrUnavailable, err)
	}

	f, err := parseFiltersJSON(content)
	if err != nil {
		c.logger.Warn("unparseable filter extraction response", zap.Error(err))
		return filter.Filters{}, err
	}
	return f, nil
}

var (
	fencedBlockPattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	backtickPattern    = regexp.MustCompile("`([\\s\\S]*?)`")
	jsonObjectPattern  = regexp.MustCompile(`\{[\s\S]*\}`)
)

func parseFiltersJSON(content string) (filter.Filters, error) {
	content = strings.TrimSpace(content)

	candidates := []string{content}
	if m := fencedBlockPattern.FindStringSubmatch(content); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := backtickPattern.FindStringSubmatch(content); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := jsonObjectPattern.FindString(content); m != "" {
		candidates = append(candidates, m)
	}

	var lastErr error
	for _, c := range candidates {
		var f filter.Filters
		if err := json.Unmarshal([]byte(c), &f); err == nil {
			return f, nil
		} else {
			lastErr = err
		}
	}
	return filter.Filters{}, fmt.Errorf("no filter object in response: %w", lastErr)
}

func (c *ChatLLM) generate(ctx context.Context, system, prompt string, opts ...llms.CallOption) (string, error) {
	var messages []llms.MessageContent
	if system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	var content string
	err := withRetry(ctx, func() error {
		resp, err := c.model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty model response")
		}
		content = resp.Choices[0].Content
		return nil
	})
	return content, err
}

var _ LLM = (*ChatLLM)(nil)
