package provider

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hirestack/assessrec/vec"
)

// OpenAIEmbedder generates embeddings through any OpenAI-compatible
// embeddings endpoint (OpenAI itself, or Gemini and local servers via
// their compatibility layers). Responses are normalized to unit norm
// before being returned.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
}

// OpenAIEmbedderConfig configures an OpenAIEmbedder.
type OpenAIEmbedderConfig struct {
	APIKey  string
	BaseURL string // empty means the default OpenAI endpoint
	Model   string
	// Dimension is the expected output dimension; responses with any
	// other length are rejected.
	Dimension int
}

// NewOpenAIEmbedder creates an embedder for the configured endpoint.
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		dim:    cfg.Dimension,
	}
}

// Embed returns the unit-norm embedding of text, retrying transient
// transport failures under the shared policy.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := withRetry(ctx, func() error {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("empty embedding response")
		}
		out = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embed: %v", ErrUnavailable, err)
	}
	if len(out) != e.dim {
		return nil, fmt.Errorf("embedding dimension %d, want %d", len(out), e.dim)
	}
	return vec.Normalize(out), nil
}

// Dimension returns the configured output dimension.
func (e *OpenAIEmbedder) Dimension() int { return e.dim }

var _ Embedder = (*OpenAIEmbedder)(nil)
