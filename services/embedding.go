package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/CrowderSoup/taskflow-pro/config"
)

// EmbeddingDimensions is the fixed size of every stored task vector.
const EmbeddingDimensions = 384

// ErrAIUnavailable is returned when no model provider is configured.
var ErrAIUnavailable = errors.New("ai provider not configured")

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

func newOpenAIClient(cfg config.OpenAIConfig) openai.Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return openai.NewClient(opts...)
}

// NewOpenAIEmbedder returns nil when no API key is configured.
func NewOpenAIEmbedder(cfg config.OpenAIConfig) *OpenAIEmbedder {
	if cfg.APIKey == "" {
		return nil
	}
	return &OpenAIEmbedder{client: newOpenAIClient(cfg), model: cfg.EmbeddingModel}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e == nil {
		return nil, ErrAIUnavailable
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: openai.Int(EmbeddingDimensions),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response contained no data")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, x := range raw {
		vec[i] = float32(x)
	}
	return vec, nil
}
