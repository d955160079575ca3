// Package embed provides the vector-embedding provider the matcher's
// semantic strategy consumes.
package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"OrbitCS/internal/lib/sl"
)

// OpenAIEmbedder produces embeddings through the OpenAI embeddings API.
// The API is deterministic for identical input, which the matcher relies on.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	log    *slog.Logger
}

// NewOpenAIEmbedder creates an embedder for the given model
// (text-embedding-3-small unless configured otherwise).
func NewOpenAIEmbedder(apiKey, model string, log *slog.Logger) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
		log:    log.With(sl.Module("embedder")),
	}
}

// Embed returns the embedding vector for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}
