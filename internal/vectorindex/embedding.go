package vectorindex

import (
	"context"
	"fmt"

	eopenai "github.com/cloudwego/eino-ext/components/embedding/openai"
	chromem "github.com/philippgille/chromem-go"

	"docuchat/internal/config"
)

// OpenAIEmbedding builds a chromem embedding func on top of the eino
// OpenAI-compatible embedding component.
func OpenAIEmbedding(ctx context.Context, cfg config.EmbeddingConfig) (chromem.EmbeddingFunc, error) {
	embedder, err := eopenai.NewEmbedder(ctx, &eopenai.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := embedder.EmbedStrings(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("embed text: %w", err)
		}
		if len(vectors) == 0 {
			return nil, fmt.Errorf("embedding service returned no vectors")
		}
		out := make([]float32, len(vectors[0]))
		for i, v := range vectors[0] {
			out[i] = float32(v)
		}
		return out, nil
	}, nil
}
