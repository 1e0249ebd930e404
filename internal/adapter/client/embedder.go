package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// PromptEmbedder turns request prompts into vectors for the result cache. The
// vector size must match the Qdrant collection.
type PromptEmbedder struct {
	client    *genai.Client
	model     string
	dimension int32
}

func NewPromptEmbedder(c *genai.Client, model string, dimension int32) *PromptEmbedder {
	return &PromptEmbedder{client: c, model: model, dimension: dimension}
}

func (e *PromptEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"}
	if e.dimension > 0 {
		cfg.OutputDimensionality = genai.Ptr(e.dimension)
	}
	res, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), cfg)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, fmt.Errorf("embedding model %s returned no vectors", e.model)
	}
	values := res.Embeddings[0].Values
	if e.dimension > 0 && len(values) != int(e.dimension) {
		return nil, fmt.Errorf("embedding model %s returned %d dimensions, want %d", e.model, len(values), e.dimension)
	}
	return values, nil
}
