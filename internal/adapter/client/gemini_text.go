package client

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

// GeminiTextClient is a free-text provider; callers extract the JSON object
// from its answer.
type GeminiTextClient struct {
	client     *genai.Client
	model      string
	credential GeminiCredential
}

func NewGeminiTextClient(client *genai.Client, model string, credential GeminiCredential) *GeminiTextClient {
	return &GeminiTextClient{client: client, model: model, credential: credential}
}

func (t *GeminiTextClient) Model() string {
	return t.model
}

func (t *GeminiTextClient) GenerateText(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: int32(maxTokens),
	}
	resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classifyError(err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (t *GeminiTextClient) Available(ctx context.Context) bool {
	if t.client == nil || !t.credential.shapeOK() {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := t.client.Models.Get(probeCtx, t.model, nil)
	return err == nil
}
