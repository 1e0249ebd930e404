package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"genforge-core/internal/domain/entity"
)

const (
	anthropicKeyPrefix = "sk-ant-"
	anthropicKeyMinLen = 20

	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	defaultAnthropicVersion  = "2023-06-01"
	defaultAnthropicModel    = "claude-3-5-haiku-latest"
)

type AnthropicConfig struct {
	APIKey     string
	Endpoint   string
	Model      string
	Version    string
	HTTPClient *http.Client
}

// AnthropicClient is a free-text provider speaking the Messages API.
type AnthropicClient struct {
	cfg    AnthropicConfig
	client *http.Client
}

func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultAnthropicEndpoint
	}
	if cfg.Version == "" {
		cfg.Version = defaultAnthropicVersion
	}
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &AnthropicClient{cfg: cfg, client: httpClient}
}

func (a *AnthropicClient) Model() string {
	return a.cfg.Model
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *AnthropicClient) GenerateText(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       a.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	a.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", classifyError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classifyStatus(resp.StatusCode, fmt.Errorf("anthropic status %d: %s", resp.StatusCode, truncate(raw, 256)))
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode anthropic response: %v", entity.ErrParseFailure, err)
	}
	var b strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// Available checks the key shape, then lists models as a minimal
// authenticated request.
func (a *AnthropicClient) Available(ctx context.Context) bool {
	if !keyShapeOK(a.cfg.APIKey, anthropicKeyPrefix, anthropicKeyMinLen) {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, a.modelsEndpoint(), nil)
	if err != nil {
		return false
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (a *AnthropicClient) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", a.cfg.Version)
}

func (a *AnthropicClient) modelsEndpoint() string {
	return strings.TrimSuffix(a.cfg.Endpoint, "/messages") + "/models"
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
