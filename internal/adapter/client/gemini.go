package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"genforge-core/internal/domain/entity"

	"google.golang.org/genai"
)

// Gemini API keys look like "AIza" followed by 35 characters.
const (
	geminiKeyPrefix = "AIza"
	geminiKeyLength = 39
)

// GeminiCredential says how the shared genai client authenticates. With an
// API key the Gemini API backend is used; otherwise Vertex AI with Project.
type GeminiCredential struct {
	APIKey   string
	Project  string
	Location string
}

// ClientConfig converts the credential into a genai client config.
func (c GeminiCredential) ClientConfig() *genai.ClientConfig {
	if c.APIKey != "" {
		return &genai.ClientConfig{APIKey: c.APIKey, Backend: genai.BackendGeminiAPI}
	}
	return &genai.ClientConfig{Project: c.Project, Location: c.Location, Backend: genai.BackendVertexAI}
}

func (c GeminiCredential) shapeOK() bool {
	if c.APIKey != "" {
		return keyShapeOK(c.APIKey, geminiKeyPrefix, geminiKeyLength)
	}
	return strings.TrimSpace(c.Project) != "" && strings.TrimSpace(c.Location) != ""
}

// GeminiClient is the structured provider: it asks Gemini for JSON output
// constrained by the request schema.
type GeminiClient struct {
	client     *genai.Client
	model      string
	credential GeminiCredential
}

func NewGeminiClientFromClient(c *genai.Client, model string, credential GeminiCredential) *GeminiClient {
	return &GeminiClient{
		client:     c,
		model:      model,
		credential: credential,
	}
}

func (g *GeminiClient) Model() string {
	return g.model
}

func (g *GeminiClient) GenerateStructured(ctx context.Context, prompt string, schema entity.Schema, systemMessage string) (map[string]any, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	}
	if s, ok := toGenAISchema(schema); ok {
		cfg.ResponseSchema = s
	}
	if systemMessage != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemMessage, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, classifyError(err)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(result.Text()), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrParseFailure, err)
	}
	return data, nil
}

// Available checks the credential shape, then fetches the model metadata as
// a cheap authenticated round trip.
func (g *GeminiClient) Available(ctx context.Context) bool {
	if g.client == nil || !g.credential.shapeOK() {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := g.client.Models.Get(probeCtx, g.model, nil)
	return err == nil
}

// toGenAISchema converts the request schema into a response schema. Gemini
// rejects OBJECT schemas without properties, so a schema containing a free-form
// object is not converted and JSON mode runs unconstrained.
func toGenAISchema(s entity.Schema) (*genai.Schema, bool) {
	if len(s.Properties) == 0 {
		return nil, false
	}
	props := make(map[string]*genai.Schema, len(s.Properties))
	for name, p := range s.Properties {
		converted, ok := toGenAIProperty(p)
		if !ok {
			return nil, false
		}
		props[name] = converted
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   append([]string(nil), s.Required...),
	}, true
}

func toGenAIProperty(p entity.Property) (*genai.Schema, bool) {
	out := &genai.Schema{Description: p.Description}
	switch p.Type {
	case entity.TypeString, "":
		out.Type = genai.TypeString
	case entity.TypeNumber:
		out.Type = genai.TypeNumber
	case entity.TypeBoolean:
		out.Type = genai.TypeBoolean
	case entity.TypeArray:
		out.Type = genai.TypeArray
		items := entity.Property{Type: entity.TypeString}
		if p.Items != nil {
			items = *p.Items
		}
		converted, ok := toGenAIProperty(items)
		if !ok {
			return nil, false
		}
		out.Items = converted
	default:
		return nil, false
	}
	return out, true
}
