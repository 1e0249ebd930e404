package repository

import (
	"context"
	"genforge-core/internal/domain/entity"
)

// StructuredProvider returns an already-structured payload for the schema.
// Failures are wrapped with entity.ErrTimeout, entity.ErrAuthenticationFailure
// or entity.ErrTransientNetwork.
type StructuredProvider interface {
	GenerateStructured(ctx context.Context, prompt string, schema entity.Schema, systemMessage string) (map[string]any, error)
}

// TextProvider returns free text that is expected to embed a JSON object.
type TextProvider interface {
	GenerateText(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

// Prober reports whether a provider is usable right now. It never errors.
type Prober interface {
	Available(ctx context.Context) bool
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// CachedResult is a previously accepted generation found by similarity.
type CachedResult struct {
	Prompt string
	Score  float32
	Result *entity.GenerationResult
}

type ResultCache interface {
	Search(ctx context.Context, vector []float32, threshold float32, functionName string) (*CachedResult, error)
	Save(ctx context.Context, req entity.GenerationRequest, result *entity.GenerationResult, vector []float32) error
}

type TokenLimiter interface {
	CheckLimit(ctx context.Context, userID string) (bool, error)
	Increment(ctx context.Context, userID string, amount int) error
}

// IntentJudge decides whether two prompts ask for the same thing.
type IntentJudge interface {
	IsMatch(ctx context.Context, userPrompt, cachedPrompt string) bool
}

type EventPublisher interface {
	PublishGeneration(ctx context.Context, event entity.GenerationEvent) error
}

type MetricsRecorder interface {
	ObserveAttempt(tier entity.Tier, outcome entity.Outcome, latencyMs int64)
	ObserveProbe(tier entity.Tier, available bool)
	ObserveResult(result *entity.GenerationResult)
}
