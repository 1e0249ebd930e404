package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"genforge-core/internal/domain/entity"
	"genforge-core/internal/domain/repository"
)

type step func(ctx context.Context) (map[string]any, error)

// scriptedProvider replays steps in order; the last step repeats.
type scriptedProvider struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func newScripted(steps ...step) *scriptedProvider {
	return &scriptedProvider{steps: steps}
}

func (s *scriptedProvider) next() step {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	return s.steps[i]
}

func (s *scriptedProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedProvider) GenerateStructured(ctx context.Context, _ string, _ entity.Schema, _ string) (map[string]any, error) {
	return s.next()(ctx)
}

// GenerateText renders the scripted payload inside prose, the way chat
// models usually answer.
func (s *scriptedProvider) GenerateText(ctx context.Context, _ string, _ float32, _ int) (string, error) {
	data, err := s.next()(ctx)
	if err != nil {
		return "", err
	}
	if data == nil {
		return "Sorry, I cannot help with that.", nil
	}
	return "Here is the result:\n```json\n" + mustJSON(data) + "\n```\nLet me know if you need changes.", nil
}

func respond(data map[string]any) step {
	return func(context.Context) (map[string]any, error) {
		return cloneValue(data).(map[string]any), nil
	}
}

func fail(err error) step {
	return func(context.Context) (map[string]any, error) {
		return nil, err
	}
}

func prose() step {
	return func(context.Context) (map[string]any, error) {
		return nil, nil
	}
}

// hangs blocks until the call is cancelled and counts the cancellations.
type hangs struct {
	cancelled atomic.Int32
}

func (h *hangs) step() step {
	return func(ctx context.Context) (map[string]any, error) {
		<-ctx.Done()
		h.cancelled.Add(1)
		return nil, ctx.Err()
	}
}

type staticProbe bool

func (p staticProbe) Available(context.Context) bool { return bool(p) }

var (
	errAuth      = fmt.Errorf("%w: status 401", entity.ErrAuthenticationFailure)
	errTransient = fmt.Errorf("%w: connection reset", entity.ErrTransientNetwork)
)

func intentSchema() entity.Schema {
	return entity.Schema{
		Required: []string{"category", "primaryPurpose", "targetUsers", "keyFeatures", "dataToManage", "urgency", "complexity"},
		Properties: map[string]entity.Property{
			"category":       {Type: entity.TypeString},
			"primaryPurpose": {Type: entity.TypeString},
			"targetUsers":    {Type: entity.TypeArray},
			"keyFeatures":    {Type: entity.TypeArray},
			"dataToManage":   {Type: entity.TypeArray},
			"urgency":        {Type: entity.TypeString},
			"complexity":     {Type: entity.TypeString},
		},
	}
}

func validIntent() map[string]any {
	return map[string]any{
		"category":       "productivity",
		"primaryPurpose": "Track household chores",
		"targetUsers":    []any{"Families"},
		"keyFeatures":    []any{"Chore list", "Reminders"},
		"dataToManage":   []any{"Chores", "Members"},
		"urgency":        "low",
		"complexity":     "simple",
	}
}

// richIntent has enough keys and text to earn every confidence bonus.
func richIntent() map[string]any {
	data := validIntent()
	data["notes"] = strings.Repeat("detailed requirement ", 60)
	data["appName"] = "ChoreChart"
	data["platform"] = "web"
	return data
}

func newRequest(cfg entity.GenerationConfig) entity.GenerationRequest {
	req, err := entity.NewGenerationRequest("analyze_app_intent", intentSchema(), "A chore tracker for families", "", cfg)
	if err != nil {
		panic(err)
	}
	return req
}

func testConfig(maxRetries int, threshold float64) entity.GenerationConfig {
	return entity.GenerationConfig{
		MaxRetries:       maxRetries,
		TimeoutMs:        2000,
		FallbackEnabled:  true,
		QualityThreshold: threshold,
	}
}

func primaryTier(p repository.StructuredProvider, probe repository.Prober) Tier {
	return NewStructuredTier(entity.NewProviderProfile("fake-primary", "fake-1", entity.TierPrimary), p, probe)
}

func secondaryTier(p repository.TextProvider) Tier {
	return NewTextTier(entity.NewProviderProfile("fake-secondary", "fake-2", entity.TierSecondary), p, nil, TextOptions{})
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(raw)
}
