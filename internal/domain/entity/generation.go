package entity

import (
	"fmt"
	"strings"
	"time"
)

// FieldType is the primitive JSON type declared for a schema property.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// Property declares one schema field.
type Property struct {
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// Schema is the target shape of a structured generation.
type Schema struct {
	Required   []string            `json:"required"`
	Properties map[string]Property `json:"properties"`
}

// TypeOf returns the declared type of field, if any.
func (s Schema) TypeOf(field string) (FieldType, bool) {
	p, ok := s.Properties[field]
	if !ok || p.Type == "" {
		return "", false
	}
	return p.Type, true
}

// GenerationConfig bounds how hard the chain tries before degrading.
type GenerationConfig struct {
	MaxRetries       int     `json:"max_retries"`
	TimeoutMs        int     `json:"timeout_ms"`
	FallbackEnabled  bool    `json:"fallback_enabled"`
	QualityThreshold float64 `json:"quality_threshold"`
}

// DefaultGenerationConfig returns the configuration used when a caller does
// not supply one.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxRetries:       3,
		TimeoutMs:        30000,
		FallbackEnabled:  true,
		QualityThreshold: 0.7,
	}
}

// Timeout is the per-attempt deadline.
func (c GenerationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Validate checks the numeric bounds of the config.
func (c GenerationConfig) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max_retries must be >= 1, got %d", ErrInvalidRequest, c.MaxRetries)
	}
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("%w: timeout_ms must be > 0, got %d", ErrInvalidRequest, c.TimeoutMs)
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		return fmt.Errorf("%w: quality_threshold must be in [0,1], got %v", ErrInvalidRequest, c.QualityThreshold)
	}
	return nil
}

// GenerationRequest describes one structured generation. Build it with
// NewGenerationRequest; it is not modified afterwards.
type GenerationRequest struct {
	FunctionName  string           `json:"function_name"`
	Schema        Schema           `json:"schema"`
	Prompt        string           `json:"prompt"`
	SystemMessage string           `json:"system_message,omitempty"`
	Config        GenerationConfig `json:"config"`
}

// NewGenerationRequest validates its inputs and returns an immutable request.
func NewGenerationRequest(functionName string, schema Schema, prompt, systemMessage string, cfg GenerationConfig) (GenerationRequest, error) {
	if strings.TrimSpace(functionName) == "" {
		return GenerationRequest{}, fmt.Errorf("%w: function_name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(prompt) == "" {
		return GenerationRequest{}, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	for _, field := range schema.Required {
		if strings.TrimSpace(field) == "" {
			return GenerationRequest{}, fmt.Errorf("%w: schema.required contains an empty name", ErrInvalidRequest)
		}
	}
	if err := cfg.Validate(); err != nil {
		return GenerationRequest{}, err
	}

	required := append([]string(nil), schema.Required...)
	props := make(map[string]Property, len(schema.Properties))
	for k, v := range schema.Properties {
		props[k] = v
	}

	return GenerationRequest{
		FunctionName:  functionName,
		Schema:        Schema{Required: required, Properties: props},
		Prompt:        prompt,
		SystemMessage: systemMessage,
		Config:        cfg,
	}, nil
}

// Tier identifies which stage of the fallback chain produced a result.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierFallback  Tier = "fallback"
)

// AttemptRecord is the outcome of one attempt within a tier.
type AttemptRecord struct {
	Tier      Tier    `json:"tier"`
	Number    int     `json:"number"`
	Outcome   Outcome `json:"outcome"`
	Error     string  `json:"error,omitempty"`
	LatencyMs int64   `json:"latency_ms"`
}

// GenerationResult is returned once per call and owned by the caller.
type GenerationResult struct {
	RequestID        string          `json:"request_id"`
	Success          bool            `json:"success"`
	Data             map[string]any  `json:"data"`
	Provider         Tier            `json:"provider"`
	Attempts         int             `json:"attempts"`
	Confidence       float64         `json:"confidence"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	Degraded         bool            `json:"degraded"`
	Cached           bool            `json:"cached"`
	History          []AttemptRecord `json:"history,omitempty"`
}

// TypeMismatch records a field whose runtime type differs from the schema.
type TypeMismatch struct {
	Field    string    `json:"field"`
	Expected FieldType `json:"expected"`
}

// ValidationReport is produced per attempt by the response validator.
type ValidationReport struct {
	Passed         bool           `json:"passed"`
	MissingFields  []string       `json:"missing_fields,omitempty"`
	TypeMismatches []TypeMismatch `json:"type_mismatches,omitempty"`
}

// Error renders a failed report for logs and attempt history.
func (r ValidationReport) Error() string {
	parts := make([]string, 0, len(r.MissingFields)+len(r.TypeMismatches))
	for _, f := range r.MissingFields {
		parts = append(parts, "missing "+f)
	}
	for _, m := range r.TypeMismatches {
		parts = append(parts, fmt.Sprintf("%s not %s", m.Field, m.Expected))
	}
	return strings.Join(parts, ", ")
}
