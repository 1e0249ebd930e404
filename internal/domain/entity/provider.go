package entity

// ProviderProfile describes a configured provider. It is built once at startup
// and only read afterwards.
type ProviderProfile struct {
	Name           string
	Model          string
	Tier           Tier
	BaseConfidence float64
}

// Base confidences per tier. Primary must stay above secondary.
const (
	PrimaryBaseConfidence   = 0.85
	SecondaryBaseConfidence = 0.75
	FallbackConfidence      = 0.6
)

// BaseConfidence is the starting score for payloads produced by tier.
func BaseConfidence(tier Tier) float64 {
	switch tier {
	case TierPrimary:
		return PrimaryBaseConfidence
	case TierSecondary:
		return SecondaryBaseConfidence
	default:
		return FallbackConfidence
	}
}

// NewProviderProfile describes a provider serving tier.
func NewProviderProfile(name, model string, tier Tier) ProviderProfile {
	return ProviderProfile{Name: name, Model: model, Tier: tier, BaseConfidence: BaseConfidence(tier)}
}

// GenerationEvent is published after every completed generation.
type GenerationEvent struct {
	RequestID        string  `json:"request_id"`
	UserID           string  `json:"user_id"`
	FunctionName     string  `json:"function_name"`
	Provider         Tier    `json:"provider"`
	Attempts         int     `json:"attempts"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	Degraded         bool    `json:"degraded"`
	Cached           bool    `json:"cached"`
	Timestamp        int64   `json:"timestamp"`
}
