package usecase

import (
	"encoding/json"
	"math"

	"genforge-core/internal/domain/entity"
)

// Score estimates how complete a validated payload is. It depends only on the
// payload and the tier, so equal inputs always give equal scores.
//
// The fallback tier is never scored here; it uses entity.FallbackConfidence.
func Score(data map[string]any, tier entity.Tier) float64 {
	score := entity.BaseConfidence(tier)

	// encoding/json sorts map keys, so the length is stable for equal maps.
	size := 0
	if raw, err := json.Marshal(data); err == nil {
		size = len(raw)
	}
	if size > 500 {
		score += 0.05
	}
	if size > 1000 {
		score += 0.05
	}

	if len(data) >= 5 {
		score += 0.05
	}
	if len(data) >= 8 {
		score += 0.05
	}

	return math.Min(1.0, math.Max(0, score))
}
