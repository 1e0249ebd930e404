package usecase

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"genforge-core/internal/domain/entity"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScore(t *testing.T) {
	t.Parallel()

	keys := func(n int) map[string]any {
		m := make(map[string]any, n)
		for i := 0; i < n; i++ {
			m[fmt.Sprintf("k%d", i)] = "v"
		}
		return m
	}
	long := func(size int) map[string]any {
		return map[string]any{"text": strings.Repeat("a", size)}
	}

	tests := []struct {
		name string
		data map[string]any
		tier entity.Tier
		want float64
	}{
		{name: "primary base", data: keys(1), tier: entity.TierPrimary, want: 0.85},
		{name: "secondary base", data: keys(1), tier: entity.TierSecondary, want: 0.75},
		{name: "five keys", data: keys(5), tier: entity.TierPrimary, want: 0.90},
		{name: "eight keys", data: keys(8), tier: entity.TierSecondary, want: 0.85},
		{name: "over 500 chars", data: long(600), tier: entity.TierSecondary, want: 0.80},
		{name: "over 1000 chars", data: long(1200), tier: entity.TierSecondary, want: 0.85},
		{name: "clamped", data: richIntent(), tier: entity.TierPrimary, want: 1.0},
		{name: "empty payload", data: map[string]any{}, tier: entity.TierPrimary, want: 0.85},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Score(tc.data, tc.tier); !almostEqual(got, tc.want) {
				t.Errorf("expected %.2f, got %v", tc.want, got)
			}
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	data := richIntent()
	first := Score(data, entity.TierSecondary)
	for i := 0; i < 20; i++ {
		if got := Score(data, entity.TierSecondary); got != first {
			t.Fatalf("score changed between calls: %v then %v", first, got)
		}
	}
}

func TestScoreProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genPayload := gen.MapOf(gen.Identifier(), gen.AlphaString())
	genTier := gen.OneConstOf(entity.TierPrimary, entity.TierSecondary)

	properties.Property("score stays within [0,1]", prop.ForAll(
		func(data map[string]string, tier entity.Tier) bool {
			s := Score(toAny(data), tier)
			return s >= 0 && s <= 1
		},
		genPayload, genTier,
	))

	properties.Property("adding a missing key never lowers the score", prop.ForAll(
		func(data map[string]string, key, value string, tier entity.Tier) bool {
			if _, exists := data[key]; exists {
				return true
			}
			before := Score(toAny(data), tier)
			grown := toAny(data)
			grown[key] = value
			return Score(grown, tier) >= before
		},
		genPayload, gen.Identifier(), gen.AlphaString(), genTier,
	))

	properties.Property("primary outranks secondary for equal payloads", prop.ForAll(
		func(data map[string]string) bool {
			p := Score(toAny(data), entity.TierPrimary)
			s := Score(toAny(data), entity.TierSecondary)
			return p > s || p == 1.0
		},
		genPayload,
	))

	properties.TestingRun(t)
}

func toAny(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
