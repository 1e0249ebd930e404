package metrics

import (
	"testing"

	"genforge-core/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecordsAttempts(t *testing.T) {
	p := NewPrometheus()

	p.ObserveAttempt(entity.TierPrimary, entity.OutcomeTimeout, 30000)
	p.ObserveAttempt(entity.TierPrimary, entity.OutcomeTimeout, 30000)
	p.ObserveAttempt(entity.TierSecondary, entity.OutcomeSuccess, 1200)
	p.ObserveAttempt(entity.TierFallback, entity.OutcomeDeterministic, 0)

	if got := testutil.ToFloat64(p.attempts.WithLabelValues("primary", "timeout")); got != 2 {
		t.Errorf("expected 2 primary timeouts, got %v", got)
	}
	if got := testutil.ToFloat64(p.attempts.WithLabelValues("fallback", "deterministic")); got != 1 {
		t.Errorf("expected 1 deterministic attempt, got %v", got)
	}
	// The deterministic tier has no provider latency.
	if got := testutil.CollectAndCount(p.latency); got != 2 {
		t.Errorf("expected latency series for 2 tiers, got %d", got)
	}
}

func TestPrometheusRecordsProbesAndResults(t *testing.T) {
	p := NewPrometheus()

	p.ObserveProbe(entity.TierPrimary, false)
	p.ObserveResult(&entity.GenerationResult{Provider: entity.TierFallback, Confidence: 0.6, Degraded: true, ProcessingTimeMs: 1500})
	p.ObserveResult(&entity.GenerationResult{Provider: entity.TierPrimary, Confidence: 0.9, Cached: true})
	p.ObserveResult(nil)

	if got := testutil.ToFloat64(p.probes.WithLabelValues("primary", "false")); got != 1 {
		t.Errorf("expected 1 failed probe, got %v", got)
	}
	if got := testutil.ToFloat64(p.results.WithLabelValues("fallback", "false")); got != 1 {
		t.Errorf("expected 1 fallback result, got %v", got)
	}
	if got := testutil.ToFloat64(p.results.WithLabelValues("primary", "true")); got != 1 {
		t.Errorf("expected 1 cached primary result, got %v", got)
	}
	if got := testutil.CollectAndCount(p.chainTime); got != 1 {
		t.Errorf("expected the duration histogram to be collected, got %d", got)
	}
}

func TestPrometheusRegistryGathers(t *testing.T) {
	p := NewPrometheus()
	p.ObserveAttempt(entity.TierPrimary, entity.OutcomeSuccess, 100)

	families, err := p.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "genforge_attempts_total" {
			found = true
		}
	}
	if !found {
		t.Error("genforge_attempts_total not registered")
	}
}
