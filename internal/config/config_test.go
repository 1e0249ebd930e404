package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SECONDARY_PROVIDER", "SECONDARY_MODEL", "GEN_MAX_RETRIES", "GEN_TIMEOUT_MS", "GEN_FALLBACK_ENABLED", "GEN_QUALITY_THRESHOLD", "RETRY_BASE_DELAY", "GEN_MAX_RETRIES_LIMIT", "GEN_TIMEOUT_MS_LIMIT", "REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.Port != "8080" || cfg.SecondaryProvider != "gemini" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.SecondaryModel != "gemini-2.0-flash" {
		t.Errorf("unexpected secondary model %s", cfg.SecondaryModel)
	}
	g := cfg.Generation
	if g.MaxRetries != 3 || g.TimeoutMs != 30000 || !g.FallbackEnabled || g.QualityThreshold != 0.7 {
		t.Errorf("unexpected generation defaults %+v", g)
	}
	if cfg.RetryBaseDelay != 500*time.Millisecond {
		t.Errorf("unexpected retry base delay %s", cfg.RetryBaseDelay)
	}
	if cfg.MaxRetriesLimit != 10 || cfg.MaxTimeoutMs != 120000 || cfg.RequestTimeout != 5*time.Minute {
		t.Errorf("unexpected request limits %d/%d/%s", cfg.MaxRetriesLimit, cfg.MaxTimeoutMs, cfg.RequestTimeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SECONDARY_PROVIDER", "Anthropic")
	t.Setenv("GEN_MAX_RETRIES", "5")
	t.Setenv("GEN_TIMEOUT_MS", "1500")
	t.Setenv("GEN_FALLBACK_ENABLED", "false")
	t.Setenv("GEN_QUALITY_THRESHOLD", "0.85")
	t.Setenv("RETRY_BASE_DELAY", "2s")
	t.Setenv("QDRANT_PORT", "not-a-number")
	t.Setenv("SECONDARY_MODEL", "")

	cfg := Load()

	if cfg.SecondaryProvider != "anthropic" || cfg.SecondaryModel != "claude-3-5-haiku-latest" {
		t.Errorf("unexpected secondary %s/%s", cfg.SecondaryProvider, cfg.SecondaryModel)
	}
	g := cfg.Generation
	if g.MaxRetries != 5 || g.TimeoutMs != 1500 || g.FallbackEnabled || g.QualityThreshold != 0.85 {
		t.Errorf("unexpected generation config %+v", g)
	}
	if cfg.RetryBaseDelay != 2*time.Second {
		t.Errorf("unexpected retry base delay %s", cfg.RetryBaseDelay)
	}
	if cfg.QdrantPort != 6334 {
		t.Errorf("malformed port should fall back to the default, got %d", cfg.QdrantPort)
	}
}
