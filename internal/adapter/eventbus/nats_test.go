package eventbus

import (
	"encoding/json"
	"testing"

	"genforge-core/internal/domain/entity"
)

func TestEncodeEvent(t *testing.T) {
	event := entity.GenerationEvent{
		RequestID:        "req-1",
		UserID:           "user-1",
		FunctionName:     "generate_ui_config",
		Provider:         entity.TierFallback,
		Attempts:         4,
		Confidence:       0.6,
		ProcessingTimeMs: 91234,
		Degraded:         true,
		Timestamp:        1700000000,
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if wire["provider"] != "fallback" || wire["function_name"] != "generate_ui_config" || wire["degraded"] != true {
		t.Errorf("unexpected wire form %s", data)
	}
	if wire["attempts"] != float64(4) {
		t.Errorf("expected 4 attempts, got %v", wire["attempts"])
	}
}

func TestNewNATSPublisherFailsWithoutServer(t *testing.T) {
	if _, err := NewNATSPublisher("nats://127.0.0.1:1", ""); err == nil {
		t.Fatal("expected a connection error")
	}
}
