package usecase

import (
	"bytes"
	"encoding/json"
	"testing"

	"genforge-core/internal/domain/entity"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDeterministicPayloadAnalyzeIntent(t *testing.T) {
	data := DeterministicPayload("analyze_app_intent", intentSchema())

	if data["category"] != "utility" {
		t.Errorf("expected category utility, got %v", data["category"])
	}
	if report := Validate(data, intentSchema()); !report.Passed {
		t.Errorf("fallback payload failed validation: %s", report.Error())
	}
}

func TestDeterministicPayloadIsIdempotent(t *testing.T) {
	for _, name := range []string{"analyze_app_intent", "generate_data_schema", "generate_ui_config", "generate_page_code", "unknown_fn"} {
		first, _ := json.Marshal(DeterministicPayload(name, intentSchema()))
		second, _ := json.Marshal(DeterministicPayload(name, intentSchema()))
		if !bytes.Equal(first, second) {
			t.Errorf("%s: payloads differ:\n%s\n%s", name, first, second)
		}
	}
}

func TestDeterministicPayloadDoesNotShareTable(t *testing.T) {
	data := DeterministicPayload("analyze_app_intent", entity.Schema{})
	data["keyFeatures"].([]any)[0] = "mutated"
	data["category"] = "mutated"

	again := DeterministicPayload("analyze_app_intent", entity.Schema{})
	if again["category"] != "utility" || again["keyFeatures"].([]any)[0] != "Data management" {
		t.Errorf("table entry was mutated through a returned payload: %v", again)
	}
}

func TestDeterministicPayloadCoversRequiredFields(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("any required set is satisfied for any function", prop.ForAll(
		func(functionName string, required []string) bool {
			schema := entity.Schema{Required: required}
			data := DeterministicPayload(functionName, schema)
			return Validate(data, schema).Passed
		},
		gen.OneConstOf("analyze_app_intent", "generate_ui_config", "something_else"),
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
