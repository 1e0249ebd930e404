package usecase

import (
	"reflect"
	"testing"

	"genforge-core/internal/domain/entity"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSanitizeWrapsScalarLists(t *testing.T) {
	data := validIntent()
	data["keyFeatures"] = "Reminders"

	out, report := Sanitize(data, intentSchema())

	if got, want := out["keyFeatures"], []any{"Reminders"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if !reflect.DeepEqual(report.Wrapped, []string{"keyFeatures"}) {
		t.Errorf("expected keyFeatures to be reported as wrapped, got %v", report.Wrapped)
	}
	if len(report.Defaulted) != 0 {
		t.Errorf("expected no defaults, got %v", report.Defaulted)
	}
	if _, isString := data["keyFeatures"].(string); !isString {
		t.Error("input map was modified")
	}
}

func TestSanitizeDefaultsMissingRequiredFields(t *testing.T) {
	data := validIntent()
	delete(data, "targetUsers")
	data["urgency"] = 3.0

	out, report := Sanitize(data, intentSchema())

	if got, want := out["targetUsers"], []any{"General users"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected targetUsers %v, got %v", want, got)
	}
	if got := out["urgency"]; got != "medium" {
		t.Errorf("expected urgency default, got %v", got)
	}
	if !reflect.DeepEqual(report.Defaulted, []string{"targetUsers", "urgency"}) {
		t.Errorf("unexpected defaulted fields %v", report.Defaulted)
	}
}

func TestSanitizeTypeDefaults(t *testing.T) {
	schema := entity.Schema{
		Required: []string{"title", "score", "enabled", "items", "settings", "free"},
		Properties: map[string]entity.Property{
			"title":    {Type: entity.TypeString},
			"score":    {Type: entity.TypeNumber},
			"enabled":  {Type: entity.TypeBoolean},
			"items":    {Type: entity.TypeArray},
			"settings": {Type: entity.TypeObject},
		},
	}

	out, _ := Sanitize(map[string]any{"settings": nil}, schema)

	want := map[string]any{
		"title":    PlaceholderText,
		"score":    float64(0),
		"enabled":  false,
		"items":    []any{PlaceholderText},
		"settings": map[string]any{},
		"free":     PlaceholderText,
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %v, got %v", want, out)
	}
}

func TestSanitizeLeavesOptionalMismatchForValidator(t *testing.T) {
	schema := intentSchema()
	schema.Properties["budget"] = entity.Property{Type: entity.TypeNumber}

	data := validIntent()
	data["budget"] = "a lot"

	out, _ := Sanitize(data, schema)
	report := Validate(out, schema)
	if report.Passed {
		t.Fatal("expected the optional mismatch to survive sanitization")
	}
	if len(report.TypeMismatches) != 1 || report.TypeMismatches[0].Field != "budget" {
		t.Errorf("unexpected mismatches %v", report.TypeMismatches)
	}
}

func TestSanitizeDefaultsAreNotShared(t *testing.T) {
	first, _ := Sanitize(nil, intentSchema())
	first["targetUsers"].([]any)[0] = "mutated"

	second, _ := Sanitize(nil, intentSchema())
	if got := second["targetUsers"].([]any)[0]; got != "General users" {
		t.Errorf("default list leaked a mutation: %v", got)
	}
}

func TestSanitizeGuaranteesRequiredFields(t *testing.T) {
	properties := gopter.NewProperties(nil)
	fields := intentSchema().Required

	// kinds picks, per required field, which generated value the provider
	// "returned" for it: a string, a number, a bool, a list, or nothing.
	properties.Property("every required field is present and well typed", prop.ForAll(
		func(kinds []int, text string, number float64, flag bool, list []string) bool {
			items := make([]any, len(list))
			for i := range list {
				items[i] = list[i]
			}
			data := make(map[string]any)
			for i, kind := range kinds {
				switch kind {
				case 0:
					data[fields[i]] = text
				case 1:
					data[fields[i]] = number
				case 2:
					data[fields[i]] = flag
				case 3:
					data[fields[i]] = items
				}
			}
			out, _ := Sanitize(data, intentSchema())
			return Validate(out, intentSchema()).Passed
		},
		gen.SliceOfN(len(fields), gen.IntRange(0, 4)),
		gen.AlphaString(),
		gen.Float64(),
		gen.Bool(),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
