package usecase

import (
	"sort"

	"genforge-core/internal/domain/entity"
)

// PlaceholderText replaces a required string the provider did not supply.
const PlaceholderText = "Not specified"

// Domain defaults for fields the app-generation prompts ask for. Fields not
// listed here fall back to a default for their declared type.
var fieldDefaults = map[string]any{
	"category":       "utility",
	"primaryPurpose": "General purpose application",
	"targetUsers":    []any{"General users"},
	"keyFeatures":    []any{"Data management"},
	"dataToManage":   []any{"Records"},
	"urgency":        "medium",
	"complexity":     "moderate",
	"appName":        "My App",
	"description":    "An application generated from your idea",
}

// SanitizeReport lists the coercions applied to a payload.
type SanitizeReport struct {
	Wrapped   []string
	Defaulted []string
}

// Sanitize normalizes known unstable shapes before validation:
//   - a declared array field holding a single scalar is wrapped in a list
//   - a required field that is absent, null or of the wrong type gets a default
//
// The input map is not modified.
func Sanitize(data map[string]any, schema entity.Schema) (map[string]any, SanitizeReport) {
	var report SanitizeReport

	out := make(map[string]any, len(data)+len(schema.Required))
	for k, v := range data {
		out[k] = v
	}

	fields := make([]string, 0, len(schema.Properties))
	for k := range schema.Properties {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if schema.Properties[field].Type != entity.TypeArray {
			continue
		}
		v, ok := out[field]
		if !ok || v == nil {
			continue
		}
		if _, isList := v.([]any); isList {
			continue
		}
		if _, isObject := v.(map[string]any); isObject {
			continue
		}
		out[field] = []any{v}
		report.Wrapped = append(report.Wrapped, field)
	}

	for _, field := range schema.Required {
		declared, hasType := schema.TypeOf(field)
		v, ok := out[field]
		if ok && v != nil && (!hasType || !knownType(declared) || matchesType(v, declared)) {
			continue
		}
		out[field] = defaultFor(field, declared)
		report.Defaulted = append(report.Defaulted, field)
	}

	return out, report
}

// defaultFor returns a fresh default value so callers never share slices.
func defaultFor(field string, t entity.FieldType) any {
	if v, ok := fieldDefaults[field]; ok && (t == "" || matchesType(v, t)) {
		return cloneValue(v)
	}
	switch t {
	case entity.TypeNumber:
		return float64(0)
	case entity.TypeBoolean:
		return false
	case entity.TypeArray:
		return []any{PlaceholderText}
	case entity.TypeObject:
		return map[string]any{}
	default:
		return PlaceholderText
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
