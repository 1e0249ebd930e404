package usecase

import (
	"encoding/json"
	"sort"

	"genforge-core/internal/domain/entity"
)

// Validate checks data against the schema and reports every problem it finds.
// Required fields are checked for presence; fields declared in properties are
// checked for their primitive type. Unknown declared types are not checked.
func Validate(data map[string]any, schema entity.Schema) entity.ValidationReport {
	var report entity.ValidationReport

	for _, field := range schema.Required {
		if _, ok := data[field]; !ok {
			report.MissingFields = append(report.MissingFields, field)
		}
	}

	keys := make([]string, 0, len(schema.Properties))
	for k := range schema.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, field := range keys {
		value, ok := data[field]
		if !ok {
			continue
		}
		expected := schema.Properties[field].Type
		if !knownType(expected) {
			continue
		}
		if !matchesType(value, expected) {
			report.TypeMismatches = append(report.TypeMismatches, entity.TypeMismatch{Field: field, Expected: expected})
		}
	}

	report.Passed = len(report.MissingFields) == 0 && len(report.TypeMismatches) == 0
	return report
}

func knownType(t entity.FieldType) bool {
	switch t {
	case entity.TypeString, entity.TypeNumber, entity.TypeBoolean, entity.TypeArray, entity.TypeObject:
		return true
	}
	return false
}

func matchesType(value any, expected entity.FieldType) bool {
	switch expected {
	case entity.TypeString:
		_, ok := value.(string)
		return ok
	case entity.TypeNumber:
		return isNumber(value)
	case entity.TypeBoolean:
		_, ok := value.(bool)
		return ok
	case entity.TypeArray:
		_, ok := value.([]any)
		return ok
	case entity.TypeObject:
		_, ok := value.(map[string]any)
		return ok
	}
	return false
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}
