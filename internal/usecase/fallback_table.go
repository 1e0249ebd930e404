package usecase

import "genforge-core/internal/domain/entity"

// fallbackTable holds the minimal payload served for each structured function
// when no provider produced an acceptable answer. Entries are never handed out
// directly; DeterministicPayload returns a copy.
var fallbackTable = map[string]map[string]any{
	"analyze_app_intent": {
		"category":       "utility",
		"primaryPurpose": "General purpose application",
		"targetUsers":    []any{"General users"},
		"keyFeatures":    []any{"Data management", "User-friendly interface"},
		"dataToManage":   []any{"Records"},
		"urgency":        "medium",
		"complexity":     "moderate",
	},
	"generate_data_schema": {
		"entities": []any{
			map[string]any{
				"name": "Item",
				"fields": []any{
					map[string]any{"name": "id", "type": "string", "required": true},
					map[string]any{"name": "title", "type": "string", "required": true},
					map[string]any{"name": "description", "type": "string", "required": false},
					map[string]any{"name": "createdAt", "type": "date", "required": true},
				},
			},
		},
		"relationships": []any{},
	},
	"generate_ui_config": {
		"layout":     "dashboard",
		"theme":      map[string]any{"primaryColor": "#3b82f6", "mode": "light"},
		"navigation": []any{"Home", "Items", "Settings"},
		"components": []any{"list", "form", "detail"},
	},
	"generate_page_code": {
		"pageName":   "Home",
		"components": []any{"Header", "ItemList"},
		"code":       "export default function Home() {\n  return <main><h1>My App</h1></main>;\n}\n",
	},
}

var genericFallback = map[string]any{
	"status":  "fallback",
	"message": "Generated with default values",
}

// DeterministicPayload returns the fallback payload for functionName, shaped
// to the schema by the sanitizer. It cannot fail and equal inputs produce equal
// payloads.
func DeterministicPayload(functionName string, schema entity.Schema) map[string]any {
	base, ok := fallbackTable[functionName]
	if !ok {
		base = genericFallback
	}
	data, _ := Sanitize(cloneValue(base).(map[string]any), schema)
	return data
}
