package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"genforge-core/internal/domain/entity"
)

// BuildEnhancedPrompt wraps the caller's prompt with structural and quality
// directives plus the target schema. attempt is 1-based; later attempts get a
// reminder that earlier output was rejected.
func BuildEnhancedPrompt(req entity.GenerationRequest, attempt int) string {
	var b strings.Builder

	b.WriteString(req.Prompt)
	b.WriteString("\n\n")
	b.WriteString("Respond with a single JSON object for the function \"")
	b.WriteString(req.FunctionName)
	b.WriteString("\". Do not add commentary or markdown.\n")
	b.WriteString("Quality requirements:\n")
	b.WriteString("- Populate every required field with specific, non-placeholder content.\n")
	b.WriteString("- Use lists for array fields, even when there is only one item.\n")
	b.WriteString("- Prefer detailed values over short ones.\n")

	if len(req.Schema.Required) > 0 {
		fmt.Fprintf(&b, "Required fields: %s\n", strings.Join(req.Schema.Required, ", "))
	}
	if raw, err := json.Marshal(req.Schema); err == nil {
		b.WriteString("Schema: ")
		b.Write(raw)
		b.WriteString("\n")
	}
	if attempt > 1 {
		fmt.Fprintf(&b, "This is attempt %d. The previous answer was rejected; follow the schema exactly.\n", attempt)
	}

	return b.String()
}
