package usecase

import (
	"encoding/json"
	"fmt"
	"sort"

	"genforge-core/internal/domain/entity"
)

// ExtractJSONObject returns the first well-formed JSON object embedded in text,
// ordered by where the object opens. Markdown fences and prose around the
// object are ignored.
func ExtractJSONObject(text string) (map[string]any, error) {
	for _, span := range braceSpans(text) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(text[span.start:span.end+1]), &obj); err == nil {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("%w (%d bytes scanned)", entity.ErrParseFailure, len(text))
}

type span struct {
	start, end int
}

// braceSpans finds every balanced {...} pair in one pass. Braces inside string
// literals of an open object do not count. A string that is never closed would swallow the rest
// of the text, so the scan resumes after its opening quote with string
// tracking switched off.
func braceSpans(text string) []span {
	var (
		spans     []span
		open      []int
		inString  bool
		escaped   bool
		lastQuote int
		noStrings bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			if inString && i == len(text)-1 {
				// The stack and spans do not change inside a string, so they
				// are still as they were at lastQuote.
				inString, escaped, noStrings = false, false, true
				i = lastQuote
			}
			continue
		}
		switch c {
		case '"':
			// Quotes in prose outside any object are not string delimiters.
			if !noStrings && len(open) > 0 && i < len(text)-1 {
				inString = true
				lastQuote = i
			}
		case '{':
			open = append(open, i)
		case '}':
			if n := len(open); n > 0 {
				spans = append(spans, span{start: open[n-1], end: i})
				open = open[:n-1]
			}
		}
	}

	sort.Slice(spans, func(a, b int) bool { return spans[a].start < spans[b].start })
	return spans
}
