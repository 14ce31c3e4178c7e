package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

// strips markdown code fences from a model answer
func cleanJSONResponse(s string) string {
	s = jsonBlockRegex.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
}

// fixInvalidEscapes doubles the backslash of escapes JSON does not know
// (models like to echo ASS line breaks as \N) so the literal survives decoding.
func fixInvalidEscapes(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			out.WriteByte(s[i])
			continue
		}
		switch next := s[i+1]; next {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
			out.WriteByte('\\')
			out.WriteByte(next)
		default:
			out.WriteString(`\\`)
			out.WriteByte(next)
		}
		i++
	}
	return out.String()
}

// resultKeys are the wrapper fields models tend to invent around the array
var resultKeys = []string{"results", "translations", "data", "items"}

// extractTranslationResults scans for the first JSON value that decodes to
// translation results, skipping any preamble the model wrote.
func extractTranslationResults(text string) ([]TranslationResult, error) {
	text = fixInvalidEscapes(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if results, ok := tryExtractResults(raw); ok {
			return results, nil
		}
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

func tryExtractResults(raw json.RawMessage) ([]TranslationResult, bool) {
	if results, ok := decodeResults(raw); ok {
		return results, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}
	for _, key := range resultKeys {
		if results, ok := decodeResults(wrapper[key]); ok {
			return results, true
		}
	}
	for _, field := range wrapper {
		if results, ok := decodeResults(field); ok {
			return results, true
		}
	}
	return nil, false
}

func decodeResults(raw json.RawMessage) ([]TranslationResult, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var results []TranslationResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false
	}
	return results, validateResults(results)
}

// at least one non-empty text, otherwise the match is likely not ours
func validateResults(results []TranslationResult) bool {
	for _, r := range results {
		if r.Text != "" {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
