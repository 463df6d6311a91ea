package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// RESPONSE PARSING - Pulling JSON out of LLM prose
// =============================================================================

// ExtractJSON pulls a JSON object out of an LLM response. Models are asked
// for bare JSON but routinely wrap it in code fences or commentary, so
// extraction tries progressively looser methods:
//
//  1. ```json code fence
//  2. generic ``` code fence
//  3. first balanced {...} object
//  4. the raw text as-is
//
// The first candidate that is valid JSON wins.
func ExtractJSON(response string) ([]byte, error) {
	text := strings.TrimSpace(response)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	candidates := []func(string) string{
		func(t string) string { return extractBetween(t, "```json", "```") },
		func(t string) string { return extractBetween(t, "```", "```") },
		extractObject,
		func(t string) string { return t },
	}

	for _, method := range candidates {
		candidate := method(text)
		if candidate == "" {
			continue
		}
		if json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}

	preview := text
	if len(preview) > 200 {
		preview = preview[:200]
	}
	return nil, fmt.Errorf("could not parse JSON from response; preview: %s", preview)
}

// extractBetween returns the text between the first start marker and the
// next end marker, or "" when the markers are absent.
func extractBetween(text, start, end string) string {
	i := strings.Index(text, start)
	if i == -1 {
		return ""
	}
	rest := text[i+len(start):]
	j := strings.Index(rest, end)
	if j == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:j])
}

// extractObject returns the first brace-balanced JSON object in the text.
func extractObject(text string) string {
	first := strings.IndexByte(text, '{')
	if first == -1 {
		return ""
	}
	depth := 0
	for i := first; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[first : i+1]
			}
		}
	}
	return ""
}
