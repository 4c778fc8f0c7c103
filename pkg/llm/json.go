package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no parseable JSON payload can be recovered from a response.
var ErrNoJSON = errors.New("no valid JSON found in response")

// thinkTagPattern matches <think>...</think> tags that may appear at the start of model responses.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// codeFencePattern matches markdown code fence markers with an optional language tag.
var codeFencePattern = regexp.MustCompile("```[a-zA-Z]*")

// ExtractJSON recovers the JSON payload from a model response that may wrap it in
// <think> tags, markdown code fences or surrounding prose.
//
// The payload is taken from the first opening brace to the last closing brace. When a
// '[' appears before the first '{' the array span is tried first, so a bare list of
// objects is not mistaken for its first element.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	cleaned = codeFencePattern.ReplaceAllString(cleaned, "")

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	spans := [][2]byte{{'{', '}'}, {'[', ']'}}
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		spans[0], spans[1] = spans[1], spans[0]
	}

	for _, span := range spans {
		if jsonStr, ok := outermostSpan(cleaned, span[0], span[1]); ok && json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
		// Prose after the payload may itself contain braces; fall back to the first
		// balanced structure.
		if jsonStr, ok := extractBalancedJSON(cleaned, span[0], span[1]); ok && json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}

	trimmed := strings.TrimSpace(cleaned)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", ErrNoJSON
}

// outermostSpan returns the text from the first openChar to the last closeChar.
func outermostSpan(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	end := strings.LastIndexByte(s, closeChar)
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// extractBalancedJSON finds the first balanced JSON structure starting with openChar.
// It handles nested structures by counting bracket depth and skips brackets inside strings.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into the target.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}

	return result, nil
}
