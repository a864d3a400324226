// Package extract locates the answer text inside a free-form upstream reply.
//
// The workflow engine gives no output contract: the answer may sit under any
// of several well-known keys, inside a nested message object, or as the first
// element of an output array. Extraction is an ordered list of strategies
// tried in a fixed priority; the order is load-bearing for deployed
// workflows and must not change.
package extract

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// echoField is the upstream's name for the echoed request input.
const echoField = "chatInput"

// minFallbackLen is the shortest top-level string the last-chance scan will
// accept as an answer.
const minFallbackLen = 20

// strategy attempts to pull the answer out of a decoded JSON object.
type strategy func(obj map[string]any) (string, bool)

// stringKey returns a strategy matching a non-empty string at a top-level key.
func stringKey(key string) strategy {
	return func(obj map[string]any) (string, bool) {
		s, ok := obj[key].(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	}
}

// nestedMessageContent matches {"message": {"content": "..."}}.
func nestedMessageContent(obj map[string]any) (string, bool) {
	msg, ok := obj["message"].(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := msg["content"].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// outputArrayKey matches {"output": [{"<key>": "..."}]}.
func outputArrayKey(key string) strategy {
	return func(obj map[string]any) (string, bool) {
		arr, ok := obj["output"].([]any)
		if !ok || len(arr) == 0 {
			return "", false
		}
		first, ok := arr[0].(map[string]any)
		if !ok {
			return "", false
		}
		s, ok := first[key].(string)
		if !ok || s == "" {
			return "", false
		}
		return s, true
	}
}

// priority order is fixed; see package comment.
var strategies = []strategy{
	stringKey("text"),
	stringKey("output"),
	stringKey("message"),
	stringKey("result"),
	stringKey("response"),
	stringKey("data"),
	nestedMessageContent,
	outputArrayKey("text"),
	outputArrayKey("message"),
}

// Content resolves the answer text from a raw upstream reply body.
//
// Resolution order: the declared strategy list, then an input-echo check
// (echo-only objects yield an empty answer), then any top-level string
// longer than 20 characters that is not the echoed input, then the raw body
// verbatim. Non-JSON bodies are returned trimmed as-is.
func Content(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil || obj == nil {
		return trimmed
	}

	for _, try := range strategies {
		if s, ok := try(obj); ok {
			return s
		}
	}

	echo, _ := obj[echoField].(string)
	if echo != "" && len(obj) <= 2 {
		return ""
	}

	for _, s := range topLevelStrings(trimmed) {
		if utf8.RuneCountInString(strings.TrimSpace(s)) > minFallbackLen && s != echo {
			return s
		}
	}

	return trimmed
}

// topLevelStrings returns the top-level string values of a JSON object in
// the order their keys appear in the document. The last-chance scan is a
// first-match rule, so iteration over a Go map would make the result depend
// on map ordering.
func topLevelStrings(raw string) []string {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var values []string
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return values
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return values
		}
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			values = append(values, s)
		}
	}
	return values
}
