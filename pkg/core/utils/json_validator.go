package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ExtractJSONObject returns the first balanced {...} object embedded in text.
// Braces inside string literals are ignored. Models often wrap the object in
// prose or a ```json fence; both are skipped.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		if end, ok := matchBrace(text, start); ok {
			return text[start : end+1], true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace finds the index of the brace closing the one at open.
func matchBrace(text string, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
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
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// Strategy names the parser that accepted a SmartParse input.
type Strategy string

const (
	StrategyJSON   Strategy = "json"
	StrategyRepair Strategy = "repair"
	StrategyHJSON  Strategy = "hjson"
)

// RepairJSON fixes the usual model mistakes: unquoted keys, single quotes,
// trailing commas, unclosed brackets.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair: %w", err)
	}
	return repaired, nil
}

// ParseHJSON converts Hjson (comments, unquoted strings, optional commas) to
// standard JSON.
func ParseHJSON(data string) (string, error) {
	var v any
	if err := hjson.Unmarshal([]byte(data), &v); err != nil {
		return "", fmt.Errorf("hjson parse: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hjson re-encode: %w", err)
	}
	return string(out), nil
}

// SmartParse decodes input into v with strict JSON first, then the repaired
// text, then Hjson. It reports which strategy succeeded.
func SmartParse(input string, v any) (Strategy, error) {
	if err := json.Unmarshal([]byte(input), v); err == nil {
		return StrategyJSON, nil
	}

	fallbacks := []struct {
		name    Strategy
		convert func(string) (string, error)
	}{
		{StrategyRepair, RepairJSON},
		{StrategyHJSON, ParseHJSON},
	}
	var lastErr error
	for _, fb := range fallbacks {
		converted, err := fb.convert(input)
		if err != nil {
			lastErr = err
			continue
		}
		if err := json.Unmarshal([]byte(converted), v); err != nil {
			lastErr = err
			continue
		}
		return fb.name, nil
	}
	return "", fmt.Errorf("no parser accepted input: %w", lastErr)
}
