// Package llm holds the language model providers behind the debate agents.
package llm

import (
	"context"
	"fmt"
	"sort"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// Option keys understood by every provider.
const (
	OptModel       = "model"
	OptTemperature = "temperature"
	OptMaxTokens   = "max_tokens"
	OptAPIKey      = "api_key"
)

// Registry returns a fresh instance of every built-in provider keyed by the
// name used in config/models.yaml.
func Registry() map[string]Provider {
	return map[string]Provider{
		"gemini":        &GeminiProvider{},
		"gemini-legacy": &GeminiLegacyProvider{},
		"deepseek":      &DeepSeekProvider{},
		"qwen":          &QwenProvider{},
	}
}

// Names lists the built-in provider names, sorted.
func Names() []string {
	names := make([]string, 0, 4)
	for name := range Registry() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func optString(options map[string]interface{}, key, def string) string {
	if val, ok := options[key].(string); ok && val != "" {
		return val
	}
	return def
}

func optFloat(options map[string]interface{}, key string, def float64) float64 {
	switch v := options[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return def
}

func optInt(options map[string]interface{}, key string, def int) int {
	switch v := options[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return def
}

func missingKey(provider, envVar string) error {
	return fmt.Errorf("%s: %s environment variable not set", provider, envVar)
}
