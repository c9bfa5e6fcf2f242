package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

const deepSeekURL = "https://api.deepseek.com/chat/completions"

// DeepSeekProvider calls the OpenAI-compatible DeepSeek chat API.
type DeepSeekProvider struct {
	// BaseURL overrides the chat completions endpoint.
	BaseURL    string
	HTTPClient *http.Client
}

type DeepSeekRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
}

type DeepSeekResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (p *DeepSeekProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := optString(options, OptAPIKey, os.Getenv("DEEPSEEK_API_KEY"))
	if apiKey == "" {
		return "", missingKey("deepseek", "DEEPSEEK_API_KEY")
	}

	url := p.BaseURL
	if url == "" {
		url = deepSeekURL
	}
	body, err := postJSON(ctx, p.HTTPClient, "deepseek", url, apiKey, DeepSeekRequest{
		Messages:    chatMessages(systemPrompt, prompt),
		Model:       optString(options, OptModel, "deepseek-chat"),
		MaxTokens:   optInt(options, OptMaxTokens, 1024),
		Temperature: optFloat(options, OptTemperature, 1.0),
	})
	if err != nil {
		return "", err
	}

	var response DeepSeekResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("deepseek: decode response: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("deepseek: no choices in response: %s", body)
	}
	return response.Choices[0].Message.Content, nil
}

// AdaptInstructions is the identity: DeepSeek follows plain system prompts.
func (p *DeepSeekProvider) AdaptInstructions(raw string) string {
	return raw
}
