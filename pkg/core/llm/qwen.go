package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

const qwenURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

// QwenProvider calls the native DashScope text generation API.
type QwenProvider struct {
	BaseURL    string
	HTTPClient *http.Client
}

type qwenRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []Message `json:"messages"`
	} `json:"input"`
	Parameters qwenParameters `json:"parameters"`
}

type qwenParameters struct {
	ResultFormat string  `json:"result_format"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
}

type qwenResponse struct {
	Output struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
		// Older text-generation models answer in output.text
		Text string `json:"text"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (p *QwenProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := optString(options, OptAPIKey, os.Getenv("DASHSCOPE_API_KEY"))
	if apiKey == "" {
		apiKey = os.Getenv("QWEN_API_KEY")
	}
	if apiKey == "" {
		return "", missingKey("qwen", "DASHSCOPE_API_KEY")
	}

	req := qwenRequest{
		Model: optString(options, OptModel, "qwen-max"),
		Parameters: qwenParameters{
			ResultFormat: "message",
			Temperature:  optFloat(options, OptTemperature, 0.7),
			MaxTokens:    optInt(options, OptMaxTokens, 1024),
		},
	}
	req.Input.Messages = chatMessages(systemPrompt, prompt)

	url := p.BaseURL
	if url == "" {
		url = qwenURL
	}
	body, err := postJSON(ctx, p.HTTPClient, "qwen", url, apiKey, req)
	if err != nil {
		return "", err
	}

	var result qwenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("qwen: decode response: %w", err)
	}
	if result.Code != "" {
		return "", fmt.Errorf("qwen: api error %s: %s", result.Code, result.Message)
	}
	if len(result.Output.Choices) > 0 {
		return result.Output.Choices[0].Message.Content, nil
	}
	if result.Output.Text != "" {
		return result.Output.Text, nil
	}
	return "", fmt.Errorf("qwen: empty response")
}

func (p *QwenProvider) AdaptInstructions(raw string) string {
	return raw
}
