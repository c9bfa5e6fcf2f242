package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultLegacyModel = "gemini-1.5-flash"

// GeminiLegacyProvider talks to Gemini through the older generative-ai-go
// SDK. It has no system instruction slot in every model, so the system
// prompt is folded into the request text.
type GeminiLegacyProvider struct {
	Model string
}

var _ Provider = (*GeminiLegacyProvider)(nil)

func (p *GeminiLegacyProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := optString(options, OptAPIKey, os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return "", missingKey("gemini-legacy", "GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %v", err)
	}
	defer client.Close()

	modelName := optString(options, OptModel, p.Model)
	if modelName == "" {
		modelName = defaultLegacyModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(optFloat(options, OptTemperature, 0.7)))
	model.SetMaxOutputTokens(int32(optInt(options, OptMaxTokens, 1024)))

	fullPrompt := prompt
	if systemPrompt != "" {
		fullPrompt = fmt.Sprintf("%s\n\nTask: %s", p.AdaptInstructions(systemPrompt), prompt)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini-legacy generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini-legacy returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

func (p *GeminiLegacyProvider) AdaptInstructions(raw string) string {
	return strings.TrimSpace(raw)
}
