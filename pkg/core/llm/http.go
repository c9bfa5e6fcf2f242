package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Message is one chat turn in the OpenAI-style message list.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatMessages puts the persona first when there is one.
func chatMessages(systemPrompt, prompt string) []Message {
	messages := make([]Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	return append(messages, Message{Role: "user", Content: prompt})
}

// postJSON sends body to url with a bearer key and returns the raw response
// body. Non-200 answers are errors carrying the status and body.
func postJSON(ctx context.Context, client *http.Client, provider, url, apiKey string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: api call failed: %w", provider, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", provider, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: api returned status=%d body=%s", provider, res.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}
