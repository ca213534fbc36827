// theia/services/llm/openrouter_client.go
package llm

import (
	"context"
	"fmt"
	"strings"

	httputils "theia/theia/utils/http"
	"theia/theia/utils/logging"
)

type OpenRouterClient struct {
	baseURL string
	apiKey  string
	appURL  string
}

// NewOpenRouterClient returns a client pointing at the OpenRouter chat
// endpoint (OpenAI-compatible wire format).
func NewOpenRouterClient(apiKey, appURL string) *OpenRouterClient {
	return &OpenRouterClient{
		baseURL: "https://openrouter.ai/api/v1",
		apiKey:  apiKey,
		appURL:  appURL,
	}
}

// Generate runs one non-streaming completion. The Theia system prompt is
// prepended to every call; an empty completion is treated as a failure.
func (c *OpenRouterClient) Generate(ctx context.Context, messages []Message, model string) (string, error) {
	defer logging.LogDuration(ctx, "openrouter_generate")()

	if model == "" {
		return "", fmt.Errorf("no model selected")
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req := ChatRequest{
		Model:    model,
		Messages: append([]Message{{Role: "system", Content: SystemPrompt}}, messages...),
	}

	var resp struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}

	headers := map[string]string{
		"HTTP-Referer": c.appURL,
		"X-Title":      "Theia AI Chatbot",
	}
	if err := httputils.PostJSONWithAuth(url, c.apiKey, headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("received an empty or invalid response from AI")
	}
	return text, nil
}
