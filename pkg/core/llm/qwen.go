package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
)

// QwenProvider talks to Alibaba's DashScope text-generation API.
type QwenProvider struct{}

var _ Provider = (*QwenProvider)(nil)

const dashScopeURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

func (p *QwenProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]any) (string, error) {
	apiKey := os.Getenv("DASHSCOPE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("QWEN_API_KEY")
	}
	if val, ok := options["api_key"].(string); ok && val != "" {
		apiKey = val
	}
	if apiKey == "" {
		return "", eris.New("DASHSCOPE_API_KEY not set")
	}

	model := "qwen-max"
	if val, ok := options["model"].(string); ok && val != "" {
		model = val
	}

	reqBody := map[string]any{
		"model": model,
		"input": map[string]any{
			"messages": []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
		},
		"parameters": map[string]any{
			"result_format": "message",
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", eris.Wrap(err, "marshal qwen request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dashScopeURL, bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "build qwen request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "call qwen")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", eris.Errorf("qwen returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Output struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
			Text string `json:"text"` // some endpoints answer in completion form
		} `json:"output"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", eris.Wrap(err, "decode qwen response")
	}
	if parsed.Code != "" {
		return "", eris.Errorf("qwen error %s: %s", parsed.Code, parsed.Message)
	}
	if len(parsed.Output.Choices) > 0 {
		return parsed.Output.Choices[0].Message.Content, nil
	}
	if parsed.Output.Text != "" {
		return parsed.Output.Text, nil
	}
	return "", eris.New("qwen returned an empty response")
}
