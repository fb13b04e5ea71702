package llm

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

// GeminiProvider talks to the Gemini API through the official GenAI SDK.
// Temperature is pinned low: rationale drafting wants consistent prose,
// not creativity.
type GeminiProvider struct {
	Model string // defaults to gemini-2.0-flash
}

var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]any) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", eris.New("GEMINI_API_KEY not set")
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if val, ok := options["model"].(string); ok && val != "" {
		model = val
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", eris.Wrap(err, "create genai client")
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}
	if wantsJSON(options) {
		config.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", eris.Wrap(err, "gemini generation")
	}
	return result.Text(), nil
}
