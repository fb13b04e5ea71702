// Package llm abstracts the chat-completion providers used to draft
// Korean rationale text for approval scenarios and report narration. Every
// caller must tolerate provider failure: valuation numbers never depend on
// an LLM response.
package llm

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Provider is one chat-completion backend.
type Provider interface {
	// GenerateResponse returns the model's text for the prompt pair.
	// Recognized options: "model" (string), "response_format"
	// (map with "type": "json_object") and provider-specific keys.
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]any) (string, error)
}

// NewProviderFromEnv selects the provider named by LLM_PROVIDER
// (gemini, deepseek, qwen); gemini when unset.
func NewProviderFromEnv() (Provider, error) {
	name := strings.ToLower(os.Getenv("LLM_PROVIDER"))
	switch name {
	case "", "gemini":
		return &GeminiProvider{}, nil
	case "deepseek":
		return &DeepSeekProvider{}, nil
	case "qwen":
		return &QwenProvider{}, nil
	}
	return nil, eris.Errorf("unknown LLM provider %q", name)
}

// wantsJSON reports whether the caller asked for a JSON object response.
func wantsJSON(options map[string]any) bool {
	format, ok := options["response_format"].(map[string]any)
	return ok && format["type"] == "json_object"
}
