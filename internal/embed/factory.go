package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/civigraph/resolve/internal/config"
)

// NewClient builds an embedding client from configuration. An empty provider
// returns (nil, nil): the caller falls back to the built-in TF-IDF index.
func NewClient(ctx context.Context, cfg config.EmbeddingConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil

	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)

	case "ollama":
		// Ollama speaks the OpenAI-compatible API; the key is ignored but the
		// client config requires one.
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, cfg.Model, baseURL), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
