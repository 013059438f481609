package provider

import (
	"fmt"

	"github.com/like-mike/relai-chat/shared/config"
)

// NewProviderFromConfig constructs the OpenAI CompletionProvider from the
// loaded configuration. It fails when no API key is configured.
func NewProviderFromConfig(cfg *config.Config) (CompletionProvider, error) {
	if !cfg.RelayEnabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	return NewOpenAIProvider(Options{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
}
