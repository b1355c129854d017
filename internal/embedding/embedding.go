// Package embedding provides clients for the supported embedding providers.
// Every client implements interfaces.EmbeddingModel and reports a
// fingerprint identifying its embedding space, so indexes can refuse
// vectors produced under a different configuration.
package embedding

import (
	"fmt"

	"docuchat/internal/config"
	"docuchat/internal/rag/interfaces"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// New creates the embedding client selected by cfg.
func New(cfg *config.EmbeddingConfig) (interfaces.EmbeddingModel, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case ProviderGemini:
		return NewGeminiModel(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case ProviderOllama:
		return NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unknown embedding provider '%s'", cfg.Provider)
	}
}
