// Package llm provides clients for the supported text generation providers.
// Every client implements interfaces.LLM with a single prompt-in,
// answer-out call.
package llm

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

// New creates the generation client selected by cfg.
func New(cfg *config.LLMConfig) (interfaces.LLM, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey)
	case ProviderGemini:
		return NewGemini(cfg.Gemini.Model, cfg.Gemini.APIKey)
	case ProviderOllama:
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unknown llm provider '%s'", cfg.Provider)
	}
}
