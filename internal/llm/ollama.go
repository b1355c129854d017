package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	olla "github.com/ollama/ollama/api"

	"docuchat/internal/apperr"
	"docuchat/internal/rag/interfaces"
)

// Ollama is a generation client for a local Ollama server.
type Ollama struct {
	client *olla.Client
	model  string
}

var _ interfaces.LLM = (*Ollama)(nil)

// NewOllama creates a new Ollama generation client. An empty baseURL
// defaults to the local Ollama address.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

// Generate sends the prompt without streaming and returns the full
// response text.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	var sb strings.Builder

	err := o.client.Generate(ctx, &olla.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp olla.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", apperr.Generation(err, "ollama generation failed")
	}

	return sb.String(), nil
}
