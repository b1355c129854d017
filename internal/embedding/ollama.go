package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"

	"docuchat/internal/apperr"
	"docuchat/internal/rag/interfaces"
)

// OllamaModel is an embedding client for a local Ollama server.
type OllamaModel struct {
	client *ollama.Client
	model  string
}

var _ interfaces.EmbeddingModel = (*OllamaModel)(nil)

// NewOllamaModel creates a new Ollama embedding client. An empty baseURL
// defaults to the local Ollama address.
func NewOllamaModel(model, baseURL string) (*OllamaModel, error) {
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

	return &OllamaModel{client: ollama.NewClient(parsedURL, hc), model: model}, nil
}

// Embed generates embedding vectors for a batch of texts.
func (m *OllamaModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := m.client.Embed(ctx, &ollama.EmbedRequest{
		Model: m.model,
		Input: texts,
	})
	if err != nil {
		return nil, apperr.Embedding(err, "ollama embedding request failed")
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, apperr.Embedding(nil, "ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// Fingerprint identifies the embedding space this client produces.
func (m *OllamaModel) Fingerprint() string {
	return ProviderOllama + "/" + m.model
}
