package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docuchat/internal/apperr"
	"docuchat/internal/rag/interfaces"
)

// GeminiModel is an embedding client for the Google GenAI API.
type GeminiModel struct {
	model     *genai.EmbeddingModel
	modelName string
}

var _ interfaces.EmbeddingModel = (*GeminiModel)(nil)

// NewGeminiModel creates a new Google GenAI embedding client.
func NewGeminiModel(apiKey, modelName string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiModel{
		model:     client.EmbeddingModel(modelName),
		modelName: modelName,
	}, nil
}

// Embed generates embedding vectors for a batch of texts.
func (m *GeminiModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	batch := m.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := m.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, apperr.Embedding(err, "gemini embedding request failed")
	}
	if len(res.Embeddings) != len(texts) {
		return nil, apperr.Embedding(nil, "gemini returned %d embeddings for %d inputs", len(res.Embeddings), len(texts))
	}

	embeddings := make([][]float32, 0, len(res.Embeddings))
	for _, emb := range res.Embeddings {
		embeddings = append(embeddings, emb.Values)
	}
	return embeddings, nil
}

// Fingerprint identifies the embedding space this client produces.
func (m *GeminiModel) Fingerprint() string {
	return ProviderGemini + "/" + m.modelName
}
