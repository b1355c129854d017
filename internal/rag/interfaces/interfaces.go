package interfaces

import (
	"context"

	"docuchat/internal/rag/schema"
)

// Loader converts a source (file path or URL) into a list of Documents.
type Loader interface {
	Load(ctx context.Context, path string) ([]*schema.Document, error)
}

// Splitter cuts loaded Documents into retrieval-sized Chunks.
type Splitter interface {
	Split(ctx context.Context, docs []*schema.Document) ([]*schema.Chunk, error)
}

// EmbeddingModel is the capability interface for a text embedding provider.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Fingerprint identifies the embedding space ("provider/model"). Chunks
	// embedded under different fingerprints must never share an index.
	Fingerprint() string
}

// LLM is the capability interface for a text generation provider.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorIndex stores chunk vectors plus chunk text and supports
// nearest-neighbour lookup. Implementations must return results ordered by
// score descending with deterministic tie-breaking.
type VectorIndex interface {
	Add(ctx context.Context, chunks []*schema.Chunk) error
	Search(ctx context.Context, vector []float32, topK int) ([]*schema.ScoredChunk, error)
	Count(ctx context.Context) (int, error)
	// Dimension reports the vector dimension of the index, 0 until the
	// first Add fixes it.
	Dimension(ctx context.Context) (int, error)
}
