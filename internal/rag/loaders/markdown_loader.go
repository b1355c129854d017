package loaders

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
)

// MarkdownLoader implements the Loader interface for Markdown (.md) files.
// The markup is kept as-is; headings and emphasis markers carry structure
// that is useful retrieval context.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a new MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// Load reads a Markdown file and returns it as a single Document.
func (l *MarkdownLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := &schema.Document{
		ID:       uuid.New().String(),
		SourceID: uuid.New().String(),
		Text:     string(content),
		Metadata: map[string]interface{}{
			schema.MetadataKeyFileName: filepath.Base(path),
		},
	}

	return []*schema.Document{doc}, nil
}

// compile-time check to ensure MarkdownLoader implements the Loader interface
var _ interfaces.Loader = (*MarkdownLoader)(nil)
