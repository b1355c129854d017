package loaders

import (
	"context"
	"os"
	"path/filepath"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"

	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
)

// HTMLLoader implements the Loader interface for local HTML files.
// The markup is converted to Markdown so headings and lists survive as
// retrieval context instead of being flattened away.
type HTMLLoader struct{}

// NewHTMLLoader creates a new HTMLLoader.
func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

// Load reads an HTML file, converts it to Markdown and returns a single Document.
func (l *HTMLLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	markdown, err := htmltomarkdown.ConvertString(string(content))
	if err != nil {
		return nil, err
	}

	doc := &schema.Document{
		ID:       uuid.New().String(),
		SourceID: uuid.New().String(),
		Text:     markdown,
		Metadata: map[string]interface{}{
			schema.MetadataKeyFileName: filepath.Base(path),
		},
	}

	return []*schema.Document{doc}, nil
}

// compile-time check to ensure HTMLLoader implements the Loader interface
var _ interfaces.Loader = (*HTMLLoader)(nil)
