package loaders

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
)

// PdfLoader implements the Loader interface for PDF files. It extracts the
// plain text of each page and returns one Document per page.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load reads a PDF file and returns a Document for each page.
func (l *PdfLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf '%s': %w", path, err)
	}
	defer f.Close()

	sourceID := uuid.New().String()
	fileName := filepath.Base(path)

	var documents []*schema.Document
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d of '%s': %w", i, fileName, err)
		}

		documents = append(documents, &schema.Document{
			ID:       uuid.New().String(),
			SourceID: sourceID,
			Text:     text,
			Metadata: map[string]interface{}{
				schema.MetadataKeyFileName:  fileName,
				schema.MetadataKeyPageLabel: fmt.Sprintf("%d", i),
			},
		})
	}

	return documents, nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
