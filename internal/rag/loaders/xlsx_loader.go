package loaders

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
)

// XlsxLoader implements the Loader interface for Excel (.xlsx) files.
// Each sheet is rendered as a Markdown table and returned as its own Document.
type XlsxLoader struct{}

// NewXlsxLoader creates a new XlsxLoader.
func NewXlsxLoader() *XlsxLoader {
	return &XlsxLoader{}
}

// Load reads an .xlsx file and returns a Document per sheet.
func (l *XlsxLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sourceID := uuid.New().String()
	fileName := filepath.Base(path)

	var documents []*schema.Document
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			// Skip sheets whose rows cannot be read.
			continue
		}

		var mdBuilder strings.Builder
		if len(rows) > 0 {
			mdBuilder.WriteString("| " + strings.Join(rows[0], " | ") + " |\n")
			mdBuilder.WriteString("|" + strings.Repeat(" --- |", len(rows[0])) + "\n")
			for _, row := range rows[1:] {
				mdBuilder.WriteString("| " + strings.Join(row, " | ") + " |\n")
			}
		}

		documents = append(documents, &schema.Document{
			ID:       uuid.New().String(),
			SourceID: sourceID,
			Text:     mdBuilder.String(),
			Metadata: map[string]interface{}{
				schema.MetadataKeyFileName:  fileName,
				schema.MetadataKeySheetName: sheetName,
			},
		})
	}

	return documents, nil
}

// compile-time check to ensure XlsxLoader implements the Loader interface
var _ interfaces.Loader = (*XlsxLoader)(nil)
