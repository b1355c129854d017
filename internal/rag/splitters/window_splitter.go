package splitters

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
)

// WindowSplitter cuts documents into fixed-size rune windows with overlap.
// Offsets are exact rune positions, so chunks can always be mapped back to
// the source text and reassembled without losing a character.
type WindowSplitter struct {
	ChunkSize    int // window size in runes
	ChunkOverlap int // runes shared between consecutive windows
}

// NewWindowSplitter creates a new WindowSplitter.
// Requires 0 <= chunkOverlap < chunkSize.
func NewWindowSplitter(chunkSize, chunkOverlap int) (*WindowSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, chunkOverlap)
	}
	return &WindowSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}, nil
}

// Split cuts each document into overlapping windows. Ordinals are assigned
// per source document and increase across that source's pages, so retrieval
// ties can be broken by original position. Offsets are relative to the
// concatenation of the source's page texts.
func (s *WindowSplitter) Split(ctx context.Context, docs []*schema.Document) ([]*schema.Chunk, error) {
	var chunks []*schema.Chunk

	// Running ordinal and offset per source document.
	ordinals := make(map[string]int)
	offsets := make(map[string]int)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		runes := []rune(doc.Text)
		base := offsets[doc.SourceID]
		offsets[doc.SourceID] = base + len(runes)

		if strings.TrimSpace(doc.Text) == "" {
			continue
		}

		step := s.ChunkSize - s.ChunkOverlap
		for start := 0; start < len(runes); start += step {
			end := start + s.ChunkSize
			if end > len(runes) {
				end = len(runes)
			}

			ordinal := ordinals[doc.SourceID]
			ordinals[doc.SourceID] = ordinal + 1

			chunks = append(chunks, &schema.Chunk{
				ID:         uuid.New().String(),
				DocumentID: doc.SourceID,
				Ordinal:    ordinal,
				Start:      base + start,
				End:        base + end,
				Text:       string(runes[start:end]),
				Metadata:   copyMetadata(doc.Metadata),
			})

			if end == len(runes) {
				break
			}
		}
	}

	return chunks, nil
}

func copyMetadata(md map[string]interface{}) map[string]interface{} {
	newMd := make(map[string]interface{}, len(md))
	for k, v := range md {
		newMd[k] = v
	}
	return newMd
}

// compile-time check to ensure WindowSplitter implements the Splitter interface
var _ interfaces.Splitter = (*WindowSplitter)(nil)
