// Package vectorstore provides the portal's VectorIndex backends: a flat
// on-disk store used by default and a Milvus-backed store for served setups.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"docuchat/internal/apperr"
	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
)

const (
	// MetricCosine is the similarity metric recorded in every manifest.
	MetricCosine = "cosine"

	indexFileName = "index.json"
)

// Manifest describes an on-disk index. The embedder fingerprint pins the
// embedding space: vectors from a differently configured embedder must not
// be mixed into or queried against this index.
type Manifest struct {
	IndexID     string    `json:"index_id"`
	Fingerprint string    `json:"fingerprint"`
	Dimension   int       `json:"dimension"`
	Metric      string    `json:"metric"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// entryRecord is the persisted form of one chunk.
type entryRecord struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	Ordinal    int                    `json:"ordinal"`
	Start      int                    `json:"start"`
	End        int                    `json:"end"`
	Text       string                 `json:"text"`
	Vector     []float32              `json:"vector"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// indexFile is the JSON document written to disk.
type indexFile struct {
	Manifest Manifest      `json:"manifest"`
	Entries  []entryRecord `json:"entries"`
}

// DiskIndex is a persisted flat vector index. Reads are lock-shared;
// writes rewrite the whole file atomically (temp file + rename).
type DiskIndex struct {
	mu       sync.RWMutex
	path     string
	manifest Manifest
	entries  []entryRecord
}

func indexPath(dataDir, indexID string) string {
	return filepath.Join(dataDir, indexID, indexFileName)
}

// Create initializes a new empty index for the given embedder fingerprint.
func Create(dataDir, indexID, fingerprint string) (*DiskIndex, error) {
	now := time.Now().UTC()
	idx := &DiskIndex{
		path: indexPath(dataDir, indexID),
		manifest: Manifest{
			IndexID:     indexID,
			Fingerprint: fingerprint,
			Metric:      MetricCosine,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	if err := os.MkdirAll(filepath.Dir(idx.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := idx.save(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Open loads an existing index from disk.
func Open(dataDir, indexID string) (*DiskIndex, error) {
	path := indexPath(dataDir, indexID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("index '%s' has no data on disk", indexID)
		}
		return nil, fmt.Errorf("failed to read index file '%s': %w", path, err)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse index file '%s': %w", path, err)
	}

	return &DiskIndex{
		path:     path,
		manifest: file.Manifest,
		entries:  file.Entries,
	}, nil
}

// Delete removes an index directory and everything in it.
func Delete(dataDir, indexID string) error {
	return os.RemoveAll(filepath.Join(dataDir, indexID))
}

// Manifest returns a copy of the index manifest.
func (d *DiskIndex) Manifest() Manifest {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.manifest
}

// Add appends embedded chunks and persists the index. The first added batch
// fixes the index dimension; later batches must match it.
func (d *DiskIndex) Add(ctx context.Context, chunks []*schema.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return apperr.Validation("chunk '%s' has no embedding", c.ID)
		}
		if d.manifest.Dimension == 0 {
			d.manifest.Dimension = len(c.Embedding)
		}
		if len(c.Embedding) != d.manifest.Dimension {
			return apperr.Validation(
				"chunk '%s' has dimension %d, index expects %d",
				c.ID, len(c.Embedding), d.manifest.Dimension,
			)
		}
		d.entries = append(d.entries, entryRecord{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			Ordinal:    c.Ordinal,
			Start:      c.Start,
			End:        c.End,
			Text:       c.Text,
			Vector:     c.Embedding,
			Metadata:   c.Metadata,
		})
	}

	d.manifest.UpdatedAt = time.Now().UTC()
	return d.save()
}

// Search returns the topK nearest chunks by cosine similarity. Ties break by
// document ID, then by chunk ordinal, so results are fully deterministic.
func (d *DiskIndex) Search(ctx context.Context, vector []float32, topK int) ([]*schema.ScoredChunk, error) {
	if topK <= 0 {
		return nil, apperr.Validation("topK must be positive, got %d", topK)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.entries) == 0 {
		return nil, apperr.IndexEmpty("index '%s' contains no entries", d.manifest.IndexID)
	}
	if len(vector) != d.manifest.Dimension {
		return nil, apperr.Validation(
			"query vector has dimension %d, index expects %d",
			len(vector), d.manifest.Dimension,
		)
	}

	scored := make([]*schema.ScoredChunk, 0, len(d.entries))
	for i := range d.entries {
		e := &d.entries[i]
		scored = append(scored, &schema.ScoredChunk{
			Chunk: entryToChunk(e),
			Score: cosine(vector, e.Vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Chunk.DocumentID != scored[j].Chunk.DocumentID {
			return scored[i].Chunk.DocumentID < scored[j].Chunk.DocumentID
		}
		return scored[i].Chunk.Ordinal < scored[j].Chunk.Ordinal
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// Count returns the number of stored entries.
func (d *DiskIndex) Count(ctx context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries), nil
}

// Dimension returns the vector dimension, 0 until the first Add fixes it.
func (d *DiskIndex) Dimension(ctx context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.manifest.Dimension, nil
}

// save writes the index file atomically. Callers must hold the write lock.
func (d *DiskIndex) save() error {
	data, err := json.Marshal(indexFile{Manifest: d.manifest, Entries: d.entries})
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

func entryToChunk(e *entryRecord) *schema.Chunk {
	return &schema.Chunk{
		ID:         e.ID,
		DocumentID: e.DocumentID,
		Ordinal:    e.Ordinal,
		Start:      e.Start,
		End:        e.End,
		Text:       e.Text,
		Embedding:  e.Vector,
		Metadata:   e.Metadata,
	}
}

func cosine(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// compile-time check to ensure DiskIndex implements the VectorIndex interface
var _ interfaces.VectorIndex = (*DiskIndex)(nil)
