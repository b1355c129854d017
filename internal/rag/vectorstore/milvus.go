package vectorstore

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"docuchat/internal/apperr"
	"docuchat/internal/database/milvus"
	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
	"docuchat/pkg/logger"
)

// Field names of the Milvus collection.
const (
	FieldID         = "id"
	FieldIndexID    = "index_id"
	FieldDocumentID = "document_id"
	FieldOrdinal    = "ordinal"
	FieldStart      = "start_offset"
	FieldEnd        = "end_offset"
	FieldText       = "text"
	FieldEmbedding  = "embedding"
)

// MilvusIndex implements the VectorIndex interface on a shared Milvus
// collection, scoping all operations to one index via the index_id field.
// Cosine is delegated to Milvus' COSINE metric so rankings agree with the
// disk backend; equal-score ties are re-broken client side for determinism.
type MilvusIndex struct {
	log        *logger.Logger
	client     client.Client
	collection string
	indexID    string
	dimension  int
}

// NewMilvusIndex creates a VectorIndex adapter for the given index ID.
// dimension may be zero for query-only use; it is fixed on first Add.
func NewMilvusIndex(mc *milvus.Client, collection, indexID string, dimension int, log *logger.Logger) (*MilvusIndex, error) {
	if mc == nil || mc.Conn == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusIndex{
		log:        log,
		client:     mc.Conn,
		collection: collection,
		indexID:    indexID,
		dimension:  dimension,
	}, nil
}

// Add inserts embedded chunks into the collection, creating it on first use.
func (s *MilvusIndex) Add(ctx context.Context, chunks []*schema.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	if s.dimension == 0 {
		s.dimension = len(chunks[0].Embedding)
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	ids := make([]string, len(chunks))
	indexIDs := make([]string, len(chunks))
	docIDs := make([]string, len(chunks))
	ordinals := make([]int64, len(chunks))
	starts := make([]int64, len(chunks))
	ends := make([]int64, len(chunks))
	texts := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))

	for i, c := range chunks {
		if len(c.Embedding) != s.dimension {
			return apperr.Validation(
				"chunk '%s' has dimension %d, index expects %d",
				c.ID, len(c.Embedding), s.dimension,
			)
		}
		ids[i] = c.ID
		indexIDs[i] = s.indexID
		docIDs[i] = c.DocumentID
		ordinals[i] = int64(c.Ordinal)
		starts[i] = int64(c.Start)
		ends[i] = int64(c.End)
		texts[i] = c.Text
		vectors[i] = c.Embedding
	}

	s.log.Info(fmt.Sprintf("Inserting %d chunks into Milvus collection '%s' for index '%s'", len(chunks), s.collection, s.indexID))
	_, err := s.client.Insert(ctx, s.collection, "",
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldIndexID, indexIDs),
		entity.NewColumnVarChar(FieldDocumentID, docIDs),
		entity.NewColumnInt64(FieldOrdinal, ordinals),
		entity.NewColumnInt64(FieldStart, starts),
		entity.NewColumnInt64(FieldEnd, ends),
		entity.NewColumnVarChar(FieldText, texts),
		entity.NewColumnFloatVector(FieldEmbedding, s.dimension, vectors),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunks into milvus: %w", err)
	}
	if err := s.client.Flush(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to flush milvus collection: %w", err)
	}
	return nil
}

// Search performs a cosine similarity search scoped to this index.
func (s *MilvusIndex) Search(ctx context.Context, vector []float32, topK int) ([]*schema.ScoredChunk, error) {
	if topK <= 0 {
		return nil, apperr.Validation("topK must be positive, got %d", topK)
	}

	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.IndexEmpty("index '%s' contains no entries", s.indexID)
	}

	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return nil, fmt.Errorf("failed to load milvus collection: %w", err)
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(10)
	expr := fmt.Sprintf("%s == \"%s\"", FieldIndexID, s.indexID)
	outputFields := []string{FieldID, FieldDocumentID, FieldOrdinal, FieldStart, FieldEnd, FieldText}

	results, err := s.client.Search(
		ctx, s.collection, nil, expr, outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, entity.COSINE, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	var scored []*schema.ScoredChunk
	for _, res := range results {
		chunks, err := resultChunks(res)
		if err != nil {
			return nil, err
		}
		for i, c := range chunks {
			scored = append(scored, &schema.ScoredChunk{Chunk: c, Score: res.Scores[i]})
		}
	}

	reorderTies(scored)
	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// Dimension returns the vector dimension, 0 until the first Add fixes it.
func (s *MilvusIndex) Dimension(ctx context.Context) (int, error) {
	return s.dimension, nil
}

// Count returns the number of chunks stored for this index.
func (s *MilvusIndex) Count(ctx context.Context) (int, error) {
	has, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to check milvus collection: %w", err)
	}
	if !has {
		return 0, nil
	}
	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return 0, fmt.Errorf("failed to load milvus collection: %w", err)
	}

	expr := fmt.Sprintf("%s == \"%s\"", FieldIndexID, s.indexID)
	rs, err := s.client.Query(ctx, s.collection, nil, expr, []string{"count(*)"})
	if err != nil {
		return 0, fmt.Errorf("failed to count milvus entries: %w", err)
	}
	for _, col := range rs {
		if col.Name() == "count(*)" {
			if ic, ok := col.(*entity.ColumnInt64); ok && len(ic.Data()) > 0 {
				return int(ic.Data()[0]), nil
			}
		}
	}
	return 0, nil
}

// DeleteAll removes every chunk belonging to this index.
func (s *MilvusIndex) DeleteAll(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.collection)
	if err != nil || !has {
		return err
	}
	expr := fmt.Sprintf("%s == \"%s\"", FieldIndexID, s.indexID)
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("failed to delete milvus entries: %w", err)
	}
	return nil
}

func (s *MilvusIndex) ensureCollection(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check milvus collection: %w", err)
	}
	if has {
		return nil
	}

	coll := entity.NewSchema().
		WithName(s.collection).
		WithDescription("chunk vectors and text for document indexes").
		WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(FieldIndexID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
		WithField(entity.NewField().WithName(FieldDocumentID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
		WithField(entity.NewField().WithName(FieldOrdinal).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldStart).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldEnd).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dimension)))

	if err := s.client.CreateCollection(ctx, coll, 1); err != nil {
		return fmt.Errorf("failed to create milvus collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
	if err != nil {
		return fmt.Errorf("failed to build milvus index definition: %w", err)
	}
	if err := s.client.CreateIndex(ctx, s.collection, FieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create milvus vector index: %w", err)
	}

	s.log.Info(fmt.Sprintf("Created Milvus collection '%s' (dim=%d)", s.collection, s.dimension))
	return nil
}

// resultChunks converts one Milvus search result into chunks, preserving hit order.
func resultChunks(res client.SearchResult) ([]*schema.Chunk, error) {
	cols := make(map[string]entity.Column, len(res.Fields))
	for _, f := range res.Fields {
		cols[f.Name()] = f
	}

	varchar := func(name string) (*entity.ColumnVarChar, error) {
		c, ok := cols[name].(*entity.ColumnVarChar)
		if !ok {
			return nil, fmt.Errorf("milvus result is missing field '%s'", name)
		}
		return c, nil
	}
	int64s := func(name string) (*entity.ColumnInt64, error) {
		c, ok := cols[name].(*entity.ColumnInt64)
		if !ok {
			return nil, fmt.Errorf("milvus result is missing field '%s'", name)
		}
		return c, nil
	}

	idCol, err := varchar(FieldID)
	if err != nil {
		return nil, err
	}
	docCol, err := varchar(FieldDocumentID)
	if err != nil {
		return nil, err
	}
	textCol, err := varchar(FieldText)
	if err != nil {
		return nil, err
	}
	ordCol, err := int64s(FieldOrdinal)
	if err != nil {
		return nil, err
	}
	startCol, err := int64s(FieldStart)
	if err != nil {
		return nil, err
	}
	endCol, err := int64s(FieldEnd)
	if err != nil {
		return nil, err
	}

	chunks := make([]*schema.Chunk, res.ResultCount)
	for i := 0; i < res.ResultCount; i++ {
		chunks[i] = &schema.Chunk{
			ID:         idCol.Data()[i],
			DocumentID: docCol.Data()[i],
			Ordinal:    int(ordCol.Data()[i]),
			Start:      int(startCol.Data()[i]),
			End:        int(endCol.Data()[i]),
			Text:       textCol.Data()[i],
		}
	}
	return chunks, nil
}

// reorderTies applies the portal's deterministic ordering to equal scores.
func reorderTies(scored []*schema.ScoredChunk) {
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0; j-- {
			a, b := scored[j-1], scored[j]
			if a.Score != b.Score {
				break
			}
			if a.Chunk.DocumentID < b.Chunk.DocumentID {
				break
			}
			if a.Chunk.DocumentID == b.Chunk.DocumentID && a.Chunk.Ordinal <= b.Chunk.Ordinal {
				break
			}
			scored[j-1], scored[j] = b, a
		}
	}
}

// compile-time check to ensure MilvusIndex implements the VectorIndex interface
var _ interfaces.VectorIndex = (*MilvusIndex)(nil)
