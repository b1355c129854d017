package pipeline

import (
	"context"
	"fmt"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
	"docuchat/pkg/logger"
)

// embedBatchSize bounds the number of texts sent to the embedding
// provider in a single request.
const embedBatchSize = 64

// IndexingStats summarizes one indexing run.
type IndexingStats struct {
	Documents  int
	Chunks     int
	Characters int
	Dimension  int
}

// IndexingPipeline loads a source, splits it into chunks, embeds the
// chunks and stores them in the vector index.
type IndexingPipeline struct {
	splitter interfaces.Splitter
	embedder interfaces.EmbeddingModel
	index    interfaces.VectorIndex
	log      *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	index interfaces.VectorIndex,
	log *logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		splitter: splitter,
		embedder: embedder,
		index:    index,
		log:      log.WithComponent("indexing"),
	}
}

// Run ingests one source into the index. The loader must match the
// source type; callers resolve it via loaders.ForSource.
func (p *IndexingPipeline) Run(ctx context.Context, loader interfaces.Loader, source string) (*IndexingStats, error) {
	p.log.Info(fmt.Sprintf("starting indexing for source: %s", source))

	docs, err := loader.Load(ctx, source)
	if err != nil {
		p.log.Error(fmt.Sprintf("failed to load source %s: %v", source, err))
		return nil, err
	}
	p.log.Info(fmt.Sprintf("loaded %d documents from %s", len(docs), source))

	characters := 0
	for _, doc := range docs {
		characters += utf8.RuneCountInString(doc.Text)
	}

	chunks, err := p.splitter.Split(ctx, docs)
	if err != nil {
		p.log.Error(fmt.Sprintf("failed to split documents: %v", err))
		return nil, err
	}
	if len(chunks) == 0 {
		p.log.Warn(fmt.Sprintf("source %s produced no chunks", source))
		return &IndexingStats{Documents: len(docs), Characters: characters}, nil
	}
	p.log.Info(fmt.Sprintf("split into %d chunks", len(chunks)))

	if err := p.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	if err := p.index.Add(ctx, chunks); err != nil {
		p.log.Error(fmt.Sprintf("failed to store chunks: %v", err))
		return nil, err
	}

	p.log.Info(fmt.Sprintf("finished indexing %s: %d documents, %d chunks", source, len(docs), len(chunks)))
	return &IndexingStats{
		Documents:  len(docs),
		Chunks:     len(chunks),
		Characters: characters,
		Dimension:  len(chunks[0].Embedding),
	}, nil
}

// embedChunks embeds all chunks in bounded batches. Batches run
// concurrently; each one writes into its own slice range so chunk order
// is preserved.
func (p *IndexingPipeline) embedChunks(ctx context.Context, chunks []*schema.Chunk) error {
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		eg.Go(func() error {
			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Text
			}
			embeddings, err := p.embedder.Embed(gCtx, texts)
			if err != nil {
				return err
			}
			for i, chunk := range batch {
				chunk.Embedding = embeddings[i]
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		p.log.Error(fmt.Sprintf("failed to embed chunks: %v", err))
		return err
	}
	return nil
}
