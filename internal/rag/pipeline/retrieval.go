package pipeline

import (
	"context"
	"fmt"

	"docuchat/internal/apperr"
	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
	"docuchat/pkg/cache"
	"docuchat/pkg/logger"
)

// RetrievalPipeline embeds a query and returns the nearest chunks from
// a vector index. Query embeddings are memoized per embedding space so
// repeated questions do not hit the provider again.
type RetrievalPipeline struct {
	embedder   interfaces.EmbeddingModel
	queryCache *cache.LRU[string, []float32]
	log        *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline. queryCache may
// be nil to disable memoization.
func NewRetrievalPipeline(
	embedder interfaces.EmbeddingModel,
	queryCache *cache.LRU[string, []float32],
	log *logger.Logger,
) *RetrievalPipeline {
	return &RetrievalPipeline{
		embedder:   embedder,
		queryCache: queryCache,
		log:        log.WithComponent("retrieval"),
	}
}

// Run returns up to topK chunks from index ranked by similarity to the
// query. An empty index yields an index-empty error without calling any
// provider beyond the query embedding.
func (p *RetrievalPipeline) Run(ctx context.Context, index interfaces.VectorIndex, query string, topK int) ([]*schema.ScoredChunk, error) {
	if query == "" {
		return nil, apperr.Validation("query must not be empty")
	}
	if topK <= 0 {
		return nil, apperr.Validation("topK must be positive, got %d", topK)
	}

	vector, err := p.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := index.Search(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	p.log.Info(fmt.Sprintf("retrieved %d chunks for query", len(results)))
	return results, nil
}

func (p *RetrievalPipeline) embedQuery(ctx context.Context, query string) ([]float32, error) {
	cacheKey := p.embedder.Fingerprint() + "\x00" + query
	if p.queryCache != nil {
		if vector, ok := p.queryCache.Get(cacheKey); ok {
			p.log.Debug("query embedding served from cache")
			return vector, nil
		}
	}

	embeddings, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		p.log.Error(fmt.Sprintf("failed to embed query: %v", err))
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, apperr.Embedding(nil, "embedder returned no vector for query")
	}

	if p.queryCache != nil {
		p.queryCache.Put(cacheKey, embeddings[0])
	}
	return embeddings[0], nil
}
