// Package portal orchestrates the document portal: index lifecycle,
// document ingestion, grounded question answering, and the standalone
// analyze and compare operations.
package portal

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"docuchat/internal/apperr"
	"docuchat/internal/config"
	milvusdb "docuchat/internal/database/milvus"
	"docuchat/internal/lock"
	"docuchat/internal/rag/analyze"
	"docuchat/internal/rag/compare"
	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/loaders"
	"docuchat/internal/rag/pipeline"
	"docuchat/internal/rag/schema"
	"docuchat/internal/rag/splitters"
	"docuchat/internal/rag/vectorstore"
	"docuchat/internal/registry"
	"docuchat/internal/staging"
	"docuchat/pkg/cache"
	"docuchat/pkg/circuitbreaker"
	"docuchat/pkg/logger"
)

// Registry is the slice of the index registry the service uses.
// *registry.Registry satisfies it.
type Registry interface {
	CreateIndex(ctx context.Context, name, fingerprint string) (*registry.Index, error)
	GetIndex(ctx context.Context, name string) (*registry.Index, error)
	ListIndexes(ctx context.Context) ([]*registry.Index, error)
	DeleteIndex(ctx context.Context, name string) error
	AddDocument(ctx context.Context, indexID uint, doc *registry.IndexDocument, chunksAdded int) error
	SetDimension(ctx context.Context, indexID uint, dimension int) error
}

var _ Registry = (*registry.Registry)(nil)

// Options carries the dependencies of the Service. Milvus may be nil
// when the disk vector store is configured; Lock may be nil for single
// instance deployments.
type Options struct {
	Config   *config.AppConfig
	Registry Registry
	Lock     *lock.BuildLock
	Staging  staging.Store
	Embedder interfaces.EmbeddingModel
	LLM      interfaces.LLM
	Milvus   *milvusdb.Client
	Log      *logger.Logger
}

// Service implements the portal operations.
type Service struct {
	cfg      *config.AppConfig
	registry Registry
	lock     *lock.BuildLock
	staging  staging.Store
	embedder interfaces.EmbeddingModel
	llm      interfaces.LLM
	milvus   *milvusdb.Client

	splitter  interfaces.Splitter
	retrieval *pipeline.RetrievalPipeline
	qa        *pipeline.QAPipeline
	analyzer  *analyze.Analyzer
	comparer  *compare.Comparer
	log       *logger.Logger
}

// BuildReport summarizes one ingestion run.
type BuildReport struct {
	DocumentsAdded int `json:"documentsAdded"`
	ChunksAdded    int `json:"chunksAdded"`
}

// NewService wires the pipelines and provider guards.
func NewService(opts Options) (*Service, error) {
	cfg := opts.Config

	embedder := opts.Embedder
	llm := opts.LLM
	callTimeout := time.Duration(cfg.RAG.CallTimeout) * time.Second

	var breakerEmbed, breakerGen *circuitbreaker.Breaker
	if cfg.Middleware.CircuitBreaker.Enabled {
		cooldown, err := time.ParseDuration(cfg.Middleware.CircuitBreaker.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid circuit breaker timeout '%s': %w", cfg.Middleware.CircuitBreaker.Timeout, err)
		}
		breakerEmbed = circuitbreaker.New(
			cfg.Middleware.CircuitBreaker.FailureThreshold,
			cfg.Middleware.CircuitBreaker.SuccessThreshold,
			cooldown,
		)
		breakerGen = circuitbreaker.New(
			cfg.Middleware.CircuitBreaker.FailureThreshold,
			cfg.Middleware.CircuitBreaker.SuccessThreshold,
			cooldown,
		)
	}
	embedder = &guardedEmbedder{inner: embedder, breaker: breakerEmbed, timeout: callTimeout}
	llm = &guardedLLM{inner: llm, breaker: breakerGen, timeout: callTimeout}

	splitter, err := splitters.NewWindowSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	queryCache, err := cache.NewLRU[string, []float32](256, 10*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:       cfg,
		registry:  opts.Registry,
		lock:      opts.Lock,
		staging:   opts.Staging,
		embedder:  embedder,
		llm:       llm,
		milvus:    opts.Milvus,
		splitter:  splitter,
		retrieval: pipeline.NewRetrievalPipeline(embedder, queryCache, opts.Log),
		qa:        pipeline.NewQAPipeline(llm, opts.Log),
		analyzer:  analyze.NewAnalyzer(llm, opts.Log),
		comparer:  compare.NewComparer(opts.Log),
		log:       opts.Log.WithComponent("portal"),
	}, nil
}

// CreateIndex registers a new empty index bound to the current
// embedding fingerprint.
func (s *Service) CreateIndex(ctx context.Context, name string) (*registry.Index, error) {
	if err := validateIndexName(name); err != nil {
		return nil, err
	}

	idx, err := s.registry.CreateIndex(ctx, name, s.embedder.Fingerprint())
	if err != nil {
		return nil, err
	}

	if s.cfg.RAG.VectorStore == "disk" {
		if _, err := vectorstore.Create(s.cfg.RAG.DataDir, name, s.embedder.Fingerprint()); err != nil {
			return nil, err
		}
	}

	s.log.Info(fmt.Sprintf("created index '%s' (%s)", name, s.embedder.Fingerprint()))
	return idx, nil
}

// ListIndexes returns all registered indexes.
func (s *Service) ListIndexes(ctx context.Context) ([]*registry.Index, error) {
	return s.registry.ListIndexes(ctx)
}

// DeleteIndex removes an index, its registry records and its vectors.
func (s *Service) DeleteIndex(ctx context.Context, name string) error {
	idx, err := s.registry.GetIndex(ctx, name)
	if err != nil {
		return err
	}

	if s.cfg.RAG.VectorStore == "milvus" {
		store, err := s.openMilvus(idx)
		if err != nil {
			return err
		}
		if err := store.DeleteAll(ctx); err != nil {
			return err
		}
	} else {
		if err := vectorstore.Delete(s.cfg.RAG.DataDir, name); err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
	}

	if err := s.registry.DeleteIndex(ctx, name); err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("deleted index '%s'", name))
	return nil
}

// AddStaged ingests staged uploads into an index. Each staged object is
// removed once its chunks are stored; a build that fails or never starts
// removes the unconsumed ones as well.
func (s *Service) AddStaged(ctx context.Context, name string, keys []string) (*BuildReport, error) {
	if len(keys) == 0 {
		return nil, apperr.Validation("no documents supplied")
	}

	remaining := make([]string, len(keys))
	copy(remaining, keys)
	defer func() {
		s.Discard(ctx, remaining...)
	}()

	return s.build(ctx, name, func(ctx context.Context, idx *registry.Index, store interfaces.VectorIndex) (*BuildReport, error) {
		report := &BuildReport{}
		for _, key := range keys {
			path, err := s.staging.Fetch(ctx, key)
			if err != nil {
				return nil, apperr.Internal(err, "failed to fetch staged document")
			}
			if err := s.ingestFile(ctx, idx, store, path, report); err != nil {
				return nil, err
			}
			s.discard(ctx, key)
			remaining = remaining[1:]
		}
		return report, nil
	})
}

// IngestDir ingests every file under dir matching the glob pattern.
func (s *Service) IngestDir(ctx context.Context, name, dir, pattern string) (*BuildReport, error) {
	if dir == "" {
		return nil, apperr.Validation("dir must not be empty")
	}
	paths, err := loaders.ScanDir(dir, pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, apperr.Validation("no files under '%s' match pattern '%s'", dir, pattern)
	}

	return s.build(ctx, name, func(ctx context.Context, idx *registry.Index, store interfaces.VectorIndex) (*BuildReport, error) {
		report := &BuildReport{}
		for _, path := range paths {
			if err := s.ingestFile(ctx, idx, store, path, report); err != nil {
				return nil, err
			}
		}
		return report, nil
	})
}

// Query answers a question from the named index. The answer is grounded
// in the retrieved chunks, which are returned as sources.
func (s *Service) Query(ctx context.Context, name, question string, topK int) (*schema.Answer, error) {
	idx, err := s.registry.GetIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.checkFingerprint(idx); err != nil {
		return nil, err
	}

	store, err := s.openIndex(idx)
	if err != nil {
		return nil, err
	}

	if topK <= 0 {
		topK = s.cfg.RAG.TopK
	}

	results, err := s.retrieval.Run(ctx, store, question, topK)
	if err != nil {
		return nil, err
	}
	return s.qa.Run(ctx, question, results)
}

// Analyze reports metadata, text statistics and an optional summary for
// one staged upload.
func (s *Service) Analyze(ctx context.Context, key string, summarize bool) (*analyze.Report, error) {
	path, err := s.staging.Fetch(ctx, key)
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch staged document")
	}
	defer s.discard(ctx, key)

	return s.analyzer.Analyze(ctx, path, summarize)
}

// Compare diffs two staged uploads page by page.
func (s *Service) Compare(ctx context.Context, keyA, keyB string) (*compare.Result, error) {
	pathA, err := s.staging.Fetch(ctx, keyA)
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch staged document")
	}
	defer s.discard(ctx, keyA)

	pathB, err := s.staging.Fetch(ctx, keyB)
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch staged document")
	}
	defer s.discard(ctx, keyB)

	return s.comparer.Compare(ctx, pathA, pathB)
}

// Stage stores an upload for later processing and returns its key.
func (s *Service) Stage(ctx context.Context, fileName string, content io.Reader, size int64) (string, error) {
	return s.staging.Put(ctx, fileName, content, size)
}

// Discard removes staged uploads that will not be processed.
func (s *Service) Discard(ctx context.Context, keys ...string) {
	for _, key := range keys {
		s.discard(ctx, key)
	}
}

// build runs fn under the index's build lease.
func (s *Service) build(ctx context.Context, name string, fn func(context.Context, *registry.Index, interfaces.VectorIndex) (*BuildReport, error)) (*BuildReport, error) {
	idx, err := s.registry.GetIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.checkFingerprint(idx); err != nil {
		return nil, err
	}

	if s.lock != nil {
		lease, err := s.lock.Acquire(ctx, name)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lease.Release(ctx); err != nil {
				s.log.Warn(fmt.Sprintf("failed to release build lease for '%s': %v", name, err))
			}
		}()
	}

	store, err := s.openIndex(idx)
	if err != nil {
		return nil, err
	}

	report, err := fn(ctx, idx, store)
	if err != nil {
		return nil, err
	}

	s.log.Info(fmt.Sprintf("index '%s': added %d documents, %d chunks", name, report.DocumentsAdded, report.ChunksAdded))
	return report, nil
}

// ingestFile runs the indexing pipeline for one local file and records
// it in the registry.
func (s *Service) ingestFile(ctx context.Context, idx *registry.Index, store interfaces.VectorIndex, path string, report *BuildReport) error {
	loader, format, err := loaders.ForSource(path)
	if err != nil {
		return err
	}

	indexing := pipeline.NewIndexingPipeline(s.splitter, s.embedder, store, s.log)
	stats, err := indexing.Run(ctx, loader, path)
	if err != nil {
		return err
	}

	if idx.Dimension == 0 && stats.Dimension > 0 {
		if err := s.registry.SetDimension(ctx, idx.ID, stats.Dimension); err != nil {
			return err
		}
		idx.Dimension = stats.Dimension
	}

	doc := &registry.IndexDocument{
		FileName:   filepath.Base(path),
		Format:     format,
		Pages:      stats.Documents,
		Characters: stats.Characters,
	}
	if err := s.registry.AddDocument(ctx, idx.ID, doc, stats.Chunks); err != nil {
		return err
	}

	report.DocumentsAdded++
	report.ChunksAdded += stats.Chunks
	return nil
}

// checkFingerprint refuses to mix embedding spaces within one index.
func (s *Service) checkFingerprint(idx *registry.Index) error {
	current := s.embedder.Fingerprint()
	if idx.Fingerprint != current {
		return apperr.Validation(
			"index '%s' was built with embedder %s but the portal is configured with %s",
			idx.Name, idx.Fingerprint, current,
		)
	}
	return nil
}

func (s *Service) openIndex(idx *registry.Index) (interfaces.VectorIndex, error) {
	if s.cfg.RAG.VectorStore == "milvus" {
		return s.openMilvus(idx)
	}
	return vectorstore.Open(s.cfg.RAG.DataDir, idx.Name)
}

func (s *Service) openMilvus(idx *registry.Index) (*vectorstore.MilvusIndex, error) {
	if s.milvus == nil {
		return nil, apperr.Internal(nil, "milvus vector store configured but not connected")
	}
	return vectorstore.NewMilvusIndex(s.milvus, s.cfg.Databases.Milvus.Collection, idx.UUID, idx.Dimension, s.log)
}

func (s *Service) discard(ctx context.Context, key string) {
	if err := s.staging.Remove(ctx, key); err != nil {
		s.log.Warn(fmt.Sprintf("failed to remove staged object %s: %v", key, err))
	}
}

func validateIndexName(name string) error {
	if name == "" {
		return apperr.Validation("index name must not be empty")
	}
	if len(name) > 128 {
		return apperr.Validation("index name must be at most 128 characters")
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return apperr.Validation("index name may contain only letters, digits, '-' and '_'")
		}
	}
	if strings.HasPrefix(name, "-") {
		return apperr.Validation("index name must not start with '-'")
	}
	return nil
}
