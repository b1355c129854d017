package api

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"docuchat/internal/apperr"
	"docuchat/internal/portal"
	"docuchat/internal/rag/analyze"
	"docuchat/internal/rag/compare"
	"docuchat/internal/rag/schema"
	"docuchat/internal/registry"
)

// Portal is the service surface the handlers depend on.
type Portal interface {
	CreateIndex(ctx context.Context, name string) (*registry.Index, error)
	ListIndexes(ctx context.Context) ([]*registry.Index, error)
	DeleteIndex(ctx context.Context, name string) error
	AddStaged(ctx context.Context, name string, keys []string) (*portal.BuildReport, error)
	IngestDir(ctx context.Context, name, dir, pattern string) (*portal.BuildReport, error)
	Query(ctx context.Context, name, question string, topK int) (*schema.Answer, error)
	Analyze(ctx context.Context, key string, summarize bool) (*analyze.Report, error)
	Compare(ctx context.Context, keyA, keyB string) (*compare.Result, error)
	Stage(ctx context.Context, fileName string, content io.Reader, size int64) (string, error)
	Discard(ctx context.Context, keys ...string)
}

// Handler holds the API endpoint handlers.
type Handler struct {
	portal    Portal
	maxUpload int64
}

// NewHandler creates a new Handler.
func NewHandler(p Portal, maxUpload int64) *Handler {
	return &Handler{portal: p, maxUpload: maxUpload}
}

// AnalyzeDocument handles POST /documents/analyze.
func (h *Handler) AnalyzeDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		writeError(c, apperr.Validation("multipart field 'file' is required"))
		return
	}
	summarize := c.PostForm("summarize") != "false"

	key, err := h.stage(c, file)
	if err != nil {
		writeError(c, err)
		return
	}

	report, err := h.portal.Analyze(c.Request.Context(), key, summarize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// CompareDocuments handles POST /documents/compare.
func (h *Handler) CompareDocuments(c *gin.Context) {
	fileA, err := c.FormFile("fileA")
	if err != nil {
		writeError(c, apperr.Validation("multipart field 'fileA' is required"))
		return
	}
	fileB, err := c.FormFile("fileB")
	if err != nil {
		writeError(c, apperr.Validation("multipart field 'fileB' is required"))
		return
	}

	keyA, err := h.stage(c, fileA)
	if err != nil {
		writeError(c, err)
		return
	}
	keyB, err := h.stage(c, fileB)
	if err != nil {
		h.portal.Discard(c.Request.Context(), keyA)
		writeError(c, err)
		return
	}

	result, err := h.portal.Compare(c.Request.Context(), keyA, keyB)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// createIndexRequest is the JSON body for server-side bulk ingestion.
type createIndexRequest struct {
	Name    string `json:"name" binding:"required"`
	Dir     string `json:"dir"`
	Pattern string `json:"pattern"`
}

// CreateIndex handles POST /indexes. A JSON body creates the index and
// optionally bulk-ingests a server-side directory; a multipart body
// creates it from uploaded files.
func (h *Handler) CreateIndex(c *gin.Context) {
	if c.ContentType() == "application/json" {
		h.createIndexFromDir(c)
		return
	}
	h.createIndexFromUploads(c)
}

func (h *Handler) createIndexFromDir(c *gin.Context) {
	var req createIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("invalid request body: %v", err))
		return
	}

	idx, err := h.portal.CreateIndex(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	var report *portal.BuildReport
	if req.Dir != "" {
		report, err = h.portal.IngestDir(c.Request.Context(), req.Name, req.Dir, req.Pattern)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"index": indexView(idx), "report": report})
}

func (h *Handler) createIndexFromUploads(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		writeError(c, apperr.Validation("form field 'name' is required"))
		return
	}

	keys, err := h.stageAll(c)
	if err != nil {
		writeError(c, err)
		return
	}

	idx, err := h.portal.CreateIndex(c.Request.Context(), name)
	if err != nil {
		h.portal.Discard(c.Request.Context(), keys...)
		writeError(c, err)
		return
	}

	var report *portal.BuildReport
	if len(keys) > 0 {
		report, err = h.portal.AddStaged(c.Request.Context(), name, keys)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"index": indexView(idx), "report": report})
}

// AddDocuments handles POST /indexes/:name/documents.
func (h *Handler) AddDocuments(c *gin.Context) {
	keys, err := h.stageAll(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(keys) == 0 {
		writeError(c, apperr.Validation("at least one file is required"))
		return
	}

	report, err := h.portal.AddStaged(c.Request.Context(), c.Param("name"), keys)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ListIndexes handles GET /indexes.
func (h *Handler) ListIndexes(c *gin.Context) {
	indexes, err := h.portal.ListIndexes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]gin.H, len(indexes))
	for i, idx := range indexes {
		views[i] = indexView(idx)
	}
	c.JSON(http.StatusOK, gin.H{"indexes": views})
}

// DeleteIndex handles DELETE /indexes/:name.
func (h *Handler) DeleteIndex(c *gin.Context) {
	if err := h.portal.DeleteIndex(c.Request.Context(), c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// queryRequest is the JSON body for index queries.
type queryRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"topK"`
}

// QueryIndex handles POST /indexes/:name/query.
func (h *Handler) QueryIndex(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("invalid request body: %v", err))
		return
	}
	if req.TopK < 0 {
		writeError(c, apperr.Validation("topK must not be negative"))
		return
	}

	answer, err := h.portal.Query(c.Request.Context(), c.Param("name"), req.Question, req.TopK)
	if err != nil {
		writeError(c, err)
		return
	}

	sources := make([]gin.H, len(answer.Sources))
	for i, chunk := range answer.Sources {
		sources[i] = gin.H{
			"documentId": chunk.DocumentID,
			"ordinal":    chunk.Ordinal,
			"start":      chunk.Start,
			"end":        chunk.End,
			"text":       chunk.Text,
			"metadata":   chunk.Metadata,
		}
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer.Text, "sources": sources})
}

func (h *Handler) stage(c *gin.Context, file *multipart.FileHeader) (string, error) {
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		return "", apperr.Validation("file '%s' exceeds the upload limit of %d bytes", file.Filename, h.maxUpload)
	}

	src, err := file.Open()
	if err != nil {
		return "", apperr.Internal(err, "failed to open upload '%s'", file.Filename)
	}
	defer src.Close()

	return h.portal.Stage(c.Request.Context(), file.Filename, src, file.Size)
}

func (h *Handler) stageAll(c *gin.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.Validation("multipart form is required: %v", err)
	}

	var keys []string
	for _, file := range form.File["files"] {
		key, err := h.stage(c, file)
		if err != nil {
			h.portal.Discard(c.Request.Context(), keys...)
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func indexView(idx *registry.Index) gin.H {
	return gin.H{
		"uuid":        idx.UUID,
		"name":        idx.Name,
		"fingerprint": idx.Fingerprint,
		"dimension":   idx.Dimension,
		"chunkCount":  idx.ChunkCount,
		"docCount":    idx.DocCount,
		"createdAt":   idx.CreatedAt,
	}
}

// writeError maps an error kind to an HTTP status and renders the
// structured error body.
func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindIndexEmpty:
		status = http.StatusUnprocessableEntity
	case apperr.KindEmbedding, apperr.KindGeneration:
		status = http.StatusBadGateway
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{
		"kind":    string(kind),
		"message": err.Error(),
	}})
}
