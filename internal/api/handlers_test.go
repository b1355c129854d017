package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docuchat/internal/apperr"
	"docuchat/internal/config"
	"docuchat/internal/portal"
	"docuchat/internal/rag/analyze"
	"docuchat/internal/rag/compare"
	"docuchat/internal/rag/schema"
	"docuchat/internal/registry"
	"docuchat/pkg/logger"
)

type fakePortal struct {
	indexes    map[string]*registry.Index
	queryErr   error
	staged     []string
	discarded  []string
	lastDelete string
}

func newFakePortal() *fakePortal {
	return &fakePortal{indexes: map[string]*registry.Index{}}
}

func (f *fakePortal) CreateIndex(ctx context.Context, name string) (*registry.Index, error) {
	if _, ok := f.indexes[name]; ok {
		return nil, apperr.Conflict("index '%s' already exists", name)
	}
	idx := &registry.Index{UUID: "uuid-" + name, Name: name, Fingerprint: "fake/unit-v1"}
	f.indexes[name] = idx
	return idx, nil
}

func (f *fakePortal) ListIndexes(ctx context.Context) ([]*registry.Index, error) {
	var out []*registry.Index
	for _, idx := range f.indexes {
		out = append(out, idx)
	}
	return out, nil
}

func (f *fakePortal) DeleteIndex(ctx context.Context, name string) error {
	if _, ok := f.indexes[name]; !ok {
		return apperr.NotFound("index '%s' does not exist", name)
	}
	delete(f.indexes, name)
	f.lastDelete = name
	return nil
}

func (f *fakePortal) AddStaged(ctx context.Context, name string, keys []string) (*portal.BuildReport, error) {
	if _, ok := f.indexes[name]; !ok {
		return nil, apperr.NotFound("index '%s' does not exist", name)
	}
	return &portal.BuildReport{DocumentsAdded: len(keys), ChunksAdded: len(keys) * 3}, nil
}

func (f *fakePortal) IngestDir(ctx context.Context, name, dir, pattern string) (*portal.BuildReport, error) {
	return &portal.BuildReport{DocumentsAdded: 2, ChunksAdded: 6}, nil
}

func (f *fakePortal) Query(ctx context.Context, name, question string, topK int) (*schema.Answer, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if _, ok := f.indexes[name]; !ok {
		return nil, apperr.NotFound("index '%s' does not exist", name)
	}
	return &schema.Answer{
		Text: "grounded answer",
		Sources: []*schema.Chunk{
			{DocumentID: "doc-1", Ordinal: 0, Start: 0, End: 12, Text: "some context"},
		},
	}, nil
}

func (f *fakePortal) Analyze(ctx context.Context, key string, summarize bool) (*analyze.Report, error) {
	return &analyze.Report{FileName: "report.txt", Pages: 1, Words: 3}, nil
}

func (f *fakePortal) Compare(ctx context.Context, keyA, keyB string) (*compare.Result, error) {
	return &compare.Result{PagesA: 1, PagesB: 1, Identical: true}, nil
}

func (f *fakePortal) Stage(ctx context.Context, fileName string, content io.Reader, size int64) (string, error) {
	key := "staged/" + fileName
	f.staged = append(f.staged, key)
	return key, nil
}

func (f *fakePortal) Discard(ctx context.Context, keys ...string) {
	f.discarded = append(f.discarded, keys...)
}

func newTestRouter(p Portal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{}
	cfg.Server.MaxUploadBytes = 1 << 20
	h := NewHandler(p, cfg.Server.MaxUploadBytes)
	return SetupRouter(h, cfg, logger.New("api-test"))
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndQueryIndex(t *testing.T) {
	p := newFakePortal()
	r := newTestRouter(p)

	w := doJSON(t, r, http.MethodPost, "/api/v1/indexes", map[string]string{"name": "contracts"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/indexes/contracts/query", map[string]interface{}{
		"question": "what is the fee?",
		"topK":     2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("query: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Answer  string `json:"answer"`
		Sources []struct {
			DocumentID string `json:"documentId"`
			Text       string `json:"text"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Answer != "grounded answer" {
		t.Errorf("unexpected answer %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].DocumentID != "doc-1" {
		t.Errorf("unexpected sources %+v", resp.Sources)
	}
}

func TestQueryUnknownIndexReturns404(t *testing.T) {
	r := newTestRouter(newFakePortal())

	w := doJSON(t, r, http.MethodPost, "/api/v1/indexes/nope/query", map[string]string{"question": "q"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var resp struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if resp.Error.Kind != "not_found" {
		t.Errorf("expected kind not_found, got %q", resp.Error.Kind)
	}
	if resp.Error.Message == "" {
		t.Error("error message must not be empty")
	}
}

func TestQueryEmptyIndexReturns422(t *testing.T) {
	p := newFakePortal()
	p.indexes["empty"] = &registry.Index{Name: "empty"}
	p.queryErr = apperr.IndexEmpty("index 'empty' contains no documents")
	r := newTestRouter(p)

	w := doJSON(t, r, http.MethodPost, "/api/v1/indexes/empty/query", map[string]string{"question": "q"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestQueryWithoutQuestionReturns400(t *testing.T) {
	p := newFakePortal()
	p.indexes["idx"] = &registry.Index{Name: "idx"}
	r := newTestRouter(p)

	w := doJSON(t, r, http.MethodPost, "/api/v1/indexes/idx/query", map[string]int{"topK": 2})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCreateDuplicateIndexReturns409(t *testing.T) {
	p := newFakePortal()
	r := newTestRouter(p)

	doJSON(t, r, http.MethodPost, "/api/v1/indexes", map[string]string{"name": "dup"})
	w := doJSON(t, r, http.MethodPost, "/api/v1/indexes", map[string]string{"name": "dup"})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestDeleteIndex(t *testing.T) {
	p := newFakePortal()
	p.indexes["old"] = &registry.Index{Name: "old"}
	r := newTestRouter(p)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/indexes/old", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if p.lastDelete != "old" {
		t.Errorf("expected delete of 'old', got %q", p.lastDelete)
	}
}

func TestAnalyzeRequiresFile(t *testing.T) {
	r := newTestRouter(newFakePortal())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAnalyzeUpload(t *testing.T) {
	p := newFakePortal()
	r := newTestRouter(p)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "report.txt")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	io.Copy(fw, strings.NewReader("one two three"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(p.staged) != 1 {
		t.Errorf("expected the upload to be staged once, got %d", len(p.staged))
	}

	var report analyze.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.Words != 3 {
		t.Errorf("unexpected word count %d", report.Words)
	}
}

func TestCompareUploads(t *testing.T) {
	p := newFakePortal()
	r := newTestRouter(p)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fa, err := mw.CreateFormFile("fileA", "old.txt")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	io.Copy(fa, strings.NewReader("the fee is 100 euro"))
	fb, err := mw.CreateFormFile("fileB", "new.txt")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	io.Copy(fb, strings.NewReader("the fee is 100 euro"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/compare", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(p.staged) != 2 {
		t.Errorf("expected both uploads to be staged, got %d", len(p.staged))
	}

	var result compare.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if !result.Identical {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestCompareWithoutSecondFileReturns400(t *testing.T) {
	r := newTestRouter(newFakePortal())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fa, _ := mw.CreateFormFile("fileA", "old.txt")
	io.Copy(fa, strings.NewReader("text"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/compare", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCreateIndexUploadConflictDiscardsStaged(t *testing.T) {
	p := newFakePortal()
	p.indexes["dup"] = &registry.Index{Name: "dup"}
	r := newTestRouter(p)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("name", "dup")
	fw, _ := mw.CreateFormFile("files", "a.txt")
	io.Copy(fw, strings.NewReader("text"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/indexes", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if len(p.discarded) != 1 || p.discarded[0] != "staged/a.txt" {
		t.Errorf("expected the staged upload to be discarded, got %v", p.discarded)
	}
}

func TestAddDocumentsToUnknownIndex(t *testing.T) {
	r := newTestRouter(newFakePortal())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("files", "a.txt")
	io.Copy(fw, strings.NewReader("text"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/indexes/ghost/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
