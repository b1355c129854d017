package analyze

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docuchat/internal/apperr"
	"docuchat/pkg/logger"
)

type stubLLM struct {
	calls  int
	prompt string
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return "a short summary", nil
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestAnalyzeTextStatistics(t *testing.T) {
	path := writeFixture(t, "report.txt", "one two three four five")
	a := NewAnalyzer(nil, logger.New("analyze-test"))

	report, err := a.Analyze(context.Background(), path, false)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if report.Pages != 1 {
		t.Errorf("expected 1 page, got %d", report.Pages)
	}
	if report.Words != 5 {
		t.Errorf("expected 5 words, got %d", report.Words)
	}
	if report.Characters != len("one two three four five") {
		t.Errorf("unexpected character count %d", report.Characters)
	}
	if report.FileName != "report.txt" {
		t.Errorf("unexpected file name %q", report.FileName)
	}
	if report.SizeBytes == 0 {
		t.Error("expected a non-zero size")
	}
	if !strings.HasPrefix(report.MimeType, "text/") {
		t.Errorf("unexpected mime type %q", report.MimeType)
	}
	if report.Summary != "" {
		t.Error("summary must be empty when not requested")
	}
}

func TestAnalyzeWithSummary(t *testing.T) {
	path := writeFixture(t, "report.txt", "the quarterly revenue grew by ten percent")
	llm := &stubLLM{}
	a := NewAnalyzer(llm, logger.New("analyze-test"))

	report, err := a.Analyze(context.Background(), path, true)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if report.Summary != "a short summary" {
		t.Errorf("unexpected summary %q", report.Summary)
	}
	if llm.calls != 1 {
		t.Errorf("expected one generation call, got %d", llm.calls)
	}
	if !strings.Contains(llm.prompt, "quarterly revenue") {
		t.Error("prompt must contain the document text")
	}
}

func TestAnalyzeUnsupportedType(t *testing.T) {
	path := writeFixture(t, "blob.bin", "\x00\x01\x02\x03binary")
	a := NewAnalyzer(nil, logger.New("analyze-test"))

	if _, err := a.Analyze(context.Background(), path, false); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for unsupported type, got %v", err)
	}
}
