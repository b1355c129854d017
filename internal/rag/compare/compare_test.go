package compare

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docuchat/pkg/logger"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestCompareIdenticalDocuments(t *testing.T) {
	content := "the contract runs from January to December"
	a := writeFixture(t, "a.txt", content)
	b := writeFixture(t, "b.txt", content)

	result, err := NewComparer(logger.New("compare-test")).Compare(context.Background(), a, b)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !result.Identical {
		t.Error("identical documents must report Identical=true")
	}
	if len(result.Pages) != 0 {
		t.Errorf("expected no differing pages, got %d", len(result.Pages))
	}
}

func TestCompareReportsAddedAndRemoved(t *testing.T) {
	a := writeFixture(t, "a.txt", "the fee is 100 euro per month")
	b := writeFixture(t, "b.txt", "the fee is 250 euro per month")

	result, err := NewComparer(logger.New("compare-test")).Compare(context.Background(), a, b)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if result.Identical {
		t.Fatal("differing documents must report Identical=false")
	}
	if len(result.Pages) != 1 {
		t.Fatalf("expected 1 differing page, got %d", len(result.Pages))
	}

	page := result.Pages[0]
	if page.Page != 1 {
		t.Errorf("expected page 1, got %d", page.Page)
	}
	if len(page.Removed) == 0 || len(page.Added) == 0 {
		t.Fatalf("expected both removed and added spans, got %+v", page)
	}

	removed := ""
	for _, s := range page.Removed {
		removed += s.Text
	}
	added := ""
	for _, s := range page.Added {
		added += s.Text
	}
	if !strings.Contains(removed, "100") {
		t.Errorf("removed spans %q should mention the old value", removed)
	}
	if !strings.Contains(added, "250") {
		t.Errorf("added spans %q should mention the new value", added)
	}
}

func TestCompareWholeParagraphRemoved(t *testing.T) {
	a := writeFixture(t, "a.txt", "clause one stays.\nclause two will be dropped.\n")
	b := writeFixture(t, "b.txt", "clause one stays.\n")

	result, err := NewComparer(logger.New("compare-test")).Compare(context.Background(), a, b)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if result.Identical {
		t.Fatal("expected a difference")
	}
	if len(result.Pages) != 1 {
		t.Fatalf("expected 1 differing page, got %d", len(result.Pages))
	}

	removed := ""
	for _, s := range result.Pages[0].Removed {
		removed += s.Text
	}
	if !strings.Contains(removed, "clause two") {
		t.Errorf("removed spans %q should contain the dropped clause", removed)
	}
	if len(result.Pages[0].Added) != 0 {
		t.Errorf("expected no added spans, got %+v", result.Pages[0].Added)
	}
}
