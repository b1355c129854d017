package staging

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	ctx := context.Background()

	key, err := store.Put(ctx, "report.pdf", strings.NewReader("fake pdf bytes"), -1)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !strings.HasSuffix(key, "/report.pdf") {
		t.Errorf("key %q should keep the original file name", key)
	}

	path, err := store.Fetch(ctx, key)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read staged file: %v", err)
	}
	if string(content) != "fake pdf bytes" {
		t.Errorf("staged content mismatch: %q", content)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Fetch(ctx, key); err == nil {
		t.Error("Fetch should fail after Remove")
	}
}

func TestLocalStoreStripsDirectoryFromName(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())

	key, err := store.Put(context.Background(), "../../etc/passwd", strings.NewReader("x"), -1)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if strings.Contains(key, "..") {
		t.Errorf("key %q must not contain path traversal segments", key)
	}
}
