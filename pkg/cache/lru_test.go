package cache

import (
	"testing"
	"time"
)

func TestLRUEviction(t *testing.T) {
	c, err := NewLRU[string, int](2, 0)
	if err != nil {
		t.Fatalf("NewLRU failed: %v", err)
	}

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("expected 'a' to be evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("expected b=2, got %d (present=%v)", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("expected c=3, got %d (present=%v)", v, ok)
	}
}

func TestLRURecentUseProtectsEntry(t *testing.T) {
	c, _ := NewLRU[string, int](2, 0)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Error("expected recently used 'a' to survive eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected 'b' to be evicted")
	}
}

func TestLRUTTLExpiry(t *testing.T) {
	c, _ := NewLRU[string, int](10, 10*time.Millisecond)

	c.Put("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected fresh entry to be present")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be removed, len=%d", c.Len())
	}
}

func TestLRURejectsBadCapacity(t *testing.T) {
	if _, err := NewLRU[string, int](0, 0); err == nil {
		t.Error("expected error for zero capacity")
	}
}
