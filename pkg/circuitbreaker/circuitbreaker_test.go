package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend unavailable")

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := New(3, 1, time.Minute)

	for i := 0; i < 3; i++ {
		if err := b.Do(func() error { return errBackend }); !errors.Is(err, errBackend) {
			t.Fatalf("call %d: expected backend error, got %v", i, err)
		}
	}

	if b.State() != Open {
		t.Fatalf("expected open state, got %s", b.State())
	}
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen while open, got %v", err)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := New(1, 2, 10*time.Millisecond)

	b.Do(func() error { return errBackend })
	if b.State() != Open {
		t.Fatal("expected breaker to trip on first failure")
	}

	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := b.Do(func() error { return nil }); err != nil {
			t.Fatalf("trial call %d failed: %v", i, err)
		}
	}
	if b.State() != Closed {
		t.Errorf("expected closed after successful trials, got %s", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := New(1, 2, 10*time.Millisecond)

	b.Do(func() error { return errBackend })
	time.Sleep(20 * time.Millisecond)

	b.Do(func() error { return errBackend })
	if b.State() != Open {
		t.Errorf("expected open after half-open failure, got %s", b.State())
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New(2, 1, time.Minute)

	b.Do(func() error { return errBackend })
	b.Do(func() error { return nil })
	b.Do(func() error { return errBackend })

	if b.State() != Closed {
		t.Errorf("expected closed state, got %s", b.State())
	}
}
