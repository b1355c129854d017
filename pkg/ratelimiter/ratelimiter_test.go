package ratelimiter

import (
	"testing"
	"time"
)

func TestTokenBucketBurstAndRefill(t *testing.T) {
	tb := NewTokenBucket(10, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d should be within the burst", i)
		}
	}
	if tb.Allow() {
		t.Error("request beyond the burst should be rejected")
	}

	time.Sleep(150 * time.Millisecond)
	if !tb.Allow() {
		t.Error("request should be allowed after refill")
	}
}

func TestSlidingWindowLimit(t *testing.T) {
	sw := NewSlidingWindow(5, time.Second, 10)

	for i := 0; i < 5; i++ {
		if !sw.Allow() {
			t.Fatalf("request %d should be within the limit", i)
		}
	}
	if sw.Allow() {
		t.Error("request beyond the window limit should be rejected")
	}
}

func TestSlidingWindowRecovers(t *testing.T) {
	sw := NewSlidingWindow(2, 100*time.Millisecond, 10)

	sw.Allow()
	sw.Allow()
	if sw.Allow() {
		t.Fatal("limit should be reached")
	}

	time.Sleep(150 * time.Millisecond)
	if !sw.Allow() {
		t.Error("quota should recover after the window passes")
	}
}

func TestNewSelectsAlgorithm(t *testing.T) {
	if _, ok := New(AlgorithmSlidingWindow, 1, 1).(*SlidingWindow); !ok {
		t.Error("expected a sliding window limiter")
	}
	if _, ok := New(AlgorithmTokenBucket, 1, 1).(*TokenBucket); !ok {
		t.Error("expected a token bucket limiter")
	}
	if _, ok := New("", 1, 1).(*TokenBucket); !ok {
		t.Error("expected the token bucket fallback")
	}
}
