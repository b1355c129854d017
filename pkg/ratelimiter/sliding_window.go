package ratelimiter

import (
	"sync"
	"time"
)

// SlidingWindow counts requests across a window divided into buckets,
// trading a little accuracy at bucket boundaries for constant memory.
type SlidingWindow struct {
	limit      int
	numBuckets int
	bucketSize time.Duration
	buckets    []int
	current    int
	lastUpdate time.Time
	mutex      sync.Mutex
}

var _ RateLimiter = (*SlidingWindow)(nil)

// NewSlidingWindow creates a limiter allowing limit requests per window.
func NewSlidingWindow(limit int, window time.Duration, numBuckets int) *SlidingWindow {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	return &SlidingWindow{
		limit:      limit,
		numBuckets: numBuckets,
		bucketSize: window / time.Duration(numBuckets),
		buckets:    make([]int, numBuckets),
		lastUpdate: time.Now(),
	}
}

// Allow records the request if the window still has quota.
func (sw *SlidingWindow) Allow() bool {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	sw.slide()

	total := 0
	for _, count := range sw.buckets {
		total += count
	}
	if total >= sw.limit {
		return false
	}

	sw.buckets[sw.current]++
	return true
}

// slide advances the window, clearing buckets that have aged out.
// Caller holds the lock.
func (sw *SlidingWindow) slide() {
	now := time.Now()
	elapsed := now.Sub(sw.lastUpdate)
	steps := int(elapsed / sw.bucketSize)
	if steps <= 0 {
		return
	}

	if steps >= sw.numBuckets {
		for i := range sw.buckets {
			sw.buckets[i] = 0
		}
	} else {
		for i := 1; i <= steps; i++ {
			sw.buckets[(sw.current+i)%sw.numBuckets] = 0
		}
	}
	sw.current = (sw.current + steps) % sw.numBuckets
	sw.lastUpdate = now
}
