package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"docuchat/internal/apperr"
)

// fakeRedis implements Commands over an in-memory map with SetNX and
// owner-checked delete semantics.
type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	if _, held := f.values[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[keys[0]] == args[0].(string) {
		delete(f.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestAcquireSecondBuilderConflicts(t *testing.T) {
	ctx := context.Background()
	l := NewBuildLock(newFakeRedis(), time.Minute)

	lease, err := l.Acquire(ctx, "contracts")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	_, err = l.Acquire(ctx, "contracts")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("second Acquire() = %v, want conflict error", err)
	}

	if _, err := l.Acquire(ctx, "invoices"); err != nil {
		t.Errorf("Acquire() for another index error = %v", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestReleaseAllowsNextBuild(t *testing.T) {
	ctx := context.Background()
	l := NewBuildLock(newFakeRedis(), time.Minute)

	lease, err := l.Acquire(ctx, "contracts")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	if _, err := l.Acquire(ctx, "contracts"); err != nil {
		t.Errorf("Acquire() after release error = %v", err)
	}
}

func TestReleaseKeepsLeaseOfNewOwner(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	l := NewBuildLock(rdb, time.Minute)

	stale, err := l.Acquire(ctx, "contracts")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// The stale lease expires and another build takes over.
	rdb.mu.Lock()
	delete(rdb.values, stale.key)
	rdb.mu.Unlock()
	current, err := l.Acquire(ctx, "contracts")
	if err != nil {
		t.Fatalf("re-Acquire() error = %v", err)
	}

	if err := stale.Release(ctx); err != nil {
		t.Fatalf("stale Release() error = %v", err)
	}

	rdb.mu.Lock()
	got := rdb.values[current.key]
	rdb.mu.Unlock()
	if got != current.token {
		t.Errorf("stale release removed the current lease: value = %q, want %q", got, current.token)
	}
}

func TestAcquireWrapsRedisFailure(t *testing.T) {
	rdb := newFakeRedis()
	rdb.setErr = errors.New("connection refused")
	l := NewBuildLock(rdb, time.Minute)

	_, err := l.Acquire(context.Background(), "contracts")
	if !apperr.Is(err, apperr.KindInternal) {
		t.Errorf("Acquire() = %v, want internal error", err)
	}
}
