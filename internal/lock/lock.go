// Package lock serializes index builds across portal instances with a
// Redis lease. Only one build per index may run at a time.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"docuchat/internal/apperr"
)

// releaseScript deletes the lease only if the caller still owns it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end`

// Commands is the slice of the Redis client the lock uses. *redis.Client
// satisfies it.
type Commands interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

var _ Commands = (*redis.Client)(nil)

// BuildLock acquires per-index build leases.
type BuildLock struct {
	client Commands
	ttl    time.Duration
}

// NewBuildLock creates a BuildLock. ttl bounds how long a crashed build
// can block the next one.
func NewBuildLock(client Commands, ttl time.Duration) *BuildLock {
	return &BuildLock{client: client, ttl: ttl}
}

// Lease is a held build lease. Release it when the build finishes.
type Lease struct {
	client Commands
	key    string
	token  string
}

// Acquire takes the build lease for the named index. A lease already
// held elsewhere yields a conflict error.
func (l *BuildLock) Acquire(ctx context.Context, indexName string) (*Lease, error) {
	key := fmt.Sprintf("docuchat:build-lock:%s", indexName)
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, apperr.Internal(err, "failed to acquire build lease for '%s'", indexName)
	}
	if !ok {
		return nil, apperr.Conflict("index '%s' is already being built", indexName)
	}

	return &Lease{client: l.client, key: key, token: token}, nil
}

// Release returns the lease. Releasing a lease that expired and was
// re-acquired by another build is a no-op.
func (le *Lease) Release(ctx context.Context) error {
	return le.client.Eval(ctx, releaseScript, []string{le.key}, le.token).Err()
}
