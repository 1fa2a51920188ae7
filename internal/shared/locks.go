package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DepreciationRunLockKey builds the redis key guarding the monthly depreciation run.
func DepreciationRunLockKey(year int, month time.Month) string {
	return fmt.Sprintf("posting:depreciation:%04d-%02d:lock", year, month)
}

// IntegrityScanLockKey builds the redis key guarding the ledger integrity scan.
func IntegrityScanLockKey() string {
	return "posting:integrity:lock"
}

// JobLock is a best-effort redis mutex for background jobs that must not overlap.
type JobLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJobLock returns a JobLock with the given lease duration.
func NewJobLock(client *redis.Client, ttl time.Duration) *JobLock {
	return &JobLock{client: client, ttl: ttl}
}

// TryAcquire attempts to take the lock, returning false when it is already held.
func (l *JobLock) TryAcquire(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	return l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

// Release drops the lock early. Expiry handles the crash case.
func (l *JobLock) Release(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, key).Err()
}
