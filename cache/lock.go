package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	lockKeyPrefix  = "payment_lock:"
	DefaultLockTTL = 5 * time.Minute
)

// ReferenceLock keeps two submissions with the same reference id from
// reaching the gateway at the same time. Locks expire after the TTL so a
// crashed request cannot block a reference forever.
type ReferenceLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReferenceLock(client *redis.Client, ttl time.Duration) *ReferenceLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &ReferenceLock{client: client, ttl: ttl}
}

// Acquire returns false when another submission holds the reference.
func (l *ReferenceLock) Acquire(ctx context.Context, referenceID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKeyPrefix+referenceID, time.Now().Unix(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("error acquiring lock: %w", err)
	}
	return ok, nil
}

func (l *ReferenceLock) Release(ctx context.Context, referenceID string) error {
	if err := l.client.Del(ctx, lockKeyPrefix+referenceID).Err(); err != nil {
		return fmt.Errorf("error releasing lock: %w", err)
	}
	return nil
}
