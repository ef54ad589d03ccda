// internal/joblock/lock.go
package joblock

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// jobIDKey is the single Redis key representing "a sync is running".
const jobIDKey = "job_id"

// Lock is the cluster-wide single-flight token for the sync engine.
// TryAcquire is one atomic SET NX EX, so two concurrent callers can never
// both believe they hold it; a plain exists-then-set sequence would race.
// The TTL bounds how long a crashed holder can wedge the engine.
type Lock struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Lock {
	return &Lock{rdb: rdb, ttl: ttl}
}

// TryAcquire returns true iff this caller now uniquely holds the lock.
func (l *Lock) TryAcquire(ctx context.Context) (bool, error) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	ok, err := l.rdb.SetNX(ctx, jobIDKey, token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		log.Printf("🔒 [LOCK] Sync job lock acquired (token %s, ttl %s)", token, l.ttl)
	}
	return ok, nil
}

// Release drops the lock. Releasing a lock that already expired is not an
// error; the deleted-key count is only logged.
func (l *Lock) Release(ctx context.Context) error {
	deleted, err := l.rdb.Del(ctx, jobIDKey).Result()
	if err != nil {
		return err
	}
	log.Printf("🔓 [LOCK] Sync job lock released (deleted %d key)", deleted)
	return nil
}

// Exists reports whether a sync job currently holds the lock. The answer may
// be stale by the time the caller acts on it; it is only used to skip
// publishing redundant trigger messages.
func (l *Lock) Exists(ctx context.Context) (bool, error) {
	n, err := l.rdb.Exists(ctx, jobIDKey).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
