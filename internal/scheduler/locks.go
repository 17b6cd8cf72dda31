package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locks provides per-schedule mutual exclusion: at most one execution
// (manual or automatic) in flight per schedule id. TryAcquire never blocks;
// a held lock means the caller must back off.
type Locks interface {
	TryAcquire(ctx context.Context, scheduleID int) (release func(), acquired bool, err error)
}

// MemoryLocks is the single-process implementation.
type MemoryLocks struct {
	mu   sync.Mutex
	held map[int]struct{}
}

func NewMemoryLocks() *MemoryLocks {
	return &MemoryLocks{held: make(map[int]struct{})}
}

func (l *MemoryLocks) TryAcquire(_ context.Context, scheduleID int) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[scheduleID]; busy {
		return nil, false, nil
	}
	l.held[scheduleID] = struct{}{}
	release := func() {
		l.mu.Lock()
		delete(l.held, scheduleID)
		l.mu.Unlock()
	}
	return release, true, nil
}

// RedisLocks is a lease-based lock for multi-instance deployments. The TTL
// doubles as the crash-recovery timeout: a process that dies mid-execution
// frees the schedule when the lease expires.
type RedisLocks struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocks(rdb *redis.Client, ttl time.Duration) *RedisLocks {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLocks{rdb: rdb, ttl: ttl}
}

// releaseScript deletes the lease only if this process still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

func (l *RedisLocks) TryAcquire(ctx context.Context, scheduleID int) (func(), bool, error) {
	key := fmt.Sprintf("civichub:schedule_lock:%d", scheduleID)
	token := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Int63())

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// best effort: an expired lease was already reclaimed
		_ = releaseScript.Run(context.Background(), l.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}
