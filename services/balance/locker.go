package balance

import (
	"context"
	"errors"
	"sync"
	"time"

	"slotbook/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockBusy is returned when a client's ledger stays locked past the caller's deadline.
var ErrLockBusy = errors.New("balance is locked by another operation")

// Locker serializes ledger mutations per client. Different clients never contend.
type Locker interface {
	Lock(ctx context.Context, clientID string) (unlock func(), err error)
}

// RedisLocker holds a SETNX key per client so several API nodes share one lock.
type RedisLocker struct {
	Client *redis.Client
	TTL    time.Duration
	Retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{Client: client, TTL: ttl, Retry: 25 * time.Millisecond}
}

// Only the holder's token may delete the key; an expired lock re-acquired elsewhere survives.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

func (l *RedisLocker) Lock(ctx context.Context, clientID string) (func(), error) {
	key := utils.BalanceLockPrefix + clientID
	token := uuid.New().String()

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		deadline = time.Now().Add(l.TTL)
	}
	for {
		ok, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseScript.Run(context.Background(), l.Client, []string{key}, token)
			}, nil
		}
		if time.Now().Add(l.Retry).After(deadline) {
			return nil, ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.Retry):
		}
	}
}

// LocalLocker is an in-process keyed mutex for single node deployments and tests.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

func (l *LocalLocker) Lock(ctx context.Context, clientID string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[clientID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[clientID] = ch
	}
	l.mu.Unlock()

	// A free lock is taken even when ctx is already done.
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	default:
	}
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
