package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired means another process currently holds the lock.
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld means the lock expired or was taken over before release.
	ErrLockNotHeld = errors.New("lock not held")
)

// releaseScript deletes the key only when the stored token matches, so a
// holder whose lock already expired cannot delete a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker hands out single-holder locks backed by SET NX with a TTL. The TTL
// bounds how long a crashed holder can block others.
type Locker struct {
	client    *Client
	keyPrefix string
}

func NewLocker(client *Client, keyPrefix string) *Locker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &Locker{client: client, keyPrefix: keyPrefix}
}

// Lock is a held lock. Release it when done; an expired lock releases itself.
type Lock struct {
	client *Client
	key    string
	token  string
}

// Acquire takes the lock or returns ErrLockNotAcquired without waiting.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lock := &Lock{
		client: l.client,
		key:    l.keyPrefix + key,
		token:  uuid.New().String(),
	}

	ok, err := l.client.rdb.SetNX(ctx, lock.key, lock.token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	l.client.logger.WithContext(ctx).Debugf("Acquired lock: %s", lock.key)
	return lock, nil
}

// Release frees the lock if this holder still owns it.
func (lock *Lock) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, lock.client.rdb, []string{lock.key}, lock.token).Int64()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLockNotHeld
	}
	lock.client.logger.WithContext(ctx).Debugf("Released lock: %s", lock.key)
	return nil
}
