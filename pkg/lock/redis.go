package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if this holder still owns it.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

var ErrNotHeld = errors.New("lock: not held")

type Releaser func(ctx context.Context) error

// RedisLock is a single-key mutex shared by every instance that points at
// the same Redis. The TTL bounds how long a crashed holder blocks others.
type RedisLock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
	owner  func() string
}

type Option func(*RedisLock)

// WithOwner overrides the random per-acquire owner token.
func WithOwner(owner func() string) Option {
	return func(l *RedisLock) { l.owner = owner }
}

func NewRedisLock(client redis.Cmdable, key string, ttl time.Duration, opts ...Option) *RedisLock {
	l := &RedisLock{
		client: client,
		key:    key,
		ttl:    ttl,
		owner:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TryLock returns ok=false without error when another holder owns the key.
func (l *RedisLock) TryLock(ctx context.Context) (Releaser, bool, error) {
	token := l.owner()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		n, err := l.client.Eval(ctx, releaseScript, []string{l.key}, token).Int64()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", l.key, err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}

	return release, true, nil
}

// NewClient parses a redis:// URL.
func NewClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}
