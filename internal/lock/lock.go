// Package lock serializes hierarchy mutations. The local lock covers a single
// process; the Redis lock extends it across replicas.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ReleaseFunc gives a held lock back. It is safe to call once.
type ReleaseFunc func()

// Locker grants exclusive access until the returned ReleaseFunc is called.
type Locker interface {
	Acquire(ctx context.Context) (ReleaseFunc, error)
}

// Local is an in-process mutex that honours context cancellation.
type Local struct {
	sem chan struct{}
}

// NewLocal returns an unlocked Local.
func NewLocal() *Local {
	return &Local{sem: make(chan struct{}, 1)}
}

func (l *Local) Acquire(ctx context.Context) (ReleaseFunc, error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ErrNotAcquired is returned when the Redis lock could not be taken before
// the context ended.
var ErrNotAcquired = errors.New("lock: not acquired")

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry forward while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a single-key lock using SET NX PX with a random token. While held,
// the key's TTL is renewed every ttl/3, so the TTL only bounds how long a
// crashed holder blocks others.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	retry  time.Duration
	logger *zap.Logger
}

// NewRedis builds a Redis lock. retry is the polling interval while waiting.
func NewRedis(client redis.UniversalClient, key string, ttl, retry time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, key: key, ttl: ttl, retry: retry, logger: logger}
}

func (r *Redis) Acquire(ctx context.Context) (ReleaseFunc, error) {
	token := uuid.NewString()
	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrNotAcquired, ctx.Err())
			}
			return nil, err
		}
		if ok {
			return r.hold(token), nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (r *Redis) hold(token string) ReleaseFunc {
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go r.keepAlive(token, stop, stopped)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-stopped

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			n, err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Int64()
			switch {
			case err != nil:
				r.logger.Error("release redis lock", zap.String("key", r.key), zap.Duration("ttl", r.ttl), zap.Error(err))
			case n == 0:
				r.logger.Warn("redis lock expired before release", zap.String("key", r.key))
			}
		})
	}
}

func (r *Redis) keepAlive(token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	interval := r.ttl / 3
	if interval <= 0 {
		interval = r.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := extendScript.Run(ctx, r.client, []string{r.key}, token, r.ttl.Milliseconds()).Int64()
		cancel()
		if err != nil {
			r.logger.Warn("extend redis lock", zap.String("key", r.key), zap.Error(err))
			continue
		}
		if n == 0 {
			r.logger.Error("redis lock lost while held", zap.String("key", r.key))
			return
		}
	}
}

// Chain acquires every locker in order and releases them in reverse.
type Chain []Locker

func (c Chain) Acquire(ctx context.Context) (ReleaseFunc, error) {
	releases := make([]ReleaseFunc, 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, l := range c {
		release, err := l.Acquire(ctx)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
