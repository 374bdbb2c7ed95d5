package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeLock, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeLock, "lock not held by this owner")
)

// DefaultLockPrefix namespaces lock keys.
const DefaultLockPrefix = "ontoground:lock:"

type LockOption func(*Locker)

// WithLockPrefix overrides DefaultLockPrefix.
func WithLockPrefix(prefix string) LockOption {
	return func(l *Locker) { l.prefix = prefix }
}

// WithRetryDelay sets the pause between acquisition attempts.
func WithRetryDelay(delay time.Duration) LockOption {
	return func(l *Locker) { l.retryDelay = delay }
}

// WithWatchdog keeps a held lease alive by extending it every ttl/3.
func WithWatchdog(enabled bool) LockOption {
	return func(l *Locker) { l.watchdog = enabled }
}

// Locker implements ontology.Locker with SET NX leases. A lease is owned by
// a random token; only the owner can release or extend it.
type Locker struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	retryDelay time.Duration
	watchdog   bool
}

var _ ontology.Locker = (*Locker)(nil)

func NewLocker(client *Client, log logging.Logger, opts ...LockOption) *Locker {
	l := &Locker{
		client:     client,
		logger:     logging.OrNop(log),
		prefix:     DefaultLockPrefix,
		retryDelay: 100 * time.Millisecond,
		watchdog:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Acquire blocks until the lease on key is obtained or ctx is done.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	full := l.prefix + key
	token := uuid.New().String()

	for {
		ok, err := l.client.Cmd().SetNX(ctx, full, token, ttl).Result()
		if err != nil && err != redis.Nil {
			return nil, errors.Wrap(err, errors.ErrCodeLock, "failed to set lock").WithDetail(full)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockNotAcquired.WithDetail(full).WithCause(ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}

	l.logger.Debug("lock acquired", logging.String("key", full))
	stop := func() {}
	if l.watchdog && ttl > 0 {
		stop = l.startWatchdog(full, token, ttl)
	}

	return func(rctx context.Context) error {
		stop()
		res, err := unlockScript.Run(rctx, l.client.Cmd(), []string{full}, token).Int64()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeLock, "failed to release lock").WithDetail(full)
		}
		if res == 0 {
			return ErrLockNotHeld.WithDetail(full)
		}
		return nil
	}, nil
}

func (l *Locker) extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	res, err := extendScript.Run(ctx, l.client.Cmd(), []string{key}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (l *Locker) startWatchdog(key, token string, ttl time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	extend := func(ctx context.Context, ttl time.Duration) (bool, error) {
		return l.extend(ctx, key, token, ttl)
	}
	go runWatchdog(ctx, extend, ttl/3, ttl, l.logger, done)
	return func() {
		cancel()
		<-done
	}
}

func runWatchdog(ctx context.Context, extendFn func(context.Context, time.Duration) (bool, error), interval time.Duration, ttl time.Duration, log logging.Logger, done chan struct{}) {
	defer close(done)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := extendFn(ctx, ttl)
			if err != nil {
				if ctx.Err() == nil {
					log.Error("Watchdog failed to extend lock", logging.Err(err))
				}
				return
			}
			if !ok {
				log.Warn("Watchdog lost lock")
				return
			}
		}
	}
}

//Personal.AI order the ending
