// Package redis provides the shared lookup cache and the cross-host
// dictionary lock on top of go-redis.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = 3 * time.Second
	defaultRetries     = 3
)

// Config holds connection parameters. Zero values take the defaults above;
// a zero PoolSize lets go-redis size the pool from GOMAXPROCS.
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Client owns one go-redis connection pool. Commands issued after Close
// fail with redis.ErrClosed.
type Client struct {
	rdb       redis.UniversalClient
	logger    logging.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewClient connects and pings the server.
func NewClient(cfg *Config, log logging.Logger) (*Client, error) {
	log = logging.OrNop(log)
	dial := orDefault(cfg.DialTimeout, defaultDialTimeout)
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  dial,
		ReadTimeout:  orDefault(cfg.ReadTimeout, defaultIOTimeout),
		WriteTimeout: orDefault(cfg.WriteTimeout, defaultIOTimeout),
		MaxRetries:   defaultRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dial)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis unreachable").WithDetail(cfg.Addr)
	}

	log.Info("redis connected", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return &Client{rdb: rdb, logger: log}, nil
}

// NewClientFromUniversal wraps an existing go-redis client without pinging.
func NewClientFromUniversal(rdb redis.UniversalClient, log logging.Logger) *Client {
	return &Client{rdb: rdb, logger: logging.OrNop(log)}
}

// Cmd returns the underlying command interface.
func (c *Client) Cmd() redis.UniversalClient { return c.rdb }

// Ping is the readiness check used by serve mode.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis ping failed")
	}
	return nil
}

// Close releases the pool. Later calls are no-ops.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rdb.Close()
		if c.closeErr != nil {
			c.logger.Warn("redis close failed", logging.Err(c.closeErr))
		}
	})
	return c.closeErr
}

//Personal.AI order the ending
