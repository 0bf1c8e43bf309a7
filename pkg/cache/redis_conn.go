package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DialOption configures DialRedis.
type DialOption func(*dialOptions)

type dialOptions struct {
	poolSize      int
	retryAttempts int
	retryInterval time.Duration
	dialTimeout   time.Duration
	ioTimeout     time.Duration
}

// WithPoolSize sets the maximum number of connections in the pool.
// Default: 10
func WithPoolSize(n int) DialOption {
	return func(o *dialOptions) {
		o.poolSize = n
	}
}

// WithRetry sets how many times DialRedis pings before giving up and the
// base wait between attempts (multiplied by the attempt number).
// Default: 3 attempts, 1 second.
func WithRetry(attempts int, interval time.Duration) DialOption {
	return func(o *dialOptions) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithTimeouts sets the dial timeout and the read/write timeout.
// Default: 5 seconds and 3 seconds.
func WithTimeouts(dial, io time.Duration) DialOption {
	return func(o *dialOptions) {
		o.dialTimeout = dial
		o.ioTimeout = io
	}
}

// DialRedis connects to a redis:// or rediss:// URL and pings it until it
// answers or the attempts run out.
func DialRedis(ctx context.Context, url string, opts ...DialOption) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyRedisURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrInvalidRedisURL
	}

	o := dialOptions{
		poolSize:      10,
		retryAttempts: 3,
		retryInterval: time.Second,
		dialTimeout:   5 * time.Second,
		ioTimeout:     3 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrInvalidRedisURL, err)
	}
	ropts.PoolSize = o.poolSize
	ropts.DialTimeout = o.dialTimeout
	ropts.ReadTimeout = o.ioTimeout
	ropts.WriteTimeout = o.ioTimeout

	var lastErr error
	for attempt := range max(o.retryAttempts, 1) {
		client := redis.NewClient(ropts)

		lastErr = client.Ping(ctx).Err()
		if lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisUnavailable, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * o.retryInterval):
		}
	}

	return nil, errors.Join(ErrRedisUnavailable, lastErr)
}

// RedisHealthcheck returns a readiness probe that pings the client.
func RedisHealthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrRedisHealthcheck
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrRedisHealthcheck, err)
		}
		return nil
	}
}
