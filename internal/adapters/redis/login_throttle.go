package redis

// Package redis provides Redis-based adapters for the session core.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/multiauth/internal/ports"
)

const (
	defaultMaxFailures = 5
	defaultWindow      = 15 * time.Minute
)

// LoginThrottle counts failed sign-ins per identifier in a fixed window.
// Keys expire on their own, so an idle identifier costs nothing.
type LoginThrottle struct {
	client      redis.UniversalClient
	prefix      string
	maxFailures int64
	window      time.Duration
}

// ThrottleOptions configures a LoginThrottle. Zero values take defaults.
type ThrottleOptions struct {
	Prefix      string
	MaxFailures int
	Window      time.Duration
}

// NewLoginThrottle creates a throttle backed by client.
func NewLoginThrottle(client redis.UniversalClient, opts ThrottleOptions) *LoginThrottle {
	t := &LoginThrottle{
		client:      client,
		prefix:      opts.Prefix,
		maxFailures: int64(opts.MaxFailures),
		window:      opts.Window,
	}
	if t.prefix == "" {
		t.prefix = "login-failures:"
	}
	if t.maxFailures <= 0 {
		t.maxFailures = defaultMaxFailures
	}
	if t.window <= 0 {
		t.window = defaultWindow
	}
	return t
}

func (t *LoginThrottle) key(identifier string) string {
	return t.prefix + strings.ToLower(strings.TrimSpace(identifier))
}

// Allow reports whether another attempt for identifier may proceed.
func (t *LoginThrottle) Allow(ctx context.Context, identifier string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return false, fmt.Errorf("redis get: %w", err)
	}
	return n < t.maxFailures, nil
}

// RecordFailure increments the counter and starts the window on the first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, identifier string) error {
	key := t.key(identifier)
	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record failure: %w", err)
	}
	if incr.Val() >= t.maxFailures {
		// lock extends from the attempt that tripped it
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return fmt.Errorf("redis extend lock: %w", err)
		}
	}
	return nil
}

// Reset clears the counter after a successful sign-in.
func (t *LoginThrottle) Reset(ctx context.Context, identifier string) error {
	if err := t.client.Del(ctx, t.key(identifier)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

var _ ports.LoginThrottle = (*LoginThrottle)(nil)
