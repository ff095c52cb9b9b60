// Package lockout implements the failed-attempt policy consulted before a
// linked sign-in is established. Counters live in Redis so the policy holds
// across instances; Redis failures are treated fail-open, matching how the
// rate limiting middleware degrades.
package lockout

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Policy is the contract the sign-in orchestrator depends on.
type Policy interface {
	// IsLockedOut reports whether the user has exceeded the failed-attempt
	// threshold inside the current window.
	IsLockedOut(ctx context.Context, userID string) (bool, error)

	// RecordFailure counts one failed attempt against the user.
	RecordFailure(ctx context.Context, userID string) error

	// Reset clears the user's counter after a successful sign-in.
	Reset(ctx context.Context, userID string) error
}

// Config holds configuration for the lockout policy.
type Config struct {
	MaxFailures   int
	WindowSeconds int
	Enabled       bool
}

// RedisLockout implements Policy using Redis counters.
type RedisLockout struct {
	client *redis.Client
	config Config
	log    *zap.Logger
}

// NewRedisLockout creates a new Redis-backed lockout policy.
func NewRedisLockout(client *redis.Client, config Config, log *zap.Logger) *RedisLockout {
	return &RedisLockout{
		client: client,
		config: config,
		log:    log,
	}
}

// key returns the Redis key holding a user's failure counter.
func (l *RedisLockout) key(userID string) string {
	return fmt.Sprintf("lockout:user:%s", userID)
}

// IsLockedOut reports whether the user's failure counter has reached the
// threshold. On Redis errors the policy fails open: sign-in proceeds.
func (l *RedisLockout) IsLockedOut(ctx context.Context, userID string) (bool, error) {
	if !l.config.Enabled {
		return false, nil
	}

	count, err := l.client.Get(ctx, l.key(userID)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		l.log.Warn("lockout redis error, allowing sign-in",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return false, nil
	}

	if count >= int64(l.config.MaxFailures) {
		l.log.Warn("user locked out",
			zap.String("user_id", userID),
			zap.Int64("failures", count),
			zap.Int("threshold", l.config.MaxFailures),
		)
		return true, nil
	}
	return false, nil
}

// RecordFailure counts one failed attempt. The counter expires with the
// window, so the increment and expiry must be atomic.
func (l *RedisLockout) RecordFailure(ctx context.Context, userID string) error {
	if !l.config.Enabled {
		return nil
	}

	luaScript := `
		local key = KEYS[1]
		local window = tonumber(ARGV[1])

		local count = redis.call('INCR', key)
		if count == 1 then
			redis.call('EXPIRE', key, window)
		end

		return count
	`

	count, err := l.client.Eval(ctx, luaScript, []string{l.key(userID)},
		l.config.WindowSeconds).Int64()
	if err != nil {
		l.log.Warn("failed to record sign-in failure",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	}

	l.log.Debug("sign-in failure recorded",
		zap.String("user_id", userID),
		zap.Int64("failures", count),
	)
	return nil
}

// Reset clears the user's failure counter.
func (l *RedisLockout) Reset(ctx context.Context, userID string) error {
	if !l.config.Enabled {
		return nil
	}
	return l.client.Del(ctx, l.key(userID)).Err()
}
