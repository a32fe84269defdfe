package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// LoginAttemptLimit is the number of failed logins tolerated per
	// account before further attempts are refused.
	LoginAttemptLimit = 5

	// LoginAttemptWindow is how long a lockout lasts once triggered.
	LoginAttemptWindow = 15 * time.Minute
)

// LoginLimiter counts failed login attempts per email in Redis. Wrong
// password and unknown email are counted alike, so the limiter leaks
// nothing the login response doesn't.
type LoginLimiter struct {
	rdb *redis.Client
}

func NewLoginLimiter(rdb *redis.Client) *LoginLimiter {
	return &LoginLimiter{rdb: rdb}
}

// Blocked reports whether the account has exhausted its attempts.
func (l *LoginLimiter) Blocked(ctx context.Context, email string) (bool, error) {
	n, err := l.rdb.Get(ctx, attemptKey(email)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= LoginAttemptLimit, nil
}

// RecordFailure increments the failure counter, starting the expiry
// window on the first failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) error {
	n, err := l.rdb.Incr(ctx, attemptKey(email)).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return l.rdb.Expire(ctx, attemptKey(email), LoginAttemptWindow).Err()
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	return l.rdb.Del(ctx, attemptKey(email)).Err()
}

func attemptKey(email string) string {
	return "login_attempts:" + email
}
