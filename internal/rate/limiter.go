package rate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const signInKeyPrefix = "rl:signin:"

// Config holds the failure budget for one login.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Counters is the store surface the limiter needs. *session.Client
// implements it.
type Counters interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	Counter(ctx context.Context, key string) (int64, error)
	ResetCounters(ctx context.Context, keys ...string) error
}

// Limiter counts failed sign-ins per login.
type Limiter struct {
	store  Counters
	config Config
}

// New returns a Limiter over store.
func New(store Counters, cfg Config) *Limiter {
	return &Limiter{store: store, config: cfg}
}

// Check returns ErrRateLimited when login has no attempts left in the
// current window. Store failures are returned as is.
func (l *Limiter) Check(ctx context.Context, login string) error {
	count, err := l.store.Counter(ctx, signInKey(login))
	if err != nil {
		return err
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Fail records one failed attempt. It returns ErrRateLimited when this
// failure used up the budget.
func (l *Limiter) Fail(ctx context.Context, login string) error {
	count, err := l.store.IncrWindow(ctx, signInKey(login), l.config.Window)
	if err != nil {
		return err
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Reset clears the failure count after a successful sign-in.
func (l *Limiter) Reset(ctx context.Context, login string) error {
	return l.store.ResetCounters(ctx, signInKey(login))
}

// Attempts returns the failures recorded for login in the current window.
// Unknown logins read as zero, like known ones without failures.
func (l *Limiter) Attempts(ctx context.Context, login string) (int, error) {
	count, err := l.store.Counter(ctx, signInKey(login))
	if err != nil || count < 0 {
		return 0, err
	}
	return int(count), nil
}

func signInKey(login string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(login))))
	return signInKeyPrefix + hex.EncodeToString(sum[:])
}
