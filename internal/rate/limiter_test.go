package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/MrEthical07/goSession/session"
)

func newLimiterTest(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := session.NewClient("redis://"+mr.Addr(), session.Options{OpTimeout: time.Second})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, cfg), mr
}

func TestLimiterBlocksAfterBudget(t *testing.T) {
	l, _ := newLimiterTest(t, Config{MaxAttempts: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Check(ctx, "alice"); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if err := l.Fail(ctx, "alice"); err != nil {
			t.Fatalf("fail %d: %v", i, err)
		}
	}

	if err := l.Check(ctx, "alice"); err != nil {
		t.Fatalf("third attempt should be allowed: %v", err)
	}
	if err := l.Fail(ctx, "alice"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on the last failure, got %v", err)
	}
	if err := l.Check(ctx, "ALICE "); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("logins are normalized, expected ErrRateLimited, got %v", err)
	}
	if err := l.Check(ctx, "bob"); err != nil {
		t.Fatalf("other logins are unaffected: %v", err)
	}
}

func TestLimiterWindowExpires(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	_ = l.Fail(ctx, "alice")
	if err := l.Check(ctx, "alice"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	if err := l.Check(ctx, "alice"); err != nil {
		t.Fatalf("window should have expired: %v", err)
	}
}

func TestLimiterResetAndAttempts(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxAttempts: 5, Window: time.Minute})
	ctx := context.Background()

	_ = l.Fail(ctx, "alice")
	_ = l.Fail(ctx, "alice")

	n, err := l.Attempts(ctx, "alice")
	if err != nil || n != 2 {
		t.Fatalf("Attempts = %d, %v; want 2", n, err)
	}
	for _, k := range mr.Keys() {
		if k == "rl:signin:alice" {
			t.Fatal("login stored in clear text")
		}
	}

	if err := l.Reset(ctx, "alice"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := l.Attempts(ctx, "alice"); n != 0 {
		t.Fatalf("Attempts after reset = %d", n)
	}
}

func TestLimiterSurfacesStoreOutage(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxAttempts: 5, Window: time.Minute})
	mr.Close()

	if err := l.Check(context.Background(), "alice"); !errors.Is(err, session.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
