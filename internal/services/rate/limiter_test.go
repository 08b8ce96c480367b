package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/locazos/stream-mate-match/internal/repo/redis"
)

func TestLimiterWindows(t *testing.T) {
	cases := []struct {
		name       string
		perMinute  int
		per10Sec   int
		allowed    int
		maxRetry   int64
		minRetry   int64
		fastFwd    time.Duration
		allowAfter bool
	}{
		{name: "ten second window", perMinute: 100, per10Sec: 2, allowed: 2, minRetry: 1, maxRetry: 10, fastFwd: 11 * time.Second, allowAfter: true},
		{name: "minute window", perMinute: 3, per10Sec: 100, allowed: 3, minRetry: 11, maxRetry: 60, fastFwd: 11 * time.Second, allowAfter: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mr, limiter := newLimiter(t, tc.perMinute, tc.per10Sec)
			ctx := context.Background()

			for i := 0; i < tc.allowed; i++ {
				retryAfter, allowed, err := limiter.AllowSwipe(ctx, "creator-42")
				if err != nil || !allowed || retryAfter != 0 {
					t.Fatalf("swipe #%d: allowed=%v retry_after=%d err=%v", i+1, allowed, retryAfter, err)
				}
			}

			retryAfter, allowed, err := limiter.AllowSwipe(ctx, "creator-42")
			if err != nil {
				t.Fatalf("over-limit swipe: %v", err)
			}
			if allowed {
				t.Fatalf("expected swipe #%d to be limited", tc.allowed+1)
			}
			if retryAfter < tc.minRetry || retryAfter > tc.maxRetry {
				t.Fatalf("retry_after %d outside [%d, %d]", retryAfter, tc.minRetry, tc.maxRetry)
			}

			pending, err := limiter.RetryAfterSwipe(ctx, "creator-42")
			if err != nil {
				t.Fatalf("retry_after state: %v", err)
			}
			if pending <= 0 {
				t.Fatalf("expected pending wait, got %d", pending)
			}

			mr.FastForward(tc.fastFwd)

			_, allowed, err = limiter.AllowSwipe(ctx, "creator-42")
			if err != nil {
				t.Fatalf("swipe after fast forward: %v", err)
			}
			if allowed != tc.allowAfter {
				t.Fatalf("after fast forward allowed=%v, want %v", allowed, tc.allowAfter)
			}
		})
	}
}

func TestLimiterKeepsUsersIndependent(t *testing.T) {
	_, limiter := newLimiter(t, 0, 1)
	ctx := context.Background()

	if _, allowed, _ := limiter.AllowSwipe(ctx, "a"); !allowed {
		t.Fatalf("first swipe for a should pass")
	}
	if _, allowed, _ := limiter.AllowSwipe(ctx, "b"); !allowed {
		t.Fatalf("first swipe for b should pass")
	}
	if _, allowed, _ := limiter.AllowSwipe(ctx, "a"); allowed {
		t.Fatalf("second swipe for a should be limited")
	}
}

func TestLimiterWithoutWindowsAlwaysAllows(t *testing.T) {
	_, limiter := newLimiter(t, 0, 0)
	for i := 0; i < 5; i++ {
		if _, allowed, err := limiter.AllowSwipe(context.Background(), "a"); err != nil || !allowed {
			t.Fatalf("swipe #%d: allowed=%v err=%v", i+1, allowed, err)
		}
	}
}

func TestLimiterRejectsEmptyUser(t *testing.T) {
	limiter := NewLimiter(nil, 1, 1)
	if _, _, err := limiter.AllowSwipe(context.Background(), "  "); !errors.Is(err, errNoUser) {
		t.Fatalf("expected errNoUser, got %v", err)
	}
}

func TestCeilSeconds(t *testing.T) {
	cases := map[time.Duration]int64{
		0:                       0,
		-time.Second:            0,
		time.Millisecond:        1,
		time.Second:             1,
		1500 * time.Millisecond: 2,
	}
	for in, want := range cases {
		if got := ceilSeconds(in); got != want {
			t.Fatalf("ceilSeconds(%v) = %d, want %d", in, got, want)
		}
	}
}

func newLimiter(t *testing.T, perMinute, per10Sec int) (*miniredis.Miniredis, *Limiter) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewLimiter(redrepo.NewRateRepo(client), perMinute, per10Sec)
}
