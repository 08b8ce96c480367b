package rate

import (
	"context"
	"errors"
	"strings"
	"time"
)

var errNoUser = errors.New("rate: user id is required")

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// window is one fixed counting period. A limit of zero disables it.
type window struct {
	name  string
	size  time.Duration
	limit int64
}

func (w window) key(userID string) string {
	return "rate:swipes:" + w.name + ":" + userID
}

// Limiter caps swipe bursts per user. It is an anti-abuse guard only;
// decision and match correctness never depend on it.
type Limiter struct {
	store   WindowStore
	windows []window
}

func NewLimiter(store WindowStore, perMinute, per10Sec int) *Limiter {
	l := &Limiter{store: store}
	for _, w := range []window{
		{name: "min", size: time.Minute, limit: int64(perMinute)},
		{name: "10s", size: 10 * time.Second, limit: int64(per10Sec)},
	} {
		if w.limit > 0 {
			l.windows = append(l.windows, w)
		}
	}
	return l
}

// AllowSwipe counts one swipe against every window. When any window is over
// its limit the swipe is refused and the longest remaining wait is returned.
func (l *Limiter) AllowSwipe(ctx context.Context, userID string) (int64, bool, error) {
	userID, err := l.check(userID)
	if err != nil {
		return 0, false, err
	}

	var retryAfter int64
	for _, w := range l.windows {
		count, ttl, err := l.store.IncrementWindow(ctx, w.key(userID), w.size)
		if err != nil {
			return 0, false, err
		}
		if count > w.limit {
			retryAfter = max(retryAfter, ceilSeconds(ttl), 1)
		}
	}
	return retryAfter, retryAfter == 0, nil
}

// RetryAfterSwipe reports how long the next swipe would wait without counting it.
func (l *Limiter) RetryAfterSwipe(ctx context.Context, userID string) (int64, error) {
	userID, err := l.check(userID)
	if err != nil {
		return 0, err
	}

	var retryAfter int64
	for _, w := range l.windows {
		count, ttl, err := l.store.WindowState(ctx, w.key(userID))
		if err != nil {
			return 0, err
		}
		if count >= w.limit {
			retryAfter = max(retryAfter, ceilSeconds(ttl))
		}
	}
	return retryAfter, nil
}

func (l *Limiter) check(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errNoUser
	}
	if l.store == nil {
		return "", errors.New("rate: window store is nil")
	}
	return userID, nil
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
