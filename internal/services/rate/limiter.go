package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	minuteWindow = time.Minute
	tenSecWindow = 10 * time.Second
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter throttles a user's interaction toggles over a one-minute and a
// ten-second window. A zero limit disables that window.
type Limiter struct {
	store     WindowStore
	scope     string
	perMinute int
	per10Sec  int
}

// Decision is the result of one Allow call. RetryAfterSec is set only when
// the action was refused.
type Decision struct {
	Allowed       bool
	RetryAfterSec int64
}

func NewLimiter(store WindowStore, scope string, perMinute, per10Sec int) *Limiter {
	if scope == "" {
		scope = "toggles"
	}

	return &Limiter{
		store:     store,
		scope:     scope,
		perMinute: max(perMinute, 0),
		per10Sec:  max(per10Sec, 0),
	}
}

func (l *Limiter) Allow(ctx context.Context, userID int64) (Decision, error) {
	if userID <= 0 {
		return Decision{}, fmt.Errorf("invalid user id")
	}
	if l == nil || l.store == nil {
		return Decision{}, fmt.Errorf("rate limiter store is nil")
	}

	var retryAfter int64
	for _, w := range l.windows(userID) {
		count, ttl, err := l.store.IncrementWindow(ctx, w.key, w.size)
		if err != nil {
			return Decision{}, err
		}
		if count > int64(w.limit) {
			retryAfter = max(retryAfter, ceilSeconds(ttl))
		}
	}

	if retryAfter > 0 {
		return Decision{Allowed: false, RetryAfterSec: retryAfter}, nil
	}
	return Decision{Allowed: true}, nil
}

// RetryAfter reports how long the user must wait before the next action
// would be accepted, without consuming a slot.
func (l *Limiter) RetryAfter(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if l == nil || l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	var retryAfter int64
	for _, w := range l.windows(userID) {
		count, ttl, err := l.store.WindowState(ctx, w.key)
		if err != nil {
			return 0, err
		}
		if count >= int64(w.limit) {
			retryAfter = max(retryAfter, ceilSeconds(ttl))
		}
	}

	return retryAfter, nil
}

type window struct {
	key   string
	size  time.Duration
	limit int
}

func (l *Limiter) windows(userID int64) []window {
	id := strconv.FormatInt(userID, 10)
	out := make([]window, 0, 2)
	if l.perMinute > 0 {
		out = append(out, window{key: "rate:" + l.scope + ":min:" + id, size: minuteWindow, limit: l.perMinute})
	}
	if l.per10Sec > 0 {
		out = append(out, window{key: "rate:" + l.scope + ":10s:" + id, size: tenSecWindow, limit: l.per10Sec})
	}
	return out
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	return max(sec, 1)
}
