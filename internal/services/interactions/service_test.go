package interactions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cultureradar/backend/internal/domain/model"
	pgrepo "github.com/cultureradar/backend/internal/repo/postgres"
	redrepo "github.com/cultureradar/backend/internal/repo/redis"
	engagementsvc "github.com/cultureradar/backend/internal/services/engagement"
	ratesvc "github.com/cultureradar/backend/internal/services/rate"
)

type pairKey struct {
	userID, activityID int64
}

// ledger mimics user_activities with its composite primary key.
type ledger struct {
	mu         sync.Mutex
	rows       map[pairKey]model.Interaction
	activities map[int64]bool
	clock      time.Time
}

func newLedger(activityIDs ...int64) *ledger {
	l := &ledger{
		rows:       map[pairKey]model.Interaction{},
		activities: map[int64]bool{},
		clock:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	for _, id := range activityIDs {
		l.activities[id] = true
	}
	return l
}

func (l *ledger) tick() time.Time {
	l.clock = l.clock.Add(time.Minute)
	return l.clock
}

func (l *ledger) upsert(userID, activityID int64, apply func(*model.Interaction)) (model.Interaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.activities[activityID] {
		return model.Interaction{}, pgrepo.ErrActivityNotFound
	}
	key := pairKey{userID, activityID}
	row, ok := l.rows[key]
	if !ok {
		row = model.Interaction{UserID: userID, ActivityID: activityID, CreatedAt: l.tick()}
	}
	apply(&row)
	l.rows[key] = row
	return row, nil
}

func (l *ledger) SetParticipation(_ context.Context, userID, activityID int64, participates bool) (model.Interaction, error) {
	return l.upsert(userID, activityID, func(row *model.Interaction) {
		if participates && !row.Participates {
			at := l.tick()
			row.ParticipatedAt = &at
		}
		row.Participates = participates
	})
}

func (l *ledger) SetLiked(_ context.Context, userID, activityID int64, liked bool) (model.Interaction, error) {
	return l.upsert(userID, activityID, func(row *model.Interaction) {
		if liked != row.IsLiked {
			at := l.tick()
			row.LastInteracted = &at
		}
		row.IsLiked = liked
	})
}

func (l *ledger) Get(_ context.Context, userID, activityID int64) (model.Interaction, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[pairKey{userID, activityID}]
	return row, ok, nil
}

func (l *ledger) Remove(_ context.Context, userID, activityID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := pairKey{userID, activityID}
	_, ok := l.rows[key]
	delete(l.rows, key)
	return ok, nil
}

func (l *ledger) CountParticipants(_ context.Context, activityID int64) (int, error) {
	return l.count(activityID, func(r model.Interaction) bool { return r.Participates }), nil
}

func (l *ledger) CountLikes(_ context.Context, activityID int64) (int, error) {
	return l.count(activityID, func(r model.Interaction) bool { return r.IsLiked }), nil
}

func (l *ledger) ListInteractions(_ context.Context, activityID int64) ([]model.Interaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Interaction
	for _, r := range l.rows {
		if r.ActivityID == activityID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *ledger) GenderDistribution(_ context.Context, _ int64) ([]model.GenderBucket, error) {
	return nil, nil
}

func (l *ledger) count(activityID int64, keep func(model.Interaction) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.rows {
		if r.ActivityID == activityID && keep(r) {
			n++
		}
	}
	return n
}

func TestSetParticipationIsIdempotent(t *testing.T) {
	store := newLedger(10)
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	first, err := svc.SetParticipation(ctx, 1, 10, true)
	if err != nil {
		t.Fatalf("first participation: %v", err)
	}
	second, err := svc.SetParticipation(ctx, 1, 10, true)
	if err != nil {
		t.Fatalf("second participation: %v", err)
	}

	if len(store.rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(store.rows))
	}
	if !second.Participates {
		t.Fatalf("expected participates=true")
	}
	if first.ParticipatedAt == nil || second.ParticipatedAt == nil || !first.ParticipatedAt.Equal(*second.ParticipatedAt) {
		t.Fatalf("repeat call must not restamp participated_at: %v %v", first.ParticipatedAt, second.ParticipatedAt)
	}
}

func TestSetLikedStampsOnTransitionOnly(t *testing.T) {
	store := newLedger(10)
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	liked, err := svc.SetLiked(ctx, 1, 10, true)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	again, err := svc.SetLiked(ctx, 1, 10, true)
	if err != nil {
		t.Fatalf("like again: %v", err)
	}
	if !liked.LastInteracted.Equal(*again.LastInteracted) {
		t.Fatalf("unchanged like must keep last_interacted")
	}

	unliked, err := svc.SetLiked(ctx, 1, 10, false)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if !unliked.LastInteracted.After(*liked.LastInteracted) {
		t.Fatalf("unlike must refresh last_interacted")
	}
	if unliked.Participates {
		t.Fatalf("like toggles must not touch participation")
	}
}

func TestRemoveIsScopedToCaller(t *testing.T) {
	store := newLedger(10)
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	for _, userID := range []int64{1, 2} {
		if _, err := svc.SetParticipation(ctx, userID, 10, true); err != nil {
			t.Fatalf("participate %d: %v", userID, err)
		}
	}
	before, _, _ := store.Get(ctx, 2, 10)

	removed, err := svc.Remove(ctx, 1, 10)
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}

	after, ok, _ := store.Get(ctx, 2, 10)
	if !ok {
		t.Fatalf("other user's row was deleted")
	}
	if after != before {
		t.Fatalf("other user's row changed: before=%+v after=%+v", before, after)
	}

	removed, err = svc.Remove(ctx, 1, 10)
	if err != nil || removed {
		t.Fatalf("second remove must be a quiet no-op: removed=%v err=%v", removed, err)
	}
}

func TestTwoLikesThenOneRemoved(t *testing.T) {
	store := newLedger(42)
	svc := NewService(store, nil, nil)
	agg := engagementsvc.NewAggregator(store, nil)
	ctx := context.Background()

	for _, userID := range []int64{1, 2} {
		if _, err := svc.SetLiked(ctx, userID, 42, true); err != nil {
			t.Fatalf("like %d: %v", userID, err)
		}
	}
	if n, _ := agg.CountLikes(ctx, 42); n != 2 {
		t.Fatalf("unexpected likes: got %d want 2", n)
	}

	u2Before, _, _ := store.Get(ctx, 2, 42)
	if _, err := svc.Remove(ctx, 1, 42); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if n, _ := agg.CountLikes(ctx, 42); n != 1 {
		t.Fatalf("unexpected likes after removal: got %d want 1", n)
	}
	u2After, ok, _ := store.Get(ctx, 2, 42)
	if !ok || u2After != u2Before {
		t.Fatalf("u2 row must be untouched: before=%+v after=%+v", u2Before, u2After)
	}
}

func TestGetReturnsZeroWhenAbsent(t *testing.T) {
	svc := NewService(newLedger(10), nil, nil)

	it, err := svc.Get(context.Background(), 3, 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if it.Participates || it.IsLiked || it.UserID != 3 || it.ActivityID != 10 {
		t.Fatalf("unexpected interaction: %+v", it)
	}
}

func TestUnknownActivity(t *testing.T) {
	svc := NewService(newLedger(), nil, nil)

	_, err := svc.SetLiked(context.Background(), 1, 99, true)
	if !errors.Is(err, ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}
	if _, err := svc.SetLiked(context.Background(), 0, 99, true); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTogglesAreThrottled(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	limiter := ratesvc.NewLimiter(redrepo.NewRateRepo(client), "toggles", 0, 2)
	svc := NewService(newLedger(10), limiter, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.SetLiked(ctx, 1, 10, i%2 == 0); err != nil {
			t.Fatalf("toggle #%d: %v", i+1, err)
		}
	}

	_, err = svc.SetLiked(ctx, 1, 10, true)
	var tooFast *TooFastError
	if !errors.As(err, &tooFast) {
		t.Fatalf("expected TooFastError, got %v", err)
	}
	if tooFast.RetryAfter() <= 0 {
		t.Fatalf("expected positive retry after")
	}

	// Removal is never throttled.
	if _, err := svc.Remove(ctx, 1, 10); err != nil {
		t.Fatalf("remove while throttled: %v", err)
	}
}

type brokenThrottle struct{}

func (brokenThrottle) Allow(context.Context, int64) (ratesvc.Decision, error) {
	return ratesvc.Decision{}, errors.New("redis: connection refused")
}

func TestThrottleOutageFailsOpen(t *testing.T) {
	svc := NewService(newLedger(10), brokenThrottle{}, nil)
	if _, err := svc.SetParticipation(context.Background(), 1, 10, true); err != nil {
		t.Fatalf("expected toggle to pass during throttle outage: %v", err)
	}
}
