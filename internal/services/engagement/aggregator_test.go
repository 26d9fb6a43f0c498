package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cultureradar/backend/internal/domain/model"
)

type memoryStore struct {
	mu       sync.Mutex
	rows     []model.Interaction
	countErr error
	trendErr error
}

func (m *memoryStore) CountParticipants(_ context.Context, activityID int64) (int, error) {
	return m.count(activityID, func(it model.Interaction) bool { return it.Participates })
}

func (m *memoryStore) CountLikes(_ context.Context, activityID int64) (int, error) {
	return m.count(activityID, func(it model.Interaction) bool { return it.IsLiked })
}

func (m *memoryStore) count(activityID int64, keep func(model.Interaction) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for _, it := range m.rows {
		if it.ActivityID == activityID && keep(it) {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) ListInteractions(_ context.Context, activityID int64) ([]model.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.trendErr != nil {
		return nil, m.trendErr
	}
	var out []model.Interaction
	for _, it := range m.rows {
		if it.ActivityID == activityID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memoryStore) GenderDistribution(_ context.Context, _ int64) ([]model.GenderBucket, error) {
	return []model.GenderBucket{{Name: "femme", Count: 2}}, nil
}

func ptr(t time.Time) *time.Time { return &t }

func TestLikeRatioNilWithoutParticipants(t *testing.T) {
	store := &memoryStore{rows: []model.Interaction{
		{UserID: 1, ActivityID: 1, IsLiked: true},
		{UserID: 2, ActivityID: 1, IsLiked: true},
	}}
	agg := NewAggregator(store, nil)

	ratio, err := agg.LikeRatio(context.Background(), 1)
	if err != nil {
		t.Fatalf("like ratio: %v", err)
	}
	if ratio != nil {
		t.Fatalf("expected nil ratio with zero participants, got %v", *ratio)
	}

	for likes := 0; likes <= 5; likes++ {
		if r := Ratio(likes, 0); r != nil {
			t.Fatalf("Ratio(%d, 0) must be nil, got %v", likes, *r)
		}
	}
}

func TestRatioRoundsToOneDecimal(t *testing.T) {
	testCases := []struct {
		likes, participants int
		want                float64
	}{
		{likes: 2, participants: 3, want: 66.7},
		{likes: 1, participants: 3, want: 33.3},
		{likes: 3, participants: 3, want: 100},
		{likes: 5, participants: 4, want: 125},
		{likes: 0, participants: 7, want: 0},
	}

	for _, tc := range testCases {
		got := Ratio(tc.likes, tc.participants)
		if got == nil || *got != tc.want {
			t.Fatalf("Ratio(%d, %d): got %v want %v", tc.likes, tc.participants, got, tc.want)
		}
	}
}

func TestWeeklyTrendBucketsByMondayUTC(t *testing.T) {
	// 2024-03-04 is a Monday.
	mon := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := []model.Interaction{
		{Participates: true, ParticipatedAt: ptr(mon.Add(26 * time.Hour))},
		{Participates: true, IsLiked: true, ParticipatedAt: ptr(mon.AddDate(0, 0, 8)), LastInteracted: ptr(mon.Add(-time.Minute))},
		{IsLiked: true, LastInteracted: ptr(mon.AddDate(0, 0, 6).Add(23 * time.Hour))},
		{Participates: false, IsLiked: false, CreatedAt: mon},
	}

	trend := WeeklyTrend(rows)
	if len(trend) != 3 {
		t.Fatalf("unexpected bucket count: %d (%+v)", len(trend), trend)
	}

	want := []model.TrendPoint{
		{Week: mon.AddDate(0, 0, -7), Participants: 0, Likes: 1},
		{Week: mon, Participants: 1, Likes: 1},
		{Week: mon.AddDate(0, 0, 7), Participants: 1, Likes: 0},
	}
	for i := range want {
		if !trend[i].Week.Equal(want[i].Week) || trend[i].Participants != want[i].Participants || trend[i].Likes != want[i].Likes {
			t.Fatalf("bucket %d: got %+v want %+v", i, trend[i], want[i])
		}
	}
}

func TestWeekStart(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	// Monday 00:30 in Paris is still Sunday in UTC.
	at := time.Date(2024, 3, 11, 0, 30, 0, 0, paris)
	if got, want := WeekStart(at), time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("unexpected week start: got %v want %v", got, want)
	}
}

func TestSummaryDegradesPerWidget(t *testing.T) {
	store := &memoryStore{
		rows:     []model.Interaction{{UserID: 1, ActivityID: 3, Participates: true, IsLiked: true}},
		trendErr: errors.New("statement timeout"),
	}
	agg := NewAggregator(store, nil)

	summary, err := agg.Summary(context.Background(), 3)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Participants != 1 || summary.Likes != 1 || summary.LikeRatio == nil || *summary.LikeRatio != 100 {
		t.Fatalf("counters must survive trend failure: %+v", summary)
	}
	if len(summary.Degraded) != 1 || summary.Degraded[0] != WidgetTrend {
		t.Fatalf("unexpected degraded widgets: %v", summary.Degraded)
	}
	if summary.Trend == nil || len(summary.Trend) != 0 {
		t.Fatalf("degraded trend must be empty, got %v", summary.Trend)
	}
	if len(summary.Genders) != 1 {
		t.Fatalf("gender widget must be unaffected: %v", summary.Genders)
	}

	store.trendErr = nil
	store.countErr = errors.New("connection reset")
	summary, err = agg.Summary(context.Background(), 3)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Participants != 0 || summary.LikeRatio != nil {
		t.Fatalf("degraded counters must be zero: %+v", summary)
	}
	if len(summary.Degraded) != 1 || summary.Degraded[0] != WidgetCounters {
		t.Fatalf("unexpected degraded widgets: %v", summary.Degraded)
	}
}

func TestConcurrentReadsStayScoped(t *testing.T) {
	store := &memoryStore{}
	for activity := int64(1); activity <= 8; activity++ {
		for u := int64(1); u <= activity; u++ {
			store.rows = append(store.rows, model.Interaction{UserID: u, ActivityID: activity, Participates: true, IsLiked: u%2 == 0})
		}
	}
	agg := NewAggregator(store, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for activity := int64(1); activity <= 8; activity++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				n, err := agg.CountParticipants(context.Background(), id)
				if err != nil || int64(n) != id {
					errs <- fmt.Errorf("activity %d: got %d (%v)", id, n, err)
					return
				}
				likes, err := agg.CountLikes(context.Background(), id)
				if err != nil || int64(likes) != id/2 {
					errs <- fmt.Errorf("activity %d likes: got %d (%v)", id, likes, err)
					return
				}
			}
		}(activity)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestInvalidActivityID(t *testing.T) {
	agg := NewAggregator(&memoryStore{}, nil)
	if _, err := agg.Summary(context.Background(), 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
