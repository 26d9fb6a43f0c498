package engagement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cultureradar/backend/internal/domain/model"
)

var ErrValidation = errors.New("validation error")

type Store interface {
	CountParticipants(ctx context.Context, activityID int64) (int, error)
	CountLikes(ctx context.Context, activityID int64) (int, error)
	ListInteractions(ctx context.Context, activityID int64) ([]model.Interaction, error)
	GenderDistribution(ctx context.Context, activityID int64) ([]model.GenderBucket, error)
}

// Aggregator computes engagement figures for one activity at a time. It
// holds no state between calls.
type Aggregator struct {
	store  Store
	logger *zap.Logger
}

type Widget string

const (
	WidgetCounters Widget = "counters"
	WidgetTrend    Widget = "trend"
	WidgetGender   Widget = "gender"
)

// Summary is the creator dashboard. A failed widget reports zero values and
// is listed in Degraded; the others are unaffected.
type Summary struct {
	ActivityID   int64
	Participants int
	Likes        int
	LikeRatio    *float64
	Trend        []model.TrendPoint
	Genders      []model.GenderBucket
	Degraded     []Widget
}

func NewAggregator(store Store, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: store, logger: logger}
}

func (a *Aggregator) CountParticipants(ctx context.Context, activityID int64) (int, error) {
	if err := a.check(activityID); err != nil {
		return 0, err
	}
	return a.store.CountParticipants(ctx, activityID)
}

func (a *Aggregator) CountLikes(ctx context.Context, activityID int64) (int, error) {
	if err := a.check(activityID); err != nil {
		return 0, err
	}
	return a.store.CountLikes(ctx, activityID)
}

// LikeRatio is likes per participant as a percentage, or nil when nobody
// participates.
func (a *Aggregator) LikeRatio(ctx context.Context, activityID int64) (*float64, error) {
	participants, err := a.CountParticipants(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if participants == 0 {
		return nil, nil
	}
	likes, err := a.CountLikes(ctx, activityID)
	if err != nil {
		return nil, err
	}
	return Ratio(likes, participants), nil
}

func (a *Aggregator) TrendSeries(ctx context.Context, activityID int64) ([]model.TrendPoint, error) {
	if err := a.check(activityID); err != nil {
		return nil, err
	}
	interactions, err := a.store.ListInteractions(ctx, activityID)
	if err != nil {
		return nil, err
	}
	return WeeklyTrend(interactions), nil
}

func (a *Aggregator) GenderDistribution(ctx context.Context, activityID int64) ([]model.GenderBucket, error) {
	if err := a.check(activityID); err != nil {
		return nil, err
	}
	return a.store.GenderDistribution(ctx, activityID)
}

// Summary loads every widget concurrently. It only fails on an invalid id.
func (a *Aggregator) Summary(ctx context.Context, activityID int64) (Summary, error) {
	if err := a.check(activityID); err != nil {
		return Summary{}, err
	}

	out := Summary{ActivityID: activityID, Trend: []model.TrendPoint{}, Genders: []model.GenderBucket{}}
	var (
		participants, likes int
		trend               []model.TrendPoint
		genders             []model.GenderBucket
		countersErr         error
		trendErr            error
		gendersErr          error
	)

	// Widget errors are kept per widget, so the group never cancels siblings.
	var g errgroup.Group
	g.Go(func() error {
		participants, countersErr = a.store.CountParticipants(ctx, activityID)
		if countersErr == nil {
			likes, countersErr = a.store.CountLikes(ctx, activityID)
		}
		return nil
	})
	g.Go(func() error {
		trend, trendErr = a.TrendSeries(ctx, activityID)
		return nil
	})
	g.Go(func() error {
		genders, gendersErr = a.store.GenderDistribution(ctx, activityID)
		return nil
	})
	_ = g.Wait()

	if countersErr != nil {
		a.degrade(&out, WidgetCounters, activityID, countersErr)
	} else {
		out.Participants = participants
		out.Likes = likes
		out.LikeRatio = Ratio(likes, participants)
	}
	if trendErr != nil {
		a.degrade(&out, WidgetTrend, activityID, trendErr)
	} else if trend != nil {
		out.Trend = trend
	}
	if gendersErr != nil {
		a.degrade(&out, WidgetGender, activityID, gendersErr)
	} else if genders != nil {
		out.Genders = genders
	}

	return out, nil
}

func (a *Aggregator) degrade(out *Summary, widget Widget, activityID int64, err error) {
	a.logger.Warn("engagement widget degraded",
		zap.Int64("activity_id", activityID),
		zap.String("widget", string(widget)),
		zap.Error(err),
	)
	out.Degraded = append(out.Degraded, widget)
}

func (a *Aggregator) check(activityID int64) error {
	if activityID <= 0 {
		return fmt.Errorf("invalid activity id: %w", ErrValidation)
	}
	if a.store == nil {
		return fmt.Errorf("engagement store is not configured")
	}
	return nil
}

// Ratio rounds likes/participants*100 to one decimal. It returns nil when
// participants is zero, whatever the like count.
func Ratio(likes, participants int) *float64 {
	if participants <= 0 {
		return nil
	}
	v := math.Round(float64(likes)/float64(participants)*1000) / 10
	return &v
}

// WeeklyTrend buckets participations by participated_at and likes by
// last_interacted into ISO weeks starting Monday 00:00 UTC.
func WeeklyTrend(interactions []model.Interaction) []model.TrendPoint {
	buckets := make(map[time.Time]*model.TrendPoint)
	bucket := func(at time.Time) *model.TrendPoint {
		week := WeekStart(at)
		p, ok := buckets[week]
		if !ok {
			p = &model.TrendPoint{Week: week}
			buckets[week] = p
		}
		return p
	}

	for _, it := range interactions {
		if at := firstSet(it.ParticipatedAt, it.CreatedAt); it.Participates && !at.IsZero() {
			bucket(at).Participants++
		}
		if at := firstSet(it.LastInteracted, it.CreatedAt); it.IsLiked && !at.IsZero() {
			bucket(at).Likes++
		}
	}

	out := make([]model.TrendPoint, 0, len(buckets))
	for _, p := range buckets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week.Before(out[j].Week) })
	return out
}

func WeekStart(at time.Time) time.Time {
	at = at.UTC()
	offset := (int(at.Weekday()) + 6) % 7
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

func firstSet(at *time.Time, fallback time.Time) time.Time {
	if at != nil && !at.IsZero() {
		return *at
	}
	return fallback
}
