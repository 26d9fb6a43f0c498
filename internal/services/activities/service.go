package activities

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/domain/enums"
	"github.com/cultureradar/backend/internal/domain/model"
	pgrepo "github.com/cultureradar/backend/internal/repo/postgres"
	engagementsvc "github.com/cultureradar/backend/internal/services/engagement"
	geosvc "github.com/cultureradar/backend/internal/services/geo"
	weathersvc "github.com/cultureradar/backend/internal/services/weather"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("activity not found")
	ErrForbidden  = errors.New("activity belongs to another creator")
)

const defaultFeedLimit = 200

type Store interface {
	Get(ctx context.Context, activityID int64) (model.Activity, error)
	ListPublished(ctx context.Context, limit int) ([]model.Activity, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]model.Activity, error)
	Delete(ctx context.Context, activityID, userID int64, elevated bool) (bool, error)
}

type Locator interface {
	LocationLabel(ctx context.Context, point *model.Point) string
}

type Engagement interface {
	CountParticipants(ctx context.Context, activityID int64) (int, error)
	CountLikes(ctx context.Context, activityID int64) (int, error)
	Summary(ctx context.Context, activityID int64) (engagementsvc.Summary, error)
}

type WeatherSource interface {
	Current(ctx context.Context, at model.Point) (weathersvc.Conditions, error)
}

type Viewer struct {
	UserID int64
	RoleID enums.RoleID
}

func (v Viewer) canManage(a model.Activity) bool {
	return a.OwnedBy(v.UserID) || v.RoleID.Elevated()
}

// Detail is the read model behind the activity page.
type Detail struct {
	Activity      model.Activity
	Cover         string
	LocationLabel string
	Participants  int
	Likes         int
	// CountersDegraded is set when the counters could not be read; both are
	// reported as zero.
	CountersDegraded bool
}

type FeedItem struct {
	Activity        model.Activity
	Cover           string
	DistanceKM      *float64
	WeatherAdvisory bool
}

type Feed struct {
	Items   []FeedItem
	Weather *weathersvc.Conditions
}

type Service struct {
	store      Store
	locator    Locator
	engagement Engagement
	weather    WeatherSource
	logger     *zap.Logger
}

func NewService(store Store, locator Locator, engagement Engagement, weather WeatherSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		locator:    locator,
		engagement: engagement,
		weather:    weather,
		logger:     logger,
	}
}

// Get returns a published activity to anyone. Drafts, hidden and pending
// activities are visible to their creator and elevated roles only.
func (s *Service) Get(ctx context.Context, viewer Viewer, activityID int64) (Detail, error) {
	activity, err := s.load(ctx, activityID)
	if err != nil {
		return Detail{}, err
	}
	if activity.Status != enums.ActivityStatusPublished && !viewer.canManage(activity) {
		return Detail{}, ErrNotFound
	}

	detail := Detail{
		Activity:      activity,
		Cover:         activity.CoverImage(),
		LocationLabel: geosvc.PlaceUnspecified,
	}
	if s.locator != nil {
		detail.LocationLabel = s.locator.LocationLabel(ctx, activity.Location)
	}

	if s.engagement != nil {
		participants, pErr := s.engagement.CountParticipants(ctx, activityID)
		likes, lErr := s.engagement.CountLikes(ctx, activityID)
		if pErr != nil || lErr != nil {
			s.logger.Warn("activity counters unavailable",
				zap.Int64("activity_id", activityID),
				zap.NamedError("participants_error", pErr),
				zap.NamedError("likes_error", lErr),
			)
			detail.CountersDegraded = true
		} else {
			detail.Participants = participants
			detail.Likes = likes
		}
	}

	return detail, nil
}

// Editable returns the stored activity for the edit form. It skips the
// location label and counters that Get adds.
func (s *Service) Editable(ctx context.Context, viewer Viewer, activityID int64) (model.Activity, error) {
	activity, err := s.load(ctx, activityID)
	if err != nil {
		return model.Activity{}, err
	}
	if viewer.canManage(activity) {
		return activity, nil
	}
	if activity.Status != enums.ActivityStatusPublished {
		return model.Activity{}, ErrNotFound
	}
	return model.Activity{}, ErrForbidden
}

// ListPublished returns the map feed. With an origin the items are ordered
// nearest first and outdoor events get a weather advisory when conditions at
// the origin are bad. The advisory is best effort.
func (s *Service) ListPublished(ctx context.Context, origin *model.Point, limit int) (Feed, error) {
	if origin != nil && !origin.Valid() {
		return Feed{}, fmt.Errorf("origin out of range: %w", ErrValidation)
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	items, err := s.store.ListPublished(ctx, limit)
	if err != nil {
		return Feed{}, fmt.Errorf("list published activities: %w", err)
	}

	feed := Feed{Items: make([]FeedItem, 0, len(items))}
	badWeather := false
	if origin != nil && s.weather != nil {
		conditions, wErr := s.weather.Current(ctx, *origin)
		if wErr != nil {
			s.logger.Debug("weather advisory skipped", zap.Error(wErr))
		} else {
			feed.Weather = &conditions
			badWeather = weathersvc.IsBadWeather(conditions)
		}
	}

	for _, activity := range items {
		item := FeedItem{
			Activity:        activity,
			Cover:           activity.CoverImage(),
			WeatherAdvisory: badWeather && weathersvc.IsOutdoorEvent(activity.Title, activity.Description),
		}
		if origin != nil && activity.Location != nil {
			d := geosvc.DistanceKM(*origin, *activity.Location)
			item.DistanceKM = &d
		}
		feed.Items = append(feed.Items, item)
	}

	if origin != nil {
		sort.SliceStable(feed.Items, func(i, j int) bool {
			a, b := feed.Items[i].DistanceKM, feed.Items[j].DistanceKM
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return *a < *b
			}
		})
	}

	return feed, nil
}

func (s *Service) ListByCreator(ctx context.Context, creatorID int64) ([]FeedItem, error) {
	if creatorID <= 0 {
		return nil, fmt.Errorf("creator id is required: %w", ErrValidation)
	}

	items, err := s.store.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list creator activities: %w", err)
	}

	out := make([]FeedItem, 0, len(items))
	for _, activity := range items {
		out = append(out, FeedItem{Activity: activity, Cover: activity.CoverImage()})
	}
	return out, nil
}

// Stats is the creator dashboard for one activity.
func (s *Service) Stats(ctx context.Context, viewer Viewer, activityID int64) (engagementsvc.Summary, error) {
	activity, err := s.load(ctx, activityID)
	if err != nil {
		return engagementsvc.Summary{}, err
	}
	if !viewer.canManage(activity) {
		return engagementsvc.Summary{}, ErrNotFound
	}
	if s.engagement == nil {
		return engagementsvc.Summary{ActivityID: activityID}, nil
	}
	return s.engagement.Summary(ctx, activityID)
}

// Delete removes an activity the viewer owns. Unknown and foreign activities
// are reported the same way.
func (s *Service) Delete(ctx context.Context, viewer Viewer, activityID int64) error {
	if activityID <= 0 || viewer.UserID <= 0 {
		return fmt.Errorf("activity and user ids are required: %w", ErrValidation)
	}

	deleted, err := s.store.Delete(ctx, activityID, viewer.UserID, viewer.RoleID.Elevated())
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	s.logger.Info("activity deleted", zap.Int64("activity_id", activityID), zap.Int64("user_id", viewer.UserID))
	return nil
}

func (s *Service) load(ctx context.Context, activityID int64) (model.Activity, error) {
	if activityID <= 0 {
		return model.Activity{}, fmt.Errorf("activity id is required: %w", ErrValidation)
	}
	activity, err := s.store.Get(ctx, activityID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrActivityNotFound) {
			return model.Activity{}, ErrNotFound
		}
		return model.Activity{}, fmt.Errorf("get activity: %w", err)
	}
	return activity, nil
}
