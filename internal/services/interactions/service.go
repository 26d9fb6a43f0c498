package interactions

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/domain/model"
	pgrepo "github.com/cultureradar/backend/internal/repo/postgres"
	ratesvc "github.com/cultureradar/backend/internal/services/rate"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrActivityNotFound = errors.New("activity not found")
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e *TooFastError) Error() string {
	return fmt.Sprintf("too fast, retry in %ds", e.RetryAfter())
}

func (e *TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

// Store is scoped by the (user, activity) pair on every call.
type Store interface {
	SetParticipation(ctx context.Context, userID, activityID int64, participates bool) (model.Interaction, error)
	SetLiked(ctx context.Context, userID, activityID int64, liked bool) (model.Interaction, error)
	Get(ctx context.Context, userID, activityID int64) (model.Interaction, bool, error)
	Remove(ctx context.Context, userID, activityID int64) (bool, error)
}

type Throttle interface {
	Allow(ctx context.Context, userID int64) (ratesvc.Decision, error)
}

type Service struct {
	store    Store
	throttle Throttle
	logger   *zap.Logger
}

func NewService(store Store, throttle Throttle, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, throttle: throttle, logger: logger}
}

// SetParticipation upserts the "going" facet. Repeating the call is a no-op.
func (s *Service) SetParticipation(ctx context.Context, userID, activityID int64, participates bool) (model.Interaction, error) {
	if err := s.admit(ctx, userID, activityID); err != nil {
		return model.Interaction{}, err
	}
	it, err := s.store.SetParticipation(ctx, userID, activityID, participates)
	return it, mapStoreErr(err)
}

// SetLiked upserts the liked facet; the store stamps last_interacted when it
// changes.
func (s *Service) SetLiked(ctx context.Context, userID, activityID int64, liked bool) (model.Interaction, error) {
	if err := s.admit(ctx, userID, activityID); err != nil {
		return model.Interaction{}, err
	}
	it, err := s.store.SetLiked(ctx, userID, activityID, liked)
	return it, mapStoreErr(err)
}

// Get returns the caller's interaction, or a zero-valued one when absent.
func (s *Service) Get(ctx context.Context, userID, activityID int64) (model.Interaction, error) {
	if err := s.check(userID, activityID); err != nil {
		return model.Interaction{}, err
	}
	it, ok, err := s.store.Get(ctx, userID, activityID)
	if err != nil {
		return model.Interaction{}, err
	}
	if !ok {
		return model.Interaction{UserID: userID, ActivityID: activityID}, nil
	}
	return it, nil
}

// Remove deletes only the caller's own row. Removing an absent row is not an
// error.
func (s *Service) Remove(ctx context.Context, userID, activityID int64) (bool, error) {
	if err := s.check(userID, activityID); err != nil {
		return false, err
	}
	removed, err := s.store.Remove(ctx, userID, activityID)
	if err != nil {
		return false, err
	}
	s.logger.Debug("interaction removed",
		zap.Int64("user_id", userID),
		zap.Int64("activity_id", activityID),
		zap.Bool("removed", removed),
	)
	return removed, nil
}

func (s *Service) admit(ctx context.Context, userID, activityID int64) error {
	if err := s.check(userID, activityID); err != nil {
		return err
	}
	if s.throttle == nil {
		return nil
	}

	decision, err := s.throttle.Allow(ctx, userID)
	if err != nil {
		// Fail open when Redis is unreachable.
		s.logger.Warn("interaction throttle unavailable", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	if !decision.Allowed {
		return &TooFastError{RetryAfterSec: decision.RetryAfterSec}
	}
	return nil
}

func (s *Service) check(userID, activityID int64) error {
	if userID <= 0 || activityID <= 0 {
		return fmt.Errorf("invalid interaction key: %w", ErrValidation)
	}
	if s.store == nil {
		return fmt.Errorf("interaction store is not configured")
	}
	return nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, pgrepo.ErrActivityNotFound) {
		return ErrActivityNotFound
	}
	return err
}
