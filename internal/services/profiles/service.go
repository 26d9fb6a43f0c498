package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/domain/enums"
	"github.com/cultureradar/backend/internal/domain/model"
	"github.com/cultureradar/backend/internal/pkg/validate"
	pgrepo "github.com/cultureradar/backend/internal/repo/postgres"
	mediasvc "github.com/cultureradar/backend/internal/services/media"
)

const maxUsernameRunes = 50

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
)

type Store interface {
	Get(ctx context.Context, userID int64) (model.User, error)
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error)
}

type Uploader interface {
	Upload(ctx context.Context, owner enums.MediaOwner, ownerID int64, files []mediasvc.File) ([]mediasvc.UploadedRef, error)
}

type Service struct {
	store  Store
	media  Uploader
	logger *zap.Logger
}

func NewService(store Store, media Uploader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, media: media, logger: logger}
}

func (s *Service) Get(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, fmt.Errorf("user id is required: %w", ErrValidation)
	}
	user, err := s.store.Get(ctx, userID)
	if err != nil {
		return model.User{}, mapStoreErr(err)
	}
	return user, nil
}

// UpdateProfile changes the given fields. Blank fields keep their stored
// value.
func (s *Service) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error) {
	if update.UserID <= 0 {
		return model.User{}, fmt.Errorf("user id is required: %w", ErrValidation)
	}

	update.Username = strings.TrimSpace(update.Username)
	update.Email = strings.TrimSpace(update.Email)
	update.Phone = strings.TrimSpace(update.Phone)
	update.PFPLink = strings.TrimSpace(update.PFPLink)

	if !validate.MaxRunes(update.Username, maxUsernameRunes) {
		return model.User{}, fmt.Errorf("username longer than %d characters: %w", maxUsernameRunes, ErrValidation)
	}
	if update.Email != "" && !validate.Email(update.Email) {
		return model.User{}, fmt.Errorf("invalid email: %w", ErrValidation)
	}

	user, err := s.store.UpdateProfile(ctx, update)
	if err != nil {
		return model.User{}, mapStoreErr(err)
	}
	return user, nil
}

// UploadPicture stores a profile picture through the user_pfp channel and
// points the profile at it.
func (s *Service) UploadPicture(ctx context.Context, userID int64, file mediasvc.File) (model.User, error) {
	if userID <= 0 {
		return model.User{}, fmt.Errorf("user id is required: %w", ErrValidation)
	}
	if s.media == nil {
		return model.User{}, fmt.Errorf("media uploader is not configured")
	}

	refs, err := s.media.Upload(ctx, enums.MediaOwnerUserPFP, userID, []mediasvc.File{file})
	if err != nil {
		if errors.Is(err, mediasvc.ErrValidation) {
			return model.User{}, fmt.Errorf("%v: %w", err, ErrValidation)
		}
		return model.User{}, fmt.Errorf("upload profile picture: %w", err)
	}
	if len(refs) == 0 {
		return model.User{}, fmt.Errorf("profile picture is required: %w", ErrValidation)
	}

	user, err := s.store.UpdateProfile(ctx, model.ProfileUpdate{UserID: userID, PFPLink: refs[0].Link})
	if err != nil {
		return model.User{}, mapStoreErr(err)
	}

	s.logger.Info("profile picture updated", zap.Int64("user_id", userID))
	return user, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, pgrepo.ErrUserNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("profile store: %w", err)
}
