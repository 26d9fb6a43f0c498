package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/domain/enums"
	"github.com/cultureradar/backend/internal/domain/model"
	pgrepo "github.com/cultureradar/backend/internal/repo/postgres"
	draftsvc "github.com/cultureradar/backend/internal/services/drafts"
	geosvc "github.com/cultureradar/backend/internal/services/geo"
	mediasvc "github.com/cultureradar/backend/internal/services/media"
	modsvc "github.com/cultureradar/backend/internal/services/moderation"
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("activity not found")
	ErrInvalidAddress = errors.New("invalid address")
	ErrGeocoder       = errors.New("address lookup failed")
	ErrPersist        = errors.New("could not save activity")
)

const defaultDownstreamTimeout = 45 * time.Second

type ActivityStore interface {
	CreateBare(ctx context.Context, creatorID int64) (int64, error)
	SubmitFull(ctx context.Context, fields model.SubmitFields) error
	SetStatus(ctx context.Context, activityID int64, status enums.ActivityStatus) error
	Get(ctx context.Context, activityID int64) (model.Activity, error)
}

type Geocoder interface {
	Forward(ctx context.Context, address string) (model.Point, error)
}

type MediaUploader interface {
	Upload(ctx context.Context, owner enums.MediaOwner, ownerID int64, files []mediasvc.File) ([]mediasvc.UploadedRef, error)
}

type Moderator interface {
	Moderate(ctx context.Context, activityID int64) modsvc.Outcome
}

type Metrics interface {
	SubmissionSettled(kind, outcome string)
}

type Actor struct {
	UserID int64
	RoleID enums.RoleID
}

type Dependencies struct {
	Activities ActivityStore
	Geocoder   Geocoder
	Media      MediaUploader
	Moderator  Moderator
	Metrics    Metrics
	Logger     *zap.Logger
}

type Config struct {
	DownstreamTimeout time.Duration
}

// Pipeline runs one create or edit attempt through
// building, persisting, media attaching and moderating. Once persisting
// succeeds the remaining stages are detached from the caller's cancellation.
type Pipeline struct {
	activities        ActivityStore
	geocoder          Geocoder
	media             MediaUploader
	moderator         Moderator
	metrics           Metrics
	logger            *zap.Logger
	downstreamTimeout time.Duration
}

func NewPipeline(deps Dependencies, cfg Config) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DownstreamTimeout <= 0 {
		cfg.DownstreamTimeout = defaultDownstreamTimeout
	}

	return &Pipeline{
		activities:        deps.Activities,
		geocoder:          deps.Geocoder,
		media:             deps.Media,
		moderator:         deps.Moderator,
		metrics:           deps.Metrics,
		logger:            logger,
		downstreamTimeout: cfg.DownstreamTimeout,
	}
}

func (p *Pipeline) Create(ctx context.Context, actor Actor, draft draftsvc.Draft) (Result, error) {
	if actor.UserID <= 0 || !actor.RoleID.CanCreate() {
		return Result{}, fmt.Errorf("role %d cannot create activities: %w", actor.RoleID, ErrForbidden)
	}
	if err := p.ready(); err != nil {
		return Result{}, err
	}

	point, err := p.build(ctx, &draft)
	if err != nil {
		return Result{}, err
	}

	activityID, err := p.activities.CreateBare(ctx, actor.UserID)
	if err != nil {
		p.logger.Error("create bare activity failed", zap.Int64("creator_id", actor.UserID), zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	p.stage(activityID, stagePersisting, "bare_created")

	return p.submit(ctx, kindCreate, activityID, enums.ActivityStatusDraft, draft, point)
}

func (p *Pipeline) Edit(ctx context.Context, actor Actor, activityID int64, draft draftsvc.Draft) (Result, error) {
	if actor.UserID <= 0 || activityID <= 0 {
		return Result{}, ErrForbidden
	}
	if err := p.ready(); err != nil {
		return Result{}, err
	}

	current, err := p.activities.Get(ctx, activityID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrActivityNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("load activity: %w", err)
	}
	if !current.OwnedBy(actor.UserID) && !actor.RoleID.Elevated() {
		return Result{}, ErrForbidden
	}

	point, err := p.build(ctx, &draft)
	if err != nil {
		return Result{}, err
	}

	return p.submit(ctx, kindEdit, activityID, current.Status, draft, point)
}

// build validates the draft and resolves its address. Nothing is written.
func (p *Pipeline) build(ctx context.Context, draft *draftsvc.Draft) (*model.Point, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if draft.Address == "" {
		return nil, nil
	}

	point, err := p.geocoder.Forward(ctx, draft.Address)
	switch {
	case err == nil:
		return &point, nil
	case errors.Is(err, geosvc.ErrAddressNotFound), errors.Is(err, geosvc.ErrValidation):
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, draft.Address)
	default:
		p.logger.Warn("forward geocode failed", zap.String("address", draft.Address), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGeocoder, err)
	}
}

func (p *Pipeline) submit(ctx context.Context, kind string, activityID int64, prior enums.ActivityStatus, draft draftsvc.Draft, point *model.Point) (Result, error) {
	fields := model.SubmitFields{
		ActivityID:  activityID,
		Title:       draft.Title,
		Description: draft.Description,
		ScheduledAt: draft.Schedule,
		Location:    point,
		Tags:        draft.TagList(),
		Email:       draft.Email,
		Phone:       draft.Phone,
		Website:     draft.Website,
	}
	if err := p.activities.SubmitFull(ctx, fields); err != nil {
		p.stage(activityID, stagePersisting, "failed", zap.Error(err))
		p.observe(kind, "persist_failed")
		return Result{ActivityID: activityID}, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	p.stage(activityID, stagePersisting, "ok")

	persisted := prior
	if persisted == enums.ActivityStatusDraft || !persisted.Valid() {
		persisted = enums.ActivityStatusSubmitted
	}

	downstream, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.downstreamTimeout)
	defer cancel()

	result := Result{ActivityID: activityID, StatusID: persisted}

	if len(draft.Files) > 0 {
		p.attachMedia(downstream, &result, draft.Files)
	} else {
		p.stage(activityID, stageMediaAttaching, "skipped")
	}

	outcome := p.moderator.Moderate(downstream, activityID)
	p.settle(downstream, &result, outcome)
	p.observe(kind, string(result.Outcome))

	return result, nil
}

func (p *Pipeline) attachMedia(ctx context.Context, result *Result, files []mediasvc.File) {
	if p.media == nil {
		result.MediaWarning = true
		result.notify(LevelWarning, msgMediaUnavailable)
		p.stage(result.ActivityID, stageMediaAttaching, "unavailable")
		return
	}

	refs, err := p.media.Upload(ctx, enums.MediaOwnerActivity, result.ActivityID, files)
	if err == nil {
		result.MediaRefs = refs
		p.stage(result.ActivityID, stageMediaAttaching, "ok", zap.Int("files", len(refs)))
		return
	}

	result.MediaWarning = true
	result.MediaRefs = refs

	var uploadErr *mediasvc.UploadError
	if errors.As(err, &uploadErr) {
		result.notify(LevelWarning, mediaFailureMessage(uploadErr))
	} else {
		result.notify(LevelWarning, msgMediaUnavailable)
	}
	p.stage(result.ActivityID, stageMediaAttaching, "failed", zap.Int("stored", len(refs)), zap.Error(err))
}

func (p *Pipeline) settle(ctx context.Context, result *Result, outcome modsvc.Outcome) {
	result.Justification = outcome.Justification

	if outcome.Fallback {
		p.stage(result.ActivityID, stageModerating, "fallback",
			zap.String("reason", outcome.FailureReason),
			zap.Int("remote_status_id", outcome.RemoteStatusID),
		)
		// The function may already have moved the row; report what it says.
		if remote := enums.ActivityStatus(outcome.RemoteStatusID); remote.Valid() && remote != enums.ActivityStatusDraft {
			result.StatusID = remote
		}
		result.Outcome = OutcomeManualFallback
		result.notify(LevelWarning, msgManualReview)
		return
	}

	if err := p.activities.SetStatus(ctx, result.ActivityID, outcome.Status); err != nil {
		p.stage(result.ActivityID, stageModerating, "status_write_failed",
			zap.String("verdict", string(outcome.Verdict)),
			zap.Error(err),
		)
		result.Outcome = OutcomeManualFallback
		result.notify(LevelWarning, msgManualReview)
		return
	}

	result.StatusID = outcome.Status
	result.Outcome = outcomeFor(outcome.Verdict)
	p.stage(result.ActivityID, stageSettled, string(result.Outcome), zap.Int("status_id", int(outcome.Status)))

	switch result.Outcome {
	case OutcomeApproved:
		result.notify(LevelSuccess, msgApproved)
	case OutcomeHeld:
		result.notify(LevelInfo, withJustification(msgHeld, outcome.Justification))
	case OutcomeRejected:
		result.notify(LevelError, withJustification(msgRejected, outcome.Justification))
	}
}

func (p *Pipeline) ready() error {
	if p.activities == nil || p.moderator == nil || p.geocoder == nil {
		return fmt.Errorf("submission pipeline dependencies are not configured")
	}
	return nil
}

func (p *Pipeline) stage(activityID int64, stage, outcome string, fields ...zap.Field) {
	base := []zap.Field{
		zap.Int64("activity_id", activityID),
		zap.String("stage", stage),
		zap.String("outcome", outcome),
	}
	p.logger.Info("submission stage", append(base, fields...)...)
}

func (p *Pipeline) observe(kind, outcome string) {
	if p.metrics != nil {
		p.metrics.SubmissionSettled(kind, outcome)
	}
}
