package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/domain/model"
	activitiessvc "github.com/cultureradar/backend/internal/services/activities"
	authsvc "github.com/cultureradar/backend/internal/services/auth"
	draftsvc "github.com/cultureradar/backend/internal/services/drafts"
	engagementsvc "github.com/cultureradar/backend/internal/services/engagement"
	submissionsvc "github.com/cultureradar/backend/internal/services/submission"
	weathersvc "github.com/cultureradar/backend/internal/services/weather"
	"github.com/cultureradar/backend/internal/transport/http/dto"
	httperrors "github.com/cultureradar/backend/internal/transport/http/errors"
)

const defaultMaxSubmissionSize = 20 << 20

type ActivityCatalog interface {
	Get(ctx context.Context, viewer activitiessvc.Viewer, activityID int64) (activitiessvc.Detail, error)
	Editable(ctx context.Context, viewer activitiessvc.Viewer, activityID int64) (model.Activity, error)
	ListPublished(ctx context.Context, origin *model.Point, limit int) (activitiessvc.Feed, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]activitiessvc.FeedItem, error)
	Stats(ctx context.Context, viewer activitiessvc.Viewer, activityID int64) (engagementsvc.Summary, error)
	Delete(ctx context.Context, viewer activitiessvc.Viewer, activityID int64) error
}

type Submitter interface {
	Create(ctx context.Context, actor submissionsvc.Actor, draft draftsvc.Draft) (submissionsvc.Result, error)
	Edit(ctx context.Context, actor submissionsvc.Actor, activityID int64, draft draftsvc.Draft) (submissionsvc.Result, error)
}

type ActivitiesConfig struct {
	MaxUploadSize int64
	Location      *time.Location
}

type ActivitiesHandler struct {
	catalog   ActivityCatalog
	pipeline  Submitter
	maxUpload int64
	location  *time.Location
	logger    *zap.Logger
}

func NewActivitiesHandler(catalog ActivityCatalog, pipeline Submitter, cfg ActivitiesConfig, logger *zap.Logger) *ActivitiesHandler {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxSubmissionSize
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivitiesHandler{
		catalog:   catalog,
		pipeline:  pipeline,
		maxUpload: cfg.MaxUploadSize,
		location:  cfg.Location,
		logger:    logger,
	}
}

func (h *ActivitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	if h.catalog == nil {
		writeInternal(w, "CATALOG_UNAVAILABLE", "activity catalog is unavailable")
		return
	}

	origin, ok := parseOrigin(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "lat and lon must be given together as numbers")
		return
	}
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)

	feed, err := h.catalog.ListPublished(r.Context(), origin, limit)
	if err != nil {
		h.handleCatalogError(w, err, "failed to load activities")
		return
	}

	resp := dto.FeedResponse{Items: make([]dto.FeedItemResponse, 0, len(feed.Items))}
	for _, item := range feed.Items {
		resp.Items = append(resp.Items, mapFeedItem(item))
	}
	if feed.Weather != nil {
		resp.Weather = &dto.WeatherResponse{
			TemperatureC: feed.Weather.TemperatureC,
			Code:         feed.Weather.Code,
			Description:  feed.Weather.Description,
			Bad:          weathersvc.IsBadWeather(*feed.Weather),
		}
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *ActivitiesHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.catalog == nil {
		writeInternal(w, "CATALOG_UNAVAILABLE", "activity catalog is unavailable")
		return
	}

	items, err := h.catalog.ListByCreator(r.Context(), identity.UserID)
	if err != nil {
		h.handleCatalogError(w, err, "failed to load your activities")
		return
	}

	resp := dto.FeedResponse{Items: make([]dto.FeedItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, mapFeedItem(item))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *ActivitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	activityID, ok := activityIDParam(w, r)
	if !ok {
		return
	}
	if h.catalog == nil {
		writeInternal(w, "CATALOG_UNAVAILABLE", "activity catalog is unavailable")
		return
	}

	detail, err := h.catalog.Get(r.Context(), viewerOf(identity), activityID)
	if err != nil {
		h.handleCatalogError(w, err, "failed to load activity")
		return
	}

	activity := mapActivity(detail.Activity)
	activity.Cover = detail.Cover
	httperrors.Write(w, http.StatusOK, dto.ActivityDetailResponse{
		ActivityResponse: activity,
		LocationLabel:    detail.LocationLabel,
		Participants:     detail.Participants,
		Likes:            detail.Likes,
		CountersDegraded: detail.CountersDegraded,
	})
}

func (h *ActivitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.pipeline == nil {
		writeInternal(w, "SUBMISSION_UNAVAILABLE", "submission pipeline is unavailable")
		return
	}

	form, err := parseDraftForm(w, r, h.maxUpload)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}
	defer form.Close()

	draft, err := form.draft(h.location)
	if err != nil {
		h.handleSubmissionError(w, err)
		return
	}

	result, err := h.pipeline.Create(r.Context(), actorOf(identity), draft)
	if err != nil {
		h.handleSubmissionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, mapSubmission(result))
}

func (h *ActivitiesHandler) Edit(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	activityID, ok := activityIDParam(w, r)
	if !ok {
		return
	}
	if h.pipeline == nil || h.catalog == nil {
		writeInternal(w, "SUBMISSION_UNAVAILABLE", "submission pipeline is unavailable")
		return
	}

	form, err := parseDraftForm(w, r, h.maxUpload)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}
	defer form.Close()

	current, err := h.catalog.Editable(r.Context(), viewerOf(identity), activityID)
	if err != nil {
		h.handleCatalogError(w, err, "failed to load activity")
		return
	}

	editor := draftsvc.NewEditor(current)
	if err := form.applyEdits(editor, h.location); err != nil {
		h.handleSubmissionError(w, err)
		return
	}

	result, err := h.pipeline.Edit(r.Context(), actorOf(identity), activityID, editor.Draft())
	if err != nil {
		h.handleSubmissionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, mapSubmission(result))
}

func (h *ActivitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	activityID, ok := activityIDParam(w, r)
	if !ok {
		return
	}
	if h.catalog == nil {
		writeInternal(w, "CATALOG_UNAVAILABLE", "activity catalog is unavailable")
		return
	}

	if err := h.catalog.Delete(r.Context(), viewerOf(identity), activityID); err != nil {
		h.handleCatalogError(w, err, "failed to delete activity")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.DeleteResponse{OK: true})
}

func (h *ActivitiesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	activityID, ok := activityIDParam(w, r)
	if !ok {
		return
	}
	if h.catalog == nil {
		writeInternal(w, "CATALOG_UNAVAILABLE", "activity catalog is unavailable")
		return
	}

	summary, err := h.catalog.Stats(r.Context(), viewerOf(identity), activityID)
	if err != nil {
		h.handleCatalogError(w, err, "failed to load statistics")
		return
	}

	resp := dto.StatsResponse{
		ActivityID:   summary.ActivityID,
		Participants: summary.Participants,
		Likes:        summary.Likes,
		LikeRatio:    summary.LikeRatio,
		Trend:        make([]dto.TrendPointResponse, 0, len(summary.Trend)),
		Genders:      make([]dto.GenderBucketResponse, 0, len(summary.Genders)),
		Degraded:     make([]string, 0, len(summary.Degraded)),
	}
	for _, p := range summary.Trend {
		resp.Trend = append(resp.Trend, dto.TrendPointResponse{
			Week:         p.Week.Format("2006-01-02"),
			Participants: p.Participants,
			Likes:        p.Likes,
		})
	}
	for _, g := range summary.Genders {
		resp.Genders = append(resp.Genders, dto.GenderBucketResponse{Name: g.Name, Count: g.Count})
	}
	for _, widget := range summary.Degraded {
		resp.Degraded = append(resp.Degraded, string(widget))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *ActivitiesHandler) handleCatalogError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, activitiessvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid activity request")
	case errors.Is(err, activitiessvc.ErrNotFound):
		writeNotFound(w, "ACTIVITY_NOT_FOUND", "activity not found")
	case errors.Is(err, activitiessvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "activity belongs to another creator")
	default:
		h.logger.Error("activity catalog request failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", message)
	}
}

func (h *ActivitiesHandler) handleSubmissionError(w http.ResponseWriter, err error) {
	var validationErr *draftsvc.ValidationError
	switch {
	case errors.As(err, &validationErr):
		fields := make([]dto.FieldErrorResponse, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			fields = append(fields, dto.FieldErrorResponse{Field: f.Field, Reason: f.Reason})
		}
		httperrors.Write(w, http.StatusBadRequest, dto.ValidationErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Veuillez corriger les champs indiqués.",
			Fields:  fields,
		})
	case errors.Is(err, draftsvc.ErrUnknownField), errors.Is(err, draftsvc.ErrFieldLocked):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, submissionsvc.ErrInvalidAddress):
		httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.APIError{
			Code:    "INVALID_ADDRESS",
			Message: "Adresse invalide. Veuillez vérifier et réessayer.",
		})
	case errors.Is(err, submissionsvc.ErrGeocoder):
		writeUnavailable(w, "GEOCODER_UNAVAILABLE", "Le service d'adresses est indisponible, réessayez plus tard.")
	case errors.Is(err, submissionsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "you cannot submit this activity")
	case errors.Is(err, submissionsvc.ErrNotFound):
		writeNotFound(w, "ACTIVITY_NOT_FOUND", "activity not found")
	case errors.Is(err, submissionsvc.ErrPersist):
		h.logger.Error("activity submission not saved", zap.Error(err))
		writeInternal(w, "PERSIST_FAILED", "Erreur lors de l'enregistrement de l'événement.")
	default:
		h.logger.Error("activity submission failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to submit activity")
	}
}

func mapFeedItem(item activitiessvc.FeedItem) dto.FeedItemResponse {
	activity := mapActivity(item.Activity)
	activity.Cover = item.Cover
	return dto.FeedItemResponse{
		ActivityResponse: activity,
		DistanceKM:       item.DistanceKM,
		WeatherAdvisory:  item.WeatherAdvisory,
	}
}

func mapSubmission(result submissionsvc.Result) dto.SubmissionResponse {
	resp := dto.SubmissionResponse{
		ActivityID:    result.ActivityID,
		Outcome:       string(result.Outcome),
		StatusID:      int(result.StatusID),
		Justification: result.Justification,
		MediaWarning:  result.MediaWarning,
		Media:         make([]string, 0, len(result.MediaRefs)),
		Notices:       make([]dto.NoticeResponse, 0, len(result.Notices)),
	}
	for _, ref := range result.MediaRefs {
		resp.Media = append(resp.Media, ref.Link)
	}
	for _, n := range result.Notices {
		resp.Notices = append(resp.Notices, dto.NoticeResponse{Level: string(n.Level), Message: n.Message})
	}
	return resp
}

func viewerOf(identity authsvc.Identity) activitiessvc.Viewer {
	return activitiessvc.Viewer{UserID: identity.UserID, RoleID: identity.RoleID}
}

func actorOf(identity authsvc.Identity) submissionsvc.Actor {
	return submissionsvc.Actor{UserID: identity.UserID, RoleID: identity.RoleID}
}

// parseOrigin reads optional lat/lon query parameters. ok is false when they
// are malformed or only one is given.
func parseOrigin(r *http.Request) (*model.Point, bool) {
	rawLat := strings.TrimSpace(r.URL.Query().Get("lat"))
	rawLon := strings.TrimSpace(r.URL.Query().Get("lon"))
	if rawLat == "" && rawLon == "" {
		return nil, true
	}
	lat, latErr := strconv.ParseFloat(rawLat, 64)
	lon, lonErr := strconv.ParseFloat(rawLon, 64)
	if latErr != nil || lonErr != nil {
		return nil, false
	}
	return &model.Point{Lat: lat, Lng: lon}, true
}

func parseIntOrDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
