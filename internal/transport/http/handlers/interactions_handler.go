package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/domain/model"
	interactionsvc "github.com/cultureradar/backend/internal/services/interactions"
	"github.com/cultureradar/backend/internal/transport/http/dto"
	httperrors "github.com/cultureradar/backend/internal/transport/http/errors"
)

type InteractionLedger interface {
	SetParticipation(ctx context.Context, userID, activityID int64, participates bool) (model.Interaction, error)
	SetLiked(ctx context.Context, userID, activityID int64, liked bool) (model.Interaction, error)
	Get(ctx context.Context, userID, activityID int64) (model.Interaction, error)
	Remove(ctx context.Context, userID, activityID int64) (bool, error)
}

type InteractionsHandler struct {
	service InteractionLedger
	logger  *zap.Logger
}

func NewInteractionsHandler(service InteractionLedger, logger *zap.Logger) *InteractionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InteractionsHandler{service: service, logger: logger}
}

func (h *InteractionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	activityID, ok := activityIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "INTERACTIONS_UNAVAILABLE", "interactions service is unavailable")
		return
	}

	interaction, err := h.service.Get(r.Context(), identity.UserID, activityID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, mapInteraction(interaction))
}

func (h *InteractionsHandler) Participation(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	activityID, ok := activityIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "INTERACTIONS_UNAVAILABLE", "interactions service is unavailable")
		return
	}

	var req dto.ParticipationRequest
	if err := decodeJSON(r, &req); err != nil || req.Participates == nil {
		writeBadRequest(w, "VALIDATION_ERROR", "participates is required")
		return
	}

	interaction, err := h.service.SetParticipation(r.Context(), identity.UserID, activityID, *req.Participates)
	if err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, mapInteraction(interaction))
}

func (h *InteractionsHandler) Like(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	activityID, ok := activityIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "INTERACTIONS_UNAVAILABLE", "interactions service is unavailable")
		return
	}

	var req dto.LikeRequest
	if err := decodeJSON(r, &req); err != nil || req.Liked == nil {
		writeBadRequest(w, "VALIDATION_ERROR", "liked is required")
		return
	}

	interaction, err := h.service.SetLiked(r.Context(), identity.UserID, activityID, *req.Liked)
	if err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, mapInteraction(interaction))
}

func (h *InteractionsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	activityID, ok := activityIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "INTERACTIONS_UNAVAILABLE", "interactions service is unavailable")
		return
	}

	removed, err := h.service.Remove(r.Context(), identity.UserID, activityID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.RemoveInteractionResponse{Removed: removed})
}

func (h *InteractionsHandler) handleError(w http.ResponseWriter, err error) {
	var tooFast *interactionsvc.TooFastError
	switch {
	case errors.As(err, &tooFast):
		w.Header().Set("Retry-After", strconv.FormatInt(tooFast.RetryAfter(), 10))
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "TOO_FAST",
			Message:       "too many interaction changes, slow down",
			RetryAfterSec: tooFast.RetryAfter(),
		})
	case errors.Is(err, interactionsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid interaction request")
	case errors.Is(err, interactionsvc.ErrActivityNotFound):
		writeNotFound(w, "ACTIVITY_NOT_FOUND", "activity not found")
	default:
		h.logger.Error("interaction request failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to update interaction")
	}
}

func mapInteraction(it model.Interaction) dto.InteractionResponse {
	return dto.InteractionResponse{
		ActivityID:     it.ActivityID,
		Participates:   it.Participates,
		IsLiked:        it.IsLiked,
		ParticipatedAt: it.ParticipatedAt,
		LastInteracted: it.LastInteracted,
	}
}
