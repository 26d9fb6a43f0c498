package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cultureradar/backend/internal/domain/model"
	authsvc "github.com/cultureradar/backend/internal/services/auth"
	"github.com/cultureradar/backend/internal/transport/http/dto"
	httperrors "github.com/cultureradar/backend/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func writeUnavailable(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{Code: code, Message: message})
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok || identity.UserID <= 0 {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func activityIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	rawID := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid activity id")
		return 0, false
	}
	return id, true
}

func mapActivity(a model.Activity) dto.ActivityResponse {
	out := dto.ActivityResponse{
		ID:          a.ID,
		CreatorID:   a.CreatorID,
		Title:       a.Title,
		Description: a.Description,
		Email:       a.Email,
		Phone:       a.Phone,
		Website:     a.Website,
		ScheduledAt: a.ScheduledAt,
		StatusID:    int(a.Status),
		Status:      a.Status.String(),
		Tags:        a.Tags,
		Media:       a.Media,
		Cover:       a.CoverImage(),
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Media == nil {
		out.Media = []string{}
	}
	if a.Location != nil {
		out.Location = &dto.PointResponse{Lat: a.Location.Lat, Lng: a.Location.Lng}
	}
	return out
}
