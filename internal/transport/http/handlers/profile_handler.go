package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/domain/model"
	mediasvc "github.com/cultureradar/backend/internal/services/media"
	profilesvc "github.com/cultureradar/backend/internal/services/profiles"
	"github.com/cultureradar/backend/internal/transport/http/dto"
	httperrors "github.com/cultureradar/backend/internal/transport/http/errors"
)

const maxPictureUploadSize = 10 << 20

type ProfileEditor interface {
	Get(ctx context.Context, userID int64) (model.User, error)
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error)
	UploadPicture(ctx context.Context, userID int64, file mediasvc.File) (model.User, error)
}

type ProfileHandler struct {
	service ProfileEditor
	logger  *zap.Logger
}

func NewProfileHandler(service ProfileEditor, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{service: service, logger: logger}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	user, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, mapProfile(user))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid profile payload")
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), model.ProfileUpdate{
		UserID:   identity.UserID,
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		PFPLink:  req.PFPLink,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, mapProfile(user))
}

func (h *ProfileHandler) Picture(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPictureUploadSize)
	if err := r.ParseMultipartForm(maxPictureUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	user, err := h.service.UploadPicture(r.Context(), identity.UserID, mediasvc.File{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, mapProfile(user))
}

func (h *ProfileHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profilesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid profile data")
	case errors.Is(err, profilesvc.ErrNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	default:
		h.logger.Error("profile request failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to update profile")
	}
}

func mapProfile(u model.User) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:       u.ID,
		RoleID:   int(u.RoleID),
		Username: u.Username,
		Email:    u.Email,
		Phone:    u.Phone,
		PFPLink:  u.PFPLink,
	}
}
