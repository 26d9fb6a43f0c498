package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/cultureradar/backend/internal/domain/model"
	"github.com/cultureradar/backend/internal/transport/http/dto"
	httperrors "github.com/cultureradar/backend/internal/transport/http/errors"
)

type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lng float64) string
}

type GeoHandler struct {
	geocoder ReverseGeocoder
}

func NewGeoHandler(geocoder ReverseGeocoder) *GeoHandler {
	return &GeoHandler{geocoder: geocoder}
}

// Reverse always answers with a label; lookup failures surface as the
// generic placeholder chosen by the geocoder.
func (h *GeoHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	if h.geocoder == nil {
		writeInternal(w, "GEOCODER_UNAVAILABLE", "geocoder is unavailable")
		return
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("lat")), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("lon")), 64)
	if latErr != nil || lngErr != nil || !(model.Point{Lat: lat, Lng: lng}).Valid() {
		writeBadRequest(w, "VALIDATION_ERROR", "lat and lon are required")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ReverseGeocodeResponse{
		Label: h.geocoder.Reverse(r.Context(), lat, lng),
	})
}
