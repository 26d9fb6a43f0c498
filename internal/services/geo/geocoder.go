package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cultureradar/backend/internal/domain/model"
	"github.com/cultureradar/backend/internal/infra/httpclient"
)

const (
	PlaceUnspecified = "Lieu non précisé"
	AddressNotFound  = "Adresse non trouvée"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrAddressNotFound = errors.New("address not found")
	ErrUnavailable     = errors.New("geocoder unavailable")
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, label string) error
}

type CacheMetrics interface {
	GeocodeCache(result string)
}

type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Geocoder resolves addresses through a Nominatim-compatible API. Outbound
// calls share one token bucket.
type Geocoder struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   Cache
	metrics CacheMetrics
	logger  *zap.Logger
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
}

func NewGeocoder(cfg Config, cache Cache, logger *zap.Logger) *Geocoder {
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Geocoder{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:  httpclient.New(cfg.Timeout, cfg.UserAgent),
		limiter: rate.NewLimiter(limit, burst),
		cache:   cache,
		logger:  logger,
	}
}

func (g *Geocoder) WithMetrics(metrics CacheMetrics) *Geocoder {
	g.metrics = metrics
	return g
}

// Forward returns the first match for a free-text address.
func (g *Geocoder) Forward(ctx context.Context, address string) (model.Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return model.Point{}, fmt.Errorf("address is required: %w", ErrValidation)
	}

	query := url.Values{}
	query.Set("format", "json")
	query.Set("limit", "1")
	query.Set("q", address)

	var results []searchResult
	if err := g.getJSON(ctx, "/search", query, &results); err != nil {
		return model.Point{}, err
	}
	if len(results) == 0 {
		return model.Point{}, ErrAddressNotFound
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		return model.Point{}, fmt.Errorf("malformed coordinates for %q: %w", address, ErrAddressNotFound)
	}

	point := model.Point{Lng: lng, Lat: lat}
	if !point.Valid() {
		return model.Point{}, fmt.Errorf("coordinates out of range for %q: %w", address, ErrAddressNotFound)
	}

	return point, nil
}

// Reverse returns a short display label for a coordinate. It never fails:
// any lookup problem yields PlaceUnspecified and nothing is cached.
func (g *Geocoder) Reverse(ctx context.Context, lat, lng float64) string {
	if !(model.Point{Lng: lng, Lat: lat}).Valid() {
		return PlaceUnspecified
	}

	key := CacheKey(lat, lng)
	if g.cache != nil {
		label, ok, err := g.cache.Get(ctx, key)
		switch {
		case err != nil:
			g.logger.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			g.observeCache("hit")
			return label
		}
	}
	g.observeCache("miss")

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	var result reverseResult
	if err := g.getJSON(ctx, "/reverse", query, &result); err != nil {
		g.logger.Warn("reverse geocode failed", zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		return PlaceUnspecified
	}

	displayName := strings.TrimSpace(result.DisplayName)
	if displayName == "" {
		displayName = AddressNotFound
	}
	label := TruncateLabel(displayName)

	if g.cache != nil {
		if err := g.cache.Set(ctx, key, label); err != nil {
			g.logger.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return label
}

func (g *Geocoder) LocationLabel(ctx context.Context, point *model.Point) string {
	if point == nil {
		return PlaceUnspecified
	}
	return g.Reverse(ctx, point.Lat, point.Lng)
}

func (g *Geocoder) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if g.baseURL == "" {
		return fmt.Errorf("geocoder base url is empty: %w", ErrUnavailable)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for geocoder slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build geocoder request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("call geocoder: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("geocoder status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode geocoder response: %w", err)
	}

	return nil
}

func (g *Geocoder) observeCache(result string) {
	if g.metrics != nil {
		g.metrics.GeocodeCache(result)
	}
}

// CacheKey rounds to six decimals (about 10cm).
func CacheKey(lat, lng float64) string {
	return fmt.Sprintf("geocode:%.6f:%.6f", lat, lng)
}

// TruncateLabel keeps "number, street" style labels to two parts and
// everything else to three. Empty parts count toward the limit.
func TruncateLabel(displayName string) string {
	parts := strings.Split(displayName, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	keep := 3
	if startsWithDigit(parts[0]) {
		keep = 2
	}
	if len(parts) < keep {
		keep = len(parts)
	}

	return strings.Join(parts[:keep], ", ")
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
