package weather

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

	"github.com/cultureradar/backend/internal/domain/model"
	"github.com/cultureradar/backend/internal/infra/httpclient"
)

var ErrUnavailable = errors.New("weather provider unavailable")

// Conditions is the current weather at a point.
type Conditions struct {
	TemperatureC float64
	Code         int
	Description  string
}

var descriptions = map[int]string{
	0:  "Ensoleillé",
	1:  "Principalement clair",
	2:  "Partiellement nuageux",
	3:  "Couvert",
	45: "Brouillard",
	48: "Brouillard givrant",
	51: "Bruine faible",
	53: "Bruine modérée",
	55: "Bruine dense",
	61: "Pluie faible",
	63: "Pluie modérée",
	65: "Pluie forte",
	80: "Averses légères",
	81: "Averses modérées",
	82: "Averses fortes",
	95: "Orage",
	96: "Orage avec grêle",
	99: "Orage avec forte grêle",
}

// Rain, showers, fog and thunderstorms. Drizzle is not bad weather.
var badCodes = map[int]bool{
	45: true, 48: true,
	61: true, 63: true, 65: true,
	80: true, 81: true, 82: true,
	95: true, 96: true, 99: true,
}

var outdoorKeywords = []string{"extérieur", "exterieur", "outdoor", "plein air"}

func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "Inconnu"
}

func IsBadWeather(c Conditions) bool {
	return badCodes[c.Code] || c.TemperatureC < 10 || c.TemperatureC > 30
}

func IsOutdoorEvent(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	for _, kw := range outdoorKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Client reads current conditions from an open-meteo compatible API.
type Client struct {
	baseURL string
	client  *http.Client
}

type forecastResponse struct {
	Current struct {
		Temperature *float64 `json:"temperature_2m"`
		WeatherCode *int     `json:"weathercode"`
	} `json:"current"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  httpclient.New(timeout, ""),
	}
}

func (c *Client) Current(ctx context.Context, at model.Point) (Conditions, error) {
	if c.baseURL == "" {
		return Conditions{}, fmt.Errorf("weather base url is empty: %w", ErrUnavailable)
	}
	if !at.Valid() {
		return Conditions{}, fmt.Errorf("invalid coordinates: %w", ErrUnavailable)
	}

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(at.Lng, 'f', -1, 64))
	query.Set("current", "temperature_2m,weathercode")
	query.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+query.Encode(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("weather request: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Conditions{}, fmt.Errorf("weather status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Conditions{}, fmt.Errorf("decode weather response: %v: %w", err, ErrUnavailable)
	}
	if payload.Current.Temperature == nil || payload.Current.WeatherCode == nil {
		return Conditions{}, fmt.Errorf("weather response missing current fields: %w", ErrUnavailable)
	}

	code := *payload.Current.WeatherCode
	return Conditions{
		TemperatureC: *payload.Current.Temperature,
		Code:         code,
		Description:  Describe(code),
	}, nil
}
