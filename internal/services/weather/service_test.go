package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cultureradar/backend/internal/domain/model"
)

func TestIsBadWeather(t *testing.T) {
	cases := []struct {
		name string
		in   Conditions
		want bool
	}{
		{"mild sun", Conditions{TemperatureC: 20, Code: 0}, false},
		{"drizzle", Conditions{TemperatureC: 18, Code: 51}, false},
		{"rain", Conditions{TemperatureC: 18, Code: 63}, true},
		{"showers", Conditions{TemperatureC: 18, Code: 81}, true},
		{"fog", Conditions{TemperatureC: 15, Code: 45}, true},
		{"storm", Conditions{TemperatureC: 25, Code: 95}, true},
		{"cold", Conditions{TemperatureC: 9.9, Code: 0}, true},
		{"exactly ten", Conditions{TemperatureC: 10, Code: 0}, false},
		{"hot", Conditions{TemperatureC: 30.5, Code: 1}, true},
	}
	for _, tc := range cases {
		if got := IsBadWeather(tc.in); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsOutdoorEvent(t *testing.T) {
	if !IsOutdoorEvent("Concert en Plein Air", "") {
		t.Fatalf("title keyword must match case-insensitively")
	}
	if !IsOutdoorEvent("Yoga", "Séance à l'extérieur du parc") {
		t.Fatalf("description keyword must match")
	}
	if IsOutdoorEvent("Expo", "Galerie intérieure") {
		t.Fatalf("indoor event flagged as outdoor")
	}
}

func TestCurrentParsesForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("current") != "temperature_2m,weathercode" {
			t.Errorf("unexpected current param: %q", r.URL.Query().Get("current"))
		}
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":7.5,"weathercode":61}}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, 0).Current(context.Background(), model.Point{Lat: 48.85, Lng: 2.35})
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if got.TemperatureC != 7.5 || got.Code != 61 || got.Description != "Pluie faible" {
		t.Fatalf("unexpected conditions: %+v", got)
	}
}

func TestCurrentFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, 0).Current(context.Background(), model.Point{Lat: 1, Lng: 1}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := NewClient("", 0).Current(context.Background(), model.Point{Lat: 1, Lng: 1}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for empty base url, got %v", err)
	}
}
