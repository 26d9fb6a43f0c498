package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSubmissionCounter(t *testing.T) {
	r := New()
	r.SubmissionSettled("create", "approved")
	r.SubmissionSettled("create", "approved")
	r.SubmissionSettled("edit", "manual_fallback")

	if got := testutil.ToFloat64(r.submissions.WithLabelValues("create", "approved")); got != 2 {
		t.Fatalf("unexpected create/approved count: got %v want 2", got)
	}
	if got := testutil.ToFloat64(r.submissions.WithLabelValues("edit", "manual_fallback")); got != 1 {
		t.Fatalf("unexpected edit/manual_fallback count: got %v want 1", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	r := New()
	r.GeocodeCache("hit")
	r.ObserveHTTP(http.MethodGet, "/activities", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`cultureradar_geocode_cache_total{result="hit"} 1`,
		`cultureradar_http_request_duration_seconds_count{method="GET",route="/activities",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	r.SubmissionSettled("create", "approved")
	r.GeocodeCache("miss")
	r.ObserveHTTP(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}
