package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
geocoder:
  user_agent: "CultureRadar/1.0 (+https://cultureradar.fr)"
  requests_per_second: 0.5
media:
  channel: s3
  max_files: 4
submission:
  downstream_timeout: 15s
interactions:
  toggles_per_minute: 12
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Geocoder.UserAgent != "CultureRadar/1.0 (+https://cultureradar.fr)" {
		t.Fatalf("unexpected geocoder user agent: %s", cfg.Geocoder.UserAgent)
	}
	if cfg.Geocoder.RequestsPerSecond != 0.5 {
		t.Fatalf("unexpected geocoder rps: %v", cfg.Geocoder.RequestsPerSecond)
	}
	if cfg.Media.Channel != "s3" || cfg.Media.MaxFiles != 4 {
		t.Fatalf("unexpected media config: %+v", cfg.Media)
	}
	if cfg.Submission.DownstreamTimeout != 15*time.Second {
		t.Fatalf("unexpected downstream timeout: %s", cfg.Submission.DownstreamTimeout)
	}
	if cfg.Interactions.TogglesPerMinute != 12 {
		t.Fatalf("unexpected toggles per minute: %d", cfg.Interactions.TogglesPerMinute)
	}

	if cfg.Interactions.TogglesPer10Sec != 20 {
		t.Fatalf("toggles_per_10sec default should stay 20")
	}
	if cfg.Geocoder.BaseURL != "https://nominatim.openstreetmap.org" {
		t.Fatalf("geocoder base url default should stay, got %s", cfg.Geocoder.BaseURL)
	}
	if cfg.Media.MaxUploadSize != 20<<20 {
		t.Fatalf("media max_upload_size default should stay 20 MiB")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Media.Channel != "functions" {
		t.Fatalf("unexpected default media channel: %s", cfg.Media.Channel)
	}
	if cfg.Geocoder.Burst != 1 {
		t.Fatalf("unexpected default geocoder burst: %d", cfg.Geocoder.Burst)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("FUNCTIONS_BASE_URL", "https://example.supabase.co/functions/v1")
	t.Setenv("MEDIA_CHANNEL", "s3")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SUBMISSION_DOWNSTREAM_TIMEOUT", "5s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Functions.BaseURL != "https://example.supabase.co/functions/v1" {
		t.Fatalf("unexpected functions base url: %s", cfg.Functions.BaseURL)
	}
	if cfg.Media.Channel != "s3" {
		t.Fatalf("unexpected media channel: %s", cfg.Media.Channel)
	}
	if cfg.Redis.DB != 3 {
		t.Fatalf("unexpected redis db: %d", cfg.Redis.DB)
	}
	if cfg.Submission.DownstreamTimeout != 5*time.Second {
		t.Fatalf("unexpected downstream timeout: %s", cfg.Submission.DownstreamTimeout)
	}
}

func TestLoadSplitsCORSOrigins(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_CORS_ORIGINS", " https://cultureradar.fr, ,https://admin.cultureradar.fr ")
	t.Setenv("CLEANUP_DRAFT_RETENTION", "72h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	want := []string{"https://cultureradar.fr", "https://admin.cultureradar.fr"}
	if len(cfg.HTTP.CORSOrigins) != len(want) {
		t.Fatalf("unexpected origins: %v", cfg.HTTP.CORSOrigins)
	}
	for i := range want {
		if cfg.HTTP.CORSOrigins[i] != want[i] {
			t.Fatalf("unexpected origin %d: got %q want %q", i, cfg.HTTP.CORSOrigins[i], want[i])
		}
	}
	if cfg.Cleanup.DraftRetention != 72*time.Hour {
		t.Fatalf("unexpected draft retention: %s", cfg.Cleanup.DraftRetention)
	}
	if cfg.Submission.Timezone != "Europe/Paris" {
		t.Fatalf("unexpected default timezone: %s", cfg.Submission.Timezone)
	}
}

func TestLoadRejectsInvalidDurationEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_READ_TIMEOUT", "soon")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestDefaultTimeoutsCoverSubmission(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	h := cfg.HTTP
	// A 20 MiB body at roughly 1.5 Mbit/s takes close to two minutes.
	if h.ReadTimeout < 2*time.Minute {
		t.Fatalf("read timeout too short for uploads: %s", h.ReadTimeout)
	}
	if h.ReadHeaderTimeout > h.ReadTimeout {
		t.Fatalf("header timeout %s exceeds read timeout %s", h.ReadHeaderTimeout, h.ReadTimeout)
	}
	need := h.ReadTimeout + cfg.Geocoder.Timeout + persistBudget + cfg.Submission.DownstreamTimeout
	if h.RequestTimeout < need {
		t.Fatalf("request timeout %s below submission budget %s", h.RequestTimeout, need)
	}
	if h.WriteTimeout < h.RequestTimeout {
		t.Fatalf("write timeout %s shorter than request timeout %s", h.WriteTimeout, h.RequestTimeout)
	}
}

func TestLoadRejectsTimeoutsShorterThanSubmission(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "write below request", env: map[string]string{"HTTP_WRITE_TIMEOUT": "60s"}},
		{name: "request below budget", env: map[string]string{"HTTP_REQUEST_TIMEOUT": "90s"}},
		{name: "downstream outgrows request", env: map[string]string{"SUBMISSION_DOWNSTREAM_TIMEOUT": "5m"}},
		{name: "read below header", env: map[string]string{"HTTP_READ_TIMEOUT": "2s", "HTTP_READ_HEADER_TIMEOUT": "5s"}},
		{name: "zero header timeout", env: map[string]string{"HTTP_READ_HEADER_TIMEOUT": "0s"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			if _, err := Load(""); err == nil {
				t.Fatalf("expected timeout validation error")
			}
		})
	}
}

func TestLoadAcceptsConsistentCustomTimeouts(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_READ_TIMEOUT", "30s")
	t.Setenv("SUBMISSION_DOWNSTREAM_TIMEOUT", "20s")
	t.Setenv("HTTP_REQUEST_TIMEOUT", "70s")
	t.Setenv("HTTP_WRITE_TIMEOUT", "75s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTP.RequestTimeout != 70*time.Second || cfg.HTTP.WriteTimeout != 75*time.Second {
		t.Fatalf("unexpected http timeouts: %+v", cfg.HTTP)
	}
}

func TestLoadRejectsDefaultJWTSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error when auth.jwt_secret is the default in production")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_HEADER_TIMEOUT",
		"HTTP_READ_TIMEOUT",
		"HTTP_REQUEST_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"S3_PUBLIC_BASE_URL",
		"JWT_SECRET",
		"FUNCTIONS_BASE_URL",
		"FUNCTIONS_TIMEOUT",
		"GEOCODER_BASE_URL",
		"GEOCODER_USER_AGENT",
		"GEOCODER_TIMEOUT",
		"WEATHER_BASE_URL",
		"MEDIA_CHANNEL",
		"SUBMISSION_DOWNSTREAM_TIMEOUT",
		"SUBMISSION_TIMEZONE",
		"HTTP_CORS_ORIGINS",
		"INTERACTIONS_TOGGLES_PER_MINUTE",
		"INTERACTIONS_TOGGLES_PER_10SEC",
		"CLEANUP_INTERVAL",
		"CLEANUP_DRAFT_RETENTION",
	} {
		t.Setenv(key, "")
	}
}
