package functions

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDoJSONForwardsBearerToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer user-jwt" {
			t.Errorf("unexpected Authorization: %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("unexpected Content-Type: %q", got)
		}
		if r.URL.Path != "/functions/v1/moderate-activity" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/functions/v1/", time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var out struct {
		OK bool `json:"ok"`
	}
	ctx := WithBearerToken(context.Background(), "user-jwt")
	if err := client.DoJSON(ctx, http.MethodPost, "moderate-activity", map[string]int64{"activity_id": 7}, &out); err != nil {
		t.Fatalf("do json: %v", err)
	}
	if !out.OK {
		t.Fatalf("response not decoded")
	}
}

func TestDoJSONClassifiesStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		status int
	}{
		{name: "server error", status: http.StatusInternalServerError},
		{name: "bad gateway", status: http.StatusBadGateway},
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "validation", status: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"boom"}`))
			}))
			defer server.Close()

			client, err := NewClient(server.URL, time.Second)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}

			err = client.DoJSON(context.Background(), http.MethodPost, "/x", nil, nil)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected RequestError, got %v", err)
			}
			if reqErr.StatusCode != tc.status {
				t.Fatalf("unexpected status: %d", reqErr.StatusCode)
			}
			if !strings.Contains(err.Error(), "boom") {
				t.Fatalf("expected error body in message: %v", err)
			}
		})
	}
}

func TestDoMultipartSendsFieldsAndFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("activity_id"); got != "12" {
			t.Errorf("unexpected activity_id: %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "poster.jpg" || string(data) != "jpeg-bytes" {
			t.Errorf("unexpected file %s %q", header.Filename, data)
		}
		_, _ = w.Write([]byte(`{"blob_link":"activities/12/poster.jpg"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var out struct {
		BlobLink string `json:"blob_link"`
	}
	err = client.DoMultipart(context.Background(), "/uploadmedia-activities", map[string]string{"activity_id": "12"}, Part{
		FileName: "poster.jpg",
		Body:     strings.NewReader("jpeg-bytes"),
	}, &out)
	if err != nil {
		t.Fatalf("do multipart: %v", err)
	}
	if out.BlobLink != "activities/12/poster.jpg" {
		t.Fatalf("unexpected blob link: %q", out.BlobLink)
	}
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("functions/v1", time.Second); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}
