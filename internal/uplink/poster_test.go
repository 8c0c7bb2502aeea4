package uplink_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stationside/wxuplink/internal/infrastructure/config"
	"github.com/stationside/wxuplink/internal/uplink"
)

// =============================================================================
// Classification Tests
// =============================================================================

func TestClassify_Success(t *testing.T) {
	tests := []struct {
		name    string
		outcome uplink.Outcome
	}{
		{"204 no content", uplink.Outcome{StatusCode: 204}},
		{"200 with results body", uplink.Outcome{StatusCode: 200, Body: `{"results": [{}]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := uplink.Classify(tt.outcome); err != nil {
				t.Errorf("Classify() = %v, want nil", err)
			}
		})
	}
}

func TestClassify_Retryable(t *testing.T) {
	tests := []struct {
		name    string
		outcome uplink.Outcome
	}{
		{"transport error", uplink.Outcome{Err: errors.New("connection refused")}},
		{"500", uplink.Outcome{StatusCode: 500, Body: "internal error"}},
		{"503", uplink.Outcome{StatusCode: 503}},
		{"401", uplink.Outcome{StatusCode: 401, Body: "unauthorized"}},
		{"200 with error body", uplink.Outcome{StatusCode: 200, Body: `{"results": [], "error": "partial write"}`}},
		{"200 without marker", uplink.Outcome{StatusCode: 200, Body: "ok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := uplink.Classify(tt.outcome)
			if !errors.Is(err, uplink.ErrDeliveryFailed) {
				t.Errorf("Classify() = %v, want ErrDeliveryFailed", err)
			}
			if errors.Is(err, uplink.ErrFatalDelivery) {
				t.Errorf("Classify() = %v, must not be fatal", err)
			}
		})
	}
}

func TestClassify_Fatal(t *testing.T) {
	tests := []struct {
		name    string
		outcome uplink.Outcome
	}{
		{"404 bucket", uplink.Outcome{StatusCode: 404, Body: `{"message": "bucket not found"}`}},
		{"database", uplink.Outcome{StatusCode: 404, Body: "Database not found: weather"}},
		// A client library surfaces the condition only through its error text.
		{"client error text", uplink.Outcome{Err: errors.New("bucket not found"), Body: "bucket not found"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := uplink.Classify(tt.outcome)
			if !errors.Is(err, uplink.ErrFatalDelivery) {
				t.Errorf("Classify() = %v, want ErrFatalDelivery", err)
			}
		})
	}
}

// =============================================================================
// HTTP Poster Tests
// =============================================================================

func TestHTTPPoster_Post(t *testing.T) {
	var gotPath, gotAuth, gotContentType, gotBody string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := uplink.NewHTTPPoster(&config.DestinationConfig{
		ServerURL: srv.URL,
		Bucket:    "weather",
		Org:       "home",
		APIToken:  "secret",
	})
	defer p.Close()

	payload := "record outTemp_F=33.5 1700000000"
	outcome := p.Post(context.Background(), payload, uplink.ContentType)

	if outcome.Err != nil {
		t.Fatalf("Post() Err = %v", outcome.Err)
	}
	if outcome.StatusCode != http.StatusNoContent {
		t.Errorf("StatusCode = %d, want 204", outcome.StatusCode)
	}
	if gotPath != "/api/v2/write" {
		t.Errorf("path = %q, want /api/v2/write", gotPath)
	}
	if got := gotQuery["bucket"]; len(got) != 1 || got[0] != "weather" {
		t.Errorf("bucket query = %v, want [weather]", got)
	}
	if got := gotQuery["precision"]; len(got) != 1 || got[0] != "s" {
		t.Errorf("precision query = %v, want [s]", got)
	}
	if got := gotQuery["org"]; len(got) != 1 || got[0] != "home" {
		t.Errorf("org query = %v, want [home]", got)
	}
	if gotAuth != "Token secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Token secret")
	}
	if gotContentType != uplink.ContentType {
		t.Errorf("Content-Type = %q, want %q", gotContentType, uplink.ContentType)
	}
	if gotBody != payload {
		t.Errorf("body = %q, want %q", gotBody, payload)
	}
}

func TestHTTPPoster_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message": "bucket not found"}`)
	}))
	defer srv.Close()

	p := uplink.NewHTTPPoster(&config.DestinationConfig{
		ServerURL: srv.URL,
		Bucket:    "missing",
		APIToken:  "secret",
	})
	defer p.Close()

	outcome := p.Post(context.Background(), "x v=1 1", uplink.ContentType)

	if outcome.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", outcome.StatusCode)
	}
	if err := uplink.Classify(outcome); !errors.Is(err, uplink.ErrFatalDelivery) {
		t.Errorf("Classify() = %v, want ErrFatalDelivery", err)
	}
}

func TestHTTPPoster_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	p := uplink.NewHTTPPoster(&config.DestinationConfig{
		ServerURL: srv.URL,
		Bucket:    "weather",
		APIToken:  "secret",
	})
	defer p.Close()

	outcome := p.Post(context.Background(), "x v=1 1", uplink.ContentType)

	if outcome.Err == nil {
		t.Fatal("Post() Err = nil, want transport error")
	}
	if err := uplink.Classify(outcome); !errors.Is(err, uplink.ErrDeliveryFailed) {
		t.Errorf("Classify() = %v, want ErrDeliveryFailed", err)
	}
}
