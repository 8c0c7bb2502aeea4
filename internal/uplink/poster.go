package uplink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/stationside/wxuplink/internal/infrastructure/config"
)

// precision is the write-API timestamp precision. Records carry unix
// seconds, so this never changes.
const precision = "s"

// maxBodyBytes bounds how much of an error response body is kept for
// classification and logging.
const maxBodyBytes = 4096

// Outcome is the result of one delivery attempt, reduced to what
// classification needs. It deliberately is not *http.Response: the
// client-library poster has no response object to offer, only an error
// or silence.
type Outcome struct {
	// StatusCode is the HTTP status, or 0 when transport failed before
	// a status was available.
	StatusCode int

	// Body is the response body (or the transport error text), truncated.
	Body string

	// Err is the transport-level error, nil on any HTTP response.
	Err error
}

// Poster performs one delivery attempt. Implementations must honour the
// context deadline.
type Poster interface {
	Post(ctx context.Context, payload, contentType string) Outcome
	Close()
}

// Markers recognized in response bodies.
var fatalMarkers = []string{"bucket not found", "database not found"}

const (
	errorMarker   = "error"
	successMarker = "results"
)

// Classify decides what an outcome means for the worker.
//
// Returns nil for success, an ErrFatalDelivery-wrapped error for
// failures that can never succeed (missing bucket or database), and an
// ErrDeliveryFailed-wrapped error for everything else (retryable).
//
// Success is HTTP 204, or HTTP 200 whose body carries the diagnostic
// success marker some deployments return instead of an empty 204.
func Classify(o Outcome) error {
	body := strings.ToLower(o.Body)

	// Fatal markers win regardless of transport: a client library may
	// surface "bucket not found" only through its error text.
	for _, marker := range fatalMarkers {
		if strings.Contains(body, marker) {
			return fmt.Errorf("%w: %s", ErrFatalDelivery, snippet(o.Body))
		}
	}

	if o.Err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, o.Err)
	}

	switch {
	case o.StatusCode == http.StatusNoContent:
		return nil
	case o.StatusCode == http.StatusOK && strings.Contains(body, successMarker) && !strings.Contains(body, errorMarker):
		return nil
	}

	return fmt.Errorf("%w: server returned %d: %s", ErrDeliveryFailed, o.StatusCode, snippet(o.Body))
}

// snippet trims a body for log and error messages.
func snippet(body string) string {
	body = strings.TrimSpace(body)
	const max = 200
	if len(body) > max {
		return body[:max] + "..."
	}
	if body == "" {
		return "(empty body)"
	}
	return body
}

// HTTPPoster delivers line protocol straight to the v2 write API.
type HTTPPoster struct {
	url    string
	token  string
	client *http.Client
}

// NewHTTPPoster builds a poster for a destination's write endpoint:
// {server_url}/api/v2/write?bucket={bucket}&precision=s, plus org when
// configured. The per-attempt deadline comes from the caller's context,
// so the http.Client itself carries no timeout.
func NewHTTPPoster(cfg *config.DestinationConfig) *HTTPPoster {
	q := url.Values{}
	q.Set("bucket", cfg.Bucket)
	q.Set("precision", precision)
	if cfg.Org != "" {
		q.Set("org", cfg.Org)
	}

	return &HTTPPoster{
		url:    strings.TrimRight(cfg.ServerURL, "/") + "/api/v2/write?" + q.Encode(),
		token:  cfg.APIToken,
		client: &http.Client{},
	}
}

// Post sends one payload and reports the raw outcome. Classification is
// the caller's job; Post itself only fails at the transport level.
func (p *HTTPPoster) Post(ctx context.Context, payload, contentType string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, strings.NewReader(payload))
	if err != nil {
		return Outcome{Err: err}
	}
	req.Header.Set("Authorization", "Token "+p.token)
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return Outcome{Err: err, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	// Drain the remainder to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	return Outcome{StatusCode: resp.StatusCode, Body: string(body)}
}

// Close releases idle connections.
func (p *HTTPPoster) Close() {
	p.client.CloseIdleConnections()
}

// ClientPoster delivers through the InfluxDB client library instead of
// raw HTTP. The library returns only an error, so a successful write is
// reported as a synthetic 204 outcome and classification proceeds as
// usual on the error text otherwise.
type ClientPoster struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

// NewClientPoster builds a client-library poster for a destination.
func NewClientPoster(cfg *config.DestinationConfig) *ClientPoster {
	client := influxdb2.NewClientWithOptions(
		cfg.ServerURL,
		cfg.APIToken,
		influxdb2.DefaultOptions().SetPrecision(time.Second),
	)
	return &ClientPoster{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

// Post writes one pre-encoded line-protocol record.
func (p *ClientPoster) Post(ctx context.Context, payload, _ string) Outcome {
	if err := p.write.WriteRecord(ctx, payload); err != nil {
		return Outcome{Err: err, Body: err.Error()}
	}
	return Outcome{StatusCode: http.StatusNoContent}
}

// Close shuts down the underlying client.
func (p *ClientPoster) Close() {
	p.client.Close()
}
