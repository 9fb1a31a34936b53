// internal/common/http/client.go
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/common/metrics"
)

// maxBodyBytes caps how much of an upstream body is read.
const maxBodyBytes = 8 << 20

// StatusError is returned when the upstream answered with a non-2xx status.
type StatusError struct {
	Backend    string
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d %s", e.Backend, e.StatusCode, e.Reason)
}

// NetworkError is returned when no response was received at all.
type NetworkError struct {
	Backend string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Backend, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client issues JSON GET requests against upstream backends.
type Client struct {
	httpClient *http.Client
	userAgent  string
	tracer     trace.Tracer
}

func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		tracer:    otel.Tracer("storefront/http"),
	}
}

// NewClientWith wraps an existing *http.Client, mostly for tests.
func NewClientWith(hc *http.Client, userAgent string) *Client {
	return &Client{httpClient: hc, userAgent: userAgent, tracer: otel.Tracer("storefront/http")}
}

// GetJSON fetches rawURL and returns the body of a 2xx response. backend
// names the upstream in errors, spans and metrics.
func (c *Client) GetJSON(ctx context.Context, backend, rawURL string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "GET "+backend, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequests.WithLabelValues(backend, metrics.OutcomeNetwork).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, &NetworkError{Backend: backend, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.BackendRequests.WithLabelValues(backend, metrics.OutcomeStatus).Inc()
		span.SetStatus(codes.Error, resp.Status)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{
			Backend:    backend,
			StatusCode: resp.StatusCode,
			Reason:     http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.BackendRequests.WithLabelValues(backend, metrics.OutcomeNetwork).Inc()
		return nil, &NetworkError{Backend: backend, Err: err}
	}

	metrics.BackendRequests.WithLabelValues(backend, metrics.OutcomeSuccess).Inc()
	return body, nil
}

// IsNetworkError reports whether err means no response was received.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
