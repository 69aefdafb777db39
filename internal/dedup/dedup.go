// Package dedup collapses identical concurrent HTTP calls into a single
// in-flight request whose outcome is shared by every caller.
package dedup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/vzahanych/novacast/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidJSON = errors.New("response is not valid JSON")

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status: %d", e.URL, e.Code)
}

// MetricsRecorder receives one call per caller that joined an existing
// in-flight request instead of issuing its own.
type MetricsRecorder interface {
	RecordDeduplicated(ctx context.Context)
}

type Deduplicator struct {
	client  *http.Client
	group   singleflight.Group
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics MetricsRecorder

	mu      sync.Mutex
	waiting int
}

func New(client *http.Client, logger *zap.Logger, tele *telemetry.Telemetry) *Deduplicator {
	if client == nil {
		client = http.DefaultClient
	}
	return &Deduplicator{
		client: client,
		logger: logger,
		tele:   tele,
	}
}

func (d *Deduplicator) SetMetricsRecorder(metrics MetricsRecorder) {
	d.metrics = metrics
}

// Pending returns the number of callers currently waiting on an in-flight
// request, joined or not.
func (d *Deduplicator) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waiting
}

// Fetch issues req, or joins an identical request already in flight, and
// returns the raw JSON body. The returned slice is shared between callers and
// must not be modified.
//
// Cancelling ctx only stops this caller from waiting. The underlying request
// runs detached from any single caller and is bounded by the HTTP client's
// timeout; its registry entry is dropped as soon as it settles, successful or
// not. Failures are not retried.
func (d *Deduplicator) Fetch(ctx context.Context, req Request) ([]byte, error) {
	key, payload, err := KeyFor(req)
	if err != nil {
		return nil, err
	}

	ctx, span := d.tele.GetTracer().Start(ctx, "dedup.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", key.Method),
		attribute.String("http.url", key.URL),
	)

	detached := context.WithoutCancel(ctx)
	leader := false
	ch := d.group.DoChan(key.String(), func() (interface{}, error) {
		leader = true
		return d.do(detached, key, req.Header, payload)
	})

	d.track(1)
	defer d.track(-1)

	select {
	case res := <-ch:
		if !leader {
			d.logger.Debug("Reused pending request", zap.String("key", key.String()))
			span.SetAttributes(attribute.Bool("deduplicated", true))
			if d.metrics != nil {
				d.metrics.RecordDeduplicated(ctx)
			}
		}
		if res.Err != nil {
			span.SetAttributes(attribute.Bool("success", false))
			return nil, res.Err
		}
		span.SetAttributes(attribute.Bool("success", true))
		return res.Val.([]byte), nil
	case <-ctx.Done():
		d.logger.Debug("Stopped waiting for pending request",
			zap.String("key", key.String()),
			zap.Error(ctx.Err()))
		return nil, ctx.Err()
	}
}

func (d *Deduplicator) track(delta int) {
	d.mu.Lock()
	d.waiting += delta
	d.mu.Unlock()
}

func (d *Deduplicator) do(ctx context.Context, key Key, header http.Header, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, key.Method, key.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for name, values := range header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if payload != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	d.logger.Debug("Issuing request", zap.String("key", key.String()))

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", key.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", key.URL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, URL: key.URL}
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: %w", key.URL, ErrInvalidJSON)
	}

	return data, nil
}
