// Package offline provides an http.RoundTripper that keeps copies of GET
// responses so the client keeps working when the network is gone.
package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	DefaultCacheName = "novacast-v1.4.0"
	DefaultSize      = 128

	cacheType = "offline"
)

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, cacheType string)
	RecordCacheMiss(ctx context.Context, cacheType string)
}

type entry struct {
	status int
	header http.Header
	body   []byte
}

// Transport serves requests whose path contains /api/ network first, falling
// back to a stored copy on transport errors. Everything else is served cache
// first. Only GET responses with status 200 are stored.
type Transport struct {
	base    http.RoundTripper
	cache   *lru.Cache[string, entry]
	logger  *zap.Logger
	metrics MetricsRecorder

	mu   sync.RWMutex
	name string
}

func New(base http.RoundTripper, name string, size int, logger *zap.Logger) (*Transport, error) {
	if base == nil {
		base = http.DefaultTransport
	}
	if name == "" {
		name = DefaultCacheName
	}
	if size <= 0 {
		size = DefaultSize
	}

	cache, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create offline cache: %w", err)
	}

	return &Transport{
		base:   base,
		name:   name,
		cache:  cache,
		logger: logger,
	}, nil
}

// SetMetricsRecorder sets the metrics recorder for the transport
func (t *Transport) SetMetricsRecorder(metrics MetricsRecorder) {
	t.metrics = metrics
}

func (t *Transport) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

func (t *Transport) Len() int {
	return t.cache.Len()
}

// Activate switches the transport to a new cache version. Entries stored
// under an older name are dropped.
func (t *Transport) Activate(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name == "" || name == t.name {
		return
	}
	t.logger.Info("Deleting old cache", zap.String("old", t.name), zap.String("new", name))
	t.cache.Purge()
	t.name = name
}

func (t *Transport) Purge() {
	t.cache.Purge()
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.base.RoundTrip(req)
	}

	if strings.Contains(req.URL.Path, "/api/") {
		return t.networkFirst(req)
	}
	return t.cacheFirst(req)
}

func (t *Transport) networkFirst(req *http.Request) (*http.Response, error) {
	key := req.URL.String()

	resp, err := t.base.RoundTrip(req)
	if err == nil {
		return t.store(key, resp)
	}

	cached, ok := t.cache.Get(key)
	if !ok {
		t.recordMiss(req.Context())
		return nil, err
	}

	t.logger.Warn("Network unavailable, serving cached response",
		zap.String("url", key),
		zap.Error(err))
	t.recordHit(req.Context())
	return cached.response(req), nil
}

func (t *Transport) cacheFirst(req *http.Request) (*http.Response, error) {
	key := req.URL.String()

	if cached, ok := t.cache.Get(key); ok {
		t.logger.Debug("Serving cached response", zap.String("url", key))
		t.recordHit(req.Context())
		return cached.response(req), nil
	}
	t.recordMiss(req.Context())

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	return t.store(key, resp)
}

// store keeps a copy of a 200 response and hands the caller an unread body.
func (t *Transport) store(key string, resp *http.Response) (*http.Response, error) {
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	t.cache.Add(key, entry{
		status: resp.StatusCode,
		header: resp.Header.Clone(),
		body:   body,
	})

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func (e entry) response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.status, http.StatusText(e.status)),
		StatusCode:    e.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.body)),
		ContentLength: int64(len(e.body)),
		Request:       req,
	}
}

func (t *Transport) recordHit(ctx context.Context) {
	if t.metrics != nil {
		t.metrics.RecordCacheHit(ctx, cacheType)
	}
}

func (t *Transport) recordMiss(ctx context.Context) {
	if t.metrics != nil {
		t.metrics.RecordCacheMiss(ctx, cacheType)
	}
}
