// Package client implements the forecast search flow: cache lookup,
// geocoding, deduplicated backend fetch and last-search-wins supersession.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vzahanych/novacast/internal/dedup"
	"github.com/vzahanych/novacast/internal/forecast"
	"github.com/vzahanych/novacast/internal/geocoding"
	"github.com/vzahanych/novacast/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const cacheType = "forecast"

type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
)

type Result struct {
	City          string
	Date          string
	Day           forecast.DayForecast
	Precipitation forecast.Precipitation
	Source        Source
}

type Geocoder interface {
	Resolve(ctx context.Context, name string) (*geocoding.Coordinates, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, req dedup.Request) ([]byte, error)
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, cacheType string)
	RecordCacheMiss(ctx context.Context, cacheType string)
	RecordSuperseded(ctx context.Context)
}

type Options struct {
	BackendURL string
	APIHorizon int
	// MaxForecastDays rejects dates further out than this. Zero disables the check.
	MaxForecastDays int
	Policy          forecast.Policy
	// Now defaults to time.Now; "today" is taken in Now's location.
	Now func() time.Time
}

// Orchestrator owns the cached forecast bundle and the request generation.
// It is safe for concurrent use; the most recently started network search
// wins.
type Orchestrator struct {
	geocoder  Geocoder
	fetcher   Fetcher
	presenter Presenter
	logger    *zap.Logger
	tele      *telemetry.Telemetry
	metrics   MetricsRecorder
	opts      Options

	generation atomic.Uint64

	mu     sync.RWMutex
	bundle *forecast.Bundle
}

func New(geocoder Geocoder, fetcher Fetcher, presenter Presenter, logger *zap.Logger, tele *telemetry.Telemetry, opts Options) *Orchestrator {
	if opts.APIHorizon <= 0 {
		opts.APIHorizon = forecast.DefaultAPIHorizon
	}
	if opts.Policy == (forecast.Policy{}) {
		opts.Policy = forecast.DefaultPolicy()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if presenter == nil {
		presenter = NopPresenter{}
	}

	return &Orchestrator{
		geocoder:  geocoder,
		fetcher:   fetcher,
		presenter: presenter,
		logger:    logger,
		tele:      tele,
		opts:      opts,
	}
}

// SetMetricsRecorder sets the metrics recorder for the orchestrator
func (o *Orchestrator) SetMetricsRecorder(metrics MetricsRecorder) {
	o.metrics = metrics
}

// Bundle returns the current bundle, or nil before the first successful fetch.
// Bundles are never mutated, so the result may be read freely.
func (o *Orchestrator) Bundle() *forecast.Bundle {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.bundle
}

// CurrentCity is the city of the current bundle, or "" if none.
func (o *Orchestrator) CurrentCity() string {
	if b := o.Bundle(); b != nil {
		return b.City
	}
	return ""
}

// Generation returns the identity of the most recently started network search.
func (o *Orchestrator) Generation() uint64 {
	return o.generation.Load()
}

// Refresh runs a search that bypasses the cache.
func (o *Orchestrator) Refresh(ctx context.Context, city, date string) (Result, error) {
	return o.Search(ctx, city, date, true)
}

// Search looks up the forecast of city for date (YYYY-MM-DD, empty for
// today). Cached data is used when the bundle belongs to the same city,
// holds the date and is still fresh; otherwise the city is geocoded and a
// new bundle fetched. Every outcome except ErrSuperseded is reported to the
// presenter.
func (o *Orchestrator) Search(ctx context.Context, city, date string, forceRefresh bool) (Result, error) {
	ctx, span := o.tele.GetTracer().Start(ctx, "client.Search")
	defer span.End()

	now := o.opts.Now()
	city = strings.TrimSpace(city)
	if date == "" {
		date = now.Format(forecast.DateLayout)
	}

	span.SetAttributes(
		attribute.String("city", city),
		attribute.String("date", date),
		attribute.Bool("force_refresh", forceRefresh),
	)

	target, err := o.validate(city, date, now)
	if err != nil {
		o.presenter.Notify(validationMessage(err), SeverityError)
		return Result{}, err
	}

	if !forceRefresh {
		if res, ok := o.fromCache(city, date, target, now); ok {
			o.logger.Debug("Cache hit", zap.String("city", city), zap.String("date", date))
			span.SetAttributes(attribute.Bool("cache_hit", true))
			if o.metrics != nil {
				o.metrics.RecordCacheHit(ctx, cacheType)
			}
			o.presenter.Render(res.City, res.Date, res.Day, res.Precipitation)
			return res, nil
		}
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	if o.metrics != nil {
		o.metrics.RecordCacheMiss(ctx, cacheType)
	}

	gen := o.generation.Add(1)
	span.SetAttributes(attribute.Int64("generation", int64(gen)))
	reqLogger := o.logger.With(zap.Uint64("generation", gen), zap.String("city", city), zap.String("date", date))
	reqLogger.Info("Cache miss, fetching fresh data", zap.Bool("force_refresh", forceRefresh))

	res, err := o.fetch(ctx, gen, city, date, target, now, reqLogger)
	switch {
	case err == nil:
		o.presenter.Render(res.City, res.Date, res.Day, res.Precipitation)
		return res, nil
	case errors.Is(err, ErrSuperseded):
		reqLogger.Debug("Discarding superseded response", zap.Uint64("current_generation", o.Generation()))
		span.SetAttributes(attribute.Bool("superseded", true))
		if o.metrics != nil {
			o.metrics.RecordSuperseded(ctx)
		}
		return Result{}, err
	case errors.Is(err, ErrOutOfRange):
		o.presenter.Notify("Selected date is out of range.", SeverityWarning)
		return Result{}, err
	case errors.Is(err, ErrNotFound):
		o.presenter.Notify(fmt.Sprintf("Coordinates for %q not found.", city), SeverityWarning)
		return Result{}, err
	default:
		reqLogger.Error("Search failed", zap.Error(err))
		o.tele.RecordError(ctx, err, map[string]interface{}{"city": city, "date": date})
		o.presenter.Notify(fmt.Sprintf("An error occurred: %s", err.Error()), SeverityError)
		return Result{}, err
	}
}

var (
	errEmptyCity = fmt.Errorf("%w: city name is empty", ErrValidation)
	errTooFar    = fmt.Errorf("%w: date is beyond the forecast range", ErrValidation)
)

func (o *Orchestrator) validate(city, date string, now time.Time) (time.Time, error) {
	if city == "" {
		return time.Time{}, errEmptyCity
	}

	target, err := forecast.ParseDate(date, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if limit := o.opts.MaxForecastDays; limit > 0 && forecast.LeadDays(target, now) > limit {
		return time.Time{}, errTooFar
	}

	return target, nil
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, errEmptyCity):
		return "Please enter a valid city name."
	case errors.Is(err, errTooFar):
		return "Selected date is too far in the future."
	default:
		return "Please enter a valid date (YYYY-MM-DD)."
	}
}

func (o *Orchestrator) fromCache(city, date string, target, now time.Time) (Result, bool) {
	b := o.Bundle()
	if !b.MatchesCity(city) {
		return Result{}, false
	}

	day, ok := b.Find(date)
	if !ok {
		return Result{}, false
	}

	if !o.opts.Policy.IsCacheValid(b, target, now) {
		return Result{}, false
	}

	return Result{
		City:          city,
		Date:          date,
		Day:           day,
		Precipitation: forecast.ClassifyPrecipitation(day),
		Source:        SourceCache,
	}, true
}

func (o *Orchestrator) current(gen uint64) bool {
	return o.generation.Load() == gen
}

func (o *Orchestrator) fetch(ctx context.Context, gen uint64, city, date string, target, now time.Time, reqLogger *zap.Logger) (Result, error) {
	coords, err := o.geocoder.Resolve(ctx, city)
	if !o.current(gen) {
		return Result{}, ErrSuperseded
	}
	if err != nil {
		return Result{}, err
	}
	if coords == nil {
		return Result{}, fmt.Errorf("city %q: %w", city, ErrNotFound)
	}

	leadDays := forecast.LeadDays(target, now)
	horizon := forecast.Horizon(leadDays, o.opts.APIHorizon)

	reqLogger.Debug("Requesting forecast",
		zap.Float64("lat", coords.Lat),
		zap.Float64("lon", coords.Lon),
		zap.Int("lead_days", leadDays),
		zap.Int("horizon_days", horizon))

	raw, err := o.fetcher.Fetch(ctx, dedup.Request{
		Method: http.MethodPost,
		URL:    o.opts.BackendURL,
		Header: http.Header{"Content-Type": {"application/json"}},
		Body: forecast.Request{
			Lat:         coords.Lat,
			Lon:         coords.Lon,
			TargetDate:  forecast.FormatTargetDate(target),
			HorizonDays: horizon,
		},
	})
	if !o.current(gen) {
		return Result{}, ErrSuperseded
	}
	if err != nil {
		return Result{}, err
	}

	var resp forecast.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Result{}, fmt.Errorf("failed to decode forecast response: %w", err)
	}

	bundle := forecast.NewBundle(city, resp.Daily, o.opts.Now())
	if !o.replaceBundle(gen, bundle) {
		return Result{}, ErrSuperseded
	}

	reqLogger.Info("Forecast fetched and cached", zap.Int("days", len(bundle.Daily)))

	day, ok := bundle.Find(date)
	if !ok {
		return Result{}, ErrOutOfRange
	}

	return Result{
		City:          city,
		Date:          date,
		Day:           day,
		Precipitation: forecast.ClassifyPrecipitation(day),
		Source:        SourceNetwork,
	}, nil
}

// replaceBundle swaps in b only if gen is still the latest generation. The
// check and the swap share the lock so a stale response can never overwrite
// a newer bundle.
func (o *Orchestrator) replaceBundle(gen uint64, b *forecast.Bundle) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.current(gen) {
		return false
	}
	o.bundle = b
	return true
}
