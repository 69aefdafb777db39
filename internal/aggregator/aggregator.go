package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/forecast"
	"github.com/vzahanych/novacast/internal/service"
	"github.com/vzahanych/novacast/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	ErrInvalidTargetDate = errors.New("target_date format invalid, expected YYYYMMDD")
	ErrPastTargetDate    = errors.New("target date cannot be in the past")
	ErrNoForecast        = errors.New("no daily forecast available")
)

type contextKey string

// RequestIDKey carries the HTTP request id into aggregator logs.
const RequestIDKey contextKey = "request_id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

type CacheEntry struct {
	Daily     []forecast.DayForecast
	Timestamp time.Time
}

type registeredService struct {
	name     string
	priority int
	svc      service.WeatherService
}

// Aggregator answers predict requests by merging the daily forecasts of the
// enabled weather services. Results are cached per location and horizon.
type Aggregator struct {
	services       []registeredService
	cache          map[string]*CacheEntry
	mutex          sync.RWMutex
	cacheTTL       time.Duration
	defaultHorizon int
	maxHorizon     int
	now            func() time.Time
	logger         *zap.Logger
	tele           *telemetry.Telemetry
	metrics        MetricsRecorder
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, cacheType string)
	RecordCacheMiss(ctx context.Context, cacheType string)
	RecordWeatherServiceCall(ctx context.Context, service string, success bool)
}

func NewAggregator(cfg *config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry) *Aggregator {
	agg := &Aggregator{
		cache:          make(map[string]*CacheEntry),
		cacheTTL:       time.Duration(cfg.CacheTTL) * time.Second,
		defaultHorizon: cfg.DefaultHorizon,
		maxHorizon:     cfg.MaxHorizon,
		now:            time.Now,
		logger:         logger,
		tele:           tele,
	}
	if agg.defaultHorizon <= 0 {
		agg.defaultHorizon = 360
	}
	if agg.maxHorizon <= 0 {
		agg.maxHorizon = forecast.MaxForecastDays
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	for name, serviceConfig := range cfg.Services {
		if !serviceConfig.Enabled {
			continue
		}

		svc := agg.createService(name, serviceConfig, timeout, logger, tele)
		if svc != nil {
			agg.Register(name, serviceConfig.Priority, svc)
			agg.logger.Info("Registered weather service",
				zap.String("service", name),
				zap.Int("priority", serviceConfig.Priority))
		}
	}

	return agg
}

// SetMetricsRecorder sets the metrics recorder for the aggregator
func (a *Aggregator) SetMetricsRecorder(metrics MetricsRecorder) {
	a.metrics = metrics
}

// Register adds a service. Lower priority values win when services overlap.
func (a *Aggregator) Register(name string, priority int, svc service.WeatherService) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.services = append(a.services, registeredService{name: name, priority: priority, svc: svc})
	sort.SliceStable(a.services, func(i, j int) bool {
		if a.services[i].priority != a.services[j].priority {
			return a.services[i].priority < a.services[j].priority
		}
		return a.services[i].name < a.services[j].name
	})
}

func (a *Aggregator) createService(name string, cfg config.WeatherServiceConfig, timeout time.Duration, logger *zap.Logger, tele *telemetry.Telemetry) service.WeatherService {
	switch cfg.Type {
	case "open-meteo":
		return service.NewOpenMeteoServiceWithConfig(cfg, timeout, logger, tele)
	case "open-meteo-climate":
		return service.NewClimateServiceWithConfig(cfg, timeout, logger, tele)
	default:
		logger.Warn("Unknown service type", zap.String("type", cfg.Type), zap.String("service", name))
		return nil
	}
}

// RequiredHorizon extends the requested horizon so it covers the target date
// and clamps it to the maximum the backend serves.
func (a *Aggregator) RequiredHorizon(requested, leadDays int) int {
	if requested <= 0 {
		requested = a.defaultHorizon
	}
	return min(max(requested, leadDays+1), a.maxHorizon)
}

// Predict validates req and returns the daily forecasts from today up to the
// required horizon.
func (a *Aggregator) Predict(ctx context.Context, req forecast.Request) (*forecast.Response, error) {
	ctx, span := a.tele.GetTracer().Start(ctx, "aggregator.Predict")
	defer span.End()

	now := a.now()
	target, err := time.ParseInLocation(forecast.TargetDateLayout, req.TargetDate, now.Location())
	if err != nil {
		return nil, ErrInvalidTargetDate
	}

	leadDays := forecast.LeadDays(target, now)
	if leadDays < 0 {
		return nil, ErrPastTargetDate
	}

	horizon := a.RequiredHorizon(req.HorizonDays, leadDays)
	span.SetAttributes(
		attribute.String("target_date", req.TargetDate),
		attribute.Int("lead_days", leadDays),
		attribute.Int("horizon_days", horizon),
	)

	daily, err := a.GetDailyForecast(ctx, req.Lat, req.Lon, horizon)
	if err != nil {
		return nil, err
	}
	if len(daily) == 0 {
		return nil, ErrNoForecast
	}

	return &forecast.Response{Daily: daily}, nil
}

func (a *Aggregator) GetDailyForecast(ctx context.Context, lat, lon float64, days int) ([]forecast.DayForecast, error) {
	tracer := a.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "aggregator.GetDailyForecast")
	defer span.End()

	requestID := ""
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		requestID = reqID
	}

	reqLogger := a.logger
	if requestID != "" {
		reqLogger = a.logger.With(zap.String("request_id", requestID))
	}

	span.SetAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
		attribute.Int("days", days),
	)

	cacheKey := fmt.Sprintf("%.6f,%.6f,%d", lat, lon, days)

	reqLogger.Debug("Daily forecast requested",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("days", days),
		zap.String("cache_key", cacheKey))

	if cached := a.getFromCache(cacheKey); cached != nil {
		reqLogger.Debug("Cache hit", zap.String("cache_key", cacheKey))
		span.SetAttributes(attribute.Bool("cache_hit", true))

		if a.metrics != nil {
			a.metrics.RecordCacheHit(ctx, "daily_forecast")
		}

		return cached, nil
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))

	if a.metrics != nil {
		a.metrics.RecordCacheMiss(ctx, "daily_forecast")
	}

	reqLogger.Info("Cache miss, fetching fresh data",
		zap.String("cache_key", cacheKey),
		zap.Int("enabled_services", len(a.snapshotServices())))

	daily, err := a.fetchDailyForecast(ctx, lat, lon, days, reqLogger)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		reqLogger.Error("Failed to fetch daily forecast",
			zap.Error(err),
			zap.String("cache_key", cacheKey))
		return nil, err
	}

	if len(daily) > 0 {
		a.setCache(cacheKey, daily)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("days_count", len(daily)),
	)

	reqLogger.Info("Daily forecast fetched and cached",
		zap.String("cache_key", cacheKey),
		zap.Int("days_count", len(daily)))

	return daily, nil
}

func (a *Aggregator) snapshotServices() []registeredService {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return append([]registeredService(nil), a.services...)
}

// fetchDailyForecast queries every service concurrently. For each date the
// highest-priority service that produced it wins; dates outside
// [today, today+days) are dropped.
func (a *Aggregator) fetchDailyForecast(ctx context.Context, lat, lon float64, days int, reqLogger *zap.Logger) ([]forecast.DayForecast, error) {
	tracer := a.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "aggregator.fetchDailyForecast")
	defer span.End()

	services := a.snapshotServices()
	span.SetAttributes(attribute.Int("services_count", len(services)))

	if len(services) == 0 {
		return nil, fmt.Errorf("no weather services enabled")
	}

	today := forecast.Midnight(a.now())
	first := today.Format(forecast.DateLayout)
	last := today.AddDate(0, 0, days-1).Format(forecast.DateLayout)

	results := make([][]forecast.DayForecast, len(services))
	errs := make([]error, len(services))

	var wg sync.WaitGroup
	for i, rs := range services {
		wg.Add(1)
		go func(i int, rs registeredService) {
			defer wg.Done()

			daily, err := rs.svc.DailyForecast(ctx, lat, lon, today, days)
			if a.metrics != nil {
				a.metrics.RecordWeatherServiceCall(ctx, rs.name, err == nil)
			}
			if err != nil {
				reqLogger.Warn("Weather service failed", zap.String("service", rs.name), zap.Error(err))
				errs[i] = fmt.Errorf("%s: %w", rs.name, err)
				return
			}
			results[i] = daily
		}(i, rs)
	}

	wg.Wait()

	succeeded := 0
	seen := make(map[string]struct{})
	var merged []forecast.DayForecast
	for i := range services {
		if errs[i] != nil {
			continue
		}
		succeeded++

		for _, day := range results[i] {
			if day.Date < first || day.Date > last {
				continue
			}
			if _, dup := seen[day.Date]; dup {
				continue
			}
			seen[day.Date] = struct{}{}
			merged = append(merged, day)
		}
	}

	if succeeded == 0 {
		span.SetAttributes(attribute.Bool("success", false))
		return nil, fmt.Errorf("no weather data available: %w", errors.Join(errs...))
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("results_count", succeeded),
	)

	return merged, nil
}

func (a *Aggregator) getFromCache(key string) []forecast.DayForecast {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	entry, exists := a.cache[key]
	if !exists {
		return nil
	}

	if a.now().Sub(entry.Timestamp) >= a.cacheTTL {
		delete(a.cache, key)
		return nil
	}

	return entry.Daily
}

func (a *Aggregator) setCache(key string, daily []forecast.DayForecast) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.cache[key] = &CacheEntry{
		Daily:     daily,
		Timestamp: a.now(),
	}
}

func (a *Aggregator) ClearCache() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.cache = make(map[string]*CacheEntry)
}

func (a *Aggregator) GetCacheStats() map[string]interface{} {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	enabledServices := make([]string, 0, len(a.services))
	for _, rs := range a.services {
		enabledServices = append(enabledServices, rs.name)
	}

	return map[string]interface{}{
		"cache_size":       len(a.cache),
		"cache_ttl":        a.cacheTTL.String(),
		"enabled_services": enabledServices,
	}
}

// ServiceCount is the number of registered services.
func (a *Aggregator) ServiceCount() int {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return len(a.services)
}
