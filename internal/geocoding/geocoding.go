// Package geocoding resolves free-text city names to coordinates using the
// Open-Meteo geocoding API.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vzahanych/novacast/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const DefaultURL = "https://geocoding-api.open-meteo.com/v1/search"

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeocodingError wraps any failure of the lookup call.
type GeocodingError struct {
	Err error
}

func (e *GeocodingError) Error() string {
	return fmt.Sprintf("Geocoding Error: %s", e.Err.Error())
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

type searchResponse struct {
	Results []struct {
		Latitude  json.Number `json:"latitude"`
		Longitude json.Number `json:"longitude"`
	} `json:"results"`
}

type Resolver struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewResolver(baseURL string, client *http.Client, logger *zap.Logger, tele *telemetry.Telemetry) *Resolver {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
		tele:    tele,
	}
}

// Resolve returns the coordinates of the first match for name, or nil when
// nothing matches. Transport, status and decoding failures are returned as
// *GeocodingError.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Coordinates, error) {
	ctx, span := r.tele.GetTracer().Start(ctx, "geocoding.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("city", name))

	coords, err := r.lookup(ctx, name)
	if err != nil {
		r.logger.Error("Geocoding API error", zap.String("city", name), zap.Error(err))
		span.SetAttributes(attribute.Bool("success", false))
		return nil, &GeocodingError{Err: err}
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Bool("found", coords != nil),
	)
	return coords, nil
}

func (r *Resolver) lookup(ctx context.Context, name string) (*Coordinates, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Geocoding HTTP Error Code: %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	if len(payload.Results) == 0 {
		return nil, nil
	}

	first := payload.Results[0]
	lat, err := first.Latitude.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", first.Latitude, err)
	}
	lon, err := first.Longitude.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", first.Longitude, err)
	}

	return &Coordinates{Lat: lat, Lon: lon}, nil
}
