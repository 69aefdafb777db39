package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/vzahanych/novacast/internal/forecast"
)

// WeatherService produces daily forecasts starting at start (a calendar
// date). Services may return fewer days than asked for.
type WeatherService interface {
	DailyForecast(ctx context.Context, lat, lon float64, start time.Time, days int) ([]forecast.DayForecast, error)
	Name() string
}

var ErrCircuitOpen = errors.New("circuit breaker open")

// StatusError is returned when an upstream answers with a non-200 status.
type StatusError struct {
	Service string
	Code    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API request failed with status: %d", e.Service, e.Code)
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// getJSON performs a GET through the circuit breaker and decodes the body
// into out.
func getJSON(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, service, u string, out any) error {
	_, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{Service: service, Code: resp.StatusCode}
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%s: failed to decode response: %w", service, err)
		}
		return nil, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %v", service, ErrCircuitOpen, err)
	}
	return err
}
