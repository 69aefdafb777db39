package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/forecast"
	"github.com/vzahanych/novacast/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OpenMeteoMaxDays is the longest range the forecast endpoint serves.
const OpenMeteoMaxDays = 16

type OpenMeteoService struct {
	baseURL string
	client  *http.Client
	params  map[string]string
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

type openMeteoResponse struct {
	Daily struct {
		Time                        []string   `json:"time"`
		TemperatureMax              []*float64 `json:"temperature_2m_max"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
		PrecipitationSum            []*float64 `json:"precipitation_sum"`
		WeatherCode                 []*int     `json:"weathercode"`
	} `json:"daily"`
}

func NewOpenMeteoServiceWithConfig(cfg config.WeatherServiceConfig, timeout time.Duration, logger *zap.Logger, tele *telemetry.Telemetry) *OpenMeteoService {
	return &OpenMeteoService{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		params:  cfg.Params,
		circuit: newBreaker("open-meteo"),
		logger:  logger.With(zap.String("service", "open-meteo")),
		tele:    tele,
	}
}

func (s *OpenMeteoService) Name() string {
	return "open-meteo"
}

// DailyForecast asks for at most OpenMeteoMaxDays days. The upstream starts
// at the current date in the location's time zone, so start only bounds the
// days returned.
func (s *OpenMeteoService) DailyForecast(ctx context.Context, lat, lon float64, start time.Time, days int) ([]forecast.DayForecast, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "service.OpenMeteo.DailyForecast")
	defer span.End()

	days = min(days, OpenMeteoMaxDays)
	span.SetAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
		attribute.Int("days", days),
	)
	if days <= 0 {
		return nil, nil
	}

	u, err := url.Parse(fmt.Sprintf("%s/forecast", s.baseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("latitude", fmt.Sprintf("%.6f", lat))
	q.Set("longitude", fmt.Sprintf("%.6f", lon))
	q.Set("forecast_days", fmt.Sprintf("%d", days))

	for key, value := range s.params {
		q.Set(key, value)
	}

	u.RawQuery = q.Encode()

	s.logger.Debug("Requesting daily forecast", zap.String("url", u.String()))

	var payload openMeteoResponse
	if err := getJSON(ctx, s.client, s.circuit, s.Name(), u.String(), &payload); err != nil {
		return nil, err
	}

	first := start.Format(forecast.DateLayout)
	d := payload.Daily
	out := make([]forecast.DayForecast, 0, len(d.Time))
	for i, date := range d.Time {
		if date < first {
			continue
		}

		day := forecast.DayForecast{
			Date:              date,
			Tmax:              temperatureAt(d.TemperatureMax, i),
			PrecipProbability: valueAt(d.PrecipitationProbabilityMax, i),
			PrecipMillimeters: valueAt(d.PrecipitationSum, i),
			PrecipType:        forecast.PrecipTypeNone,
		}
		if i < len(d.WeatherCode) && d.WeatherCode[i] != nil {
			code := *d.WeatherCode[i]
			day.PrecipType = PrecipTypeForCode(code)
			day.Description = DescribeCode(code)
		}
		out = append(out, day)
	}

	span.SetAttributes(attribute.Int("days_returned", len(out)))
	return out, nil
}

func valueAt(values []*float64, i int) float64 {
	if i < len(values) && values[i] != nil {
		return *values[i]
	}
	return 0
}

func temperatureAt(values []*float64, i int) forecast.Temperature {
	if i < len(values) && values[i] != nil {
		return forecast.Celsius(*values[i])
	}
	return forecast.Temperature{State: forecast.TempError}
}
