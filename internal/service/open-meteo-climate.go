package service

import (
	"context"
	"fmt"
	"math"
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

// climateLastDate is the end of the climate model runs served upstream.
var climateLastDate = time.Date(2050, time.December, 31, 0, 0, 0, 0, time.UTC)

// Below this many millimetres a day counts as dry.
const wetDayMillimeters = 0.1

// ClimateService fills long lead times from Open-Meteo's downscaled climate
// model runs. The model is deterministic, so precipitation probability is
// derived from the modelled amount.
type ClimateService struct {
	baseURL string
	client  *http.Client
	params  map[string]string
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

type climateResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		RainSum          []*float64 `json:"rain_sum"`
		SnowfallSum      []*float64 `json:"snowfall_sum"`
	} `json:"daily"`
}

func NewClimateServiceWithConfig(cfg config.WeatherServiceConfig, timeout time.Duration, logger *zap.Logger, tele *telemetry.Telemetry) *ClimateService {
	return &ClimateService{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		params:  cfg.Params,
		circuit: newBreaker("open-meteo-climate"),
		logger:  logger.With(zap.String("service", "open-meteo-climate")),
		tele:    tele,
	}
}

func (s *ClimateService) Name() string {
	return "open-meteo-climate"
}

func (s *ClimateService) DailyForecast(ctx context.Context, lat, lon float64, start time.Time, days int) ([]forecast.DayForecast, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "service.Climate.DailyForecast")
	defer span.End()

	y, m, d := start.Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 0, days-1)
	if last.After(climateLastDate) {
		last = climateLastDate
	}

	span.SetAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
		attribute.String("start_date", first.Format(forecast.DateLayout)),
		attribute.String("end_date", last.Format(forecast.DateLayout)),
	)
	if days <= 0 || last.Before(first) {
		return nil, nil
	}

	u, err := url.Parse(fmt.Sprintf("%s/climate", s.baseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("latitude", fmt.Sprintf("%.6f", lat))
	q.Set("longitude", fmt.Sprintf("%.6f", lon))
	q.Set("start_date", first.Format(forecast.DateLayout))
	q.Set("end_date", last.Format(forecast.DateLayout))

	for key, value := range s.params {
		q.Set(key, value)
	}

	u.RawQuery = q.Encode()

	s.logger.Debug("Requesting climate projection", zap.String("url", u.String()))

	var payload climateResponse
	if err := getJSON(ctx, s.client, s.circuit, s.Name(), u.String(), &payload); err != nil {
		return nil, err
	}

	daily := payload.Daily
	out := make([]forecast.DayForecast, 0, len(daily.Time))
	for i, date := range daily.Time {
		precip := valueAt(daily.PrecipitationSum, i)
		rain := valueAt(daily.RainSum, i)
		snow := valueAt(daily.SnowfallSum, i)

		ptype := climatePrecipType(precip, rain, snow)
		out = append(out, forecast.DayForecast{
			Date:              date,
			Tmax:              temperatureAt(daily.TemperatureMax, i),
			PrecipProbability: climatePrecipProbability(precip),
			PrecipMillimeters: precip,
			PrecipType:        ptype,
			Description:       climateDescription(ptype),
		})
	}

	span.SetAttributes(attribute.Int("days_returned", len(out)))
	return out, nil
}

func climatePrecipType(precip, rain, snow float64) forecast.PrecipType {
	switch {
	case snow >= wetDayMillimeters && rain >= wetDayMillimeters:
		return forecast.PrecipTypeSleet
	case snow >= wetDayMillimeters:
		return forecast.PrecipTypeSnow
	case rain >= wetDayMillimeters, precip >= wetDayMillimeters:
		return forecast.PrecipTypeRain
	default:
		return forecast.PrecipTypeNone
	}
}

// climatePrecipProbability scales from 40% for a barely wet day to a 95%
// ceiling at 5.5 mm and above.
func climatePrecipProbability(precip float64) float64 {
	if precip < wetDayMillimeters {
		return 0
	}
	return math.Min(95, math.Round(40+10*precip))
}

func climateDescription(ptype forecast.PrecipType) string {
	switch ptype {
	case forecast.PrecipTypeRain:
		return "Rain likely (climate outlook)"
	case forecast.PrecipTypeSnow:
		return "Snow likely (climate outlook)"
	case forecast.PrecipTypeSleet:
		return "Sleet likely (climate outlook)"
	default:
		return "Mostly dry (climate outlook)"
	}
}
