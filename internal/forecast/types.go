// Package forecast holds the forecast data model shared by the client and the
// backend, together with the pure rules applied to it: cache freshness,
// horizon computation, precipitation classification and planner warnings.
package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of DayForecast.Date.
const DateLayout = "2006-01-02"

// TargetDateLayout is the wire format of the target_date request field.
const TargetDateLayout = "20060102"

type TempState int

const (
	// TempLoading is the zero state: tmax absent or null.
	TempLoading TempState = iota
	TempReady
	// TempError and TempPending are the "Error" and "..." placeholders.
	TempError
	TempPending
)

const (
	loadingSentinel = "..."
	errorSentinel   = "Error"
)

// Temperature is a maximum temperature in °C, or one of the loading/error
// placeholders the UI shows while a forecast is not available.
type Temperature struct {
	Value float64
	State TempState
}

func Celsius(v float64) Temperature {
	return Temperature{Value: v, State: TempReady}
}

func (t Temperature) Ready() bool { return t.State == TempReady }

// Numeric returns the value used by threshold rules. An absent tmax counts
// as 0; the string placeholders have no numeric value.
func (t Temperature) Numeric() (float64, bool) {
	switch t.State {
	case TempReady:
		return t.Value, true
	case TempLoading:
		return 0, true
	default:
		return 0, false
	}
}

func (t Temperature) MarshalJSON() ([]byte, error) {
	switch t.State {
	case TempReady:
		return json.Marshal(t.Value)
	case TempError:
		return json.Marshal(errorSentinel)
	case TempPending:
		return json.Marshal(loadingSentinel)
	default:
		return []byte("null"), nil
	}
}

func (t *Temperature) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Temperature{State: TempLoading}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch s {
		case errorSentinel:
			*t = Temperature{State: TempError}
		case loadingSentinel:
			*t = Temperature{State: TempPending}
		case "":
			*t = Temperature{State: TempLoading}
		default:
			return fmt.Errorf("forecast: invalid tmax %q", s)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("forecast: invalid tmax: %w", err)
	}
	*t = Celsius(v)
	return nil
}

// PrecipType is the categorical precipitation type supplied by the backend.
type PrecipType string

const (
	PrecipTypeRain  PrecipType = "rain"
	PrecipTypeSnow  PrecipType = "snow"
	PrecipTypeSleet PrecipType = "sleet"
	PrecipTypeNone  PrecipType = "none"
)

type DayForecast struct {
	Date              string      `json:"date"`
	Tmax              Temperature `json:"tmax"`
	PrecipProbability float64     `json:"precip_prob"`
	PrecipMillimeters float64     `json:"precip_mm"`
	PrecipType        PrecipType  `json:"precip_type,omitempty"`
	Description       string      `json:"weather_desc,omitempty"`
}

// Response is the body returned by the predict endpoint.
type Response struct {
	Daily []DayForecast `json:"daily"`
}

// Request is the body sent to the predict endpoint.
type Request struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	TargetDate  string  `json:"target_date"`
	HorizonDays int     `json:"horizon_days"`
}

// Bundle is a set of daily forecasts fetched for one city. Bundles are
// immutable once built; a new fetch produces a new bundle.
type Bundle struct {
	Daily    []DayForecast
	CachedAt time.Time
	City     string
}

// NewBundle keeps the first entry for each date and drops later duplicates.
func NewBundle(city string, daily []DayForecast, cachedAt time.Time) *Bundle {
	seen := make(map[string]struct{}, len(daily))
	unique := make([]DayForecast, 0, len(daily))
	for _, d := range daily {
		if _, ok := seen[d.Date]; ok {
			continue
		}
		seen[d.Date] = struct{}{}
		unique = append(unique, d)
	}

	return &Bundle{
		Daily:    unique,
		CachedAt: cachedAt,
		City:     city,
	}
}

func (b *Bundle) Find(date string) (DayForecast, bool) {
	if b == nil {
		return DayForecast{}, false
	}
	for _, d := range b.Daily {
		if d.Date == date {
			return d, true
		}
	}
	return DayForecast{}, false
}

// MatchesCity compares case-insensitively, ignoring surrounding whitespace.
func (b *Bundle) MatchesCity(city string) bool {
	if b == nil || b.City == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(b.City), strings.TrimSpace(city))
}
