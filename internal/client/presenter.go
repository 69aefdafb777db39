package client

import "github.com/vzahanych/novacast/internal/forecast"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Presenter is the port through which the orchestrator reaches the UI.
// Notify is fire-and-forget.
type Presenter interface {
	Render(city, date string, day forecast.DayForecast, precipitation forecast.Precipitation)
	Notify(message string, severity Severity)
}

// NopPresenter discards everything.
type NopPresenter struct{}

func (NopPresenter) Render(string, string, forecast.DayForecast, forecast.Precipitation) {}

func (NopPresenter) Notify(string, Severity) {}
