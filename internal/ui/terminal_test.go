package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vzahanych/novacast/internal/client"
	"github.com/vzahanych/novacast/internal/forecast"
)

func TestTerminal_Render(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	day := forecast.DayForecast{
		Date:              "2026-10-17",
		Tmax:              forecast.Celsius(18.6),
		PrecipProbability: 20,
		Description:       "Partly cloudy",
	}
	term.Render("Paris", day.Date, day, forecast.PrecipitationNone)

	assert.Equal(t, "Paris\n"+
		"Saturday, October 17, 2026\n"+
		"Max temperature: 19°C\n"+
		"Partly cloudy\n"+
		"Precipitation: 20%\n"+
		"Type: None\n", buf.String())
}

func TestTerminal_RenderPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	term.Render("Oslo", "2026-10-18", forecast.DayForecast{Date: "2026-10-18"}, forecast.PrecipitationNone)
	assert.Contains(t, buf.String(), "Max temperature: ...°C\nLoading...\nPrecipitation: - %\nType: -\n")

	buf.Reset()
	term.Render("Oslo", "2026-10-18", forecast.DayForecast{
		Date: "2026-10-18",
		Tmax: forecast.Temperature{State: forecast.TempError},
	}, forecast.PrecipitationNone)
	assert.Contains(t, buf.String(), "Max temperature: ERROR\n")
	assert.Contains(t, buf.String(), "Partly Cloudy\n")

	buf.Reset()
	term.Render("Oslo", "2026-10-18", forecast.DayForecast{
		Date: "2026-10-18",
		Tmax: forecast.Temperature{State: forecast.TempPending},
	}, forecast.PrecipitationRain)
	assert.Contains(t, buf.String(), "Max temperature: ...°C\nLoading...\n")
}

func TestTerminal_PlannerWarnings(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, true)

	hot := forecast.DayForecast{Date: "2026-07-01", Tmax: forecast.Celsius(31), PrecipProbability: 5}
	term.Render("Madrid", hot.Date, hot, forecast.ClassifyPrecipitation(hot))
	assert.Contains(t, buf.String(), "Planner:\n")
	assert.Contains(t, buf.String(), "  SUCCESS  Sunscreen recommended (High temp)\n")
	assert.Contains(t, buf.String(), "  SUCCESS  Perfect day for outdoor activities!\n")

	buf.Reset()
	mild := forecast.DayForecast{Date: "2026-07-01", Tmax: forecast.Celsius(15), PrecipProbability: 50, PrecipType: forecast.PrecipTypeRain}
	term.Render("Madrid", mild.Date, mild, forecast.ClassifyPrecipitation(mild))
	assert.Contains(t, buf.String(), "  "+forecast.NoWarningsText+"\n")
}

func TestTerminal_SetPlanner(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)
	day := forecast.DayForecast{Date: "2026-07-01", Tmax: forecast.Celsius(22)}

	term.Render("Lisbon", day.Date, day, forecast.PrecipitationNone)
	assert.NotContains(t, buf.String(), "Planner:")

	term.SetPlanner(true)
	assert.True(t, term.Planner())
	buf.Reset()
	term.Render("Lisbon", day.Date, day, forecast.PrecipitationNone)
	assert.Contains(t, buf.String(), "Planner:\n")
}

func TestTerminal_Notify(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	term.Notify("Selected date is out of range.", client.SeverityWarning)
	assert.Equal(t, "[WARNING] Selected date is out of range.\n", buf.String())
}
