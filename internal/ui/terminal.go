// Package ui renders search results and notifications as plain text.
package ui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/vzahanych/novacast/internal/client"
	"github.com/vzahanych/novacast/internal/forecast"
)

const defaultDescription = "Partly Cloudy"

// Terminal is a client.Presenter writing to an io.Writer. With planner mode
// on, every rendered day is followed by its planner warnings.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	planner bool
}

var _ client.Presenter = (*Terminal)(nil)

func NewTerminal(w io.Writer, planner bool) *Terminal {
	return &Terminal{w: w, planner: planner}
}

func (t *Terminal) Render(city, date string, day forecast.DayForecast, precipitation forecast.Precipitation) {
	var b strings.Builder

	fmt.Fprintln(&b, city)
	fmt.Fprintln(&b, longDate(date))

	if day.Tmax.State == forecast.TempLoading || day.Tmax.State == forecast.TempPending {
		fmt.Fprintln(&b, "Max temperature: ...°C")
		fmt.Fprintln(&b, "Loading...")
		fmt.Fprintln(&b, "Precipitation: - %")
		fmt.Fprintln(&b, "Type: -")
	} else {
		fmt.Fprintf(&b, "Max temperature: %s\n", temperature(day.Tmax))

		desc := day.Description
		if desc == "" {
			desc = defaultDescription
		}
		fmt.Fprintln(&b, desc)
		fmt.Fprintf(&b, "Precipitation: %g%%\n", day.PrecipProbability)
		fmt.Fprintf(&b, "Type: %s\n", precipitation)
	}

	if t.Planner() {
		warnings := forecast.PlannerWarnings(day)
		fmt.Fprintln(&b, "Planner:")
		if len(warnings) == 0 {
			fmt.Fprintf(&b, "  %s\n", forecast.NoWarningsText)
		}
		for _, w := range warnings {
			fmt.Fprintf(&b, "  %-8s %s\n", strings.ToUpper(string(w.Level)), w.Text)
		}
	}

	t.write(b.String())
}

// SetPlanner toggles planner warnings for subsequent renders.
func (t *Terminal) SetPlanner(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.planner = on
}

func (t *Terminal) Planner() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.planner
}

func (t *Terminal) Notify(message string, severity client.Severity) {
	t.write(fmt.Sprintf("[%s] %s\n", strings.ToUpper(string(severity)), message))
}

func (t *Terminal) write(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.w, s)
}

func temperature(tmax forecast.Temperature) string {
	if !tmax.Ready() {
		return "ERROR"
	}
	return fmt.Sprintf("%d°C", int(math.Round(tmax.Value)))
}

// longDate formats YYYY-MM-DD as e.g. "Saturday, October 17, 2026".
func longDate(date string) string {
	d, err := time.Parse(forecast.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2, 2006")
}
