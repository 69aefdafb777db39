package forecast

import (
	"fmt"
	"time"
)

// DefaultAPIHorizon is the minimum number of days requested from the backend.
const DefaultAPIHorizon = 150

// MaxForecastDays bounds how far ahead a date may be picked.
const MaxForecastDays = 540

func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// LeadDays returns the number of whole calendar days from the day of now to
// the day of target. Both are reduced to their calendar date first, so
// daylight-saving transitions do not produce fractional days.
func LeadDays(target, now time.Time) int {
	ty, tm, td := target.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(n) / (24 * time.Hour))
}

// Horizon returns how many days to request so the target date is covered.
// Past dates never extend the horizon.
func Horizon(leadDays, apiHorizon int) int {
	if leadDays < 0 {
		return apiHorizon
	}
	return max(apiHorizon, leadDays+1)
}

func FormatTargetDate(t time.Time) string {
	return t.Format(TargetDateLayout)
}
