package forecast

import "time"

// Policy decides how long a cached bundle stays usable. Near-term forecasts
// change faster than long-range ones, so the allowed age grows with lead time.
type Policy struct {
	// NearDays is the largest lead time served by NearTTL.
	NearDays int
	NearTTL  time.Duration

	// MidDays is the largest lead time served by MidTTL.
	MidDays int
	MidTTL  time.Duration

	// FarTTL applies beyond MidDays.
	FarTTL time.Duration
}

// DefaultPolicy returns 1h up to 3 days out, 3h up to 7 days, 6h beyond.
func DefaultPolicy() Policy {
	return Policy{
		NearDays: 3,
		NearTTL:  time.Hour,
		MidDays:  7,
		MidTTL:   3 * time.Hour,
		FarTTL:   6 * time.Hour,
	}
}

// MaxAge returns the exclusive age limit for a given lead time. Tiers are
// evaluated in order and the first match wins.
func (p Policy) MaxAge(leadDays int) time.Duration {
	switch {
	case leadDays <= p.NearDays:
		return p.NearTTL
	case leadDays <= p.MidDays:
		return p.MidTTL
	default:
		return p.FarTTL
	}
}

// IsCacheValid fails closed: a nil bundle or one without a creation time is
// never valid. Whether target is actually present in the bundle is not
// checked here.
func (p Policy) IsCacheValid(b *Bundle, target, now time.Time) bool {
	if b == nil || b.CachedAt.IsZero() {
		return false
	}

	age := now.Sub(b.CachedAt)
	return age < p.MaxAge(LeadDays(target, now))
}
