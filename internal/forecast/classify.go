package forecast

// Precipitation is the display classification of a day's precipitation.
type Precipitation string

const (
	PrecipitationNone  Precipitation = "None"
	PrecipitationRain  Precipitation = "Rain"
	PrecipitationSnow  Precipitation = "Snow"
	PrecipitationMixed Precipitation = "Mixed"
)

const (
	minClassifiedProbability = 35
	fallbackMinProbability   = 30
	fallbackMinMillimeters   = 0.1
	snowMaxTemp              = 2
	mixedMaxTemp             = 6
	rainMinProbability       = 70
)

var precipTypeClasses = map[PrecipType]Precipitation{
	PrecipTypeRain:  PrecipitationRain,
	PrecipTypeSnow:  PrecipitationSnow,
	PrecipTypeSleet: PrecipitationMixed,
	PrecipTypeNone:  PrecipitationNone,
}

// ClassifyPrecipitation prefers the backend-supplied type and falls back to
// temperature and probability thresholds when none is given. Anything below
// 35% probability is None.
func ClassifyPrecipitation(day DayForecast) Precipitation {
	p := day.PrecipProbability
	if p < minClassifiedProbability {
		return PrecipitationNone
	}

	if day.PrecipType != "" {
		if class, ok := precipTypeClasses[day.PrecipType]; ok {
			return class
		}
		return PrecipitationNone
	}

	tmax, numeric := day.Tmax.Numeric()

	// The probability half of this check cannot trigger after the guard
	// above; it is kept so the thresholds can be tuned independently.
	if p < fallbackMinProbability || day.PrecipMillimeters < fallbackMinMillimeters {
		return PrecipitationNone
	}
	// Placeholder temperatures skip the temperature bands.
	if numeric && tmax <= snowMaxTemp {
		return PrecipitationSnow
	}
	if numeric && tmax <= mixedMaxTemp {
		return PrecipitationMixed
	}
	if p >= rainMinProbability {
		return PrecipitationRain
	}
	return PrecipitationNone
}
