package service

import "github.com/vzahanych/novacast/internal/forecast"

// PrecipTypeForCode maps a WMO weather interpretation code to a
// precipitation type.
func PrecipTypeForCode(code int) forecast.PrecipType {
	switch {
	case code >= 51 && code <= 55, code >= 61 && code <= 65, code >= 80 && code <= 82, code >= 95:
		return forecast.PrecipTypeRain
	case code == 56, code == 57, code == 66, code == 67:
		return forecast.PrecipTypeSleet
	case code >= 71 && code <= 77, code == 85, code == 86:
		return forecast.PrecipTypeSnow
	default:
		return forecast.PrecipTypeNone
	}
}

var codeDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

func DescribeCode(code int) string {
	if d, ok := codeDescriptions[code]; ok {
		return d
	}
	return "Unknown"
}
