package forecast

type WarningLevel string

const (
	LevelSuccess WarningLevel = "success"
	LevelWarning WarningLevel = "warning"
	LevelDanger  WarningLevel = "danger"
)

type Warning struct {
	Level WarningLevel `json:"level"`
	Text  string       `json:"text"`
}

// NoWarningsText is shown when PlannerWarnings returns nothing.
const NoWarningsText = "No warnings. Have a great day!"

// PlannerWarnings returns the activity-planning hints for a day in
// evaluation order.
func PlannerWarnings(day DayForecast) []Warning {
	var warnings []Warning
	class := ClassifyPrecipitation(day)
	p := day.PrecipProbability

	if day.Tmax.Ready() && day.Tmax.Value >= 25 {
		warnings = append(warnings, Warning{Level: LevelSuccess, Text: "Sunscreen recommended (High temp)"})
	}

	if p >= 80 {
		warnings = append(warnings, Warning{Level: LevelDanger, Text: "High precipitation! Bring umbrella"})
	}

	if class == PrecipitationSnow || class == PrecipitationMixed {
		warnings = append(warnings, Warning{Level: LevelWarning, Text: "Winter conditions - check roads"})
	} else if p < 30 && class == PrecipitationNone {
		warnings = append(warnings, Warning{Level: LevelSuccess, Text: "Perfect day for outdoor activities!"})
	}

	return warnings
}
