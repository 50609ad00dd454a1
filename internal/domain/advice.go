package domain

// Temperature thresholds for the farming advice line, in °C.
const (
	heatThresholdC  = 30
	frostThresholdC = 10
)

// FarmingAdvice turns current weather into a one-line farming recommendation.
func FarmingAdvice(w WeatherAdvisory) string {
	switch {
	case w.TemperatureC > heatThresholdC:
		return "High temperatures may affect crop growth. Consider additional irrigation and shade for sensitive crops."
	case w.TemperatureC < frostThresholdC:
		return "Low temperatures may affect frost-sensitive crops. Consider protective measures for overnight frost."
	default:
		return "Current weather conditions are favorable for most farming activities."
	}
}

// WeatherReport is a weather result together with its farming advice.
type WeatherReport struct {
	Result[WeatherAdvisory]
	Advice string `json:"advice"`
}

// NewWeatherReport attaches FarmingAdvice to r.
func NewWeatherReport(r Result[WeatherAdvisory]) WeatherReport {
	return WeatherReport{Result: r, Advice: FarmingAdvice(r.Value)}
}
