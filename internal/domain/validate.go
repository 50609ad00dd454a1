package domain

import (
	"fmt"
	"math"
	"strings"
)

// ValidateWeather checks the field constraints of a weather advisory.
func ValidateWeather(w WeatherAdvisory) error {
	if !finite(w.TemperatureC) {
		return &ValidationError{Field: "temperature_c", Reason: "not a finite number"}
	}
	if !finite(w.FeelsLikeC) {
		return &ValidationError{Field: "feels_like_c", Reason: "not a finite number"}
	}
	if w.HumidityPct < 0 || w.HumidityPct > 100 {
		return &ValidationError{Field: "humidity_pct", Reason: fmt.Sprintf("%d outside 0..100", w.HumidityPct)}
	}
	if !finite(w.WindSpeedMs) || w.WindSpeedMs < 0 {
		return &ValidationError{Field: "wind_speed_ms", Reason: fmt.Sprintf("%g is negative or not finite", w.WindSpeedMs)}
	}
	if strings.TrimSpace(w.ConditionText) == "" {
		return &ValidationError{Field: "condition_text", Reason: "empty"}
	}
	if strings.TrimSpace(w.LocationLabel) == "" {
		return &ValidationError{Field: "location_label", Reason: "empty"}
	}
	return nil
}

// ValidateSoil checks that a soil advisory names a type and at least one crop.
func ValidateSoil(s SoilAdvisory) error {
	if strings.TrimSpace(s.SoilType) == "" {
		return &ValidationError{Field: "soil_type", Reason: "empty"}
	}
	if len(s.SuitableCrops) == 0 {
		return &ValidationError{Field: "suitable_crops", Reason: "empty list"}
	}
	for i, c := range s.SuitableCrops {
		if strings.TrimSpace(c) == "" {
			return &ValidationError{Field: fmt.Sprintf("suitable_crops[%d]", i), Reason: "empty"}
		}
	}
	return nil
}

// ValidateCrops checks every recommendation. An empty list is valid.
func ValidateCrops(crops []CropRecommendation) error {
	for i, c := range crops {
		if strings.TrimSpace(c.CropName) == "" {
			return &ValidationError{Field: fmt.Sprintf("crops[%d].crop_name", i), Reason: "empty"}
		}
		switch c.Suitability {
		case SuitabilityHigh, SuitabilityMedium, SuitabilityLow:
		default:
			return &ValidationError{
				Field:  fmt.Sprintf("crops[%d].suitability", i),
				Reason: fmt.Sprintf("%q is not High, Medium or Low", c.Suitability),
			}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
