package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind identifies one of the advisory types.
type Kind string

const (
	KindWeather Kind = "weather"
	KindSoil    Kind = "soil"
	KindCrop    Kind = "crop"
)

// Kinds lists every advisory kind in a stable order.
var Kinds = []Kind{KindWeather, KindSoil, KindCrop}

// ParseKind accepts a kind name, case-insensitively. "crops" is accepted as
// an alias for "crop".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weather":
		return KindWeather, nil
	case "soil":
		return KindSoil, nil
	case "crop", "crops":
		return KindCrop, nil
	default:
		return "", fmt.Errorf("unknown advisory kind %q (supported: weather, soil, crop)", s)
	}
}

// Source records which path produced a result.
type Source string

const (
	SourceLive      Source = "live"
	SourceReference Source = "reference"
	SourceDefault   Source = "default"
)

// Suitability grades how well a crop fits a location.
type Suitability string

const (
	SuitabilityHigh   Suitability = "High"
	SuitabilityMedium Suitability = "Medium"
	SuitabilityLow    Suitability = "Low"
)

// ParseSuitability maps a case-insensitive grade onto its canonical form.
func ParseSuitability(s string) (Suitability, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return SuitabilityHigh, true
	case "medium":
		return SuitabilityMedium, true
	case "low":
		return SuitabilityLow, true
	default:
		return "", false
	}
}

// WeatherAdvisory is the current weather for a location.
type WeatherAdvisory struct {
	TemperatureC  float64 `json:"temperature_c" yaml:"temperature_c"`
	FeelsLikeC    float64 `json:"feels_like_c" yaml:"feels_like_c"`
	HumidityPct   int     `json:"humidity_pct" yaml:"humidity_pct"`
	WindSpeedMs   float64 `json:"wind_speed_ms" yaml:"wind_speed_ms"`
	ConditionText string  `json:"condition_text" yaml:"condition_text"`
	LocationLabel string  `json:"location_label" yaml:"location_label"`
	CountryCode   string  `json:"country_code" yaml:"country_code"`
}

// SoilAdvisory classifies the dominant soil of a location.
type SoilAdvisory struct {
	SoilType        string   `json:"soil_type" yaml:"type"`
	Characteristics string   `json:"characteristics" yaml:"characteristics"`
	SuitableCrops   []string `json:"suitable_crops" yaml:"suitable_crops"`
}

// CropRecommendation is a single recommended crop.
type CropRecommendation struct {
	CropName    string      `json:"crop_name" yaml:"crop"`
	Suitability Suitability `json:"suitability" yaml:"suitability"`
	Rationale   string      `json:"rationale" yaml:"description"`
}

// Result wraps a resolved advisory with its provenance.
// ResolvedKey is empty unless Source is reference or default.
type Result[T any] struct {
	Value       T      `json:"value"`
	Source      Source `json:"source"`
	ResolvedKey string `json:"resolved_key,omitempty"`
	Notice      string `json:"notice,omitempty"`
}

// Resolution is the record emitted after an advisory has been resolved.
type Resolution struct {
	RequestID   string          `json:"request_id"`
	Kind        Kind            `json:"kind"`
	Query       string          `json:"query"`
	Source      Source          `json:"source"`
	ResolvedKey string          `json:"resolved_key,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	ResolvedAt  time.Time       `json:"resolved_at"`
}

// NewResolution builds a Resolution stamped with the current time.
func NewResolution[T any](requestID string, kind Kind, query string, r Result[T]) (Resolution, error) {
	payload, err := json.Marshal(r.Value)
	if err != nil {
		return Resolution{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return Resolution{
		RequestID:   requestID,
		Kind:        kind,
		Query:       query,
		Source:      r.Source,
		ResolvedKey: r.ResolvedKey,
		Payload:     payload,
		ResolvedAt:  clock.Now().UTC(),
	}, nil
}
