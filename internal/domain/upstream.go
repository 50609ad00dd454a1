package domain

import "context"

// WeatherSource fetches current weather for a free-text location.
type WeatherSource interface {
	CurrentWeather(ctx context.Context, location string) (WeatherAdvisory, error)
}

// TextGenerator sends a prompt to a generative-text model and returns the raw
// response text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider and model, e.g. "gemini/gemini-2.5-flash".
	Name() string
}

// SessionMemory persists the last resolved query per advisory kind.
type SessionMemory interface {
	// Recall returns the last remembered query for kind, if any.
	Recall(ctx context.Context, kind Kind) (string, bool, error)

	// Remember overwrites the last query for kind.
	Remember(ctx context.Context, kind Kind, query string) error
}
