package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
)

const soilPromptTemplate = `You are an agricultural soil expert.
Describe the dominant soil of the following location: %q.
Reply with a single JSON object and nothing else, using exactly these keys:
{"type": "<soil classification>", "characteristics": "<one or two sentences>", "suitableCrops": ["<crop>", "..."]}
List at least three suitable crops.`

const cropPromptTemplate = `You are an agronomist advising smallholder farmers.
Recommend crops for the following location for the current season: %q.
Reply with a JSON array and nothing else. Each element must be:
{"crop": "<crop name>", "suitability": "High" | "Medium" | "Low", "description": "<one sentence>"}`

// soilWire is the object the generator is asked to produce.
type soilWire struct {
	Type            string   `json:"type"`
	Characteristics string   `json:"characteristics"`
	SuitableCrops   []string `json:"suitableCrops"`
}

type cropWire struct {
	Crop        string `json:"crop"`
	Suitability string `json:"suitability"`
	Description string `json:"description"`
}

func soilPrompt(location string) string {
	return fmt.Sprintf(soilPromptTemplate, strings.TrimSpace(location))
}

func cropPrompt(location string) string {
	return fmt.Sprintf(cropPromptTemplate, strings.TrimSpace(location))
}

// liveSoil asks gen for a soil profile and decodes the embedded JSON object.
func liveSoil(gen domain.TextGenerator) LiveFunc[domain.SoilAdvisory] {
	return func(ctx context.Context, query string) (domain.SoilAdvisory, error) {
		raw, err := gen.Generate(ctx, soilPrompt(query))
		if err != nil {
			return domain.SoilAdvisory{}, fmt.Errorf("%s: %w", gen.Name(), err)
		}
		return decodeSoil(raw)
	}
}

// liveCrops asks gen for crop recommendations and decodes the embedded JSON array.
func liveCrops(gen domain.TextGenerator) LiveFunc[[]domain.CropRecommendation] {
	return func(ctx context.Context, query string) ([]domain.CropRecommendation, error) {
		raw, err := gen.Generate(ctx, cropPrompt(query))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", gen.Name(), err)
		}
		return decodeCrops(raw)
	}
}

// extractInto is domain.ExtractInto with type mismatches reported as
// validation failures: the JSON parsed but does not have the expected shape.
func extractInto(raw string, shape domain.Shape, dst any) error {
	err := domain.ExtractInto(raw, shape, dst)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &domain.ValidationError{
			Field:  typeErr.Field,
			Reason: fmt.Sprintf("JSON %s cannot be %s", typeErr.Value, typeErr.Type),
		}
	}
	return err
}

func decodeSoil(raw string) (domain.SoilAdvisory, error) {
	var w soilWire
	if err := extractInto(raw, domain.ShapeObject, &w); err != nil {
		return domain.SoilAdvisory{}, err
	}
	crops := make([]string, 0, len(w.SuitableCrops))
	for _, c := range w.SuitableCrops {
		crops = append(crops, strings.TrimSpace(c))
	}
	return domain.SoilAdvisory{
		SoilType:        strings.TrimSpace(w.Type),
		Characteristics: strings.TrimSpace(w.Characteristics),
		SuitableCrops:   crops,
	}, nil
}

// decodeCrops maps the generator's grades onto canonical suitability values.
// Unknown grades are rejected, never coerced.
func decodeCrops(raw string) ([]domain.CropRecommendation, error) {
	var ws []cropWire
	if err := extractInto(raw, domain.ShapeArray, &ws); err != nil {
		return nil, err
	}
	out := make([]domain.CropRecommendation, 0, len(ws))
	for i, w := range ws {
		s, ok := domain.ParseSuitability(w.Suitability)
		if !ok {
			return nil, &domain.ValidationError{
				Field:  fmt.Sprintf("crops[%d].suitability", i),
				Reason: fmt.Sprintf("%q is not High, Medium or Low", w.Suitability),
			}
		}
		out = append(out, domain.CropRecommendation{
			CropName:    strings.TrimSpace(w.Crop),
			Suitability: s,
			Rationale:   strings.TrimSpace(w.Description),
		})
	}
	return out, nil
}
