package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Shape selects the JSON delimiters Extract looks for.
type Shape string

const (
	ShapeObject Shape = "object"
	ShapeArray  Shape = "array"
)

func (s Shape) delimiters() (open, closing string, err error) {
	switch s {
	case ShapeObject:
		return "{", "}", nil
	case ShapeArray:
		return "[", "]", nil
	default:
		return "", "", fmt.Errorf("unknown json shape %q", string(s))
	}
}

// Extract parses the JSON value embedded in raw text. The span runs from the
// first opening delimiter of shape to the last closing one. The parsed value
// is returned as decoded by encoding/json (map[string]any or []any).
func Extract(raw string, shape Shape) (any, error) {
	var v any
	if err := ExtractInto(raw, shape, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ExtractInto decodes the embedded JSON span of raw into dst.
func ExtractInto(raw string, shape Shape, dst any) error {
	span, err := extractSpan(raw, shape)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(span), dst); err != nil {
		return &ExtractionError{Reason: ReasonMalformedJSON, Err: err}
	}
	return nil
}

func extractSpan(raw string, shape Shape) (string, error) {
	open, closing, err := shape.delimiters()
	if err != nil {
		return "", err
	}
	start := strings.Index(raw, open)
	end := strings.LastIndex(raw, closing)
	if start == -1 || end == -1 || end < start {
		return "", &ExtractionError{Reason: ReasonNoJSONFound}
	}
	return raw[start : end+1], nil
}
