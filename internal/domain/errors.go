package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is returned for an empty or whitespace-only location query.
// It is the only error a caller ever sees from the advisory operations.
var ErrInvalidQuery = errors.New("location query is empty")

// ErrUpstreamUnavailable reports that no live upstream is configured or that
// it could not be reached.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Extraction failure reasons.
const (
	ReasonNoJSONFound   = "no-json-found"
	ReasonMalformedJSON = "malformed-json"
)

// ExtractionError reports that a generative response held no usable JSON.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract json: %s: %v", e.Reason, e.Err)
	}
	return "extract json: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError reports a well-formed value that violates a field constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UpstreamError reports a non-success response from an upstream API.
type UpstreamError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Upstream, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstreamUnavailable }
