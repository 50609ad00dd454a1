package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ObjectWithNoise(t *testing.T) {
	v, err := Extract(`noise {"a":1} trailing`, ShapeObject)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, v)
}

func TestExtract_NoJSON(t *testing.T) {
	_, err := Extract("not json at all", ShapeObject)
	require.Error(t, err)

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, ReasonNoJSONFound, extErr.Reason)
}

func TestExtract_Array(t *testing.T) {
	raw := "Here are the crops:\n```json\n[{\"crop\":\"Rice\"},{\"crop\":\"Wheat\"}]\n```"
	v, err := Extract(raw, ShapeArray)
	require.NoError(t, err)

	arr, ok := v.([]any)
	require.True(t, ok)
	assert.Len(t, arr, 2)
}

func TestExtract_ArrayShapeIgnoresObjectDelimiters(t *testing.T) {
	_, err := Extract(`{"crop":"Rice"}`, ShapeArray)

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, ReasonNoJSONFound, extErr.Reason)
}

func TestExtract_GreedySpanAcrossFragments(t *testing.T) {
	// First "{" to last "}" spans both fragments and the prose between them.
	_, err := Extract(`first {"a":1} then {"b":2}`, ShapeObject)

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, ReasonMalformedJSON, extErr.Reason)
}

func TestExtract_ClosingBeforeOpening(t *testing.T) {
	_, err := Extract(`} nothing {`, ShapeObject)

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, ReasonNoJSONFound, extErr.Reason)
}

func TestExtract_Malformed(t *testing.T) {
	_, err := Extract(`{"a": }`, ShapeObject)

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, ReasonMalformedJSON, extErr.Reason)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestExtractInto_Typed(t *testing.T) {
	var dst struct {
		Type string `json:"type"`
	}
	err := ExtractInto(`Sure! {"type":"Loess Soil"} Hope this helps.`, ShapeObject, &dst)
	require.NoError(t, err)
	assert.Equal(t, "Loess Soil", dst.Type)
}

func TestExtract_UnknownShape(t *testing.T) {
	_, err := Extract(`{}`, Shape("tuple"))
	require.Error(t, err)

	var extErr *ExtractionError
	assert.False(t, errors.As(err, &extErr))
}
