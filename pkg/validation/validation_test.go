package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePoint struct {
	Label string   `json:"label" validate:"required"`
	Value *float64 `json:"value" validate:"required"`
}

type samplePayload struct {
	Count  *float64      `json:"count" validate:"required,gte=0"`
	Kind   string        `json:"kind" validate:"required,oneof=a b"`
	Points []samplePoint `json:"points" validate:"len=2,dive"`
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cloud security", Normalize("  cloud \t security \n"))
	assert.Equal(t, "", Normalize(" \t "))
	// decomposed e + combining acute becomes the composed rune
	assert.Equal(t, "caf\u00e9", Normalize("cafe\u0301"))
}

func TestRequired(t *testing.T) {
	v, err := Required("keyword", "  seo  ")
	require.NoError(t, err)
	assert.Equal(t, "seo", v)

	_, err = Required("location", "   ")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "location", verr.Field)
}

func TestOneOf(t *testing.T) {
	assert.NoError(t, OneOf("timeframe", "daily", "daily", "weekly"))
	err := OneOf("timeframe", "hourly", "daily", "weekly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily, weekly")
}

func TestDecodeJSON(t *testing.T) {
	var p samplePayload
	require.NoError(t, DecodeJSON(`{"count":3,"kind":"a","points":[]}`, &p))
	assert.Equal(t, 3.0, *p.Count)

	err := DecodeJSON("not json at all", &p)
	require.Error(t, err)
	assert.True(t, IsSchema(err))

	err = DecodeJSON("   ", &p)
	require.Error(t, err)
	assert.True(t, IsSchema(err))
}

func TestDecodeJSON_CodeFence(t *testing.T) {
	var p samplePayload
	require.NoError(t, DecodeJSON("```json\n{\"count\":1,\"kind\":\"b\"}\n```", &p))
	assert.Equal(t, "b", p.Kind)
}

func TestStruct(t *testing.T) {
	one, two := 1.0, 2.0
	ok := samplePayload{
		Count:  &one,
		Kind:   "a",
		Points: []samplePoint{{Label: "x", Value: &one}, {Label: "y", Value: &two}},
	}
	assert.NoError(t, Struct(&ok))

	zero := 0.0
	ok.Count = &zero
	assert.NoError(t, Struct(&ok), "zero is a valid count")

	bad := samplePayload{Kind: "c", Points: []samplePoint{{Label: "x", Value: &one}}}
	err := Struct(&bad)
	require.Error(t, err)
	assert.True(t, IsSchema(err))
	assert.Contains(t, err.Error(), "count is required")
	assert.Contains(t, err.Error(), "kind must be one of")
	assert.Contains(t, err.Error(), "points must contain exactly 2 items")
}

func TestStruct_DiveReportsNestedField(t *testing.T) {
	one := 1.0
	p := samplePayload{
		Count:  &one,
		Kind:   "a",
		Points: []samplePoint{{Label: "x", Value: &one}, {Label: "y"}},
	}
	err := Struct(&p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "points[1].value is required")
}
