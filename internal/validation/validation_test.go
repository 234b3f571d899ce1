package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Username   string   `json:"username" validate:"required,max=5"`
	TotalRooms *float64 `json:"total_rooms" validate:"required,gte=0"`
	Ocean      string   `json:"ocean" validate:"oneof=INLAND ISLAND"`
}

func TestDetails_ValidationErrors(t *testing.T) {
	v := validator.New()
	negative := -1.0

	err := v.Struct(sample{Username: "toolongname", TotalRooms: &negative, Ocean: "MOON"})
	require.Error(t, err)

	details := Details(err)
	require.Len(t, details, 3)
	assert.Equal(t, FieldError{Field: "username", Message: "must be at most 5 characters"}, details[0])
	assert.Equal(t, FieldError{Field: "total_rooms", Message: "must be greater than or equal to 0"}, details[1])
	assert.Equal(t, FieldError{Field: "ocean", Message: "must be one of: INLAND ISLAND"}, details[2])
}

func TestDetails_Required(t *testing.T) {
	err := validator.New().Struct(sample{Ocean: "INLAND"})
	require.Error(t, err)

	details := Details(err)
	require.Len(t, details, 2)
	assert.Equal(t, "is required", details[0].Message)
	assert.Equal(t, "total_rooms", details[1].Field)
}

func TestDetails_TypeError(t *testing.T) {
	var s sample
	err := json.Unmarshal([]byte(`{"username": 5}`), &s)
	require.Error(t, err)

	details := Details(err)
	require.Len(t, details, 1)
	assert.Equal(t, "username", details[0].Field)
	assert.Equal(t, "must be of type string", details[0].Message)
}

func TestDetails_Other(t *testing.T) {
	assert.Equal(t, []FieldError{{Field: "body", Message: "is malformed"}}, Details(errors.New("EOF")))
}

func TestMessage(t *testing.T) {
	msg := Message([]FieldError{{"a", "is required"}, {"b", "is invalid"}})
	assert.Equal(t, "a: is required; b: is invalid", msg)
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "housing_median_age", ToSnakeCase("HousingMedianAge"))
	assert.Equal(t, "username", ToSnakeCase("Username"))
}
