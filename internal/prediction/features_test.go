package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func sampleInput(ocean string) Input {
	return Input{
		Longitude:        f(-122.64),
		Latitude:         f(38.01),
		HousingMedianAge: f(36),
		TotalRooms:       f(1336),
		TotalBedrooms:    f(258),
		Population:       f(678),
		Households:       f(249),
		MedianIncome:     f(5.5789),
		OceanProximity:   ocean,
	}
}

func TestFeatureCount(t *testing.T) {
	assert.Equal(t, 8+len(OceanCategories), FeatureCount)
}

func TestEncodeOceanProximity(t *testing.T) {
	tests := []struct {
		category string
		want     []float64
	}{
		{"<1H OCEAN", []float64{1, 0, 0, 0, 0}},
		{"INLAND", []float64{0, 1, 0, 0, 0}},
		{"ISLAND", []float64{0, 0, 1, 0, 0}},
		{"NEAR BAY", []float64{0, 0, 0, 1, 0}},
		{"NEAR OCEAN", []float64{0, 0, 0, 0, 1}},
		{"MOON", []float64{0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeOceanProximity(tt.category))
		})
	}
}

func TestBuildFeatureVector(t *testing.T) {
	vec := BuildFeatureVector(sampleInput("NEAR OCEAN"))

	assert.Len(t, vec, FeatureCount)
	assert.Equal(t, []float64{-122.64, 38.01, 36, 1336, 258, 678, 249, 5.5789, 0, 0, 0, 0, 1}, vec)
}

func TestBuildFeatureVector_MissingValues(t *testing.T) {
	vec := BuildFeatureVector(Input{OceanProximity: "INLAND"})
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0}, vec)
}

func TestRecord(t *testing.T) {
	rec := Record(7, sampleInput("ISLAND"), 123.5)

	assert.Equal(t, uint(7), rec.UserID)
	assert.Equal(t, -122.64, rec.Longitude)
	assert.Equal(t, 5.5789, rec.MedianIncome)
	assert.Equal(t, "ISLAND", rec.OceanProximity)
	assert.Equal(t, 123.5, rec.Prediction)
}
