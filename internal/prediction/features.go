package prediction

import "github.com/mrlokans/houseprice/internal/entities"

// OceanCategories is the one-hot order of ocean_proximity in the feature vector.
var OceanCategories = []string{
	"<1H OCEAN",
	"INLAND",
	"ISLAND",
	"NEAR BAY",
	"NEAR OCEAN",
}

// FeatureCount is the length of a feature vector: 8 numeric inputs plus the one-hot block.
const FeatureCount = 13

// Input is one district description. Numeric fields are pointers so that a
// missing field and an explicit zero can be told apart.
type Input struct {
	Longitude        *float64 `json:"longitude" binding:"required"`
	Latitude         *float64 `json:"latitude" binding:"required"`
	HousingMedianAge *float64 `json:"housing_median_age" binding:"required,gte=0"`
	TotalRooms       *float64 `json:"total_rooms" binding:"required,gte=0"`
	TotalBedrooms    *float64 `json:"total_bedrooms" binding:"required,gte=0"`
	Population       *float64 `json:"population" binding:"required,gte=0"`
	Households       *float64 `json:"households" binding:"required,gte=0"`
	MedianIncome     *float64 `json:"median_income" binding:"required,gte=0"`
	OceanProximity   string   `json:"ocean_proximity" binding:"required,oneof='NEAR BAY' '<1H OCEAN' 'INLAND' 'NEAR OCEAN' 'ISLAND'"`
}

// EncodeOceanProximity returns the one-hot encoding of category. Unknown
// categories encode as all zeros.
func EncodeOceanProximity(category string) []float64 {
	out := make([]float64, len(OceanCategories))
	for i, c := range OceanCategories {
		if c == category {
			out[i] = 1
		}
	}
	return out
}

// BuildFeatureVector lays out the model input: the numeric fields in
// declaration order followed by the ocean_proximity one-hot block.
func BuildFeatureVector(in Input) []float64 {
	vec := make([]float64, 0, FeatureCount)
	vec = append(vec,
		value(in.Longitude),
		value(in.Latitude),
		value(in.HousingMedianAge),
		value(in.TotalRooms),
		value(in.TotalBedrooms),
		value(in.Population),
		value(in.Households),
		value(in.MedianIncome),
	)
	return append(vec, EncodeOceanProximity(in.OceanProximity)...)
}

// Record builds the row stored for a prediction made from in.
func Record(userID uint, in Input, result float64) *entities.Prediction {
	return &entities.Prediction{
		UserID:           userID,
		Longitude:        value(in.Longitude),
		Latitude:         value(in.Latitude),
		HousingMedianAge: value(in.HousingMedianAge),
		TotalRooms:       value(in.TotalRooms),
		TotalBedrooms:    value(in.TotalBedrooms),
		Population:       value(in.Population),
		Households:       value(in.Households),
		MedianIncome:     value(in.MedianIncome),
		OceanProximity:   in.OceanProximity,
		Prediction:       result,
	}
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
