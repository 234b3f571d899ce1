package entities

import "time"

// Prediction stores one model inference together with the inputs it was made from.
type Prediction struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"index;not null" json:"user_id"`
	Longitude        float64   `gorm:"not null" json:"longitude"`
	Latitude         float64   `gorm:"not null" json:"latitude"`
	HousingMedianAge float64   `gorm:"not null" json:"housing_median_age"`
	TotalRooms       float64   `gorm:"not null" json:"total_rooms"`
	TotalBedrooms    float64   `gorm:"not null" json:"total_bedrooms"`
	Population       float64   `gorm:"not null" json:"population"`
	Households       float64   `gorm:"not null" json:"households"`
	MedianIncome     float64   `gorm:"not null" json:"median_income"`
	OceanProximity   string    `gorm:"size:20;not null" json:"ocean_proximity"`
	Prediction       float64   `gorm:"not null" json:"prediction"`
	CreatedAt        time.Time `json:"created_at"`
}

func (Prediction) TableName() string {
	return "predictions"
}
