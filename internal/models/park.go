package models

import "time"

type Park struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Address     string    `json:"address"`
	Borough     *string   `json:"borough,omitempty"`
	Zipcode     *string   `json:"zipcode,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Amenities   []string  `json:"amenities"`
	Rules       *string   `json:"rules,omitempty"`
	HoursOpen   *string   `json:"hours_open,omitempty"`
	HoursClose  *string   `json:"hours_close,omitempty"`
	Website     *string   `json:"website,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	ReviewCount int       `json:"review_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ParkWithDistance is a park annotated for a located query. DistanceKm is
// nil when the query carried no location.
type ParkWithDistance struct {
	Park
	DistanceKm      *float64      `json:"distance_km,omitempty"`
	ActivityLevel   ActivityLevel `json:"activity_level,omitempty"`
	CurrentVisitors *int          `json:"current_visitors,omitempty"`
}

type CreateParkParams struct {
	Name        string
	Description *string
	Address     string
	Borough     *string
	Zipcode     *string
	Latitude    float64
	Longitude   float64
	Amenities   []string
	Website     *string
	Phone       *string
}

type ImportResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// ParkDetail is the aggregate served for a single park.
type ParkDetail struct {
	Park           Park              `json:"park"`
	Stats          ActivityStats     `json:"stats"`
	Visitors       int               `json:"current_visitors"`
	FriendsPresent []CheckInWithUser `json:"friends_present"`
}
