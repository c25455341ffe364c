package models

import "time"

type CheckIn struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	DogParkID    int64      `json:"dog_park_id"`
	DogsPresent  []int64    `json:"dogs_present"`
	CheckedInAt  time.Time  `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at"`
}

func (c *CheckIn) Active() bool {
	return c.CheckedOutAt == nil
}

// CheckInWithPark is a check-in as seen by its owner.
type CheckInWithPark struct {
	CheckIn
	ParkName    string `json:"park_name"`
	ParkAddress string `json:"park_address"`
}

// CheckInWithUser is a check-in as seen by other visitors of the park.
type CheckInWithUser struct {
	CheckIn
	User UserSummary `json:"user"`
}

type ActivityLevel string

const (
	ActivityQuiet    ActivityLevel = "quiet"
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityBusy     ActivityLevel = "busy"
)

// ActivityLevelFor buckets a count of active check-ins.
func ActivityLevelFor(active int) ActivityLevel {
	switch {
	case active <= 0:
		return ActivityQuiet
	case active <= 3:
		return ActivityLow
	case active <= 8:
		return ActivityModerate
	default:
		return ActivityBusy
	}
}

type ActivityStats struct {
	ParkID              int64         `json:"park_id"`
	WindowHours         int           `json:"window_hours"`
	TotalCheckIns       int           `json:"total_checkins"`
	CurrentCheckIns     int           `json:"current_checkins"`
	AverageVisitMinutes float64       `json:"average_visit_minutes"`
	ActivityLevel       ActivityLevel `json:"activity_level"`
}
