package models

// UserSummary is the public slice of a user profile that appears next to
// friendships and check-ins. Users themselves are owned by the auth service.
type UserSummary struct {
	ID              int64   `json:"id"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
}
