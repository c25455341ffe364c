package models

import "time"

type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	FriendshipStatusDeclined FriendshipStatus = "declined"
)

type Friendship struct {
	ID          int64            `json:"id"`
	RequesterID int64            `json:"requester_id"`
	AddresseeID int64            `json:"addressee_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// OtherParty returns the id of the participant that is not userID.
func (f *Friendship) OtherParty(userID int64) int64 {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

type FriendWithUser struct {
	FriendshipID int64       `json:"friendship_id"`
	Friend       UserSummary `json:"friend"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type RequestDirection string

const (
	RequestDirectionSent     RequestDirection = "sent"
	RequestDirectionReceived RequestDirection = "received"
)

type PendingRequest struct {
	FriendshipID int64            `json:"friendship_id"`
	OtherUser    UserSummary      `json:"other_user"`
	Direction    RequestDirection `json:"direction"`
	CreatedAt    time.Time        `json:"created_at"`
}

// FriendshipState is the caller's view of a stored friendship row.
type FriendshipState struct {
	Friendship
	IsRequester bool `json:"is_requester"`
}
