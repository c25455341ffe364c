package services

import (
	"context"

	"github.com/HammerMeetNail/barkpark/internal/geo"
	"github.com/HammerMeetNail/barkpark/internal/models"
)

// UserServiceInterface defines the contract for reading user profiles.
type UserServiceInterface interface {
	GetSummary(ctx context.Context, id int64) (*models.UserSummary, error)
}

// FriendServiceInterface defines the contract for friendship operations.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, requesterID, addresseeID int64) (*models.Friendship, error)
	AcceptRequest(ctx context.Context, friendshipID, callerID int64) (*models.Friendship, error)
	DeclineRequest(ctx context.Context, friendshipID, callerID int64) (*models.Friendship, error)
	CancelRequest(ctx context.Context, friendshipID, callerID int64) error
	RemoveFriend(ctx context.Context, userID, otherUserID int64) error
	ListFriends(ctx context.Context, userID int64) ([]models.FriendWithUser, error)
	ListPendingRequests(ctx context.Context, userID int64) ([]models.PendingRequest, error)
	GetStatus(ctx context.Context, userID, otherUserID int64) (*models.FriendshipState, error)
}

// QRServiceInterface defines the contract for QR friend codes.
type QRServiceInterface interface {
	Issue(userID int64) QRCode
	Connect(ctx context.Context, callerID int64, data string) (*QRConnectResult, error)
}

// CheckInServiceInterface defines the contract for park presence.
type CheckInServiceInterface interface {
	CheckIn(ctx context.Context, userID, parkID int64, dogsPresent []int64) (*models.CheckIn, error)
	CheckOut(ctx context.Context, checkInID, userID int64) (*models.CheckIn, error)
	CheckOutByPark(ctx context.Context, userID, parkID int64) (*models.CheckIn, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]models.CheckInWithPark, error)
	ListActiveByPark(ctx context.Context, parkID int64) ([]models.CheckInWithUser, error)
	GetActiveByUserAndPark(ctx context.Context, userID, parkID int64) (*models.CheckIn, error)
	RecentHistory(ctx context.Context, userID int64, limit int) ([]models.CheckInWithPark, error)
	ParkActivityStats(ctx context.Context, parkID int64, windowHours int) (*models.ActivityStats, error)
}

// PresenceServiceInterface defines the contract for the friends-at-park view.
type PresenceServiceInterface interface {
	FriendsAtPark(ctx context.Context, userID, parkID int64) ([]models.CheckInWithUser, error)
}

// ParkServiceInterface defines the contract for park lookup and search.
type ParkServiceInterface interface {
	GetByID(ctx context.Context, id int64) (*models.Park, error)
	FindNearby(ctx context.Context, latitude, longitude, radiusKm float64) ([]models.ParkWithDistance, error)
	FindWithinBounds(ctx context.Context, bounds geo.Bounds) ([]models.Park, error)
	Search(ctx context.Context, query string) ([]models.ParkWithDistance, error)
	SearchWithLocation(ctx context.Context, query string, latitude, longitude float64) ([]models.ParkWithDistance, error)
	ImportParks(ctx context.Context, parks []models.CreateParkParams) (*models.ImportResult, error)
}
