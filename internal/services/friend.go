package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/barkpark/internal/models"
)

var (
	ErrFriendshipExists = errors.New("friendship already exists")
	ErrCannotFriendSelf = errors.New("cannot send friend request to yourself")

	// ErrFriendshipNotFoundOrUnauthorized covers a missing row, a caller
	// without the right role, and a row in the wrong state alike.
	ErrFriendshipNotFoundOrUnauthorized = errors.New("friendship not found")

	ErrAlreadyFriends        = fmt.Errorf("you are already friends with this user: %w", ErrFriendshipExists)
	ErrRequestAlreadyPending = fmt.Errorf("friend request already pending: %w", ErrFriendshipExists)
)

const friendshipColumns = "id, requester_id, addressee_id, status, created_at, updated_at"

type FriendService struct {
	db DB
}

func NewFriendService(db DB) *FriendService {
	return &FriendService{db: db}
}

// SendRequest creates a pending friendship. The insert relies on the
// unordered-pair unique index, so of two racing requests for the same pair
// (in either direction) exactly one succeeds.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, addresseeID int64) (*models.Friendship, error) {
	if requesterID == addresseeID {
		return nil, ErrCannotFriendSelf
	}

	friendship, err := scanFriendship(s.db.QueryRow(ctx,
		`INSERT INTO friendships (requester_id, addressee_id, status)
		 VALUES ($1, $2, 'pending')
		 ON CONFLICT DO NOTHING
		 RETURNING `+friendshipColumns,
		requesterID, addresseeID,
	))
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return nil, ErrFriendshipExists
	}
	if _, ok := foreignKeyViolation(err); ok {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}
	return friendship, nil
}

func (s *FriendService) AcceptRequest(ctx context.Context, friendshipID, callerID int64) (*models.Friendship, error) {
	return s.respond(ctx, friendshipID, callerID, models.FriendshipStatusAccepted)
}

func (s *FriendService) DeclineRequest(ctx context.Context, friendshipID, callerID int64) (*models.Friendship, error) {
	return s.respond(ctx, friendshipID, callerID, models.FriendshipStatusDeclined)
}

func (s *FriendService) respond(ctx context.Context, friendshipID, callerID int64, status models.FriendshipStatus) (*models.Friendship, error) {
	friendship, err := scanFriendship(s.db.QueryRow(ctx,
		`UPDATE friendships
		 SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND addressee_id = $2 AND status = 'pending'
		 RETURNING `+friendshipColumns,
		friendshipID, callerID, string(status),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFriendshipNotFoundOrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("updating friend request to %s: %w", status, err)
	}
	return friendship, nil
}

// CancelRequest deletes a pending request. Only the requester may cancel.
func (s *FriendService) CancelRequest(ctx context.Context, friendshipID, callerID int64) error {
	result, err := s.db.Exec(ctx,
		`DELETE FROM friendships
		 WHERE id = $1 AND requester_id = $2 AND status = 'pending'`,
		friendshipID, callerID,
	)
	if err != nil {
		return fmt.Errorf("canceling friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrFriendshipNotFoundOrUnauthorized
	}
	return nil
}

// RemoveFriend deletes the accepted friendship between the two users. A new
// request may be sent afterwards.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, otherUserID int64) error {
	result, err := s.db.Exec(ctx,
		`DELETE FROM friendships
		 WHERE LEAST(requester_id, addressee_id) = LEAST($1::bigint, $2::bigint)
		   AND GREATEST(requester_id, addressee_id) = GREATEST($1::bigint, $2::bigint)
		   AND status = 'accepted'`,
		userID, otherUserID,
	)
	if err != nil {
		return fmt.Errorf("removing friend: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrFriendshipNotFoundOrUnauthorized
	}
	return nil
}

func (s *FriendService) ListFriends(ctx context.Context, userID int64) ([]models.FriendWithUser, error) {
	rows, err := s.db.Query(ctx,
		`SELECT f.id, u.id, u.first_name, u.last_name, u.profile_image_url, f.created_at, f.updated_at
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
		 WHERE (f.requester_id = $1 OR f.addressee_id = $1) AND f.status = 'accepted'
		 ORDER BY f.updated_at DESC, f.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	friends := []models.FriendWithUser{}
	for rows.Next() {
		var f models.FriendWithUser
		if err := rows.Scan(
			&f.FriendshipID, &f.Friend.ID, &f.Friend.FirstName, &f.Friend.LastName,
			&f.Friend.ProfileImageURL, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning friend: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	return friends, nil
}

// ListPendingRequests returns pending requests in both directions.
func (s *FriendService) ListPendingRequests(ctx context.Context, userID int64) ([]models.PendingRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT f.id, u.id, u.first_name, u.last_name, u.profile_image_url,
		        CASE WHEN f.requester_id = $1 THEN 'sent' ELSE 'received' END,
		        f.created_at
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
		 WHERE (f.requester_id = $1 OR f.addressee_id = $1) AND f.status = 'pending'
		 ORDER BY f.created_at DESC, f.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	defer rows.Close()

	requests := []models.PendingRequest{}
	for rows.Next() {
		var r models.PendingRequest
		var direction string
		if err := rows.Scan(
			&r.FriendshipID, &r.OtherUser.ID, &r.OtherUser.FirstName, &r.OtherUser.LastName,
			&r.OtherUser.ProfileImageURL, &direction, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning pending request: %w", err)
		}
		r.Direction = models.RequestDirection(direction)
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	return requests, nil
}

// GetStatus returns the caller's view of the friendship with otherUserID:
// the active row if there is one, otherwise the most recent declined row,
// otherwise nil.
func (s *FriendService) GetStatus(ctx context.Context, userID, otherUserID int64) (*models.FriendshipState, error) {
	friendship, err := scanFriendship(s.db.QueryRow(ctx,
		`SELECT `+friendshipColumns+`
		 FROM friendships
		 WHERE LEAST(requester_id, addressee_id) = LEAST($1::bigint, $2::bigint)
		   AND GREATEST(requester_id, addressee_id) = GREATEST($1::bigint, $2::bigint)
		 ORDER BY (status <> 'declined') DESC, updated_at DESC, id DESC
		 LIMIT 1`,
		userID, otherUserID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting friendship status: %w", err)
	}
	return &models.FriendshipState{
		Friendship:  *friendship,
		IsRequester: friendship.RequesterID == userID,
	}, nil
}

func scanFriendship(row Row) (*models.Friendship, error) {
	f := &models.Friendship{}
	var status string
	if err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Status = models.FriendshipStatus(status)
	return f, nil
}
