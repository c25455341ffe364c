package services

import (
	"context"

	"github.com/HammerMeetNail/barkpark/internal/models"
)

// PresenceService answers "which of my friends are at this park right now".
// Both the friend graph and the active check-ins are read in the same
// statement on every call.
type PresenceService struct {
	db DB
}

func NewPresenceService(db DB) *PresenceService {
	return &PresenceService{db: db}
}

func (s *PresenceService) FriendsAtPark(ctx context.Context, userID, parkID int64) ([]models.CheckInWithUser, error) {
	return listWithUser(ctx, s.db,
		`SELECT `+checkInColumnsAliased+`, u.id, u.first_name, u.last_name, u.profile_image_url
		 FROM checkins c
		 JOIN users u ON u.id = c.user_id
		 JOIN friendships f
		   ON f.status = 'accepted'
		  AND LEAST(f.requester_id, f.addressee_id) = LEAST($1::bigint, c.user_id)
		  AND GREATEST(f.requester_id, f.addressee_id) = GREATEST($1::bigint, c.user_id)
		 WHERE c.dog_park_id = $2
		   AND c.checked_out_at IS NULL
		   AND c.user_id <> $1
		 ORDER BY c.checked_in_at DESC, c.id DESC`,
		userID, parkID,
	)
}
