package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/barkpark/internal/models"
)

// UserService reads the profile fields this service needs. Accounts are
// created and authenticated elsewhere.
type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetSummary(ctx context.Context, id int64) (*models.UserSummary, error) {
	user := &models.UserSummary{}
	err := s.db.QueryRow(ctx,
		`SELECT id, first_name, last_name, profile_image_url
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.FirstName, &user.LastName, &user.ProfileImageURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}
