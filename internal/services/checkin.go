package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/barkpark/internal/models"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
	DefaultStatsWindow  = 24
)

var (
	ErrAlreadyCheckedIn = errors.New("already checked in at this park")
	ErrNoActiveCheckIn  = errors.New("no active check-in found")
	ErrParkNotFound     = errors.New("park not found")
)

// AlreadyCheckedInError carries the active check-in that blocked a new one.
type AlreadyCheckedInError struct {
	CheckIn *models.CheckIn
}

func (e *AlreadyCheckedInError) Error() string {
	return ErrAlreadyCheckedIn.Error()
}

func (e *AlreadyCheckedInError) Unwrap() error {
	return ErrAlreadyCheckedIn
}

const (
	checkInColumns        = "id, user_id, dog_park_id, dogs_present, checked_in_at, checked_out_at"
	checkInColumnsAliased = "c.id, c.user_id, c.dog_park_id, c.dogs_present, c.checked_in_at, c.checked_out_at"
	checkInParkFKey       = "checkins_dog_park_id_fkey"
)

const maxCheckInAttempts = 2

type CheckInService struct {
	db DB
}

func NewCheckInService(db DB) *CheckInService {
	return &CheckInService{db: db}
}

// CheckIn opens a visit at parkID. The partial unique index on active
// (user, park) pairs makes a second concurrent check-in lose with
// *AlreadyCheckedInError. Check-ins at other parks are unaffected.
func (s *CheckInService) CheckIn(ctx context.Context, userID, parkID int64, dogsPresent []int64) (*models.CheckIn, error) {
	dogs := normalizeDogIDs(dogsPresent)

	for attempt := 0; attempt < maxCheckInAttempts; attempt++ {
		checkIn, err := scanCheckIn(s.db.QueryRow(ctx,
			`INSERT INTO checkins (user_id, dog_park_id, dogs_present)
			 VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING
			 RETURNING `+checkInColumns,
			userID, parkID, dogs,
		))
		if err == nil {
			return checkIn, nil
		}
		if constraint, ok := foreignKeyViolation(err); ok {
			if constraint == checkInParkFKey {
				return nil, ErrParkNotFound
			}
			return nil, ErrUserNotFound
		}
		if !errors.Is(err, pgx.ErrNoRows) && !isUniqueViolation(err) {
			return nil, fmt.Errorf("creating check-in: %w", err)
		}

		existing, err := s.GetActiveByUserAndPark(ctx, userID, parkID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, &AlreadyCheckedInError{CheckIn: existing}
		}
		// The blocking check-in was closed between the two statements.
	}
	return nil, ErrAlreadyCheckedIn
}

// CheckOut closes checkInID if it is still active and owned by userID. Of
// several concurrent calls exactly one succeeds.
func (s *CheckInService) CheckOut(ctx context.Context, checkInID, userID int64) (*models.CheckIn, error) {
	checkIn, err := scanCheckIn(s.db.QueryRow(ctx,
		`UPDATE checkins SET checked_out_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND checked_out_at IS NULL
		 RETURNING `+checkInColumns,
		checkInID, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveCheckIn
	}
	if err != nil {
		return nil, fmt.Errorf("checking out: %w", err)
	}
	return checkIn, nil
}

func (s *CheckInService) CheckOutByPark(ctx context.Context, userID, parkID int64) (*models.CheckIn, error) {
	checkIn, err := scanCheckIn(s.db.QueryRow(ctx,
		`UPDATE checkins SET checked_out_at = NOW()
		 WHERE user_id = $1 AND dog_park_id = $2 AND checked_out_at IS NULL
		 RETURNING `+checkInColumns,
		userID, parkID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveCheckIn
	}
	if err != nil {
		return nil, fmt.Errorf("checking out of park: %w", err)
	}
	return checkIn, nil
}

func (s *CheckInService) GetActiveByUserAndPark(ctx context.Context, userID, parkID int64) (*models.CheckIn, error) {
	checkIn, err := scanCheckIn(s.db.QueryRow(ctx,
		`SELECT `+checkInColumns+`
		 FROM checkins
		 WHERE user_id = $1 AND dog_park_id = $2 AND checked_out_at IS NULL
		 ORDER BY checked_in_at DESC
		 LIMIT 1`,
		userID, parkID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active check-in: %w", err)
	}
	return checkIn, nil
}

func (s *CheckInService) ListActiveByUser(ctx context.Context, userID int64) ([]models.CheckInWithPark, error) {
	return s.listWithPark(ctx,
		`SELECT `+checkInColumnsAliased+`, p.name, p.address
		 FROM checkins c
		 JOIN dog_parks p ON p.id = c.dog_park_id
		 WHERE c.user_id = $1 AND c.checked_out_at IS NULL
		 ORDER BY c.checked_in_at DESC, c.id DESC`,
		userID,
	)
}

// RecentHistory returns the user's check-ins, open and closed, newest first.
// Out of range limits fall back to DefaultHistoryLimit or MaxHistoryLimit.
func (s *CheckInService) RecentHistory(ctx context.Context, userID int64, limit int) ([]models.CheckInWithPark, error) {
	return s.listWithPark(ctx,
		`SELECT `+checkInColumnsAliased+`, p.name, p.address
		 FROM checkins c
		 JOIN dog_parks p ON p.id = c.dog_park_id
		 WHERE c.user_id = $1
		 ORDER BY c.checked_in_at DESC, c.id DESC
		 LIMIT $2`,
		userID, historyLimit(limit),
	)
}

func (s *CheckInService) listWithPark(ctx context.Context, sql string, args ...any) ([]models.CheckInWithPark, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing check-ins: %w", err)
	}
	defer rows.Close()

	checkIns := []models.CheckInWithPark{}
	for rows.Next() {
		var c models.CheckInWithPark
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.DogParkID, &c.DogsPresent, &c.CheckedInAt, &c.CheckedOutAt,
			&c.ParkName, &c.ParkAddress,
		); err != nil {
			return nil, fmt.Errorf("scanning check-in: %w", err)
		}
		if c.DogsPresent == nil {
			c.DogsPresent = []int64{}
		}
		checkIns = append(checkIns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing check-ins: %w", err)
	}
	return checkIns, nil
}

func (s *CheckInService) ListActiveByPark(ctx context.Context, parkID int64) ([]models.CheckInWithUser, error) {
	return listWithUser(ctx, s.db,
		`SELECT `+checkInColumnsAliased+`, u.id, u.first_name, u.last_name, u.profile_image_url
		 FROM checkins c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.dog_park_id = $1 AND c.checked_out_at IS NULL
		 ORDER BY c.checked_in_at DESC, c.id DESC`,
		parkID,
	)
}

// ParkActivityStats summarizes the trailing windowHours at parkID. The
// current count ignores the window, and the average only covers visits
// that have ended.
func (s *CheckInService) ParkActivityStats(ctx context.Context, parkID int64, windowHours int) (*models.ActivityStats, error) {
	if windowHours <= 0 {
		windowHours = DefaultStatsWindow
	}

	stats := &models.ActivityStats{ParkID: parkID, WindowHours: windowHours}
	err := s.db.QueryRow(ctx,
		`SELECT
		    COUNT(c.id) FILTER (WHERE c.checked_in_at >= NOW() - make_interval(hours => $2::int)),
		    COUNT(c.id) FILTER (WHERE c.checked_out_at IS NULL),
		    COALESCE(AVG(EXTRACT(EPOCH FROM (c.checked_out_at - c.checked_in_at)) / 60)
		      FILTER (WHERE c.checked_out_at IS NOT NULL
		                AND c.checked_in_at >= NOW() - make_interval(hours => $2::int)), 0)::float8
		 FROM dog_parks p
		 LEFT JOIN checkins c ON c.dog_park_id = p.id
		 WHERE p.id = $1
		 GROUP BY p.id`,
		parkID, windowHours,
	).Scan(&stats.TotalCheckIns, &stats.CurrentCheckIns, &stats.AverageVisitMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrParkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting park activity: %w", err)
	}
	stats.ActivityLevel = models.ActivityLevelFor(stats.CurrentCheckIns)
	return stats, nil
}

func listWithUser(ctx context.Context, db DB, sql string, args ...any) ([]models.CheckInWithUser, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing visitors: %w", err)
	}
	defer rows.Close()

	visitors := []models.CheckInWithUser{}
	for rows.Next() {
		var c models.CheckInWithUser
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.DogParkID, &c.DogsPresent, &c.CheckedInAt, &c.CheckedOutAt,
			&c.User.ID, &c.User.FirstName, &c.User.LastName, &c.User.ProfileImageURL,
		); err != nil {
			return nil, fmt.Errorf("scanning visitor: %w", err)
		}
		if c.DogsPresent == nil {
			c.DogsPresent = []int64{}
		}
		visitors = append(visitors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing visitors: %w", err)
	}
	return visitors, nil
}

func scanCheckIn(row Row) (*models.CheckIn, error) {
	c := &models.CheckIn{}
	if err := row.Scan(&c.ID, &c.UserID, &c.DogParkID, &c.DogsPresent, &c.CheckedInAt, &c.CheckedOutAt); err != nil {
		return nil, err
	}
	if c.DogsPresent == nil {
		c.DogsPresent = []int64{}
	}
	return c, nil
}

// normalizeDogIDs turns a nil or repetitive dog list into a sorted set.
func normalizeDogIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	out = append(out, ids...)
	slices.Sort(out)
	return slices.Compact(out)
}

func historyLimit(limit int) int {
	switch {
	case limit < 1:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
