package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/HammerMeetNail/barkpark/internal/models"
)

// QRCodeTTL is how long an issued friend QR code stays valid. A code
// exactly QRCodeTTL old is already expired.
const QRCodeTTL = 5 * time.Minute

var (
	ErrInvalidQRCode = errors.New("invalid QR code format")
	ErrQRCodeExpired = errors.New("QR code has expired, please ask for a new one")
)

var qrCodePattern = regexp.MustCompile(`^barkpark://user/(\d+)/(\d+)$`)

type QRCode struct {
	UserID   int64
	IssuedAt time.Time
}

func NewQRCode(userID int64, issuedAt time.Time) QRCode {
	return QRCode{UserID: userID, IssuedAt: issuedAt.Truncate(time.Millisecond)}
}

func (c QRCode) String() string {
	return fmt.Sprintf("barkpark://user/%d/%d", c.UserID, c.IssuedAt.UnixMilli())
}

func (c QRCode) Expired(now time.Time) bool {
	return now.Sub(c.IssuedAt) >= QRCodeTTL
}

func ParseQRCode(data string) (QRCode, error) {
	m := qrCodePattern.FindStringSubmatch(data)
	if m == nil {
		return QRCode{}, ErrInvalidQRCode
	}
	userID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return QRCode{}, ErrInvalidQRCode
	}
	millis, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return QRCode{}, ErrInvalidQRCode
	}
	return QRCode{UserID: userID, IssuedAt: time.UnixMilli(millis)}, nil
}

type QRConnectResult struct {
	Friendship *models.Friendship  `json:"friendship"`
	TargetUser *models.UserSummary `json:"target_user"`
}

type QRService struct {
	friends FriendServiceInterface
	users   UserServiceInterface
	now     func() time.Time
}

func NewQRService(friends FriendServiceInterface, users UserServiceInterface) *QRService {
	return &QRService{friends: friends, users: users, now: time.Now}
}

// Issue builds the payload for userID's own QR code.
func (s *QRService) Issue(userID int64) QRCode {
	return NewQRCode(userID, s.now())
}

// Connect sends a friend request from callerID to the user encoded in data.
func (s *QRService) Connect(ctx context.Context, callerID int64, data string) (*QRConnectResult, error) {
	code, err := ParseQRCode(data)
	if err != nil {
		return nil, err
	}
	if code.Expired(s.now()) {
		return nil, ErrQRCodeExpired
	}

	target, err := s.users.GetSummary(ctx, code.UserID)
	if err != nil {
		return nil, err
	}
	if target.ID == callerID {
		return nil, ErrCannotFriendSelf
	}

	friendship, err := s.friends.SendRequest(ctx, callerID, target.ID)
	if errors.Is(err, ErrFriendshipExists) {
		return nil, s.describeConflict(ctx, callerID, target.ID)
	}
	if err != nil {
		return nil, err
	}
	return &QRConnectResult{Friendship: friendship, TargetUser: target}, nil
}

// describeConflict picks the message for a request that lost to an
// existing friendship. It never turns the failure into a success.
func (s *QRService) describeConflict(ctx context.Context, callerID, targetID int64) error {
	state, err := s.friends.GetStatus(ctx, callerID, targetID)
	if err != nil || state == nil {
		return ErrFriendshipExists
	}
	if state.Status == models.FriendshipStatusAccepted {
		return ErrAlreadyFriends
	}
	return ErrRequestAlreadyPending
}
