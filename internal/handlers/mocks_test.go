package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HammerMeetNail/barkpark/internal/geo"
	"github.com/HammerMeetNail/barkpark/internal/models"
	"github.com/HammerMeetNail/barkpark/internal/services"
)

type mockFriendService struct {
	SendRequestFunc         func(ctx context.Context, requesterID, addresseeID int64) (*models.Friendship, error)
	AcceptRequestFunc       func(ctx context.Context, friendshipID, callerID int64) (*models.Friendship, error)
	DeclineRequestFunc      func(ctx context.Context, friendshipID, callerID int64) (*models.Friendship, error)
	CancelRequestFunc       func(ctx context.Context, friendshipID, callerID int64) error
	RemoveFriendFunc        func(ctx context.Context, userID, otherUserID int64) error
	ListFriendsFunc         func(ctx context.Context, userID int64) ([]models.FriendWithUser, error)
	ListPendingRequestsFunc func(ctx context.Context, userID int64) ([]models.PendingRequest, error)
	GetStatusFunc           func(ctx context.Context, userID, otherUserID int64) (*models.FriendshipState, error)
}

func (m *mockFriendService) SendRequest(ctx context.Context, requesterID, addresseeID int64) (*models.Friendship, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, requesterID, addresseeID)
	}
	return nil, nil
}

func (m *mockFriendService) AcceptRequest(ctx context.Context, friendshipID, callerID int64) (*models.Friendship, error) {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, friendshipID, callerID)
	}
	return nil, nil
}

func (m *mockFriendService) DeclineRequest(ctx context.Context, friendshipID, callerID int64) (*models.Friendship, error) {
	if m.DeclineRequestFunc != nil {
		return m.DeclineRequestFunc(ctx, friendshipID, callerID)
	}
	return nil, nil
}

func (m *mockFriendService) CancelRequest(ctx context.Context, friendshipID, callerID int64) error {
	if m.CancelRequestFunc != nil {
		return m.CancelRequestFunc(ctx, friendshipID, callerID)
	}
	return nil
}

func (m *mockFriendService) RemoveFriend(ctx context.Context, userID, otherUserID int64) error {
	if m.RemoveFriendFunc != nil {
		return m.RemoveFriendFunc(ctx, userID, otherUserID)
	}
	return nil
}

func (m *mockFriendService) ListFriends(ctx context.Context, userID int64) ([]models.FriendWithUser, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockFriendService) ListPendingRequests(ctx context.Context, userID int64) ([]models.PendingRequest, error) {
	if m.ListPendingRequestsFunc != nil {
		return m.ListPendingRequestsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockFriendService) GetStatus(ctx context.Context, userID, otherUserID int64) (*models.FriendshipState, error) {
	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, userID, otherUserID)
	}
	return nil, nil
}

type mockQRService struct {
	IssueFunc   func(userID int64) services.QRCode
	ConnectFunc func(ctx context.Context, callerID int64, data string) (*services.QRConnectResult, error)
}

func (m *mockQRService) Issue(userID int64) services.QRCode {
	if m.IssueFunc != nil {
		return m.IssueFunc(userID)
	}
	return services.NewQRCode(userID, time.Now())
}

func (m *mockQRService) Connect(ctx context.Context, callerID int64, data string) (*services.QRConnectResult, error) {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx, callerID, data)
	}
	return nil, nil
}

type mockCheckInService struct {
	CheckInFunc                func(ctx context.Context, userID, parkID int64, dogsPresent []int64) (*models.CheckIn, error)
	CheckOutFunc               func(ctx context.Context, checkInID, userID int64) (*models.CheckIn, error)
	CheckOutByParkFunc         func(ctx context.Context, userID, parkID int64) (*models.CheckIn, error)
	ListActiveByUserFunc       func(ctx context.Context, userID int64) ([]models.CheckInWithPark, error)
	ListActiveByParkFunc       func(ctx context.Context, parkID int64) ([]models.CheckInWithUser, error)
	GetActiveByUserAndParkFunc func(ctx context.Context, userID, parkID int64) (*models.CheckIn, error)
	RecentHistoryFunc          func(ctx context.Context, userID int64, limit int) ([]models.CheckInWithPark, error)
	ParkActivityStatsFunc      func(ctx context.Context, parkID int64, windowHours int) (*models.ActivityStats, error)
}

func (m *mockCheckInService) CheckIn(ctx context.Context, userID, parkID int64, dogsPresent []int64) (*models.CheckIn, error) {
	if m.CheckInFunc != nil {
		return m.CheckInFunc(ctx, userID, parkID, dogsPresent)
	}
	return nil, nil
}

func (m *mockCheckInService) CheckOut(ctx context.Context, checkInID, userID int64) (*models.CheckIn, error) {
	if m.CheckOutFunc != nil {
		return m.CheckOutFunc(ctx, checkInID, userID)
	}
	return nil, nil
}

func (m *mockCheckInService) CheckOutByPark(ctx context.Context, userID, parkID int64) (*models.CheckIn, error) {
	if m.CheckOutByParkFunc != nil {
		return m.CheckOutByParkFunc(ctx, userID, parkID)
	}
	return nil, nil
}

func (m *mockCheckInService) ListActiveByUser(ctx context.Context, userID int64) ([]models.CheckInWithPark, error) {
	if m.ListActiveByUserFunc != nil {
		return m.ListActiveByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockCheckInService) ListActiveByPark(ctx context.Context, parkID int64) ([]models.CheckInWithUser, error) {
	if m.ListActiveByParkFunc != nil {
		return m.ListActiveByParkFunc(ctx, parkID)
	}
	return nil, nil
}

func (m *mockCheckInService) GetActiveByUserAndPark(ctx context.Context, userID, parkID int64) (*models.CheckIn, error) {
	if m.GetActiveByUserAndParkFunc != nil {
		return m.GetActiveByUserAndParkFunc(ctx, userID, parkID)
	}
	return nil, nil
}

func (m *mockCheckInService) RecentHistory(ctx context.Context, userID int64, limit int) ([]models.CheckInWithPark, error) {
	if m.RecentHistoryFunc != nil {
		return m.RecentHistoryFunc(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockCheckInService) ParkActivityStats(ctx context.Context, parkID int64, windowHours int) (*models.ActivityStats, error) {
	if m.ParkActivityStatsFunc != nil {
		return m.ParkActivityStatsFunc(ctx, parkID, windowHours)
	}
	return &models.ActivityStats{ParkID: parkID, WindowHours: windowHours, ActivityLevel: models.ActivityQuiet}, nil
}

type mockPresenceService struct {
	FriendsAtParkFunc func(ctx context.Context, userID, parkID int64) ([]models.CheckInWithUser, error)
}

func (m *mockPresenceService) FriendsAtPark(ctx context.Context, userID, parkID int64) ([]models.CheckInWithUser, error) {
	if m.FriendsAtParkFunc != nil {
		return m.FriendsAtParkFunc(ctx, userID, parkID)
	}
	return nil, nil
}

type mockParkService struct {
	GetByIDFunc            func(ctx context.Context, id int64) (*models.Park, error)
	FindNearbyFunc         func(ctx context.Context, latitude, longitude, radiusKm float64) ([]models.ParkWithDistance, error)
	FindWithinBoundsFunc   func(ctx context.Context, bounds geo.Bounds) ([]models.Park, error)
	SearchFunc             func(ctx context.Context, query string) ([]models.ParkWithDistance, error)
	SearchWithLocationFunc func(ctx context.Context, query string, latitude, longitude float64) ([]models.ParkWithDistance, error)
	ImportParksFunc        func(ctx context.Context, parks []models.CreateParkParams) (*models.ImportResult, error)
}

func (m *mockParkService) GetByID(ctx context.Context, id int64) (*models.Park, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &models.Park{ID: id, Name: "Test Park"}, nil
}

func (m *mockParkService) FindNearby(ctx context.Context, latitude, longitude, radiusKm float64) ([]models.ParkWithDistance, error) {
	if m.FindNearbyFunc != nil {
		return m.FindNearbyFunc(ctx, latitude, longitude, radiusKm)
	}
	return nil, nil
}

func (m *mockParkService) FindWithinBounds(ctx context.Context, bounds geo.Bounds) ([]models.Park, error) {
	if m.FindWithinBoundsFunc != nil {
		return m.FindWithinBoundsFunc(ctx, bounds)
	}
	return nil, nil
}

func (m *mockParkService) Search(ctx context.Context, query string) ([]models.ParkWithDistance, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return nil, nil
}

func (m *mockParkService) SearchWithLocation(ctx context.Context, query string, latitude, longitude float64) ([]models.ParkWithDistance, error) {
	if m.SearchWithLocationFunc != nil {
		return m.SearchWithLocationFunc(ctx, query, latitude, longitude)
	}
	return nil, nil
}

func (m *mockParkService) ImportParks(ctx context.Context, parks []models.CreateParkParams) (*models.ImportResult, error) {
	if m.ImportParksFunc != nil {
		return m.ImportParksFunc(ctx, parks)
	}
	return &models.ImportResult{}, nil
}

var (
	_ services.FriendServiceInterface   = (*mockFriendService)(nil)
	_ services.QRServiceInterface       = (*mockQRService)(nil)
	_ services.CheckInServiceInterface  = (*mockCheckInService)(nil)
	_ services.PresenceServiceInterface = (*mockPresenceService)(nil)
	_ services.ParkServiceInterface     = (*mockParkService)(nil)
)

// authedRequest builds a request carrying userID as the authenticated caller.
func authedRequest(method, target, body string, userID int64) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(SetUserIDInContext(req.Context(), userID))
}

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d (body %s)", status, rr.Code, rr.Body.String())
	}
	if ct := rr.Result().Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected content type application/json, got %q", ct)
	}

	var response ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Error != message {
		t.Fatalf("expected error %q, got %q", message, response.Error)
	}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to parse response %q: %v", rr.Body.String(), err)
	}
}
