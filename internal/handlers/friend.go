package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/HammerMeetNail/barkpark/internal/models"
	"github.com/HammerMeetNail/barkpark/internal/services"
)

type FriendHandler struct {
	friendService services.FriendServiceInterface
	qrService     services.QRServiceInterface
}

func NewFriendHandler(friendService services.FriendServiceInterface, qrService services.QRServiceInterface) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
		qrService:     qrService,
	}
}

type SendFriendRequestRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type QRConnectRequest struct {
	QRData string `json:"qr_data" validate:"notblank,max=256"`
}

type FriendshipResponse struct {
	Friendship *models.Friendship `json:"friendship"`
	Message    string             `json:"message,omitempty"`
}

type FriendListResponse struct {
	Friends []models.FriendWithUser `json:"friends"`
}

type PendingRequestsResponse struct {
	Sent     []models.PendingRequest `json:"sent"`
	Received []models.PendingRequest `json:"received"`
}

type FriendStatusResponse struct {
	Status      string             `json:"status"`
	IsRequester bool               `json:"is_requester"`
	Friendship  *models.Friendship `json:"friendship,omitempty"`
}

type QRCodeResponse struct {
	QRData    string    `json:"qr_data"`
	ExpiresAt time.Time `json:"expires_at"`
}

type QRConnectResponse struct {
	*services.QRConnectResult
	Message string `json:"message"`
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req SendFriendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validateRequest(req); details != nil {
		writeValidationError(w, details)
		return
	}

	friendship, err := h.friendService.SendRequest(r.Context(), userID, req.UserID)
	if err != nil {
		writeServiceError(w, err, "send friend request")
		return
	}

	writeJSON(w, http.StatusCreated, FriendshipResponse{Friendship: friendship, Message: "Friend request sent"})
}

func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.friendService.AcceptRequest, "Friend request accepted", "accept friend request")
}

func (h *FriendHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.friendService.DeclineRequest, "Friend request declined", "decline friend request")
}

type respondFunc func(ctx context.Context, friendshipID, callerID int64) (*models.Friendship, error)

func (h *FriendHandler) respond(w http.ResponseWriter, r *http.Request, fn respondFunc, message, action string) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friendshipID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid friendship ID")
		return
	}

	friendship, err := fn(r.Context(), friendshipID, userID)
	if err != nil {
		writeServiceError(w, err, action)
		return
	}

	writeJSON(w, http.StatusOK, FriendshipResponse{Friendship: friendship, Message: message})
}

func (h *FriendHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friendshipID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid friendship ID")
		return
	}

	if err := h.friendService.CancelRequest(r.Context(), friendshipID, userID); err != nil {
		writeServiceError(w, err, "cancel friend request")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request cancelled"})
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friendID, err := parsePathID(r, "friendId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid friend ID")
		return
	}

	if err := h.friendService.RemoveFriend(r.Context(), userID, friendID); err != nil {
		writeServiceError(w, err, "remove friend")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend removed"})
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "list friends")
		return
	}
	if friends == nil {
		friends = []models.FriendWithUser{}
	}

	writeJSON(w, http.StatusOK, FriendListResponse{Friends: friends})
}

func (h *FriendHandler) Requests(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	pending, err := h.friendService.ListPendingRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "list friend requests")
		return
	}

	resp := PendingRequestsResponse{
		Sent:     []models.PendingRequest{},
		Received: []models.PendingRequest{},
	}
	for _, p := range pending {
		if p.Direction == models.RequestDirectionSent {
			resp.Sent = append(resp.Sent, p)
		} else {
			resp.Received = append(resp.Received, p)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *FriendHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	otherID, err := parsePathID(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	state, err := h.friendService.GetStatus(r.Context(), userID, otherID)
	if err != nil {
		writeServiceError(w, err, "get friendship status")
		return
	}
	if state == nil {
		writeJSON(w, http.StatusOK, FriendStatusResponse{Status: "none"})
		return
	}

	friendship := state.Friendship
	writeJSON(w, http.StatusOK, FriendStatusResponse{
		Status:      string(friendship.Status),
		IsRequester: state.IsRequester,
		Friendship:  &friendship,
	})
}

func (h *FriendHandler) IssueQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	code := h.qrService.Issue(userID)
	writeJSON(w, http.StatusOK, QRCodeResponse{
		QRData:    code.String(),
		ExpiresAt: code.IssuedAt.Add(services.QRCodeTTL).UTC(),
	})
}

func (h *FriendHandler) QRConnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req QRConnectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validateRequest(req); details != nil {
		writeValidationError(w, details)
		return
	}

	result, err := h.qrService.Connect(r.Context(), userID, req.QRData)
	if err != nil {
		writeServiceError(w, err, "connect via QR code")
		return
	}

	writeJSON(w, http.StatusCreated, QRConnectResponse{QRConnectResult: result, Message: "Friend request sent"})
}
