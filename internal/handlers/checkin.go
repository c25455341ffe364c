package handlers

import (
	"errors"
	"net/http"

	"github.com/HammerMeetNail/barkpark/internal/models"
	"github.com/HammerMeetNail/barkpark/internal/services"
)

// maxActivityWindowHours bounds the ?hours= parameter of park activity.
const maxActivityWindowHours = 24 * 30

type CheckInHandler struct {
	checkInService  services.CheckInServiceInterface
	presenceService services.PresenceServiceInterface
}

func NewCheckInHandler(checkInService services.CheckInServiceInterface, presenceService services.PresenceServiceInterface) *CheckInHandler {
	return &CheckInHandler{
		checkInService:  checkInService,
		presenceService: presenceService,
	}
}

type CheckInRequest struct {
	DogsPresent []int64 `json:"dogs_present" validate:"max=20,dive,gt=0"`
}

type CheckInResponse struct {
	CheckIn *models.CheckIn `json:"checkin"`
	Message string          `json:"message,omitempty"`
}

type CheckInHistoryResponse struct {
	CheckIns []models.CheckInWithPark `json:"checkins"`
}

type ParkVisitorsResponse struct {
	CheckIns []models.CheckInWithUser `json:"checkins"`
}

func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	parkID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid park ID")
		return
	}

	// The body is optional; a bare POST checks in without dogs.
	var req CheckInRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validateRequest(req); details != nil {
		writeValidationError(w, details)
		return
	}

	checkIn, err := h.checkInService.CheckIn(r.Context(), userID, parkID, req.DogsPresent)
	if err != nil {
		writeServiceError(w, err, "check in")
		return
	}

	writeJSON(w, http.StatusCreated, CheckInResponse{CheckIn: checkIn, Message: "Checked in successfully"})
}

func (h *CheckInHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	parkID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid park ID")
		return
	}

	checkIn, err := h.checkInService.CheckOutByPark(r.Context(), userID, parkID)
	if err != nil {
		writeServiceError(w, err, "check out")
		return
	}

	writeJSON(w, http.StatusOK, CheckInResponse{CheckIn: checkIn, Message: "Checked out successfully"})
}

func (h *CheckInHandler) CheckOutByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	checkInID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check-in ID")
		return
	}

	checkIn, err := h.checkInService.CheckOut(r.Context(), checkInID, userID)
	if err != nil {
		writeServiceError(w, err, "check out")
		return
	}

	writeJSON(w, http.StatusOK, CheckInResponse{CheckIn: checkIn, Message: "Checked out successfully"})
}

func (h *CheckInHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	checkIns, err := h.checkInService.ListActiveByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "list active check-ins")
		return
	}
	if checkIns == nil {
		checkIns = []models.CheckInWithPark{}
	}

	writeJSON(w, http.StatusOK, CheckInHistoryResponse{CheckIns: checkIns})
}

func (h *CheckInHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	// A malformed limit is treated as absent; the service clamps the rest.
	limit, present, err := queryInt(r, "limit")
	if err != nil || !present {
		limit = services.DefaultHistoryLimit
	}

	checkIns, err := h.checkInService.RecentHistory(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err, "list check-in history")
		return
	}
	if checkIns == nil {
		checkIns = []models.CheckInWithPark{}
	}

	writeJSON(w, http.StatusOK, CheckInHistoryResponse{CheckIns: checkIns})
}

func (h *CheckInHandler) Activity(w http.ResponseWriter, r *http.Request) {
	parkID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid park ID")
		return
	}

	hours, present, err := queryInt(r, "hours")
	if err != nil || (present && (hours < 1 || hours > maxActivityWindowHours)) {
		writeError(w, http.StatusBadRequest, "Hours must be an integer between 1 and 720")
		return
	}
	if !present {
		hours = services.DefaultStatsWindow
	}

	stats, err := h.checkInService.ParkActivityStats(r.Context(), parkID, hours)
	if err != nil {
		writeServiceError(w, err, "get park activity")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *CheckInHandler) FriendsAtPark(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	parkID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid park ID")
		return
	}

	friends, err := h.presenceService.FriendsAtPark(r.Context(), userID, parkID)
	if err != nil {
		writeServiceError(w, err, "list friends at park")
		return
	}
	if friends == nil {
		friends = []models.CheckInWithUser{}
	}

	writeJSON(w, http.StatusOK, ParkVisitorsResponse{CheckIns: friends})
}
