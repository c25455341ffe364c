package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/HammerMeetNail/barkpark/internal/logging"
	"github.com/HammerMeetNail/barkpark/internal/models"
	"github.com/HammerMeetNail/barkpark/internal/services"
)

// AlreadyCheckedInResponse echoes the visit that blocked a new check-in.
type AlreadyCheckedInResponse struct {
	Error   string          `json:"error"`
	CheckIn *models.CheckIn `json:"checkin"`
}

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindConflict:
		return http.StatusBadRequest
	case services.KindNotFoundOrUnauthorized, services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps a service error onto a response. Internal errors
// are logged with action and never echoed to the client.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	var checkedIn *services.AlreadyCheckedInError
	if errors.As(err, &checkedIn) {
		writeJSON(w, http.StatusBadRequest, AlreadyCheckedInResponse{
			Error:   capitalize(checkedIn.Error()),
			CheckIn: checkedIn.CheckIn,
		})
		return
	}

	kind := services.ErrorKind(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		logging.Error("Request failed", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, capitalize(userMessage(err)))
}

// publicErrors are the service errors whose text is safe to show. The more
// specific entries come first.
var publicErrors = []error{
	services.ErrAlreadyFriends,
	services.ErrRequestAlreadyPending,
	services.ErrFriendshipExists,
	services.ErrCannotFriendSelf,
	services.ErrFriendshipNotFoundOrUnauthorized,
	services.ErrInvalidQRCode,
	services.ErrQRCodeExpired,
	services.ErrAlreadyCheckedIn,
	services.ErrNoActiveCheckIn,
	services.ErrParkNotFound,
	services.ErrUserNotFound,
	services.ErrInvalidInput,
}

func userMessage(err error) string {
	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return stripCause(known.Error())
		}
	}
	return stripCause(err.Error())
}

// stripCause drops a wrapped sentinel from messages like
// "friend request already pending: friendship already exists".
func stripCause(msg string) string {
	if i := strings.Index(msg, ": "); i > 0 {
		return msg[:i]
	}
	return msg
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
