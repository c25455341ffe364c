package handlers

import (
	"html"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/HammerMeetNail/barkpark/internal/geo"
	"github.com/HammerMeetNail/barkpark/internal/models"
	"github.com/HammerMeetNail/barkpark/internal/services"
)

const maxSearchQueryLength = 100

var searchPolicy = bluemonday.StrictPolicy()

type ParkHandler struct {
	parkService     services.ParkServiceInterface
	checkInService  services.CheckInServiceInterface
	presenceService services.PresenceServiceInterface
}

func NewParkHandler(parkService services.ParkServiceInterface, checkInService services.CheckInServiceInterface, presenceService services.PresenceServiceInterface) *ParkHandler {
	return &ParkHandler{
		parkService:     parkService,
		checkInService:  checkInService,
		presenceService: presenceService,
	}
}

type NearbyParksResponse struct {
	Parks    []models.ParkWithDistance `json:"parks"`
	RadiusKm float64                   `json:"radius_km"`
}

type ParkListResponse struct {
	Parks []models.Park `json:"parks"`
}

type SearchParksResponse struct {
	Parks []models.ParkWithDistance `json:"parks"`
	Query string                    `json:"query"`
}

func (h *ParkHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, latOK, latErr := queryFloat(r, "latitude")
	lng, lngOK, lngErr := queryFloat(r, "longitude")
	if !latOK || !lngOK {
		writeError(w, http.StatusBadRequest, "Latitude and longitude are required")
		return
	}
	if latErr != nil || lngErr != nil {
		writeError(w, http.StatusBadRequest, "Latitude and longitude must be numbers")
		return
	}

	radius, ok, err := queryFloat(r, "radius")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Radius must be a number")
		return
	}
	if !ok {
		radius = services.DefaultSearchRadiusKm
	}

	parks, err := h.parkService.FindNearby(r.Context(), lat, lng, radius)
	if err != nil {
		writeServiceError(w, err, "find nearby parks")
		return
	}
	if parks == nil {
		parks = []models.ParkWithDistance{}
	}

	writeJSON(w, http.StatusOK, NearbyParksResponse{Parks: parks, RadiusKm: radius})
}

func (h *ParkHandler) Bounds(w http.ResponseWriter, r *http.Request) {
	names := []string{"ne_lat", "ne_lng", "sw_lat", "sw_lng"}
	values := make([]float64, len(names))
	for i, name := range names {
		v, ok, err := queryFloat(r, name)
		if !ok || err != nil {
			writeError(w, http.StatusBadRequest, "ne_lat, ne_lng, sw_lat and sw_lng must all be numbers")
			return
		}
		values[i] = v
	}

	bounds := geo.Bounds{
		NorthEast: geo.Point{Latitude: values[0], Longitude: values[1]},
		SouthWest: geo.Point{Latitude: values[2], Longitude: values[3]},
	}
	if !bounds.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid bounds")
		return
	}

	parks, err := h.parkService.FindWithinBounds(r.Context(), bounds)
	if err != nil {
		writeServiceError(w, err, "find parks within bounds")
		return
	}
	if parks == nil {
		parks = []models.Park{}
	}

	writeJSON(w, http.StatusOK, ParkListResponse{Parks: parks})
}

func (h *ParkHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := sanitizeSearchQuery(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}
	if utf8.RuneCountInString(query) > maxSearchQueryLength {
		writeError(w, http.StatusBadRequest, "Search query is too long")
		return
	}

	lat, latOK, latErr := queryFloat(r, "latitude")
	lng, lngOK, lngErr := queryFloat(r, "longitude")
	if latOK != lngOK || latErr != nil || lngErr != nil {
		writeError(w, http.StatusBadRequest, "Latitude and longitude must be given together as numbers")
		return
	}

	var (
		parks []models.ParkWithDistance
		err   error
	)
	if latOK {
		parks, err = h.parkService.SearchWithLocation(r.Context(), query, lat, lng)
	} else {
		parks, err = h.parkService.Search(r.Context(), query)
	}
	if err != nil {
		writeServiceError(w, err, "search parks")
		return
	}
	if parks == nil {
		parks = []models.ParkWithDistance{}
	}

	writeJSON(w, http.StatusOK, SearchParksResponse{Parks: parks, Query: query})
}

// sanitizeSearchQuery strips markup, keeping the text a user would see.
func sanitizeSearchQuery(q string) string {
	q = strings.ReplaceAll(q, "\x00", "")
	q = html.UnescapeString(searchPolicy.Sanitize(q))
	return strings.Join(strings.Fields(q), " ")
}

// Get serves the park with its recent activity, the visitor count, and
// the caller's friends who are there now.
func (h *ParkHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	var (
		park     *models.Park
		stats    *models.ActivityStats
		visitors []models.CheckInWithUser
		friends  []models.CheckInWithUser
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		park, err = h.parkService.GetByID(ctx, parkID)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = h.checkInService.ParkActivityStats(ctx, parkID, services.DefaultStatsWindow)
		return err
	})
	g.Go(func() error {
		var err error
		visitors, err = h.checkInService.ListActiveByPark(ctx, parkID)
		return err
	})
	g.Go(func() error {
		var err error
		friends, err = h.presenceService.FriendsAtPark(ctx, userID, parkID)
		return err
	})
	if err := g.Wait(); err != nil {
		writeServiceError(w, err, "get park")
		return
	}
	if friends == nil {
		friends = []models.CheckInWithUser{}
	}

	writeJSON(w, http.StatusOK, models.ParkDetail{
		Park:           *park,
		Stats:          *stats,
		Visitors:       len(visitors),
		FriendsPresent: friends,
	})
}
