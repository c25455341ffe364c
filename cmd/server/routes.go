package main

import (
	"net/http"

	"github.com/HammerMeetNail/barkpark/internal/handlers"
	"github.com/HammerMeetNail/barkpark/internal/logging"
	"github.com/HammerMeetNail/barkpark/internal/middleware"
)

type routeDeps struct {
	health   *handlers.HealthHandler
	friends  *handlers.FriendHandler
	parks    *handlers.ParkHandler
	checkIns *handlers.CheckInHandler

	auth            *middleware.AuthMiddleware
	writeLimiter    *middleware.RateLimiter
	securityHeaders *middleware.SecurityHeaders
	logger          *logging.Logger
}

func newRouter(d routeDeps) http.Handler {
	requireAuth := func(h http.HandlerFunc) http.Handler {
		return d.auth.RequireAuth(h)
	}
	// Writes that create rows are rate limited per user.
	limitedWrite := func(h http.HandlerFunc) http.Handler {
		if d.writeLimiter == nil {
			return requireAuth(h)
		}
		return d.auth.RequireAuth(d.writeLimiter.Middleware(h))
	}

	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", d.health.Health)
	mux.HandleFunc("GET /ready", d.health.Ready)
	mux.HandleFunc("GET /live", d.health.Live)

	// Friends
	mux.Handle("GET /api/friends", requireAuth(d.friends.List))
	mux.Handle("GET /api/friends/requests", requireAuth(d.friends.Requests))
	mux.Handle("GET /api/friends/status/{userId}", requireAuth(d.friends.Status))
	mux.Handle("GET /api/friends/qr", requireAuth(d.friends.IssueQR))
	mux.Handle("POST /api/friends/request", limitedWrite(d.friends.SendRequest))
	mux.Handle("POST /api/friends/qr-connect", limitedWrite(d.friends.QRConnect))
	mux.Handle("PUT /api/friends/{id}/accept", requireAuth(d.friends.Accept))
	mux.Handle("PUT /api/friends/{id}/decline", requireAuth(d.friends.Decline))
	mux.Handle("DELETE /api/friends/{id}/cancel", requireAuth(d.friends.Cancel))
	mux.Handle("DELETE /api/friends/{friendId}", requireAuth(d.friends.Remove))

	// Parks
	mux.Handle("GET /api/parks", requireAuth(d.parks.Nearby))
	mux.Handle("GET /api/parks/bounds", requireAuth(d.parks.Bounds))
	mux.Handle("GET /api/parks/search", requireAuth(d.parks.Search))
	mux.Handle("GET /api/parks/{id}", requireAuth(d.parks.Get))

	// Check-ins
	mux.Handle("GET /api/parks/{id}/activity", requireAuth(d.checkIns.Activity))
	mux.Handle("GET /api/parks/{id}/friends", requireAuth(d.checkIns.FriendsAtPark))
	mux.Handle("POST /api/parks/{id}/checkin", limitedWrite(d.checkIns.CheckIn))
	mux.Handle("PUT /api/parks/{id}/checkout", requireAuth(d.checkIns.CheckOut))
	mux.Handle("PUT /api/checkins/{id}/checkout", requireAuth(d.checkIns.CheckOutByID))
	mux.Handle("GET /api/parks/user/active", requireAuth(d.checkIns.Active))
	mux.Handle("GET /api/parks/user/history", requireAuth(d.checkIns.History))

	// Build middleware chain (order matters: outermost last)
	var handler http.Handler = mux
	handler = d.auth.Authenticate(handler)
	handler = d.securityHeaders.Apply(handler)
	handler = middleware.NewRequestLogger(d.logger).Apply(handler)
	return handler
}
