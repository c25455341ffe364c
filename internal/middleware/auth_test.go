package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HammerMeetNail/barkpark/internal/auth"
	"github.com/HammerMeetNail/barkpark/internal/handlers"
)

type stubVerifier struct {
	verifyFunc func(token string) (int64, error)
}

func (s stubVerifier) Verify(token string) (int64, error) {
	return s.verifyFunc(token)
}

func captureUser(t *testing.T, got *int64, ok *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *ok = handlers.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_ValidBearer(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{verifyFunc: func(token string) (int64, error) {
		if token != "good" {
			t.Fatalf("unexpected token %q", token)
		}
		return 17, nil
	}})

	var userID int64
	var ok bool
	req := httptest.NewRequest(http.MethodGet, "/api/friends", nil)
	req.Header.Set("Authorization", "Bearer good")
	m.Authenticate(captureUser(t, &userID, &ok)).ServeHTTP(httptest.NewRecorder(), req)

	if !ok || userID != 17 {
		t.Fatalf("expected user 17 in context, got %d (ok=%v)", userID, ok)
	}
}

func TestAuthenticate_IgnoresBadHeaders(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{verifyFunc: func(token string) (int64, error) {
		return 0, auth.ErrInvalidToken
	}})

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic dXNlcjpwYXNz", "Bearer bad"} {
		var userID int64
		var ok bool
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		m.Authenticate(captureUser(t, &userID, &ok)).ServeHTTP(rr, req)

		if ok {
			t.Fatalf("header %q: expected no user, got %d", header, userID)
		}
		if rr.Code != http.StatusOK {
			t.Fatalf("header %q: Authenticate must not reject, got %d", header, rr.Code)
		}
	}
}

func TestAuthenticate_SchemeCaseInsensitive(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{verifyFunc: func(token string) (int64, error) { return 5, nil }})

	var userID int64
	var ok bool
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer tok")
	m.Authenticate(captureUser(t, &userID, &ok)).ServeHTTP(httptest.NewRecorder(), req)

	if !ok || userID != 5 {
		t.Fatalf("expected user 5, got %d", userID)
	}
}

func TestRequireAuth(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{verifyFunc: func(string) (int64, error) { return 0, errors.New("unused") }})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr.Body.String() != `{"error":"Authentication required"}` {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(handlers.SetUserIDInContext(req.Context(), 3))
	rr = httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rr.Code)
	}
}

func TestAuthMiddleware_WithTokenManager(t *testing.T) {
	tokens, err := auth.NewTokenManager("secret", "barkpark", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	token, err := tokens.Sign(99)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	m := NewAuthMiddleware(tokens)

	var userID int64
	var ok bool
	handler := m.Authenticate(m.RequireAuth(captureUser(t, &userID, &ok)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || userID != 99 {
		t.Fatalf("expected authenticated request for 99, got %d user %d", rr.Code, userID)
	}
}
