// Package testutil provides testing utilities and helpers.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/HammerMeetNail/barkpark/internal/auth"
	"github.com/HammerMeetNail/barkpark/internal/geo"
	"github.com/HammerMeetNail/barkpark/internal/models"
)

// Reference points around Manhattan used across tests.
var (
	CentralPark    = geo.Point{Latitude: 40.785091, Longitude: -73.968285}
	MadisonSquare  = geo.Point{Latitude: 40.742051, Longitude: -73.987549}
	TompkinsSquare = geo.Point{Latitude: 40.726477, Longitude: -73.981534}
	WashingtonSq   = geo.Point{Latitude: 40.730823, Longitude: -73.997332}
	ProspectPark   = geo.Point{Latitude: 40.660204, Longitude: -73.968956}
)

const TestJWTSecret = "test-secret"

// AssertEqual compares two values and fails the test if they're not equal.
func AssertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// AssertStatusCode checks if the response has the expected status code.
func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// AssertJSONContains checks if the JSON response contains expected key-value pairs.
func AssertJSONContains(t *testing.T, body []byte, key string, expected interface{}) {
	t.Helper()
	result := ParseJSONResponse(t, body)
	if result[key] != expected {
		t.Errorf("expected %s to be %v, got %v", key, expected, result[key])
	}
}

// ParseJSONResponse parses a JSON response body into a map.
func ParseJSONResponse(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to parse JSON response %q: %v", body, err)
	}
	return result
}

// NewTokenManager returns a token manager signing with TestJWTSecret.
func NewTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()
	tokens, err := auth.NewTokenManager(TestJWTSecret, "barkpark", time.Hour)
	AssertNoError(t, err, "creating token manager")
	return tokens
}

// NewBearerRequest creates a request authenticated as userID. A non-nil
// data value is sent as the JSON body.
func NewBearerRequest(t *testing.T, tokens *auth.TokenManager, method, path string, userID int64, data interface{}) *http.Request {
	t.Helper()
	var body io.Reader
	if data != nil {
		raw, err := json.Marshal(data)
		AssertNoError(t, err, "marshaling request body")
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := tokens.Sign(userID)
	AssertNoError(t, err, "signing token")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// NewRedis starts an in-memory redis that is torn down with the test.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// NewPark builds a park fixture at p.
func NewPark(id int64, name string, p geo.Point) models.Park {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return models.Park{
		ID:        id,
		Name:      name,
		Address:   strings.ToLower(strings.ReplaceAll(name, " ", "-")) + ", New York, NY",
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Amenities: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
