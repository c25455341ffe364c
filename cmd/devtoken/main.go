// Command devtoken prints a bearer token for a user id, signed with the
// server's configured secret. It is meant for local development.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/HammerMeetNail/barkpark/internal/auth"
	"github.com/HammerMeetNail/barkpark/internal/config"
	"github.com/HammerMeetNail/barkpark/internal/logging"
)

func main() {
	userID := flag.Int64("user", 0, "user id to issue the token for")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_TTL)")
	flag.Parse()

	token, err := issue(*userID, *ttl)
	if err != nil {
		logging.Error("Could not issue token", map[string]interface{}{"error": err.Error()})
		_ = logging.Default.Sync()
		os.Exit(1)
	}
	fmt.Println(token)
}

func issue(userID int64, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", errors.New("-user must be a positive id")
	}

	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	if cfg.Server.IsProduction() {
		return "", errors.New("refusing to issue development tokens in production")
	}
	if ttl == 0 {
		ttl = cfg.Auth.TokenTTL
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, ttl)
	if err != nil {
		return "", err
	}
	return tokens.Sign(userID)
}
