// Package oauth manages telemetry provider OAuth tokens persisted on the
// user record.
package oauth

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"

	shared "github.com/dbop14/FitApp-sub000/pkg"
)

// FitbitEndpoint is Fitbit's OAuth2 token endpoint.
var FitbitEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.fitbit.com/oauth2/authorize",
	TokenURL: "https://api.fitbit.com/oauth2/token",
}

// expirySkew refreshes tokens slightly early so an in-flight request never
// races expiry.
const expirySkew = 2 * time.Minute

// TokenSource returns a valid access token for a user's provider connection.
// It is safe for concurrent use by multiple goroutines.
type TokenSource interface {
	Token(context.Context) (string, error)
}

// UserTokenSource reads Fitbit tokens from the user record and refreshes
// them through the provider's token endpoint when near expiry, writing the
// rotated tokens back so other instances pick them up.
type UserTokenSource struct {
	db     shared.Database
	userID string
	cfg    *oauth2.Config
	mu     sync.Mutex
}

// NewFitbitTokenSource builds a token source for userID using client
// credentials from the environment.
func NewFitbitTokenSource(db shared.Database, userID string) *UserTokenSource {
	return &UserTokenSource{
		db:     db,
		userID: userID,
		cfg: &oauth2.Config{
			ClientID:     os.Getenv("FITBIT_CLIENT_ID"),
			ClientSecret: os.Getenv("FITBIT_CLIENT_SECRET"),
			Endpoint:     FitbitEndpoint,
		},
	}
}

func (s *UserTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.db.GetUser(ctx, s.userID)
	if err != nil {
		return "", fmt.Errorf("load user for token: %w", err)
	}
	if !user.FitbitEnabled() {
		return "", fmt.Errorf("user %s has no enabled fitbit connection", s.userID)
	}

	fb := user.Integrations.Fitbit
	if fb.AccessToken != "" && time.Until(fb.ExpiresAt) > expirySkew {
		return fb.AccessToken, nil
	}

	if fb.RefreshToken == "" {
		return "", fmt.Errorf("fitbit token expired and no refresh token for user %s", s.userID)
	}

	stale := &oauth2.Token{
		AccessToken:  fb.AccessToken,
		RefreshToken: fb.RefreshToken,
		Expiry:       fb.ExpiresAt,
	}
	fresh, err := s.cfg.TokenSource(ctx, stale).Token()
	if err != nil {
		return "", fmt.Errorf("refresh fitbit token: %w", err)
	}

	// Fitbit rotates refresh tokens on every refresh; persist both.
	update := map[string]interface{}{
		"integrations": map[string]interface{}{
			"fitbit": map[string]interface{}{
				"access_token":  fresh.AccessToken,
				"refresh_token": fresh.RefreshToken,
				"expires_at":    fresh.Expiry,
			},
		},
	}
	if err := s.db.UpdateUser(ctx, s.userID, update); err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", err)
	}

	return fresh.AccessToken, nil
}
