package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"garmin-zones/internal/store"
)

// ErrLoginRequired is returned when no usable token is stored
var ErrLoginRequired = errors.New("not logged in: run the login command")

// Config holds the OAuth client settings
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// NewOAuthConfig creates an oauth2.Config from our Config.
// Garmin Connect accepts the resource owner password grant, so there is no
// authorization URL or redirect.
func NewOAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Login exchanges the user's credentials for a token
func Login(ctx context.Context, cfg *oauth2.Config, creds Credentials) (*oauth2.Token, error) {
	token, err := cfg.PasswordCredentialsToken(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("password grant for %s: %w", creds.Email, err)
	}
	return token, nil
}

// AuthFromToken converts a token into its stored form
func AuthFromToken(username string, token *oauth2.Token) *store.Auth {
	return &store.Auth{
		Username:     username,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
		ExpiresAt:    token.Expiry,
	}
}

// TokenFromAuth converts stored tokens back into an oauth2 token
func TokenFromAuth(a *store.Auth) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		TokenType:    a.TokenType,
		Expiry:       a.ExpiresAt,
	}
}

// StoredTokenSource builds a refreshing token source from the tokens in db.
// Refreshed tokens are written back so the next process starts with them.
func StoredTokenSource(db *store.DB, cfg *oauth2.Config) (*TokenSource, error) {
	a, err := db.GetAuth()
	if errors.Is(err, store.ErrNoAuth) {
		return nil, ErrLoginRequired
	}
	if err != nil {
		return nil, fmt.Errorf("loading stored token: %w", err)
	}

	return NewTokenSource(cfg, TokenFromAuth(a), func(t *oauth2.Token) error {
		return db.UpdateTokens(t.AccessToken, t.RefreshToken, t.Expiry)
	}), nil
}

// SaveLogin persists a fresh login and records when it happened
func SaveLogin(db *store.DB, username string, token *oauth2.Token, at time.Time) error {
	if err := db.SaveAuth(AuthFromToken(username, token)); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	if err := db.SetState(store.StateLastLogin, at.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("recording login time: %w", err)
	}
	return nil
}
