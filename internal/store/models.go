package store

import "time"

// Auth represents the OAuth tokens for Garmin Connect API access
type Auth struct {
	Username     string    `db:"username"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	TokenType    string    `db:"token_type"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// State keys
const (
	StateLastLogin = "last_login"
)
