package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables consulted when there is no credentials file
const (
	EnvUsername = "GARMIN_USERNAME"
	EnvPassword = "GARMIN_PASSWORD"
)

// ErrNoCredentials is returned when neither the credentials file nor the
// environment supplies a login
var ErrNoCredentials = errors.New("no Garmin credentials: create ~/.garth/creds or set GARMIN_USERNAME and GARMIN_PASSWORD")

// Credentials is a Garmin Connect login
type Credentials struct {
	Email    string
	Password string
}

// DefaultCredentialsPath returns ~/.garth/creds
func DefaultCredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".garth", "creds"), nil
}

// LoadCredentials reads "email:password" from path. If the file does not
// exist the environment is used instead. The file takes precedence.
func LoadCredentials(path string, getenv func(string) string) (Credentials, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return parseCredentials(string(data))
	case !os.IsNotExist(err):
		return Credentials{}, fmt.Errorf("reading credentials file: %w", err)
	}

	email, password := getenv(EnvUsername), getenv(EnvPassword)
	if email == "" || password == "" {
		return Credentials{}, ErrNoCredentials
	}
	return Credentials{Email: email, Password: password}, nil
}

// parseCredentials splits on the first colon; passwords may contain colons
func parseCredentials(s string) (Credentials, error) {
	email, password, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || email == "" || password == "" {
		return Credentials{}, errors.New("credentials file must contain email:password")
	}
	return Credentials{Email: email, Password: password}, nil
}
