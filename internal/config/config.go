package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Garmin GarminConfig `json:"garmin"`
	Server ServerConfig `json:"server"`
	Report ReportConfig `json:"report"`
}

// GarminConfig holds Garmin Connect API settings
type GarminConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	APIURL       string `json:"api_url"`
	TokenURL     string `json:"token_url"`
}

// ServerConfig holds HTTP server and background refresh settings
type ServerConfig struct {
	Addr             string `json:"addr"`
	RefreshWorkers   int    `json:"refresh_workers"`
	RefreshQueue     int    `json:"refresh_queue"`
	FetchConcurrency int    `json:"fetch_concurrency"`
}

// ReportConfig controls how much history the stats report covers
type ReportConfig struct {
	Weeks        int `json:"weeks"`
	TrailingDays int `json:"trailing_days"`
	MonthDays    int `json:"month_days"`
}

// Defaults
const (
	DefaultAPIURL   = "https://connectapi.garmin.com"
	DefaultTokenURL = "https://connectapi.garmin.com/oauth-service/oauth/token"
	DefaultAddr     = ":8080"

	configDirName  = ".garmin-zones"
	configFileName = "config.json"
)

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Garmin: GarminConfig{
			APIURL:   DefaultAPIURL,
			TokenURL: DefaultTokenURL,
		},
		Server: ServerConfig{
			Addr:             DefaultAddr,
			RefreshWorkers:   2,
			RefreshQueue:     16,
			FetchConcurrency: 4,
		},
		Report: ReportConfig{
			Weeks:        5,
			TrailingDays: 14,
			MonthDays:    30,
		},
	}
}

// Load reads the configuration from ~/.garmin-zones/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path and applies defaults for
// missing values
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Garmin.APIURL == "" {
		c.Garmin.APIURL = defaults.Garmin.APIURL
	}
	if c.Garmin.TokenURL == "" {
		c.Garmin.TokenURL = defaults.Garmin.TokenURL
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.RefreshWorkers == 0 {
		c.Server.RefreshWorkers = defaults.Server.RefreshWorkers
	}
	if c.Server.RefreshQueue == 0 {
		c.Server.RefreshQueue = defaults.Server.RefreshQueue
	}
	if c.Server.FetchConcurrency == 0 {
		c.Server.FetchConcurrency = defaults.Server.FetchConcurrency
	}
	if c.Report.Weeks == 0 {
		c.Report.Weeks = defaults.Report.Weeks
	}
	if c.Report.TrailingDays == 0 {
		c.Report.TrailingDays = defaults.Report.TrailingDays
	}
	if c.Report.MonthDays == 0 {
		c.Report.MonthDays = defaults.Report.MonthDays
	}
}

// Save writes the configuration to ~/.garmin-zones/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes the configuration to path, creating its directory
func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// client_secret lives here
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Garmin.ClientID = "YOUR_CLIENT_ID"
	example.Garmin.ClientSecret = "YOUR_CLIENT_SECRET"
	return SaveFile(path, &example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Garmin.ClientID == "" || c.Garmin.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("garmin.client_id is required")
	}
	if c.Garmin.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("garmin.client_secret still holds the example placeholder")
	}

	if err := checkURL("garmin.api_url", c.Garmin.APIURL); err != nil {
		return err
	}
	if err := checkURL("garmin.token_url", c.Garmin.TokenURL); err != nil {
		return err
	}

	if c.Server.RefreshWorkers < 0 {
		return fmt.Errorf("server.refresh_workers must not be negative, got %d", c.Server.RefreshWorkers)
	}
	if c.Server.RefreshQueue < 0 {
		return fmt.Errorf("server.refresh_queue must not be negative, got %d", c.Server.RefreshQueue)
	}
	if c.Server.FetchConcurrency < 0 {
		return fmt.Errorf("server.fetch_concurrency must not be negative, got %d", c.Server.FetchConcurrency)
	}

	if c.Report.Weeks < 0 || c.Report.TrailingDays < 0 || c.Report.MonthDays < 0 {
		return fmt.Errorf("report window sizes must not be negative (weeks=%d trailing_days=%d month_days=%d)",
			c.Report.Weeks, c.Report.TrailingDays, c.Report.MonthDays)
	}

	return nil
}

// checkURL accepts an empty value, which means the default
func checkURL(name, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
	}
	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}
