// Package config loads and validates the application configuration from a
// JSON file, with sensible defaults for local development.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Feed     FeedConfig     `json:"feed"`
	Observer ObserverConfig `json:"observer"`
	Auth     AuthConfig     `json:"auth"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`

	// Port is the HTTP server port (default: 8000)
	Port int `json:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings. An empty Host
// disables persistence entirely.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`

	// Password should normally come from the environment, not the file
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-full)
	SSLMode string `json:"ssl_mode"`

	MaxOpenConns int `json:"max_open_conns"`
	MaxIdleConns int `json:"max_idle_conns"`
}

// Enabled reports whether a database connection is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// FeedConfig controls the upstream flight data feed.
type FeedConfig struct {
	// BaseURL is the OpenSky-compatible API root
	BaseURL string `json:"base_url"`

	// Bounding box of the tracked region, decimal degrees
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`

	// PollSeconds is the background refresh cadence (default: 8)
	PollSeconds int `json:"poll_seconds"`
}

// ObserverConfig is the viewer position used for visibility filtering.
type ObserverConfig struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Elevation in meters MSL
	Elevation float64 `json:"elevation"`

	// HalfFOVDegrees is the default half-angle for view filtering
	HalfFOVDegrees float64 `json:"half_fov_degrees"`
}

// AuthConfig controls API authentication.
type AuthConfig struct {
	// TokenHours is the JWT validity window (default: 24)
	TokenHours int `json:"token_hours"`
}

// Default returns the configuration used when no file is present:
// a local server tracking the SF bay area with no database.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Feed: FeedConfig{
			BaseURL:     "https://opensky-network.org/api",
			LatMin:      37.4,
			LatMax:      38.0,
			LonMin:      -122.6,
			LonMax:      -121.8,
			PollSeconds: 8,
		},
		Observer: ObserverConfig{
			Latitude:       37.7749,
			Longitude:      -122.4194,
			Elevation:      16,
			HalfFOVDegrees: 30,
		},
		Auth: AuthConfig{
			TokenHours: 24,
		},
	}
}

// Load reads configuration from a JSON file, overlaying the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to a JSON file, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for values that would misbehave at
// runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	if c.Feed.LatMin >= c.Feed.LatMax {
		return fmt.Errorf("feed bounding box latitude range inverted: %f >= %f",
			c.Feed.LatMin, c.Feed.LatMax)
	}
	if c.Feed.LonMin >= c.Feed.LonMax {
		return fmt.Errorf("feed bounding box longitude range inverted: %f >= %f",
			c.Feed.LonMin, c.Feed.LonMax)
	}
	if c.Feed.PollSeconds <= 0 {
		return fmt.Errorf("feed poll interval must be positive, got %d", c.Feed.PollSeconds)
	}

	if c.Observer.Latitude < -90 || c.Observer.Latitude > 90 {
		return fmt.Errorf("observer latitude %f out of range", c.Observer.Latitude)
	}
	if c.Observer.Longitude < -180 || c.Observer.Longitude > 180 {
		return fmt.Errorf("observer longitude %f out of range", c.Observer.Longitude)
	}
	if c.Observer.HalfFOVDegrees <= 0 || c.Observer.HalfFOVDegrees > 180 {
		return fmt.Errorf("observer half FOV %f out of (0, 180]", c.Observer.HalfFOVDegrees)
	}

	if c.Auth.TokenHours <= 0 {
		return fmt.Errorf("auth token hours must be positive, got %d", c.Auth.TokenHours)
	}

	return nil
}
