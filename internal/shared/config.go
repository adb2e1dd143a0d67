package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Resolution  ResolutionConfig  `toml:"resolution"`
	RateLimit   RateLimitConfig   `toml:"ratelimit"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	RefreshToken string `toml:"refresh_token"`
	APIBaseURL   string `toml:"api_base_url"`
	TokenURL     string `toml:"token_url"`
}

// Map returns the credentials in the form accepted by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"api_base_url":  s.APIBaseURL,
		"token_url":     s.TokenURL,
	}
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                  string `toml:"host"`
	Port                  int    `toml:"port"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RequestTimeout returns the per-request deadline; zero disables it.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
//
// An empty path disables job history.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ResolutionConfig controls how track genres are resolved and cached.
type ResolutionConfig struct {
	Strategy      string `toml:"strategy"`
	CacheSize     int    `toml:"cache_size"`
	CacheTTLHours int    `toml:"cache_ttl_hours"`
}

// CacheTTL returns the cache entry lifetime.
func (r ResolutionConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLHours) * time.Hour
}

// RateLimitConfig controls retries on 429 responses and proactive request pacing.
type RateLimitConfig struct {
	MaxAttempts       int     `toml:"max_attempts"`
	MaxDelaySeconds   int     `toml:"max_delay_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// MaxDelay returns the ceiling applied to server supplied Retry-After values.
func (r RateLimitConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelaySeconds) * time.Second
}

// PipelineConfig controls failure handling in the resolution pipeline.
type PipelineConfig struct {
	ContinueOnError bool `toml:"continue_on_error"`
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file fall back to the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides Spotify credentials with SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET
// and SPOTIFY_REDIRECT_URI when they are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
}

// Validate checks the values the server and pipeline depend on.
func (c *Config) Validate() error {
	switch c.Resolution.Strategy {
	case "artist", "album":
	default:
		return fmt.Errorf("%w: resolution.strategy must be artist or album, got %q", ErrInvalidConfig, c.Resolution.Strategy)
	}
	if c.Resolution.CacheSize <= 0 {
		return fmt.Errorf("%w: resolution.cache_size must be positive", ErrInvalidConfig)
	}
	if c.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("%w: ratelimit.max_attempts must be positive", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range: %d", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// SaveConfig encodes the config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
