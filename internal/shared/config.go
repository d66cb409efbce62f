package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Auth        AuthConfig        `toml:"auth"`
	Server      ServerConfig      `toml:"server"`
	API         APIConfig         `toml:"api"`
	Store       StoreConfig       `toml:"store"`
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
}

// AuthConfig controls where the OAuth token is cached between runs.
type AuthConfig struct {
	TokenPath string `toml:"token_path"`
}

// ServerConfig contains the OAuth callback listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// APIConfig controls request pacing against the Web API.
type APIConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	Retry             bool    `toml:"retry"`
}

// StoreConfig controls pagination of user collections.
type StoreConfig struct {
	PageSize    int `toml:"page_size"`
	MaxPages    int `toml:"max_pages"`
	SearchLimit int `toml:"search_limit"`
	SyncWorkers int `toml:"sync_workers"`
}

// LogConfig sets the default log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// Timeout returns the per-request timeout.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Configured reports whether client credentials are present.
func (c SpotifyConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Validate checks ranges the services rely on.
func (c *Config) Validate() error {
	if c.Store.PageSize < 1 || c.Store.PageSize > 50 {
		return fmt.Errorf("%w: store.page_size must be between 1 and 50, got %d", ErrInvalidConfig, c.Store.PageSize)
	}
	if c.Store.SearchLimit < 1 || c.Store.SearchLimit > 50 {
		return fmt.Errorf("%w: store.search_limit must be between 1 and 50, got %d", ErrInvalidConfig, c.Store.SearchLimit)
	}
	if c.Store.MaxPages < 0 {
		return fmt.Errorf("%w: store.max_pages must not be negative", ErrInvalidConfig)
	}
	if c.API.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: api.requests_per_second must be positive", ErrInvalidConfig)
	}
	if c.API.Burst < 1 {
		return fmt.Errorf("%w: api.burst must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// TokenPath resolves the token cache location, defaulting to the user config directory.
func (c *Config) TokenPath() (string, error) {
	if c.Auth.TokenPath != "" {
		return c.Auth.TokenPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(dir, "spotifly", "token.json"), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes config to path as TOML.
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

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
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
