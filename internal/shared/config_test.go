package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Store.PageSize != 50 {
			t.Errorf("expected page size 50, got %d", config.Store.PageSize)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:8080/callback" {
			t.Errorf("unexpected redirect URI %s", config.Credentials.Spotify.RedirectURI)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Store.SearchLimit != DefaultConfig().Store.SearchLimit {
			t.Errorf("created config search limit doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("partial file keeps defaults", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			content := `
[credentials.spotify]
client_id = "abc"
client_secret = "def"

[store]
page_size = 20
`
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if config.Store.PageSize != 20 {
				t.Errorf("expected page size 20, got %d", config.Store.PageSize)
			}
			if config.Store.SearchLimit != 20 {
				t.Errorf("expected default search limit 20, got %d", config.Store.SearchLimit)
			}
			if !config.Credentials.Spotify.Configured() {
				t.Error("expected credentials to be configured")
			}
		})

		t.Run("missing file", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("invalid TOML", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(configPath, []byte("[store\npage_size ="), 0644)

			if _, err := LoadConfig(configPath); err == nil {
				t.Error("expected parse error")
			}
		})

		t.Run("out of range page size", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(configPath, []byte("[store]\npage_size = 500\n"), 0644)

			_, err := LoadConfig(configPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("SaveConfig round trips", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "saved-id"
		config.API.RequestsPerSecond = 2.5

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if loaded.Credentials.Spotify.ClientID != "saved-id" {
			t.Errorf("expected saved-id, got %s", loaded.Credentials.Spotify.ClientID)
		}
		if loaded.API.RequestsPerSecond != 2.5 {
			t.Errorf("expected 2.5 rps, got %v", loaded.API.RequestsPerSecond)
		}
	})

	t.Run("TokenPath", func(t *testing.T) {
		config := DefaultConfig()
		config.Auth.TokenPath = "/tmp/token.json"
		path, err := config.TokenPath()
		if err != nil || path != "/tmp/token.json" {
			t.Errorf("expected explicit token path, got %q (%v)", path, err)
		}
	})

	t.Run("Timeout defaults", func(t *testing.T) {
		if got := (APIConfig{}).Timeout(); got != 30*time.Second {
			t.Errorf("expected 30s default timeout, got %v", got)
		}
		if got := (APIConfig{TimeoutSeconds: 5}).Timeout(); got != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", got)
		}
	})
}
