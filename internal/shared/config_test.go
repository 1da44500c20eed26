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

		if config.Database.Path != "./moviex.db" {
			t.Errorf("expected database path ./moviex.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.TMDB.BaseURL != "https://api.themoviedb.org" {
			t.Errorf("expected tmdb base URL https://api.themoviedb.org, got %s", config.TMDB.BaseURL)
		}

		if config.Locale.Default != "en-US" {
			t.Errorf("expected default locale en-US, got %s", config.Locale.Default)
		}

		if got := config.Feed.Debounce(); got != 300*time.Millisecond {
			t.Errorf("expected 300ms debounce, got %v", got)
		}

		if got := config.Session.RefreshTTL(); got != 168*time.Hour {
			t.Errorf("expected 168h refresh ttl, got %v", got)
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

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[tmdb]
api_key = "test_api_key"
rate_limit = 4.5

[locale]
default = "ja-JP"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.TMDB.APIKey != "test_api_key" {
			t.Errorf("expected api_key test_api_key, got %s", config.TMDB.APIKey)
		}

		if config.TMDB.RateLimit != 4.5 {
			t.Errorf("expected rate limit 4.5, got %v", config.TMDB.RateLimit)
		}

		if config.Locale.Default != "ja-JP" {
			t.Errorf("expected locale ja-JP, got %s", config.Locale.Default)
		}

		t.Run("keeps defaults for omitted sections", func(t *testing.T) {
			if config.Feed.DebounceMS != 300 {
				t.Errorf("expected default debounce 300, got %d", config.Feed.DebounceMS)
			}
			if config.TMDB.BaseURL != "https://api.themoviedb.org" {
				t.Errorf("expected default base URL, got %s", config.TMDB.BaseURL)
			}
		})
	})

	t.Run("LoadConfig with invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[tmdb\napi_key = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("LoadOrDefault", func(t *testing.T) {
		t.Setenv("MOVIEX_TMDB_API_KEY", "")

		config, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Database.Path != "./moviex.db" {
			t.Errorf("expected default config, got database path %s", config.Database.Path)
		}
	})

	t.Run("environment API key overrides", func(t *testing.T) {
		t.Setenv("MOVIEX_TMDB_API_KEY", "from-env")

		config, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.TMDB.APIKey != "from-env" {
			t.Errorf("expected api key from-env, got %s", config.TMDB.APIKey)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config.TMDB.AccessToken = "token"
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}

		config.TMDB.BaseURL = ""
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
