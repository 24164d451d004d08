package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./wouldwatch.db" {
			t.Errorf("expected database path ./wouldwatch.db, got %s", config.Database.Path)
		}

		if config.API.BaseURL != "http://localhost:8080" {
			t.Errorf("expected api base URL http://localhost:8080, got %s", config.API.BaseURL)
		}

		if config.Auth.RedirectURL() != "http://127.0.0.1:54321/callback" {
			t.Errorf("unexpected redirect URL %s", config.Auth.RedirectURL())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig keeps defaults for missing keys", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[api]
base_url = "https://api.example.com"

[auth]
url = "https://auth.example.com"
anon_key = "anon"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://api.example.com" {
			t.Errorf("expected base URL override, got %s", config.API.BaseURL)
		}
		if config.Auth.CallbackPort != 54321 {
			t.Errorf("expected default callback port, got %d", config.Auth.CallbackPort)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(EnvAuthURL, "https://env-auth.example.com")
		t.Setenv(EnvAuthAnonKey, "env-key")
		t.Setenv(EnvAPIURL, "")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Auth.URL != "https://env-auth.example.com" {
			t.Errorf("expected auth URL from env, got %s", config.Auth.URL)
		}
		if config.API.BaseURL != "http://localhost:8080" {
			t.Errorf("empty env var should not override, got %s", config.API.BaseURL)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("WW_APP_URL=https://dotenv.example.com\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv(EnvAppURL, "")
		os.Unsetenv(EnvAppURL)

		if err := LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}
		if got := os.Getenv(EnvAppURL); got != "https://dotenv.example.com" {
			t.Errorf("expected value from .env, got %q", got)
		}
	})

	t.Run("Validate reports what is missing", func(t *testing.T) {
		config := DefaultConfig()
		config.Auth.URL = "https://auth.example.com"

		err := config.Validate()
		if !errors.Is(err, ErrMissingConfig) {
			t.Fatalf("expected ErrMissingConfig, got %v", err)
		}
		for _, want := range []string{"API URL present: true", "auth URL present: true", "auth key present: false"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("expected %q in %q", want, err.Error())
			}
		}
	})
}
