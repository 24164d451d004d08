package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override file configuration.
const (
	EnvAPIURL       = "WW_API_URL"
	EnvAppURL       = "WW_APP_URL"
	EnvAuthURL      = "WW_AUTH_URL"
	EnvAuthAnonKey  = "WW_AUTH_ANON_KEY"
	EnvDatabasePath = "WW_DATABASE_PATH"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

// APIConfig points the gateway at the backend.
type APIConfig struct {
	BaseURL   string  `toml:"base_url"`
	AppURL    string  `toml:"app_url"`
	RateLimit float64 `toml:"rate_limit"`
}

// AuthConfig holds the hosted auth provider's location and public key.
type AuthConfig struct {
	URL          string `toml:"url"`
	AnonKey      string `toml:"anon_key"`
	CallbackHost string `toml:"callback_host"`
	CallbackPort int    `toml:"callback_port"`
}

// CallbackAddr is the loopback address the OAuth redirect lands on.
func (a AuthConfig) CallbackAddr() string {
	return fmt.Sprintf("%s:%d", a.CallbackHost, a.CallbackPort)
}

// RedirectURL is the full OAuth redirect URL registered with the provider.
func (a AuthConfig) RedirectURL() string {
	return "http://" + a.CallbackAddr() + "/callback"
}

// DatabaseConfig contains local session store settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoggingConfig controls log verbosity and the TUI log file.
type LoggingConfig struct {
	Level   string `toml:"level"`
	TUIFile string `toml:"tui_file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// LoadEnv loads dotenv files into the process environment.
//
// Missing files are ignored; variables already set are never overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays non-empty environment variables onto the config.
func (c *Config) ApplyEnv() {
	overlay := map[string]*string{
		EnvAPIURL:       &c.API.BaseURL,
		EnvAppURL:       &c.API.AppURL,
		EnvAuthURL:      &c.Auth.URL,
		EnvAuthAnonKey:  &c.Auth.AnonKey,
		EnvDatabasePath: &c.Database.Path,
	}
	for key, dst := range overlay {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
}

// Validate reports the required settings that are absent.
//
// The message names what is present so the user can tell which variable was dropped.
func (c *Config) Validate() error {
	apiOK := c.API.BaseURL != ""
	urlOK := c.Auth.URL != ""
	keyOK := c.Auth.AnonKey != ""

	if apiOK && urlOK && keyOK {
		return nil
	}

	return fmt.Errorf(
		"%w: API URL present: %t, auth URL present: %t, auth key present: %t (set %s, %s and %s or edit config.toml)",
		ErrMissingConfig, apiOK, urlOK, keyOK, EnvAPIURL, EnvAuthURL, EnvAuthAnonKey,
	)
}
