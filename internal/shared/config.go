package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Xbox client credentials may be supplied via the XBOX_CLIENT_ID and
// XBOX_CLIENT_SECRET environment variables, which take precedence over the
// file contents.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Xbox XboxConfig `toml:"xbox"`
}

// XboxConfig contains the Azure application credentials used for the
// Xbox Live OAuth flow.
type XboxConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Validate checks that both client credentials are present.
func (x XboxConfig) Validate() error {
	if x.ClientID == "" || x.ClientSecret == "" {
		return fmt.Errorf("%w: XBOX_CLIENT_ID and XBOX_CLIENT_SECRET must be set", ErrMissingCredentials)
	}
	return nil
}

// StorageConfig contains local filesystem paths for tokens and snapshots.
type StorageConfig struct {
	TokensDir string `toml:"tokens_dir"`
	OutputDir string `toml:"output_dir"`
}

// APIConfig contains tunables for Xbox Live API calls.
type APIConfig struct {
	Language   string  `toml:"language"`     // Accept-Language header sent to Xbox endpoints
	MaxGames   int     `toml:"max_games"`    // Titles considered for the achievements pass
	RateLimit  float64 `toml:"rate_limit"`   // Achievement fetches per second
	NumWorkers int     `toml:"num_workers"`  // Concurrent achievement fetchers
	TimeoutSec int     `toml:"timeout_secs"` // Per-call HTTP timeout
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// SaveConfig writes the configuration back to disk as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded
// example config, with environment overrides applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
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

// applyEnv overrides credentials with environment variables when present.
func (c *Config) applyEnv() {
	if id := os.Getenv("XBOX_CLIENT_ID"); id != "" {
		c.Credentials.Xbox.ClientID = id
	}
	if secret := os.Getenv("XBOX_CLIENT_SECRET"); secret != "" {
		c.Credentials.Xbox.ClientSecret = secret
	}
}
