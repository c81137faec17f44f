package web

import (
	"encoding/json"
	"os"

	"github.com/ehdc-llpg/addrparse/internal/config"
)

// Config represents the web server configuration
type Config struct {
	Server   ServerConfig  `json:"server"`
	Lexicon  LexiconConfig `json:"lexicon"`
	Auth     AuthConfig    `json:"auth"`
	Features FeatureConfig `json:"features"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// LexiconConfig points at override tables
type LexiconConfig struct {
	Dir   string `json:"dir"`
	Watch bool   `json:"watch"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"api_key"`
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	CacheEnabled  bool `json:"cache_enabled"`
	BatchEnabled  bool `json:"batch_enabled"`
	ReloadEnabled bool `json:"reload_enabled"`
}

// LoadConfig loads configuration from a JSON file over the defaults
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8443,
			Host: "localhost",
		},
		Features: FeatureConfig{
			CacheEnabled:  true,
			BatchEnabled:  true,
			ReloadEnabled: true,
		},
	}
}

// ConfigFromEnv builds the server configuration from the environment settings
func ConfigFromEnv(env *config.Config) *Config {
	cfg := DefaultConfig()
	cfg.Server.Host = env.WebHost
	cfg.Server.Port = env.WebPort
	cfg.Lexicon.Dir = env.LexiconDir
	cfg.Lexicon.Watch = env.LexiconDir != ""
	cfg.Auth.Enabled = env.WebAPIKey != ""
	cfg.Auth.APIKey = env.WebAPIKey
	cfg.Features.CacheEnabled = env.RedisAddr != ""
	return cfg
}
