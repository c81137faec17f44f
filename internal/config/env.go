package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds the settings shared by the CLI, batch runner and web server
type Config struct {
	DefaultLocale string        `env:"ADDRPARSE_DEFAULT_LOCALE,default=auto"`
	MatchTimeout  time.Duration `env:"ADDRPARSE_MATCH_TIMEOUT,default=1s"`
	LexiconDir    string        `env:"ADDRPARSE_LEXICON_DIR"`
	Debug         bool          `env:"ADDRPARSE_DEBUG,default=false"`

	WebHost   string `env:"WEB_HOST,default=localhost"`
	WebPort   int    `env:"WEB_PORT,default=8443"`
	WebAPIKey string `env:"WEB_API_KEY"`

	// RedisAddr empty disables the parse cache
	RedisAddr   string        `env:"REDIS_ADDR"`
	RedisPrefix string        `env:"REDIS_PREFIX,default=addrparse:"`
	RedisTTL    time.Duration `env:"REDIS_TTL,default=1h"`

	PGHost           string `env:"PGHOST,default=localhost"`
	PGPort           int    `env:"PGPORT,default=15432"`
	PGUser           string `env:"PGUSER,default=user"`
	PGPassword       string `env:"PGPASSWORD,default=password"`
	PGDatabase       string `env:"PGDATABASE,default=addrparse"`
	PGSSLMode        string `env:"PGSSLMODE,default=disable"`
	PGMaxConnections int    `env:"PG_MAX_CONNECTIONS,default=20"`
}

// Load reads .env and decodes the environment into a Config
func Load() (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	return &cfg, nil
}

// DSN returns the lib/pq connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PGHost, c.PGPort, c.PGUser, c.PGPassword, c.PGDatabase, c.PGSSLMode)
}

// WebAddr returns host:port for the HTTP server
func (c *Config) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.WebHost, c.WebPort)
}

// LoadEnv loads environment variables from .env file
func LoadEnv() error {
	// Try to load from .env file in current directory first, then parent directories
	envPaths := []string{".env", "../.env", "../../.env"}

	for _, envPath := range envPaths {
		data, err := os.ReadFile(envPath)
		if err != nil {
			continue
		}
		if err := applyEnv(string(data)); err != nil {
			return fmt.Errorf("failed to load %s: %w", envPath, err)
		}
		break // Successfully loaded, don't try other paths
	}
	return nil
}

// applyEnv sets KEY=VALUE lines that are not already in the environment
func applyEnv(data string) error {
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := unquote(strings.TrimSpace(parts[1]))

		// Only set if not already set
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// GetEnv gets environment variable with default
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets integer environment variable with default
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBool gets boolean environment variable with default
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}
