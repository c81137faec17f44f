package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv("ADDRPARSE_TEST_KEEP", "existing")
	os.Unsetenv("ADDRPARSE_TEST_PLAIN")
	os.Unsetenv("ADDRPARSE_TEST_QUOTED")
	os.Unsetenv("ADDRPARSE_TEST_EXPORT")
	t.Cleanup(func() {
		os.Unsetenv("ADDRPARSE_TEST_PLAIN")
		os.Unsetenv("ADDRPARSE_TEST_QUOTED")
		os.Unsetenv("ADDRPARSE_TEST_EXPORT")
	})

	data := `
# comment
ADDRPARSE_TEST_PLAIN = plain
ADDRPARSE_TEST_QUOTED="quoted value"
export ADDRPARSE_TEST_EXPORT=exported
ADDRPARSE_TEST_KEEP=replaced
not a pair
`
	if err := applyEnv(data); err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}

	tests := map[string]string{
		"ADDRPARSE_TEST_PLAIN":  "plain",
		"ADDRPARSE_TEST_QUOTED": "quoted value",
		"ADDRPARSE_TEST_EXPORT": "exported",
		"ADDRPARSE_TEST_KEEP":   "existing",
	}
	for key, want := range tests {
		if got := os.Getenv(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("ADDRPARSE_TEST_STR", "value")
	t.Setenv("ADDRPARSE_TEST_INT", "42")
	t.Setenv("ADDRPARSE_TEST_BADINT", "forty")
	t.Setenv("ADDRPARSE_TEST_BOOL", "yes")
	t.Setenv("ADDRPARSE_TEST_BADBOOL", "maybe")

	if got := GetEnv("ADDRPARSE_TEST_STR", "x"); got != "value" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("ADDRPARSE_TEST_MISSING", "x"); got != "x" {
		t.Errorf("GetEnv default = %q", got)
	}
	if got := GetEnvInt("ADDRPARSE_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("ADDRPARSE_TEST_BADINT", 1); got != 1 {
		t.Errorf("GetEnvInt bad = %d", got)
	}
	if got := GetEnvBool("ADDRPARSE_TEST_BOOL", false); !got {
		t.Error("GetEnvBool = false")
	}
	if got := GetEnvBool("ADDRPARSE_TEST_BADBOOL", true); !got {
		t.Error("GetEnvBool bad value should keep default")
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("ADDRPARSE_DEFAULT_LOCALE", "ca")
	t.Setenv("ADDRPARSE_MATCH_TIMEOUT", "250ms")
	t.Setenv("WEB_PORT", "9000")
	t.Setenv("PGDATABASE", "parsed")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultLocale != "ca" {
		t.Errorf("DefaultLocale = %q", cfg.DefaultLocale)
	}
	if cfg.MatchTimeout != 250*time.Millisecond {
		t.Errorf("MatchTimeout = %v", cfg.MatchTimeout)
	}
	if cfg.WebAddr() != cfg.WebHost+":9000" {
		t.Errorf("WebAddr = %q", cfg.WebAddr())
	}
	if cfg.RedisPrefix != "addrparse:" {
		t.Errorf("RedisPrefix default = %q", cfg.RedisPrefix)
	}
	want := "dbname=parsed"
	if dsn := cfg.DSN(); !strings.Contains(dsn, want) {
		t.Errorf("DSN() = %q, want it to contain %q", dsn, want)
	}
}
