package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnvSetsValues(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, ".env")
	content := "KITE_USER_ID=abc123\nKITE_ENC_TOKEN=shh\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	unsetEnv(t, "KITE_USER_ID")
	unsetEnv(t, "KITE_ENC_TOKEN")

	if err := loadDotEnvIfPresent(path); err != nil {
		t.Fatalf("loadDotEnvIfPresent error: %v", err)
	}

	if got := os.Getenv("KITE_USER_ID"); got != "abc123" {
		t.Fatalf("expected user id to be set, got %q", got)
	}
	if got := os.Getenv("KITE_ENC_TOKEN"); got != "shh" {
		t.Fatalf("expected token to be set, got %q", got)
	}
}

func TestLoadDotEnvDoesNotOverrideExisting(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, ".env")
	content := "KITE_USER_ID=from_file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("KITE_USER_ID", "from_env")

	if err := loadDotEnvIfPresent(path); err != nil {
		t.Fatalf("loadDotEnvIfPresent error: %v", err)
	}

	if got := os.Getenv("KITE_USER_ID"); got != "from_env" {
		t.Fatalf("expected env to win, got %q", got)
	}
}

func TestLoadDotEnvMissingFileIsIgnored(t *testing.T) {
	if err := loadDotEnvIfPresent(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

// unsetEnv clears key for the test and restores its previous value.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset env: %v", err)
	}
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}
