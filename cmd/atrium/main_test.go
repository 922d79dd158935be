package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("ATRIUM_CONFIG")
	defer os.Setenv("ATRIUM_CONFIG", originalEnv)

	os.Setenv("ATRIUM_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingJWTSecret verifies run fails when no JWT secret is configured.
// This is the most important startup guard: a missing secret must never fall
// back to a default.
func TestRun_MissingJWTSecret(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	configContent := `
app:
  realm: backoffice

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

redis:
  addr: "127.0.0.1:6379"

logging:
  level: error
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: 8080
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("ATRIUM_CONFIG")
	defer os.Setenv("ATRIUM_CONFIG", originalEnv)
	os.Setenv("ATRIUM_CONFIG", configPath)
	originalSecret := os.Getenv("ATRIUM_JWT_SECRET")
	defer os.Setenv("ATRIUM_JWT_SECRET", originalSecret)
	os.Unsetenv("ATRIUM_JWT_SECRET")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail without a JWT secret")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("ATRIUM_CONFIG")
	defer os.Setenv("ATRIUM_CONFIG", originalEnv)

	os.Unsetenv("ATRIUM_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("ATRIUM_CONFIG")
	defer os.Setenv("ATRIUM_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("ATRIUM_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_StartupWithoutRedis verifies run fails cleanly when Redis is
// unreachable. Sessions cannot work without the store, so startup must abort
// rather than limp along.
func TestRun_StartupWithoutRedis(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	configContent := `
app:
  realm: backoffice

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

redis:
  addr: "127.0.0.1:59999"
  dial_timeout: 1

security:
  jwt:
    secret: "test-secret-for-development-use-only"

logging:
  level: error
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: 18080
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("ATRIUM_CONFIG")
	defer os.Setenv("ATRIUM_CONFIG", originalEnv)
	os.Setenv("ATRIUM_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when Redis is unreachable")
	}
}
