package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Atrium Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	API       APIConfig       `yaml:"api"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retention RetentionConfig `yaml:"retention"`
}

// AppConfig contains deployment-instance information.
//
// Realm identifies the deployment realm (e.g. "admin", "portal") and is the
// first segment of every session key, so two realms sharing one Redis never
// collide. It is also embedded in every issued token.
type AppConfig struct {
	Realm    string `yaml:"realm"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// RedisConfig contains settings for the shared Redis client used by the
// session store and login throttle.
//
// Timeouts are in seconds and kept short so a Redis outage surfaces as a
// fast failure instead of a hung login.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	DialTimeout  int    `yaml:"dial_timeout"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP server timeout settings (in seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT      JWTConfig      `yaml:"jwt"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Session  SessionConfig  `yaml:"session"`
}

// JWTConfig contains JWT token settings.
// TokenTTL is in hours; the default is 168 (7 days).
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	TokenTTL int    `yaml:"token_ttl"`
}

// ThrottleConfig contains login brute-force lockout settings.
// Window is in seconds; the default is 1800 (30 minutes).
type ThrottleConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	Window      int `yaml:"window"`
}

// SessionConfig contains session store settings.
//
// ExpiryGrace (seconds) is added to the token expiry when writing the session
// record, so a still-valid token is never rejected because its session record
// expired a moment earlier.
type SessionConfig struct {
	ExpiryGrace int `yaml:"expiry_grace"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// RetentionConfig contains audit-trail retention settings.
type RetentionConfig struct {
	// LoginLogDays is how many days of login logs to keep. 0 disables pruning.
	LoginLogDays int `yaml:"login_log_days"`

	// PruneSchedule is a cron expression for the pruning job.
	PruneSchedule string `yaml:"prune_schedule"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ATRIUM_SECTION_KEY
// For example: ATRIUM_DATABASE_PATH, ATRIUM_REDIS_ADDR, ATRIUM_JWT_SECRET
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Realm:    "admin",
			Name:     "Atrium",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/atrium.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			DialTimeout:  5,
			ReadTimeout:  3,
			WriteTimeout: 3,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				TokenTTL: 168, // 7 days
			},
			Throttle: ThrottleConfig{
				MaxAttempts: 5,
				Window:      1800, // 30 minutes
			},
			Session: SessionConfig{
				ExpiryGrace: 30,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Retention: RetentionConfig{
			LoginLogDays:  90,
			PruneSchedule: "0 3 * * *",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ATRIUM_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// App
	if v := os.Getenv("ATRIUM_APP_REALM"); v != "" {
		cfg.App.Realm = v
	}

	// Database
	if v := os.Getenv("ATRIUM_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Redis
	if v := os.Getenv("ATRIUM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ATRIUM_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ATRIUM_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}

	// API
	if v := os.Getenv("ATRIUM_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("ATRIUM_API_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = n
		}
	}

	// Security - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("ATRIUM_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// App validation
	if c.App.Realm == "" {
		errs = append(errs, "app.realm is required")
	} else if strings.Contains(c.App.Realm, ":") {
		errs = append(errs, "app.realm must not contain ':' (it is a session key segment)")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// Redis validation
	if c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Security validation - JWT secret is REQUIRED
	// A guessable secret lets an attacker mint tokens for any account, so an
	// empty or short secret is a startup failure, not a warning.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set ATRIUM_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if c.Security.Throttle.MaxAttempts < 1 {
		errs = append(errs, "security.throttle.max_attempts must be at least 1")
	}
	if c.Security.Throttle.Window < 1 {
		errs = append(errs, "security.throttle.window must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// TokenTTL returns the configured token lifetime as a Duration.
// Falls back to the 7-day default when unset.
func (c *SecurityConfig) TokenTTL() time.Duration {
	if c.JWT.TokenTTL <= 0 {
		return 168 * time.Hour
	}
	return time.Duration(c.JWT.TokenTTL) * time.Hour
}

// ThrottleWindow returns the lockout window as a Duration.
func (c *SecurityConfig) ThrottleWindow() time.Duration {
	return time.Duration(c.Throttle.Window) * time.Second
}

// SessionExpiryGrace returns the session expiry grace as a Duration.
func (c *SecurityConfig) SessionExpiryGrace() time.Duration {
	return time.Duration(c.Session.ExpiryGrace) * time.Second
}
