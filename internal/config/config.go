// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const devJWTSecret = "dev-secret-change-in-production"

// AuthConfig holds authentication and identity provider configuration.
type AuthConfig struct {
	IssuerURL string // OIDC issuer URL (e.g., https://login.microsoftonline.com/{tenant}/v2.0)
	Audience  string // Required JWT audience claim
	JWTSecret string // HS256 shared secret for local/dev JWT auth
}

// OIDCEnabled returns true when an external identity provider is configured.
func (a *AuthConfig) OIDCEnabled() bool {
	return a.IssuerURL != ""
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if a.IssuerURL == "" && a.JWTSecret == "" {
		return fmt.Errorf("one of AUTH_ISSUER_URL or JWT_SECRET must be set")
	}
	if a.IssuerURL != "" && a.Audience == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required when AUTH_ISSUER_URL is set")
	}
	return nil
}

// WarehouseConfig describes how the dashboard reaches the warehouse proxy.
type WarehouseConfig struct {
	URL      string        // proxy base URL (default "http://localhost:8090")
	Token    string        // shared signing token
	Timeout  time.Duration // per-query timeout (default 30s)
	CacheTTL time.Duration // payload cache TTL; 0 disables caching (default 30s)
}

// Config holds the configuration for the dashboard API server.
type Config struct {
	ListenAddr      string // HTTP listen address (default ":8080")
	MetaDBPath      string // path to the SQLite fleet store (default "fleet.sqlite")
	LogLevel        string // log level: debug, info, warn, error (default "info")
	Env             string // environment: "development" (default) or "production"
	SchemaDir       string // optional directory of YAML decode schemas
	KPIWarmSchedule string // cron spec for sync + KPI warm-up; empty disables

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	Auth      AuthConfig
	Warehouse WarehouseConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:      os.Getenv("LISTEN_ADDR"),
		MetaDBPath:      os.Getenv("META_DB_PATH"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		Env:             os.Getenv("ENV"),
		SchemaDir:       os.Getenv("SCHEMA_DIR"),
		KPIWarmSchedule: strings.TrimSpace(os.Getenv("KPI_WARM_SCHEDULE")),
		Auth: AuthConfig{
			IssuerURL: os.Getenv("AUTH_ISSUER_URL"),
			Audience:  os.Getenv("AUTH_AUDIENCE"),
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Warehouse: WarehouseConfig{
			URL:   os.Getenv("WAREHOUSE_URL"),
			Token: os.Getenv("WAREHOUSE_TOKEN"),
		},
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	var err error
	if cfg.Warehouse.Timeout, err = parseDurationEnv("WAREHOUSE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Warehouse.CacheTTL, err = parseDurationEnv("WAREHOUSE_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "fleet.sqlite"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Warehouse.URL == "" {
		cfg.Warehouse.URL = "http://localhost:8090"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if !cfg.Auth.OIDCEnabled() && cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = devJWTSecret
		cfg.Warnings = append(cfg.Warnings, "neither AUTH_ISSUER_URL nor JWT_SECRET set; using insecure development secret")
	}
	if cfg.Warehouse.Token == "" {
		cfg.Warnings = append(cfg.Warnings, "WAREHOUSE_TOKEN not set; warehouse queries will be rejected by the proxy")
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.Auth.JWTSecret == devJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET or AUTH_ISSUER_URL must be set in production (ENV=production)")
		}
		if cfg.Warehouse.Token == "" {
			return nil, fmt.Errorf("WAREHOUSE_TOKEN must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

// ProxyConfig holds the configuration for the warehouse proxy.
type ProxyConfig struct {
	ListenAddr string        // default ":8090"
	DuckDBPath string        // empty means in-memory
	Token      string        // shared signing token (WAREHOUSE_TOKEN)
	MaxSkew    time.Duration // accepted clock skew for signed requests (default 5m)
	SeedDemo   bool          // load demo tables on start (default true)
	LogLevel   string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *ProxyConfig) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

// LoadProxyFromEnv loads the warehouse proxy configuration.
func LoadProxyFromEnv() (*ProxyConfig, error) {
	cfg := &ProxyConfig{
		ListenAddr: os.Getenv("PROXY_LISTEN_ADDR"),
		DuckDBPath: os.Getenv("PROXY_DUCKDB_PATH"),
		Token:      os.Getenv("WAREHOUSE_TOKEN"),
		SeedDemo:   parseBoolEnvDefault("PROXY_SEED_DEMO", true),
		LogLevel:   os.Getenv("LOG_LEVEL"),
	}
	var err error
	if cfg.MaxSkew, err = parseDurationEnv("PROXY_MAX_SKEW", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8090"
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("WAREHOUSE_TOKEN is required")
	}
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, v)
	}
	return d, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = stripQuotes(strings.TrimSpace(value))
		// env vars take precedence
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes matching surrounding double or single quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
