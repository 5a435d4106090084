package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"LISTEN_ADDR", "META_DB_PATH", "WAREHOUSE_URL", "WAREHOUSE_TOKEN", "WAREHOUSE_TIMEOUT",
	"WAREHOUSE_CACHE_TTL", "KPI_WARM_SCHEDULE", "JWT_SECRET", "AUTH_ISSUER_URL", "AUTH_AUDIENCE",
	"LOG_LEVEL", "ENV", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS", "SCHEMA_DIR",
	"PROXY_LISTEN_ADDR", "PROXY_DUCKDB_PATH", "PROXY_MAX_SKEW", "PROXY_SEED_DEMO",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "fleet.sqlite", cfg.MetaDBPath)
	assert.Equal(t, "http://localhost:8090", cfg.Warehouse.URL)
	assert.Equal(t, 30*time.Second, cfg.Warehouse.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Warehouse.CacheTTL)
	assert.Equal(t, devJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 100.0, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.KPIWarmSchedule)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Len(t, cfg.Warnings, 2)
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("META_DB_PATH", "/tmp/fleet.sqlite")
	t.Setenv("WAREHOUSE_URL", "http://proxy:8090")
	t.Setenv("WAREHOUSE_TOKEN", "s3cret")
	t.Setenv("WAREHOUSE_TIMEOUT", "5s")
	t.Setenv("WAREHOUSE_CACHE_TTL", "0s")
	t.Setenv("KPI_WARM_SCHEDULE", " @every 5m ")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SCHEMA_DIR", "/etc/fleet/schemas")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/tmp/fleet.sqlite", cfg.MetaDBPath)
	assert.Equal(t, WarehouseConfig{URL: "http://proxy:8090", Token: "s3cret", Timeout: 5 * time.Second}, cfg.Warehouse)
	assert.Equal(t, "@every 5m", cfg.KPIWarmSchedule)
	assert.Equal(t, "jwt", cfg.Auth.JWTSecret)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "/etc/fleet/schemas", cfg.SchemaDir)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad timeout", map[string]string{"WAREHOUSE_TIMEOUT": "soon"}},
		{"negative ttl", map[string]string{"WAREHOUSE_CACHE_TTL": "-1s"}},
		{"issuer without audience", map[string]string{"AUTH_ISSUER_URL": "https://idp.example"}},
		{"production with dev secret", map[string]string{"ENV": "production", "WAREHOUSE_TOKEN": "t", "CORS_ALLOWED_ORIGINS": "https://a.example"}},
		{"production without warehouse token", map[string]string{"ENV": "production", "JWT_SECRET": "j", "CORS_ALLOWED_ORIGINS": "https://a.example"}},
		{"production with cors wildcard", map[string]string{"ENV": "production", "JWT_SECRET": "j", "WAREHOUSE_TOKEN": "t"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			require.Error(t, err)
		})
	}
}

func TestLoadFromEnv_Production(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "Production")
	t.Setenv("AUTH_ISSUER_URL", "https://idp.example")
	t.Setenv("AUTH_AUDIENCE", "fleet-dash")
	t.Setenv("WAREHOUSE_TOKEN", "t")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://dash.example")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Auth.OIDCEnabled())
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestLoadProxyFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("WAREHOUSE_TOKEN", "t")

		cfg, err := LoadProxyFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8090", cfg.ListenAddr)
		assert.Empty(t, cfg.DuckDBPath)
		assert.Equal(t, 5*time.Minute, cfg.MaxSkew)
		assert.True(t, cfg.SeedDemo)
	})

	t.Run("overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("WAREHOUSE_TOKEN", "t")
		t.Setenv("PROXY_DUCKDB_PATH", "/data/wh.duckdb")
		t.Setenv("PROXY_SEED_DEMO", "off")
		t.Setenv("PROXY_MAX_SKEW", "30s")
		t.Setenv("LOG_LEVEL", "warn")

		cfg, err := LoadProxyFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "/data/wh.duckdb", cfg.DuckDBPath)
		assert.False(t, cfg.SeedDemo)
		assert.Equal(t, 30*time.Second, cfg.MaxSkew)
		assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
	})

	t.Run("token required", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadProxyFromEnv()
		require.Error(t, err)
	})
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	if err != nil {
		t.Errorf("expected no error for missing .env, got: %v", err)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	t.Setenv("TEST_KEY", "")
	t.Setenv("TEST_QUOTED", "")
	t.Setenv("TEST_EXPORTED", "")

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nTEST_KEY=test_value\nTEST_QUOTED=\"a b\"\nexport TEST_EXPORTED='x'\nnot a pair\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "test_value", os.Getenv("TEST_KEY"))
	assert.Equal(t, "a b", os.Getenv("TEST_QUOTED"))
	assert.Equal(t, "x", os.Getenv("TEST_EXPORTED"))
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("TEST_PRECEDENCE_KEY", "from_env")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TEST_PRECEDENCE_KEY=from_file\n"), 0o600))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "from_env", os.Getenv("TEST_PRECEDENCE_KEY"))
}

func TestStripQuotes(t *testing.T) {
	tests := []struct{ in, want string }{
		{`"x"`, "x"},
		{`'x'`, "x"},
		{`"x'`, `"x'`},
		{`"`, `"`},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, stripQuotes(tc.in), tc.in)
	}
}
