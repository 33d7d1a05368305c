package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "lotledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "workbook", cfg.Store.Backend)
		assert.Equal(t, "inventory.xlsx", cfg.Store.WorkbookPath)
		assert.Equal(t, "local", cfg.Lock.Backend)
		assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
		assert.Equal(t, "memory", cfg.Idempotency.Backend)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
		assert.Equal(t, "advisory", cfg.Fulfillment.ReservationPolicy)
		assert.Equal(t, 5*time.Minute, cfg.Projection.RefreshInterval)
		assert.True(t, cfg.HTTP.SwaggerEnabled)
		assert.Empty(t, cfg.HTTP.SwaggerAllowedIPs)
		assert.False(t, cfg.Profiling.Enabled)
		assert.Equal(t, []string{"cpu", "alloc_space", "inuse_space", "goroutines"}, cfg.Profiling.ProfileTypes)
		assert.Empty(t, cfg.Schema.Tables)
	})

	t.Run("loads values from environment variables with LOTLEDGER prefix", func(t *testing.T) {
		t.Setenv("LOTLEDGER_APP_NAME", "test-app")
		t.Setenv("LOTLEDGER_APP_PORT", "9000")
		t.Setenv("LOTLEDGER_STORE_BACKEND", "sql")
		t.Setenv("LOTLEDGER_DATABASE_DRIVER", "sqlite")
		t.Setenv("LOTLEDGER_DATABASE_PATH", "/tmp/ledger.db")
		t.Setenv("LOTLEDGER_LOCK_BACKEND", "redis")
		t.Setenv("LOTLEDGER_FULFILLMENT_RESERVATION_POLICY", "hard")
		t.Setenv("LOTLEDGER_PROJECTION_REFRESH_INTERVAL", "90s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sql", cfg.Store.Backend)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "/tmp/ledger.db", cfg.Database.Path)
		assert.Equal(t, "redis", cfg.Lock.Backend)
		assert.Equal(t, "hard", cfg.Fulfillment.ReservationPolicy)
		assert.Equal(t, 90*time.Second, cfg.Projection.RefreshInterval)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("LOTLEDGER_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("LOTLEDGER_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown backends", func(t *testing.T) {
		for key, value := range map[string]string{
			"LOTLEDGER_STORE_BACKEND":                  "csv",
			"LOTLEDGER_LOCK_BACKEND":                   "zookeeper",
			"LOTLEDGER_IDEMPOTENCY_BACKEND":            "disk",
			"LOTLEDGER_DATABASE_DRIVER":                "mysql",
			"LOTLEDGER_FULFILLMENT_RESERVATION_POLICY": "firm",
		} {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, value)
				_, err := Load()
				require.Error(t, err)
				assert.Contains(t, err.Error(), value)
			})
		}
	})
}

func TestLoad_Profiling(t *testing.T) {
	t.Run("enabled with a server and known profile types", func(t *testing.T) {
		t.Setenv("LOTLEDGER_PROFILING_ENABLED", "true")
		t.Setenv("LOTLEDGER_PROFILING_SERVER_ADDRESS", "http://pyroscope:4040")
		t.Setenv("LOTLEDGER_PROFILING_PROFILE_TYPES", "cpu,mutex_count")
		t.Setenv("LOTLEDGER_PROFILING_SPAN_PROFILES", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"cpu", "mutex_count"}, cfg.Profiling.ProfileTypes)
		assert.True(t, cfg.Profiling.SpanProfiles)
	})

	t.Run("unknown profile type and missing server are both reported", func(t *testing.T) {
		t.Setenv("LOTLEDGER_PROFILING_ENABLED", "true")
		t.Setenv("LOTLEDGER_PROFILING_SERVER_ADDRESS", " ")
		t.Setenv("LOTLEDGER_PROFILING_PROFILE_TYPES", "cpu,heap")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profiling.server_address")
		assert.Contains(t, err.Error(), `profiling.profile_types must be one of`)
	})

	t.Run("disabled profiling is not checked", func(t *testing.T) {
		t.Setenv("LOTLEDGER_PROFILING_PROFILE_TYPES", "heap")
		_, err := Load()
		assert.NoError(t, err)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("memory store is not allowed in production", func(t *testing.T) {
		t.Setenv("LOTLEDGER_APP_ENV", "production")
		t.Setenv("LOTLEDGER_STORE_BACKEND", "memory")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store.backend cannot be memory in production")
	})

	t.Run("sql store on postgres requires SSL in production", func(t *testing.T) {
		t.Setenv("LOTLEDGER_APP_ENV", "production")
		t.Setenv("LOTLEDGER_STORE_BACKEND", "sql")
		t.Setenv("LOTLEDGER_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with a workbook store", func(t *testing.T) {
		t.Setenv("LOTLEDGER_APP_ENV", "production")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoadFile_SchemaMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[store]
backend = "memory"

[schema.tables.order_lines]
name = "Pedidos"

[schema.tables.order_lines.fields]
order_id = ["Pedido", "Order ID"]
requested = ["Cantidad"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Backend)
	require.Contains(t, cfg.Schema.Tables, "order_lines")
	table := cfg.Schema.Tables["order_lines"]
	assert.Equal(t, "Pedidos", table.Name)
	assert.Equal(t, []string{"Pedido", "Order ID"}, table.Fields["order_id"])
	assert.Equal(t, []string{"Cantidad"}, table.Fields["requested"])
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.Addr())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Store.Backend = "csv"
	cfg.Lock.Backend = "zookeeper"
	cfg.Telemetry.SamplingRatio = 2

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store.backend must be one of memory, workbook, sql, got "csv"`)
	assert.Contains(t, err.Error(), "zookeeper")
	assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
}

func TestLoad_ProductionRejectsWildcardOriginAndFullSQL(t *testing.T) {
	t.Setenv("LOTLEDGER_APP_ENV", "production")
	t.Setenv("LOTLEDGER_HTTP_CORS_ALLOW_ORIGINS", "*")
	t.Setenv("LOTLEDGER_TELEMETRY_DB_LOG_FULL_SQL", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.cors_allow_origins cannot be '*' in production")
	assert.Contains(t, err.Error(), "telemetry.db_log_full_sql must be off in production")
}

func TestLoad_DurationAndListOverrides(t *testing.T) {
	t.Setenv("LOTLEDGER_HTTP_READ_TIMEOUT", "5s")
	t.Setenv("LOTLEDGER_HTTP_TRUSTED_PROXIES", "10.0.0.1,10.0.0.2")
	t.Setenv("LOTLEDGER_IDEMPOTENCY_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.HTTP.TrustedProxies)
	assert.Equal(t, time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, []string{"GET", "POST", "PUT", "OPTIONS"}, cfg.HTTP.CORSAllowMethods)
}
