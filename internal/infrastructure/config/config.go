package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LOTLEDGER_STORE_BACKEND
const EnvPrefix = "LOTLEDGER"

// Config is the whole service configuration, read from config.toml and
// LOTLEDGER_* environment variables over the defaults below
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Log         LogConfig         `mapstructure:"log"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Store       StoreConfig       `mapstructure:"store"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Lock        LockConfig        `mapstructure:"lock"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Fulfillment FulfillmentConfig `mapstructure:"fulfillment"`
	Projection  ProjectionConfig  `mapstructure:"projection"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Profiling   ProfilingConfig   `mapstructure:"profiling"`
	Schema      SchemaConfig      `mapstructure:"schema"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`
	HSTSMaxAge       time.Duration `mapstructure:"hsts_max_age"` // zero disables Strict-Transport-Security

	// Swagger UI under /swagger, optionally limited to some client IPs or CIDRs
	SwaggerEnabled    bool     `mapstructure:"swagger_enabled"`
	SwaggerAllowedIPs []string `mapstructure:"swagger_allowed_ips"`
}

// StoreConfig selects where lots, movements and order rows live
type StoreConfig struct {
	Backend      string `mapstructure:"backend"` // memory, workbook, sql
	WorkbookPath string `mapstructure:"workbook_path"`
	CreateTables bool   `mapstructure:"create_tables"` // add missing tables with default headers on startup
}

// DatabaseConfig is used by the sql store and the migrate tool
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	Path            string `mapstructure:"path"` // sqlite file
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN returns a postgres URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LockConfig selects how writers to one order line or lot are serialized
type LockConfig struct {
	Backend    string        `mapstructure:"backend"` // local, redis
	TTL        time.Duration `mapstructure:"ttl"`     // redis lock expiry
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	RetryLimit int           `mapstructure:"retry_limit"`
}

type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"` // memory, redis
	TTL     time.Duration `mapstructure:"ttl"`
}

type FulfillmentConfig struct {
	ReservationPolicy string `mapstructure:"reservation_policy"` // advisory, hard
}

type ProjectionConfig struct {
	// RefreshInterval rebuilds balances from the full ledger. Queries already
	// fold in appended rows; the rebuild picks up rows edited in place. Zero
	// disables it.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"` // plaintext gRPC to the collector
	ExportInterval    time.Duration `mapstructure:"export_interval"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // statements with values, development only
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// ProfilingConfig drives continuous profiling with Pyroscope
type ProfilingConfig struct {
	Enabled              bool     `mapstructure:"enabled"`
	ServerAddress        string   `mapstructure:"server_address"`
	ApplicationName      string   `mapstructure:"application_name"`
	BasicAuthUser        string   `mapstructure:"basic_auth_user"`
	BasicAuthPassword    string   `mapstructure:"basic_auth_password"`
	ProfileTypes         []string `mapstructure:"profile_types"` // cpu, alloc_space, inuse_space, goroutines, mutex_count, ...
	MutexProfileFraction int      `mapstructure:"mutex_profile_fraction"`
	BlockProfileRate     int      `mapstructure:"block_profile_rate"`
	SpanProfiles         bool     `mapstructure:"span_profiles"` // link CPU samples to trace spans
}

// SchemaConfig overrides the built-in column mapping of the row store
type SchemaConfig struct {
	Tables map[string]SchemaTableConfig `mapstructure:"tables"`
}

// SchemaTableConfig maps one logical table. Fields lists candidate header
// names per logical field, tried in order.
type SchemaTableConfig struct {
	Name   string              `mapstructure:"name"`
	Fields map[string][]string `mapstructure:"fields"`
}

// ProfileTypes are the profile names profiling.profile_types accepts
var ProfileTypes = []string{
	"cpu",
	"alloc_objects", "alloc_space",
	"inuse_objects", "inuse_space",
	"goroutines",
	"mutex_count", "mutex_duration",
	"block_count", "block_duration",
}

// defaults registers every key, which also lets AutomaticEnv see them
var defaults = map[string]any{
	"app.name": "lotledger",
	"app.env":  "development",
	"app.port": "8080",

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":        15 * time.Second,
	"http.write_timeout":       30 * time.Second,
	"http.idle_timeout":        60 * time.Second,
	"http.shutdown_timeout":    10 * time.Second,
	"http.max_header_bytes":    1 << 20,
	"http.max_body_size":       1 << 20,
	"http.cors_allow_origins":  []string{},
	"http.cors_allow_methods":  []string{"GET", "POST", "PUT", "OPTIONS"},
	"http.cors_allow_headers":  []string{"Content-Type", "X-Request-ID", "X-Actor", "Idempotency-Key"},
	"http.trusted_proxies":     []string{},
	"http.hsts_max_age":        time.Duration(0),
	"http.swagger_enabled":     true,
	"http.swagger_allowed_ips": []string{},

	"store.backend":       "workbook",
	"store.workbook_path": "inventory.xlsx",
	"store.create_tables": false,

	"database.driver":             "postgres",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "lotledger",
	"database.sslmode":            "disable",
	"database.path":               "lotledger.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"lock.backend":     "local",
	"lock.ttl":         30 * time.Second,
	"lock.retry_delay": 100 * time.Millisecond,
	"lock.retry_limit": 50,

	"idempotency.enabled": false,
	"idempotency.backend": "memory",
	"idempotency.ttl":     24 * time.Hour,

	"fulfillment.reservation_policy": "advisory",
	"projection.refresh_interval":    5 * time.Minute,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "lotledger",
	"telemetry.insecure":                false,
	"telemetry.export_interval":         time.Minute,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,

	"profiling.enabled":                false,
	"profiling.server_address":         "http://localhost:4040",
	"profiling.application_name":       "lotledger",
	"profiling.basic_auth_user":        "",
	"profiling.basic_auth_password":    "",
	"profiling.profile_types":          []string{"cpu", "alloc_space", "inuse_space", "goroutines"},
	"profiling.mutex_profile_fraction": 5,
	"profiling.block_profile_rate":     5,
	"profiling.span_profiles":          false,
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads config.toml from the working directory or /app when present.
// Environment variables win over the file, the file over the defaults.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFile reads an explicit config file, which must exist
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, ", "), value)
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(oneOf("database.driver", c.Database.Driver, "postgres", "sqlite"))
	add(oneOf("store.backend", c.Store.Backend, "memory", "workbook", "sql"))
	add(oneOf("lock.backend", c.Lock.Backend, "local", "redis"))
	add(oneOf("idempotency.backend", c.Idempotency.Backend, "memory", "redis"))
	add(oneOf("fulfillment.reservation_policy",
		strings.ToLower(strings.TrimSpace(c.Fulfillment.ReservationPolicy)), "advisory", "hard"))

	if c.Database.MaxOpenConns <= 0 {
		add(errors.New("database.max_open_conns must be positive"))
	}
	if c.Database.MaxIdleConns < 0 {
		add(errors.New("database.max_idle_conns cannot be negative"))
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		add(fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns))
	}
	if c.Projection.RefreshInterval < 0 {
		add(errors.New("projection.refresh_interval cannot be negative"))
	}
	if c.Profiling.Enabled {
		if strings.TrimSpace(c.Profiling.ServerAddress) == "" {
			add(errors.New("profiling.server_address is required when profiling is enabled"))
		} else if _, err := url.ParseRequestURI(c.Profiling.ServerAddress); err != nil {
			add(fmt.Errorf("profiling.server_address: %w", err))
		}
		for _, pt := range c.Profiling.ProfileTypes {
			add(oneOf("profiling.profile_types", pt, ProfileTypes...))
		}
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		add(fmt.Errorf("telemetry.sampling_ratio must be within [0, 1], got %g", c.Telemetry.SamplingRatio))
	}

	if c.App.Env == "production" {
		if c.Store.Backend == "memory" {
			add(errors.New("store.backend cannot be memory in production"))
		}
		if c.Store.Backend == "sql" && c.Database.Driver == "postgres" && c.Database.SSLMode == "disable" {
			add(errors.New("database.sslmode cannot be 'disable' in production"))
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				add(errors.New("http.cors_allow_origins cannot be '*' in production"))
			}
		}
		if c.Telemetry.DBLogFullSQL {
			add(errors.New("telemetry.db_log_full_sql must be off in production, statements carry order data"))
		}
	}
	return errors.Join(errs...)
}
