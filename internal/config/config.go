package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type SourceKind string

const (
	SourcePostgres SourceKind = "postgres"
	SourceSQLite   SourceKind = "sqlite"
	SourceDuckDB   SourceKind = "duckdb"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Source        SourceConfig
	Database      DatabaseConfig
	ObjectStore   ObjectStoreConfig
	Archive       ArchiveConfig
	AI            AIConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SourceConfig selects the database whose schema is compiled. SQLite and DuckDB
// sources are in-memory databases built from BootstrapDDL, or from the embedded
// sample schema when it is empty.
type SourceConfig struct {
	Kind              SourceKind
	BootstrapDDL      string
	IntrospectTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	Schema          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ArchiveConfig struct {
	Enabled bool
}

type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("SCHEMAPROMPT_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid SCHEMAPROMPT_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	for _, load := range []func(LookupFunc, *Config) error{
		loadService,
		loadSource,
		loadDatabase,
		loadObjectStore,
		loadAI,
		loadObservability,
	} {
		if err := load(lookup, &cfg); err != nil {
			return Config{}, err
		}
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Source.Kind == SourcePostgres && cfg.Database.Host == "" {
		return Config{}, fmt.Errorf("database host is required for the postgres source")
	}
	return cfg, nil
}

func loadService(lookup LookupFunc, cfg *Config) error {
	if err := applyString(lookup, "SCHEMAPROMPT_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return err
	}
	if err := applyDuration(lookup, "SCHEMAPROMPT_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := applyDuration(lookup, "SCHEMAPROMPT_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}
	return applyDuration(lookup, "SCHEMAPROMPT_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout)
}

func loadSource(lookup LookupFunc, cfg *Config) error {
	if raw, ok := lookup("SCHEMAPROMPT_SOURCE"); ok {
		kind, err := ParseSourceKind(raw)
		if err != nil {
			return fmt.Errorf("invalid SCHEMAPROMPT_SOURCE: %w", err)
		}
		cfg.Source.Kind = kind
	}
	if err := applyString(lookup, "SCHEMAPROMPT_BOOTSTRAP_DDL", &cfg.Source.BootstrapDDL); err != nil {
		return err
	}
	return applyDuration(lookup, "SCHEMAPROMPT_INTROSPECT_TIMEOUT", &cfg.Source.IntrospectTimeout)
}

func loadDatabase(lookup LookupFunc, cfg *Config) error {
	if err := applyString(lookup, "SCHEMAPROMPT_DB_HOST", &cfg.Database.Host); err != nil {
		return err
	}
	if err := applyInt(lookup, "SCHEMAPROMPT_DB_PORT", &cfg.Database.Port); err != nil {
		return err
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		return fmt.Errorf("invalid SCHEMAPROMPT_DB_PORT: %d out of range", cfg.Database.Port)
	}
	if err := applyString(lookup, "SCHEMAPROMPT_DB_NAME", &cfg.Database.Name); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_DB_USER", &cfg.Database.User); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_DB_PASSWORD", &cfg.Database.Password); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_DB_SSLMODE", &cfg.Database.SSLMode); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_DB_SCHEMA", &cfg.Database.Schema); err != nil {
		return err
	}
	if err := applyInt(lookup, "SCHEMAPROMPT_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns); err != nil {
		return err
	}
	if err := applyInt(lookup, "SCHEMAPROMPT_DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns); err != nil {
		return err
	}
	if err := applyDuration(lookup, "SCHEMAPROMPT_DB_CONN_MAX_IDLE_TIME", &cfg.Database.ConnMaxIdleTime); err != nil {
		return err
	}
	return applyDuration(lookup, "SCHEMAPROMPT_DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
}

func loadObjectStore(lookup LookupFunc, cfg *Config) error {
	if err := applyBool(lookup, "SCHEMAPROMPT_ARCHIVE_ENABLED", &cfg.Archive.Enabled); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_OBJECTSTORE_REGION", &cfg.ObjectStore.Region); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey); err != nil {
		return err
	}
	if err := applyBool(lookup, "SCHEMAPROMPT_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix); err != nil {
		return err
	}
	return applyBool(lookup, "SCHEMAPROMPT_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket)
}

func loadAI(lookup LookupFunc, cfg *Config) error {
	if err := applyString(lookup, "SCHEMAPROMPT_AI_BASE_URL", &cfg.AI.BaseURL); err != nil {
		return err
	}
	if err := applyString(lookup, "SCHEMAPROMPT_AI_API_KEY", &cfg.AI.APIKey); err != nil {
		return err
	}
	// unprefixed for compatibility with existing text-to-sql deployments
	if err := applyString(lookup, "TEXT_TO_SQL_MODEL", &cfg.AI.Model); err != nil {
		return err
	}
	if err := applyFloat(lookup, "SCHEMAPROMPT_AI_TEMPERATURE", &cfg.AI.Temperature); err != nil {
		return err
	}
	return applyDuration(lookup, "SCHEMAPROMPT_AI_TIMEOUT", &cfg.AI.Timeout)
}

func loadObservability(lookup LookupFunc, cfg *Config) error {
	if err := applyBool(lookup, "SCHEMAPROMPT_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return err
	}
	if err := applyLogLevel(lookup, "SCHEMAPROMPT_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return err
	}
	if err := applyBool(lookup, "SCHEMAPROMPT_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return err
	}
	return applyString(lookup, "SCHEMAPROMPT_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys)
}

func ParseSourceKind(value string) (SourceKind, error) {
	kind := SourceKind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case SourcePostgres, SourceSQLite, SourceDuckDB:
		return kind, nil
	case "postgresql":
		return SourcePostgres, nil
	default:
		return "", fmt.Errorf("unknown source %q", value)
	}
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "schemaprompt"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Source: SourceConfig{
			Kind:              SourcePostgres,
			IntrospectTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "app",
			User:            "app",
			Password:        "app",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    4,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "schemaprompt",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "prompts",
			AutoCreateBucket: true,
		},
		AI: AIConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "qwen2.5-coder:14b",
			Temperature: 0,
			Timeout:     120 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.Database.SSLMode = "require"
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
