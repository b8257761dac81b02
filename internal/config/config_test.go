package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("schemaprompt", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.Source.Kind != SourcePostgres {
		t.Fatalf("Source.Kind = %q", cfg.Source.Kind)
	}
	if cfg.Source.IntrospectTimeout != 30*time.Second {
		t.Fatalf("Source.IntrospectTimeout = %s", cfg.Source.IntrospectTimeout)
	}
	db := cfg.Database
	if db.Host != "localhost" || db.Port != 5432 || db.Name != "app" || db.User != "app" || db.Password != "app" || db.SSLMode != "disable" {
		t.Fatalf("Database = %+v", db)
	}
	if db.Schema != "" {
		t.Fatalf("Database.Schema = %q, want engine default", db.Schema)
	}
	if cfg.AI.Model != "qwen2.5-coder:14b" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.BaseURL != "http://localhost:11434" || cfg.AI.APIKey != "" {
		t.Fatalf("AI = %+v", cfg.AI)
	}
	if cfg.AI.Timeout != 120*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled should default to false")
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("schemaprompt-api", mapLookup(map[string]string{"SCHEMAPROMPT_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Database.SSLMode != "require" {
		t.Fatalf("Database.SSLMode = %q", cfg.Database.SSLMode)
	}
	if !cfg.ObjectStore.UseSSL || cfg.ObjectStore.AutoCreateBucket {
		t.Fatalf("ObjectStore = %+v", cfg.ObjectStore)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"SCHEMAPROMPT_PROFILE":            "test",
		"SCHEMAPROMPT_SERVICE_NAME":       "schemaprompt-custom",
		"SCHEMAPROMPT_HTTP_ADDR":          ":9999",
		"SCHEMAPROMPT_HTTP_READ_TIMEOUT":  "2s",
		"SCHEMAPROMPT_SOURCE":             "DuckDB",
		"SCHEMAPROMPT_BOOTSTRAP_DDL":      "/etc/schemaprompt/tpcc.sql",
		"SCHEMAPROMPT_INTROSPECT_TIMEOUT": "5s",
		"SCHEMAPROMPT_DB_HOST":            "db.internal",
		"SCHEMAPROMPT_DB_PORT":            "6432",
		"SCHEMAPROMPT_DB_NAME":            "tpcc",
		"SCHEMAPROMPT_DB_USER":            "reader",
		"SCHEMAPROMPT_DB_PASSWORD":        "secret",
		"SCHEMAPROMPT_DB_SSLMODE":         "verify-full",
		"SCHEMAPROMPT_DB_SCHEMA":          "sales",
		"SCHEMAPROMPT_DB_MAX_OPEN_CONNS":  "8",
		"SCHEMAPROMPT_ARCHIVE_ENABLED":    "true",
		"SCHEMAPROMPT_OBJECTSTORE_BUCKET": "audit",
		"SCHEMAPROMPT_OBJECTSTORE_PREFIX": "runs",
		"SCHEMAPROMPT_AI_BASE_URL":        "https://api.example.com",
		"SCHEMAPROMPT_AI_API_KEY":         "sk-test",
		"SCHEMAPROMPT_AI_TEMPERATURE":     "0.2",
		"SCHEMAPROMPT_AI_TIMEOUT":         "45s",
		"TEXT_TO_SQL_MODEL":               "sqlcoder:7b",
		"SCHEMAPROMPT_LOG_LEVEL":          "error",
		"SCHEMAPROMPT_LOG_JSON":           "false",
		"SCHEMAPROMPT_AUTH_REQUIRED":      "true",
		"SCHEMAPROMPT_AUTH_STATIC_KEYS":   "k1:ops:schema_reader",
	})
	cfg, err := Load("schemaprompt", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "schemaprompt-custom" || cfg.HTTP.Address != ":9999" || cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("Service/HTTP = %+v %+v", cfg.Service, cfg.HTTP)
	}
	if cfg.Source.Kind != SourceDuckDB || cfg.Source.BootstrapDDL != "/etc/schemaprompt/tpcc.sql" || cfg.Source.IntrospectTimeout != 5*time.Second {
		t.Fatalf("Source = %+v", cfg.Source)
	}
	db := cfg.Database
	if db.Host != "db.internal" || db.Port != 6432 || db.Name != "tpcc" || db.User != "reader" || db.Password != "secret" || db.SSLMode != "verify-full" || db.Schema != "sales" || db.MaxOpenConns != 8 {
		t.Fatalf("Database = %+v", db)
	}
	if !cfg.Archive.Enabled || cfg.ObjectStore.Bucket != "audit" || cfg.ObjectStore.Prefix != "runs" {
		t.Fatalf("Archive/ObjectStore = %+v %+v", cfg.Archive, cfg.ObjectStore)
	}
	if cfg.AI.BaseURL != "https://api.example.com" || cfg.AI.APIKey != "sk-test" || cfg.AI.Model != "sqlcoder:7b" {
		t.Fatalf("AI = %+v", cfg.AI)
	}
	if cfg.AI.Temperature != 0.2 || cfg.AI.Timeout != 45*time.Second {
		t.Fatalf("AI = %+v", cfg.AI)
	}
	if cfg.Observability.LogLevel != slog.LevelError || cfg.Observability.LogJSON {
		t.Fatalf("Observability = %+v", cfg.Observability)
	}
	if !cfg.Auth.Required || cfg.Auth.StaticKeys != "k1:ops:schema_reader" {
		t.Fatalf("Auth = %+v", cfg.Auth)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"SCHEMAPROMPT_PROFILE": "oops"},
		{"SCHEMAPROMPT_SOURCE": "oracle"},
		{"SCHEMAPROMPT_HTTP_READ_TIMEOUT": "NaN"},
		{"SCHEMAPROMPT_INTROSPECT_TIMEOUT": "soon"},
		{"SCHEMAPROMPT_DB_PORT": "oops"},
		{"SCHEMAPROMPT_DB_PORT": "70000"},
		{"SCHEMAPROMPT_DB_HOST": ""},
		{"SCHEMAPROMPT_AI_TEMPERATURE": "bad"},
		{"SCHEMAPROMPT_ARCHIVE_ENABLED": "maybe"},
		{"SCHEMAPROMPT_AUTH_REQUIRED": "not-bool"},
		{"SCHEMAPROMPT_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		if _, err := Load("schemaprompt", mapLookup(env)); err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func TestLoadAllowsEmptyHostForEmbeddedSources(t *testing.T) {
	cfg, err := Load("schemaprompt", mapLookup(map[string]string{
		"SCHEMAPROMPT_SOURCE":  "sqlite",
		"SCHEMAPROMPT_DB_HOST": "",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source.Kind != SourceSQLite {
		t.Fatalf("Source.Kind = %q", cfg.Source.Kind)
	}
}

func TestParseSourceKind(t *testing.T) {
	kind, err := ParseSourceKind("PostgreSQL")
	if err != nil || kind != SourcePostgres {
		t.Fatalf("ParseSourceKind() = %q, %v", kind, err)
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
