package compiler

import (
	"context"
	"fmt"
	"io"

	"github.com/duckmesh/schemaprompt/internal/bootstrap"
	"github.com/duckmesh/schemaprompt/internal/config"
	"github.com/duckmesh/schemaprompt/internal/schema"
	"github.com/duckmesh/schemaprompt/internal/schema/duckdb"
	"github.com/duckmesh/schemaprompt/internal/schema/postgres"
	"github.com/duckmesh/schemaprompt/internal/schema/sqlite"
)

// Connector opens one connection to the configured source. The closer releases
// it and must be called once introspection is finished.
type Connector func(ctx context.Context) (schema.Introspector, io.Closer, error)

func NewConnector(cfg config.Config) (Connector, error) {
	switch cfg.Source.Kind {
	case config.SourcePostgres:
		opts := postgres.ConnectionOptions{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Name,
			Username:        cfg.Database.User,
			Password:        cfg.Database.Password,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}
		schemaName := cfg.Database.Schema
		return func(ctx context.Context) (schema.Introspector, io.Closer, error) {
			db, err := postgres.Open(ctx, opts)
			if err != nil {
				return nil, nil, err
			}
			return postgres.NewIntrospector(db, schemaName), db, nil
		}, nil
	case config.SourceSQLite, config.SourceDuckDB:
		engine, err := bootstrap.ParseEngine(string(cfg.Source.Kind))
		if err != nil {
			return nil, err
		}
		script, err := bootstrap.LoadScript(cfg.Source.BootstrapDDL)
		if err != nil {
			return nil, err
		}
		schemaName := cfg.Database.Schema
		return func(ctx context.Context) (schema.Introspector, io.Closer, error) {
			db, err := bootstrap.Open(ctx, engine, script)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: bootstrap %s: %v", schema.ErrConnection, engine, err)
			}
			if engine == bootstrap.EngineSQLite {
				return sqlite.NewIntrospector(db), db, nil
			}
			return duckdb.NewIntrospector(db, schemaName), db, nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported source %q", cfg.Source.Kind)
	}
}
