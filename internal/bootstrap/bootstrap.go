package bootstrap

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

//go:embed sql/sample.sql
var sampleScript string

type Engine string

const (
	EngineSQLite Engine = "sqlite"
	EngineDuckDB Engine = "duckdb"
)

func ParseEngine(value string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(value))) {
	case EngineSQLite:
		return EngineSQLite, nil
	case EngineDuckDB:
		return EngineDuckDB, nil
	default:
		return "", fmt.Errorf("unsupported bootstrap engine %q", value)
	}
}

func SampleScript() string {
	return sampleScript
}

// LoadScript reads a DDL script from path, or returns the embedded sample when
// path is empty.
func LoadScript(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return sampleScript, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read ddl script %q: %w", path, err)
	}
	return string(content), nil
}

// Split breaks script into statements with the Postgres lexer, so semicolons
// inside literals, quoted identifiers, comments and dollar-quoted bodies do not
// end a statement.
func Split(script string) ([]string, error) {
	parts, err := pg_query.SplitWithScanner(script, true)
	if err != nil {
		return nil, fmt.Errorf("split ddl script: %w", err)
	}
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		statements = append(statements, part)
	}
	return statements, nil
}

// Open creates a fresh in-memory database and applies script to it in a single
// transaction. The caller owns the returned handle.
func Open(ctx context.Context, engine Engine, script string) (*sql.DB, error) {
	statements, err := Split(script)
	if err != nil {
		return nil, err
	}

	db, err := openMemory(engine)
	if err != nil {
		return nil, err
	}
	if err := apply(ctx, db, statements); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func openMemory(engine Engine) (*sql.DB, error) {
	switch engine {
	case EngineSQLite:
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// every new sqlite connection would see its own empty :memory: database
		db.SetMaxOpenConns(1)
		return db, nil
	case EngineDuckDB:
		db, err := sql.Open("duckdb", "")
		if err != nil {
			return nil, fmt.Errorf("open duckdb: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported bootstrap engine %q", engine)
	}
}

func apply(ctx context.Context, db *sql.DB, statements []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for index, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply statement %d (%s): %w", index+1, summarize(statement), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ddl script: %w", err)
	}
	return nil
}

func summarize(statement string) string {
	for _, line := range strings.Split(statement, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		if len(line) > 60 {
			return line[:60] + "..."
		}
		return line
	}
	return ""
}
