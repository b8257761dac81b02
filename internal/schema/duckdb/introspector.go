package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/duckmesh/schemaprompt/internal/schema"
)

const Dialect = "duckdb"

type Introspector struct {
	db     *sql.DB
	schema string
}

func NewIntrospector(db *sql.DB, schemaName string) *Introspector {
	if schemaName == "" {
		schemaName = "main"
	}
	return &Introspector{db: db, schema: schemaName}
}

func (i *Introspector) Dialect() string {
	return Dialect
}

func (i *Introspector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT table_name
FROM duckdb_tables()
WHERE database_name = current_database()
  AND schema_name = ?
  AND NOT temporary
ORDER BY table_name`, i.schema)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	return collectStrings(rows, "tables")
}

func (i *Introspector) DescribeTable(ctx context.Context, table string) (schema.TableDescription, error) {
	var comment sql.NullString
	if err := i.db.QueryRowContext(ctx, `
SELECT comment
FROM duckdb_tables()
WHERE database_name = current_database()
  AND schema_name = ?
  AND table_name = ?`, i.schema, table).Scan(&comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.TableDescription{}, schema.ErrTableNotFound
		}
		return schema.TableDescription{}, fmt.Errorf("query table comment: %w", err)
	}

	rows, err := i.db.QueryContext(ctx, `
SELECT column_name, data_type, comment
FROM duckdb_columns()
WHERE database_name = current_database()
  AND schema_name = ?
  AND table_name = ?
ORDER BY column_index`, i.schema, table)
	if err != nil {
		return schema.TableDescription{}, fmt.Errorf("query columns: %w", err)
	}
	columns := make([]schema.ColumnDescription, 0)
	for rows.Next() {
		var (
			name          string
			dataType      string
			columnComment sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &columnComment); err != nil {
			_ = rows.Close()
			return schema.TableDescription{}, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, schema.ColumnDescription{
			Name:     name,
			DataType: schema.CanonicalType(dataType),
			Comment:  nullText(columnComment),
		})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return schema.TableDescription{}, fmt.Errorf("iterate columns: %w", err)
	}
	_ = rows.Close()

	pkRows, err := i.db.QueryContext(ctx, `
SELECT unnest(constraint_column_names)
FROM duckdb_constraints()
WHERE database_name = current_database()
  AND schema_name = ?
  AND table_name = ?
  AND constraint_type = 'PRIMARY KEY'`, i.schema, table)
	if err != nil {
		return schema.TableDescription{}, fmt.Errorf("query primary key: %w", err)
	}
	primaryKey, err := collectStrings(pkRows, "primary key")
	if err != nil {
		return schema.TableDescription{}, err
	}

	return schema.TableDescription{
		Comment:    nullText(comment),
		Columns:    columns,
		PrimaryKey: primaryKey,
	}, nil
}

func (i *Introspector) ForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT constraint_name, referenced_table, column_name, referenced_column
FROM (
	SELECT
		constraint_name,
		referenced_table,
		unnest(constraint_column_names) AS column_name,
		unnest(referenced_column_names) AS referenced_column,
		unnest(range(1, len(constraint_column_names) + 1)) AS position
	FROM duckdb_constraints()
	WHERE database_name = current_database()
	  AND schema_name = ?
	  AND table_name = ?
	  AND constraint_type = 'FOREIGN KEY'
)
ORDER BY constraint_name, position`, i.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make([]schema.ForeignKey, 0)
	for rows.Next() {
		var name, referredTable, column, referredColumn string
		if err := rows.Scan(&name, &referredTable, &column, &referredColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		if n := len(keys); n > 0 && keys[n-1].Name == name {
			keys[n-1].Columns = append(keys[n-1].Columns, column)
			keys[n-1].ReferredColumns = append(keys[n-1].ReferredColumns, referredColumn)
			continue
		}
		keys = append(keys, schema.ForeignKey{
			Name:            name,
			Columns:         []string{column},
			ReferredTable:   referredTable,
			ReferredColumns: []string{referredColumn},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}
	return keys, nil
}

// TableDDL returns the CREATE TABLE statement DuckDB keeps for table.
func (i *Introspector) TableDDL(ctx context.Context, table string) (string, error) {
	var ddl sql.NullString
	if err := i.db.QueryRowContext(ctx, `
SELECT sql
FROM duckdb_tables()
WHERE database_name = current_database()
  AND schema_name = ?
  AND table_name = ?`, i.schema, table).Scan(&ddl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", schema.ErrTableNotFound
		}
		return "", fmt.Errorf("query table ddl: %w", err)
	}
	return ddl.String, nil
}

func collectStrings(rows *sql.Rows, what string) ([]string, error) {
	defer func() { _ = rows.Close() }()

	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return values, nil
}

func nullText(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return schema.Text(value.String)
}
