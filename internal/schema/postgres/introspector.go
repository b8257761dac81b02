package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/duckmesh/schemaprompt/internal/schema"
)

const Dialect = "postgresql"

type Introspector struct {
	db     *sql.DB
	schema string
}

func NewIntrospector(db *sql.DB, schemaName string) *Introspector {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Introspector{db: db, schema: schemaName}
}

func (i *Introspector) Dialect() string {
	return Dialect
}

func (i *Introspector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1
  AND table_type = 'BASE TABLE'
ORDER BY table_name`, i.schema)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

func (i *Introspector) DescribeTable(ctx context.Context, table string) (schema.TableDescription, error) {
	var comment sql.NullString
	if err := i.db.QueryRowContext(ctx, `
SELECT obj_description(c.oid, 'pg_class')
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relname = $2
  AND c.relkind IN ('r', 'p')`, i.schema, table).Scan(&comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.TableDescription{}, schema.ErrTableNotFound
		}
		return schema.TableDescription{}, fmt.Errorf("query table comment: %w", err)
	}

	columns, err := i.columns(ctx, table)
	if err != nil {
		return schema.TableDescription{}, err
	}

	primaryKey, err := i.primaryKey(ctx, table)
	if err != nil {
		return schema.TableDescription{}, err
	}

	return schema.TableDescription{
		Comment:    nullText(comment),
		Columns:    columns,
		PrimaryKey: primaryKey,
	}, nil
}

func (i *Introspector) columns(ctx context.Context, table string) ([]schema.ColumnDescription, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT c.column_name, c.data_type, c.udt_name, pgd.description
FROM information_schema.columns c
LEFT JOIN pg_catalog.pg_statio_all_tables st
  ON st.schemaname = c.table_schema AND st.relname = c.table_name
LEFT JOIN pg_catalog.pg_description pgd
  ON pgd.objoid = st.relid AND pgd.objsubid = c.ordinal_position
WHERE c.table_schema = $1
  AND c.table_name = $2
ORDER BY c.ordinal_position`, i.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]schema.ColumnDescription, 0)
	for rows.Next() {
		var (
			name     string
			dataType string
			udtName  string
			comment  sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &udtName, &comment); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, schema.ColumnDescription{
			Name:     name,
			DataType: columnType(dataType, udtName),
			Comment:  nullText(comment),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

func (i *Introspector) primaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_schema = tc.constraint_schema
 AND kcu.constraint_name = tc.constraint_name
 AND kcu.table_name = tc.table_name
WHERE tc.table_schema = $1
  AND tc.table_name = $2
  AND tc.constraint_type = 'PRIMARY KEY'
ORDER BY kcu.ordinal_position`, i.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query primary key: %w", err)
	}
	defer func() { _ = rows.Close() }()

	primaryKey := make([]string, 0)
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("scan primary key: %w", err)
		}
		primaryKey = append(primaryKey, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate primary key: %w", err)
	}
	return primaryKey, nil
}

func (i *Introspector) ForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT con.conname, src.attname, ref_cls.relname, ref.attname
FROM pg_catalog.pg_constraint con
JOIN pg_catalog.pg_class cls ON cls.oid = con.conrelid
JOIN pg_catalog.pg_namespace nsp ON nsp.oid = cls.relnamespace
JOIN pg_catalog.pg_class ref_cls ON ref_cls.oid = con.confrelid
CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(src_attnum, ref_attnum, position)
JOIN pg_catalog.pg_attribute src ON src.attrelid = con.conrelid AND src.attnum = k.src_attnum
JOIN pg_catalog.pg_attribute ref ON ref.attrelid = con.confrelid AND ref.attnum = k.ref_attnum
WHERE con.contype = 'f'
  AND nsp.nspname = $1
  AND cls.relname = $2
ORDER BY con.conname, k.position`, i.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make([]schema.ForeignKey, 0)
	for rows.Next() {
		var name, column, referredTable, referredColumn string
		if err := rows.Scan(&name, &column, &referredTable, &referredColumn); err != nil {
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

func columnType(dataType, udtName string) string {
	switch dataType {
	case "USER-DEFINED":
		return schema.CanonicalType(udtName)
	case "ARRAY":
		return schema.CanonicalType(strings.TrimPrefix(udtName, "_") + "[]")
	default:
		return schema.CanonicalType(dataType)
	}
}

func nullText(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return schema.Text(value.String)
}
