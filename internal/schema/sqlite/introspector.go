package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/duckmesh/schemaprompt/internal/schema"
)

const Dialect = "sqlite"

// Introspector reads the sqlite_master catalog and the table pragmas. SQLite has
// no comment support, so every comment is absent.
type Introspector struct {
	db *sql.DB
}

func NewIntrospector(db *sql.DB) *Introspector {
	return &Introspector{db: db}
}

func (i *Introspector) Dialect() string {
	return Dialect
}

func (i *Introspector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT name
FROM sqlite_master
WHERE type = 'table'
  AND name NOT LIKE 'sqlite_%'
ORDER BY name`)
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
	if _, err := i.TableDDL(ctx, table); err != nil {
		return schema.TableDescription{}, err
	}

	rows, err := i.db.QueryContext(ctx, `
SELECT name, type, pk
FROM pragma_table_info(?)
ORDER BY cid`, table)
	if err != nil {
		return schema.TableDescription{}, fmt.Errorf("query table info: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]schema.ColumnDescription, 0)
	keyed := map[int]string{}
	for rows.Next() {
		var (
			name     string
			declared string
			pk       int
		)
		if err := rows.Scan(&name, &declared, &pk); err != nil {
			return schema.TableDescription{}, fmt.Errorf("scan table info: %w", err)
		}
		columns = append(columns, schema.ColumnDescription{
			Name:     name,
			DataType: schema.CanonicalType(declared),
		})
		if pk > 0 {
			keyed[pk] = name
		}
	}
	if err := rows.Err(); err != nil {
		return schema.TableDescription{}, fmt.Errorf("iterate table info: %w", err)
	}

	// pk holds the 1-based position of the column within the primary key
	primaryKey := make([]string, 0, len(keyed))
	for position := 1; position <= len(keyed); position++ {
		if name, ok := keyed[position]; ok {
			primaryKey = append(primaryKey, name)
		}
	}

	return schema.TableDescription{Columns: columns, PrimaryKey: primaryKey}, nil
}

func (i *Introspector) ForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT id, "table", "from", "to"
FROM pragma_foreign_key_list(?)
ORDER BY id, seq`, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign key list: %w", err)
	}

	keys := make([]schema.ForeignKey, 0)
	lastID := -1
	implicit := map[int]bool{}
	for rows.Next() {
		var (
			id       int
			referred string
			from     string
			to       sql.NullString
		)
		if err := rows.Scan(&id, &referred, &from, &to); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan foreign key list: %w", err)
		}
		if id != lastID {
			keys = append(keys, schema.ForeignKey{
				Name:          fmt.Sprintf("fk_%04d", id),
				ReferredTable: referred,
			})
			lastID = id
		}
		current := &keys[len(keys)-1]
		current.Columns = append(current.Columns, from)
		if to.Valid && to.String != "" {
			current.ReferredColumns = append(current.ReferredColumns, to.String)
		} else {
			implicit[len(keys)-1] = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate foreign key list: %w", err)
	}
	_ = rows.Close()

	// REFERENCES parent without a column list points at the parent's primary key
	for index := range implicit {
		primaryKey, err := i.primaryKey(ctx, keys[index].ReferredTable)
		if err != nil {
			return nil, err
		}
		keys[index].ReferredColumns = primaryKey
	}
	return keys, nil
}

// TableDDL returns the CREATE TABLE statement stored in sqlite_master.
func (i *Introspector) TableDDL(ctx context.Context, table string) (string, error) {
	var ddl sql.NullString
	if err := i.db.QueryRowContext(ctx, `
SELECT sql
FROM sqlite_master
WHERE type = 'table'
  AND name = ?`, table).Scan(&ddl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", schema.ErrTableNotFound
		}
		return "", fmt.Errorf("query table ddl: %w", err)
	}
	return ddl.String, nil
}

func (i *Introspector) primaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT name
FROM pragma_table_info(?)
WHERE pk > 0
ORDER BY pk`, table)
	if err != nil {
		return nil, fmt.Errorf("query primary key: %w", err)
	}
	defer func() { _ = rows.Close() }()

	primaryKey := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan primary key: %w", err)
		}
		primaryKey = append(primaryKey, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate primary key: %w", err)
	}
	return primaryKey, nil
}
