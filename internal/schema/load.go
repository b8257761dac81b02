package schema

import (
	"context"
	"fmt"
)

// Introspector reads structural metadata from one live database connection.
type Introspector interface {
	Dialect() string
	ListTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, table string) (TableDescription, error)
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)
}

// DDLer is implemented by introspectors that can return a table's CREATE statement.
type DDLer interface {
	TableDDL(ctx context.Context, table string) (string, error)
}

type ColumnDescription struct {
	Name     string
	DataType string
	Comment  *string
}

type TableDescription struct {
	Comment    *string
	Columns    []ColumnDescription
	PrimaryKey []string
}

// Load takes a single snapshot of every table visible to in. The foreign key
// index is complete before the first table is described, and any failure aborts
// the snapshot; there is no partial result.
func Load(ctx context.Context, in Introspector) (Snapshot, error) {
	names, err := in.ListTables(ctx)
	if err != nil {
		return Snapshot{}, introspectionErr("", "list tables", err)
	}

	resolver, err := NewForeignKeyResolver(ctx, in, names)
	if err != nil {
		return Snapshot{}, err
	}

	ordered := DependencyOrder(names, resolver)
	tables := make([]Table, 0, len(ordered))
	for _, name := range ordered {
		table, err := describe(ctx, in, resolver, name)
		if err != nil {
			return Snapshot{}, err
		}
		tables = append(tables, table)
	}

	return Snapshot{Dialect: in.Dialect(), Tables: tables}, nil
}

func describe(ctx context.Context, in Introspector, resolver *ForeignKeyResolver, name string) (Table, error) {
	desc, err := in.DescribeTable(ctx, name)
	if err != nil {
		return Table{}, introspectionErr(name, "describe table", err)
	}

	columns := make([]Column, 0, len(desc.Columns))
	for _, col := range desc.Columns {
		column := Column{
			Name:     col.Name,
			DataType: col.DataType,
			Comment:  col.Comment,
		}
		if ref, ok := resolver.Resolve(name, col.Name); ok {
			column.ForeignKeyRef = &ref
		}
		columns = append(columns, column)
	}

	primaryKey := make([]string, len(desc.PrimaryKey))
	copy(primaryKey, desc.PrimaryKey)

	table := Table{
		Name:       name,
		Comment:    desc.Comment,
		PrimaryKey: primaryKey,
		Columns:    columns,
	}
	if err := table.Validate(); err != nil {
		return Table{}, introspectionErr(name, "validate table", fmt.Errorf("inconsistent catalog data: %w", err))
	}
	return table, nil
}
