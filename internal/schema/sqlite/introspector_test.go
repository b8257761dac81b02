package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/duckmesh/schemaprompt/internal/schema"
)

const tpccSubset = `
CREATE TABLE warehouse (
	w_id INTEGER PRIMARY KEY,
	w_name VARCHAR(10),
	w_ytd DECIMAL(12,2)
);
CREATE TABLE district (
	d_id INTEGER NOT NULL,
	d_w_id INTEGER NOT NULL REFERENCES warehouse (w_id),
	d_name VARCHAR(10),
	PRIMARY KEY (d_w_id, d_id)
);
CREATE TABLE customer (
	c_id INTEGER NOT NULL,
	c_d_id INTEGER NOT NULL,
	c_w_id INTEGER NOT NULL,
	c_since DATETIME,
	c_data,
	PRIMARY KEY (c_w_id, c_d_id, c_id),
	FOREIGN KEY (c_w_id, c_d_id) REFERENCES district (d_w_id, d_id)
);
CREATE TABLE history (
	h_c_id INTEGER REFERENCES customer,
	h_amount DECIMAL(6,2)
);`

func TestListTablesSkipsInternalTables(t *testing.T) {
	db := openMemory(t, tpccSubset+`
CREATE TABLE seq (id INTEGER PRIMARY KEY AUTOINCREMENT);
INSERT INTO seq DEFAULT VALUES;`)

	tables, err := NewIntrospector(db).ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	want := []string{"customer", "district", "history", "seq", "warehouse"}
	if !reflect.DeepEqual(tables, want) {
		t.Fatalf("ListTables() = %v, want %v", tables, want)
	}
}

func TestDescribeTableReadsColumnsAndPrimaryKeyOrder(t *testing.T) {
	db := openMemory(t, tpccSubset)

	desc, err := NewIntrospector(db).DescribeTable(context.Background(), "customer")
	if err != nil {
		t.Fatalf("DescribeTable() error = %v", err)
	}
	if desc.Comment != nil {
		t.Fatalf("Comment = %q, want absent", *desc.Comment)
	}
	if !reflect.DeepEqual(desc.PrimaryKey, []string{"c_w_id", "c_d_id", "c_id"}) {
		t.Fatalf("PrimaryKey = %v", desc.PrimaryKey)
	}
	types := make([]string, 0, len(desc.Columns))
	for _, column := range desc.Columns {
		types = append(types, column.DataType)
	}
	if !reflect.DeepEqual(types, []string{"INTEGER", "INTEGER", "INTEGER", "TIMESTAMP", "NULL"}) {
		t.Fatalf("column types = %v", types)
	}
}

func TestDescribeTableMissingReturnsNotFound(t *testing.T) {
	db := openMemory(t, tpccSubset)

	_, err := NewIntrospector(db).DescribeTable(context.Background(), "new_order")
	if !errors.Is(err, schema.ErrTableNotFound) {
		t.Fatalf("DescribeTable() error = %v, want ErrTableNotFound", err)
	}
}

func TestForeignKeysResolveImplicitParentKey(t *testing.T) {
	db := openMemory(t, tpccSubset)
	in := NewIntrospector(db)

	keys, err := in.ForeignKeys(context.Background(), "history")
	if err != nil {
		t.Fatalf("ForeignKeys() error = %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("keys = %+v", keys)
	}
	if keys[0].ReferredTable != "customer" || !reflect.DeepEqual(keys[0].ReferredColumns, []string{"c_w_id", "c_d_id", "c_id"}) {
		t.Fatalf("key = %+v", keys[0])
	}

	keys, err = in.ForeignKeys(context.Background(), "customer")
	if err != nil {
		t.Fatalf("ForeignKeys() error = %v", err)
	}
	want := []schema.ForeignKey{{
		Name:            "fk_0000",
		Columns:         []string{"c_w_id", "c_d_id"},
		ReferredTable:   "district",
		ReferredColumns: []string{"d_w_id", "d_id"},
	}}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("ForeignKeys() = %+v", keys)
	}
}

func TestLoadOrdersByDependency(t *testing.T) {
	db := openMemory(t, tpccSubset)

	snapshot, err := schema.Load(context.Background(), NewIntrospector(db))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var names []string
	for _, table := range snapshot.Tables {
		names = append(names, table.Name)
	}
	want := []string{"warehouse", "district", "customer", "history"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("table order = %v, want %v", names, want)
	}

	customer := snapshot.Tables[2]
	for _, column := range customer.Columns {
		switch column.Name {
		case "c_w_id", "c_d_id":
			if column.ForeignKeyRef == nil || *column.ForeignKeyRef != "district.d_w_id" {
				t.Fatalf("%s fk = %v", column.Name, column.ForeignKeyRef)
			}
		default:
			if column.ForeignKeyRef != nil {
				t.Fatalf("%s fk = %q, want absent", column.Name, *column.ForeignKeyRef)
			}
		}
	}
}

func TestTableDDLReturnsCreateStatement(t *testing.T) {
	db := openMemory(t, tpccSubset)

	ddl, err := NewIntrospector(db).TableDDL(context.Background(), "warehouse")
	if err != nil {
		t.Fatalf("TableDDL() error = %v", err)
	}
	if !strings.HasPrefix(ddl, "CREATE TABLE warehouse") {
		t.Fatalf("TableDDL() = %q", ddl)
	}
}

func openMemory(t *testing.T, script string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.ExecContext(context.Background(), script); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}
