package prompt

import (
	"strings"
	"testing"

	"github.com/duckmesh/schemaprompt/internal/schema"
)

func TestFormatTableWithoutComments(t *testing.T) {
	table := schema.Table{
		Name:       "customers",
		PrimaryKey: []string{"id"},
		Columns: []schema.Column{
			{Name: "id", DataType: "INTEGER"},
			{Name: "name", DataType: "VARCHAR"},
		},
	}

	got := FormatTable(table)
	want := "table: customers, \nPrimary Key: id\nColumns: \n - id, INTEGER\n - name, VARCHAR\n"
	if got != want {
		t.Fatalf("FormatTable() = %q, want %q", got, want)
	}
}

func TestFormatTableCommentAndForeignKeyOrder(t *testing.T) {
	table := schema.Table{
		Name:       "orders",
		Comment:    schema.Text("customer orders"),
		PrimaryKey: []string{"o_w_id", "o_id"},
		Columns: []schema.Column{
			{Name: "o_w_id", DataType: "INTEGER", ForeignKeyRef: schema.Text("warehouse.w_id")},
			{Name: "o_c_id", DataType: "INTEGER", Comment: schema.Text("ordering customer"), ForeignKeyRef: schema.Text("customer.c_id")},
			{Name: "o_note", DataType: "TEXT", Comment: schema.Text("free text")},
		},
	}

	got := FormatTable(table)
	want := "table: orders, customer orders\n" +
		"Primary Key: o_w_id, o_id\n" +
		"Columns: \n" +
		" - o_w_id, INTEGER, warehouse.w_id\n" +
		" - o_c_id, INTEGER, ordering customer, customer.c_id\n" +
		" - o_note, TEXT, free text\n"
	if got != want {
		t.Fatalf("FormatTable() = %q, want %q", got, want)
	}
}

func TestFormatTableWithoutColumnsOrPrimaryKey(t *testing.T) {
	got := FormatTable(schema.Table{Name: "audit_log"})
	if got != "table: audit_log, \nPrimary Key: \n" {
		t.Fatalf("FormatTable() = %q", got)
	}
	if strings.Contains(got, "Columns:") {
		t.Fatal("Columns header must be omitted for tables without columns")
	}
}

func TestFormatTableTreatsEmptyCommentAsAbsent(t *testing.T) {
	empty := ""
	table := schema.Table{
		Name:    "t",
		Comment: &empty,
		Columns: []schema.Column{{Name: "c", DataType: "TEXT", Comment: &empty}},
	}
	got := FormatTable(table)
	if got != "table: t, \nPrimary Key: \nColumns: \n - c, TEXT\n" {
		t.Fatalf("FormatTable() = %q", got)
	}
}

func TestCompileWithoutTables(t *testing.T) {
	got := Compile(nil, "postgresql")
	want := "Given the following postgresql tables of records, write SQL query that suits the user's request.\n" +
		"Return only SQL text, avoiding any additional explanations or interpretations.\n" +
		"Remove any ```sql tags.\n" +
		"\n" +
		"Database schema:\n"
	if got != want {
		t.Fatalf("Compile() = %q, want %q", got, want)
	}
}

func TestCompileSeparatesBlocksWithOneBlankLine(t *testing.T) {
	got := Compile([]string{"table: a, \nPrimary Key: \n", "table: b, \nPrimary Key: \n"}, "sqlite")
	suffix := "Database schema:\ntable: a, \nPrimary Key: \n\ntable: b, \nPrimary Key: \n"
	if !strings.HasSuffix(got, suffix) {
		t.Fatalf("Compile() = %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Fatalf("Compile() has more than one blank line between blocks: %q", got)
	}
}

func TestCompileKeepsTrailingNewlineOfLastComment(t *testing.T) {
	snapshot := schema.Snapshot{
		Dialect: "sqlite",
		Tables: []schema.Table{{
			Name: "notes",
			Columns: []schema.Column{
				{Name: "body", DataType: "TEXT", Comment: schema.Text("free text\n")},
			},
		}},
	}

	got := Build(snapshot)
	suffix := "Database schema:\ntable: notes, \nPrimary Key: \nColumns: \n - body, TEXT, free text\n\n"
	if !strings.HasSuffix(got, suffix) {
		t.Fatalf("Build() = %q, want suffix %q", got, suffix)
	}
}

func TestBuildTwoTableScenario(t *testing.T) {
	snapshot := schema.Snapshot{
		Dialect: "postgresql",
		Tables: []schema.Table{
			{
				Name:       "customers",
				PrimaryKey: []string{"id"},
				Columns: []schema.Column{
					{Name: "id", DataType: "INTEGER"},
					{Name: "name", DataType: "VARCHAR"},
				},
			},
			{
				Name:       "orders",
				PrimaryKey: []string{"id"},
				Columns: []schema.Column{
					{Name: "id", DataType: "INTEGER"},
					{Name: "customer_id", DataType: "INTEGER", ForeignKeyRef: schema.Text("customers.id")},
					{Name: "amount", DataType: "NUMERIC"},
				},
			},
		},
	}

	got := Build(snapshot)
	if !strings.HasPrefix(got, "Given the following postgresql tables of records") {
		t.Fatalf("Build() prefix = %q", got)
	}
	if !strings.Contains(got, " - customer_id, INTEGER, customers.id\n") {
		t.Fatalf("Build() missing foreign key line: %q", got)
	}
	if strings.Index(got, "table: customers, ") > strings.Index(got, "table: orders, ") {
		t.Fatal("customers must precede orders")
	}
	if Build(snapshot) != got {
		t.Fatal("Build() is not deterministic")
	}
}
