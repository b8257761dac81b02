package prompt

import (
	"fmt"
	"strings"

	"github.com/duckmesh/schemaprompt/internal/schema"
)

const preambleTemplate = "Given the following %s tables of records, write SQL query that suits the user's request.\n" +
	"Return only SQL text, avoiding any additional explanations or interpretations.\n" +
	"Remove any ```sql tags.\n" +
	"\n" +
	"Database schema:\n"

// FormatTable renders one table block. Every line ends with a newline and the
// Columns header is only written when the table has columns.
func FormatTable(table schema.Table) string {
	var b strings.Builder
	b.WriteString("table: ")
	b.WriteString(table.Name)
	b.WriteString(", ")
	b.WriteString(schema.NullableText(table.Comment))
	b.WriteString("\n")

	b.WriteString("Primary Key: ")
	b.WriteString(strings.Join(table.PrimaryKey, ", "))
	b.WriteString("\n")

	if len(table.Columns) > 0 {
		b.WriteString("Columns: \n")
	}
	for _, column := range table.Columns {
		b.WriteString(" - ")
		b.WriteString(column.Name)
		b.WriteString(", ")
		b.WriteString(column.DataType)
		if comment := schema.NullableText(column.Comment); comment != "" {
			b.WriteString(", ")
			b.WriteString(comment)
		}
		if ref := schema.NullableText(column.ForeignKeyRef); ref != "" {
			b.WriteString(", ")
			b.WriteString(ref)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func FormatTables(tables []schema.Table) []string {
	blocks := make([]string, 0, len(tables))
	for _, table := range tables {
		blocks = append(blocks, FormatTable(table))
	}
	return blocks
}

// Compile prepends the fixed instruction preamble to the table blocks, which are
// separated by exactly one blank line.
func Compile(blocks []string, dialect string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(preambleTemplate, dialect))
	for index, block := range blocks {
		if index > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSuffix(block, "\n"))
	}
	if len(blocks) > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func Build(snapshot schema.Snapshot) string {
	return Compile(FormatTables(snapshot.Tables), snapshot.Dialect)
}
