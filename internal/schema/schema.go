package schema

import (
	"errors"
	"fmt"
)

var (
	ErrConnection    = errors.New("schema: connection failed")
	ErrIntrospection = errors.New("schema: introspection failed")
	ErrTableNotFound = errors.New("schema: table not found")
	ErrInvalidTable  = errors.New("schema: invalid table")
)

// IntrospectionError reports a failed catalog lookup. It matches ErrIntrospection
// under errors.Is as well as whatever it wraps.
type IntrospectionError struct {
	Table string
	Op    string
	Err   error
}

func (e *IntrospectionError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("introspect %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("introspect %s %q: %v", e.Op, e.Table, e.Err)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Err
}

func (e *IntrospectionError) Is(target error) bool {
	return target == ErrIntrospection
}

func introspectionErr(table, op string, err error) error {
	var existing *IntrospectionError
	if errors.As(err, &existing) {
		return err
	}
	return &IntrospectionError{Table: table, Op: op, Err: err}
}

type Column struct {
	Name          string  `json:"name"`
	DataType      string  `json:"data_type"`
	Comment       *string `json:"comment"`
	ForeignKeyRef *string `json:"foreign_key"`
}

type Table struct {
	Name       string   `json:"name"`
	Comment    *string  `json:"comment"`
	PrimaryKey []string `json:"primary_key"`
	Columns    []Column `json:"columns"`
}

func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: empty table name", ErrInvalidTable)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, column := range t.Columns {
		if column.Name == "" {
			return fmt.Errorf("%w: %s has a column without a name", ErrInvalidTable, t.Name)
		}
		if _, ok := seen[column.Name]; ok {
			return fmt.Errorf("%w: %s has duplicate column %q", ErrInvalidTable, t.Name, column.Name)
		}
		seen[column.Name] = struct{}{}
	}
	for _, pk := range t.PrimaryKey {
		if _, ok := seen[pk]; !ok {
			return fmt.Errorf("%w: %s primary key column %q is not a column", ErrInvalidTable, t.Name, pk)
		}
	}
	return nil
}

type Snapshot struct {
	Dialect string  `json:"dialect"`
	Tables  []Table `json:"tables"`
}

func (s Snapshot) ColumnCount() int {
	total := 0
	for _, table := range s.Tables {
		total += len(table.Columns)
	}
	return total
}

// Text returns a pointer to value, or nil when value is empty. Catalogs report a
// missing comment as NULL, and an empty comment carries no information either.
func Text(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func NullableText(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
