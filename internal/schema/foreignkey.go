package schema

import (
	"context"
	"sort"
)

// ForeignKey is one declared constraint. Columns and ReferredColumns are
// positionally paired for composite keys.
type ForeignKey struct {
	Name            string
	Columns         []string
	ReferredTable   string
	ReferredColumns []string
}

// ForeignKeyResolver answers column-level foreign key lookups from an index that
// is built in full before the first lookup and never modified afterwards.
type ForeignKeyResolver struct {
	byTable map[string][]ForeignKey
}

func NewForeignKeyResolver(ctx context.Context, in Introspector, tables []string) (*ForeignKeyResolver, error) {
	byTable := make(map[string][]ForeignKey, len(tables))
	for _, table := range tables {
		keys, err := in.ForeignKeys(ctx, table)
		if err != nil {
			return nil, introspectionErr(table, "foreign keys", err)
		}
		byTable[table] = sortForeignKeys(keys)
	}
	return &ForeignKeyResolver{byTable: byTable}, nil
}

func NewForeignKeyResolverFromKeys(byTable map[string][]ForeignKey) *ForeignKeyResolver {
	index := make(map[string][]ForeignKey, len(byTable))
	for table, keys := range byTable {
		index[table] = sortForeignKeys(keys)
	}
	return &ForeignKeyResolver{byTable: index}
}

// Resolve returns "<referred table>.<referred column>" for the first constraint on
// table whose local columns include column. For a composite constraint the first
// referred column is always used; the text format has no room for the rest.
func (r *ForeignKeyResolver) Resolve(table, column string) (string, bool) {
	for _, fk := range r.byTable[table] {
		if len(fk.ReferredColumns) == 0 {
			continue
		}
		for _, local := range fk.Columns {
			if local == column {
				return fk.ReferredTable + "." + fk.ReferredColumns[0], true
			}
		}
	}
	return "", false
}

// Dependencies lists the distinct tables referenced by table, self references excluded.
func (r *ForeignKeyResolver) Dependencies(table string) []string {
	seen := map[string]struct{}{}
	var deps []string
	for _, fk := range r.byTable[table] {
		if fk.ReferredTable == "" || fk.ReferredTable == table {
			continue
		}
		if _, ok := seen[fk.ReferredTable]; ok {
			continue
		}
		seen[fk.ReferredTable] = struct{}{}
		deps = append(deps, fk.ReferredTable)
	}
	sort.Strings(deps)
	return deps
}

func sortForeignKeys(keys []ForeignKey) []ForeignKey {
	sorted := make([]ForeignKey, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}
