package schema

import "sort"

// DependencyOrder sorts tables so that every referenced table comes before the
// tables referencing it. Ties are broken by name. Tables caught in a reference
// cycle are appended by name once nothing else can be placed. Duplicate names
// are placed once.
func DependencyOrder(tables []string, resolver *ForeignKeyResolver) []string {
	known := make(map[string]struct{}, len(tables))
	names := make([]string, 0, len(tables))
	for _, name := range tables {
		if _, ok := known[name]; ok {
			continue
		}
		known[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	pending := make(map[string]int, len(names))
	dependents := make(map[string][]string, len(names))
	for _, name := range names {
		for _, dep := range resolver.Dependencies(name) {
			if _, ok := known[dep]; !ok {
				continue
			}
			pending[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	placed := make(map[string]struct{}, len(names))
	ordered := make([]string, 0, len(names))
	for len(ordered) < len(names) {
		progressed := false
		for _, name := range names {
			if _, ok := placed[name]; ok || pending[name] > 0 {
				continue
			}
			placed[name] = struct{}{}
			ordered = append(ordered, name)
			for _, dependent := range dependents[name] {
				pending[dependent]--
			}
			progressed = true
			break
		}
		if progressed {
			continue
		}
		released := false
		for _, name := range names {
			if _, ok := placed[name]; ok {
				continue
			}
			// cycle: release the first remaining table by name
			pending[name] = 0
			released = true
			break
		}
		if !released {
			break
		}
	}
	return ordered
}
