package tabular

import "strings"

// ColumnIndex maps an upper-cased column name to its zero-based position.
type ColumnIndex map[string]int

// BuildIndex builds a case-insensitive lookup over a payload's column names.
// When a name appears more than once the last occurrence wins.
func BuildIndex(columns []string) ColumnIndex {
	idx := make(ColumnIndex, len(columns))
	for i, name := range columns {
		idx[normalizeName(name)] = i
	}
	return idx
}

// Resolve returns the column position for a field, trying the field's name
// first and then each alias in declared order.
func (idx ColumnIndex) Resolve(f FieldSpec) (int, bool) {
	if pos, ok := idx[normalizeName(f.Name)]; ok {
		return pos, true
	}
	for _, alias := range f.Aliases {
		if pos, ok := idx[normalizeName(alias)]; ok {
			return pos, true
		}
	}
	return 0, false
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
