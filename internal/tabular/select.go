package tabular

import (
	"cmp"
	"sort"
	"time"
)

// Direction orders records in SelectTop.
type Direction int

// Sort directions.
const (
	Descending Direction = iota
	Ascending
)

// SelectionPolicy narrows a record sequence to the top Limit records by
// OrderBy.
type SelectionPolicy struct {
	OrderBy   string
	Direction Direction
	Limit     int
}

// Latest is the policy for the single most recent record by field.
func Latest(field string) SelectionPolicy {
	return SelectionPolicy{OrderBy: field, Direction: Descending, Limit: 1}
}

// SelectTop stable-sorts a copy of records by the policy's field and
// returns at most Limit of them. Ties keep input order. Records without a
// value for the field (nil, or a zero time from an unparseable timestamp)
// sort after all records that have one, in either direction. The input
// slice is not modified.
func SelectTop(records []Record, policy SelectionPolicy) []Record {
	if len(records) == 0 || policy.Limit <= 0 {
		return []Record{}
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aok := orderValue(sorted[i], policy.OrderBy)
		b, bok := orderValue(sorted[j], policy.OrderBy)
		switch {
		case !aok || !bok:
			return aok && !bok
		case policy.Direction == Ascending:
			return compareValues(a, b) < 0
		default:
			return compareValues(a, b) > 0
		}
	})

	if policy.Limit < len(sorted) {
		sorted = sorted[:policy.Limit]
	}
	return sorted
}

func orderValue(r Record, field string) (any, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	if t, isTime := v.(time.Time); isTime && t.IsZero() {
		return nil, false
	}
	return v, true
}

// compareValues orders two decoded values of the same field. Values of
// different types compare by their string form.
func compareValues(a, b any) int {
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case int64:
		switch y := b.(type) {
		case int64:
			return cmp.Compare(x, y)
		case float64:
			return cmp.Compare(float64(x), y)
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return cmp.Compare(x, y)
		case int64:
			return cmp.Compare(x, float64(y))
		}
	case bool:
		if y, ok := b.(bool); ok {
			return cmp.Compare(boolRank(x), boolRank(y))
		}
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	}
	as, _ := toString(a)
	bs, _ := toString(b)
	return cmp.Compare(as, bs)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
