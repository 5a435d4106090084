package tabular

import (
	"errors"
	"time"
)

// ErrPayloadMissing is returned by DecodeAll when there is no payload at all.
var ErrPayloadMissing = errors.New("payload missing")

// Record is one decoded row keyed by field name. Values are int64,
// float64, string, bool, time.Time, or nil for a zero-as-absent field.
type Record map[string]any

// DecodeRow decodes one row. Missing columns, short rows, nulls and
// values that fail coercion all fall back to the field's default.
func DecodeRow(idx ColumnIndex, row []any, schema Schema) Record {
	rec := make(Record, len(schema.Fields))
	for _, f := range schema.Fields {
		rec[f.Name] = decodeField(idx, row, f)
	}
	return rec
}

func decodeField(idx ColumnIndex, row []any, f FieldSpec) any {
	v := f.Default
	if pos, ok := idx.Resolve(f); ok && pos < len(row) {
		if c, ok := coerce(f.Type, row[pos]); ok {
			v = c
		}
	}
	if v == nil {
		v = zeroValue(f.Type)
	}
	if f.ZeroAsAbsent && isZeroNumber(v) {
		return nil
	}
	return v
}

// coerce converts a raw cell to the field type. It reports false when the
// cell should be treated as missing.
func coerce(t FieldType, raw any) (any, bool) {
	if raw == nil {
		return nil, false
	}
	if t != String && isBlank(raw) {
		return nil, false
	}
	switch t {
	case Integer:
		return toInt(raw)
	case Real:
		return toFloat(raw)
	case String:
		return toString(raw)
	case Boolean:
		return toBool(raw), true
	case Timestamp:
		return toTime(raw)
	}
	return nil, false
}

func isBlank(raw any) bool {
	switch s := raw.(type) {
	case string:
		return s == ""
	case []byte:
		return len(s) == 0
	}
	return false
}

func isZeroNumber(v any) bool {
	switch n := v.(type) {
	case int64:
		return n == 0
	case float64:
		return n == 0
	}
	return false
}

// DecodeAll decodes every row of the payload in order. It fails only when
// payload is nil; a payload without rows decodes to an empty slice.
func DecodeAll(payload *Payload, schema Schema) ([]Record, error) {
	if payload == nil {
		return nil, ErrPayloadMissing
	}
	idx := BuildIndex(payload.Columns)
	out := make([]Record, len(payload.Rows))
	for i, row := range payload.Rows {
		out[i] = DecodeRow(idx, row, schema)
	}
	return out, nil
}

// Int returns the field as int64, or 0 when absent or of another type.
func (r Record) Int(name string) int64 {
	v, _ := r[name].(int64)
	return v
}

// Float returns the field as float64, or 0 when absent or of another type.
func (r Record) Float(name string) float64 {
	v, _ := r[name].(float64)
	return v
}

// Text returns the field as a string.
func (r Record) Text(name string) string {
	v, _ := r[name].(string)
	return v
}

// Bool returns the field as a bool.
func (r Record) Bool(name string) bool {
	v, _ := r[name].(bool)
	return v
}

// Time returns the field as a time.Time.
func (r Record) Time(name string) time.Time {
	v, _ := r[name].(time.Time)
	return v
}

// Present reports whether the field holds a value. Zero-as-absent fields
// that decoded to zero are not present.
func (r Record) Present(name string) bool {
	v, ok := r[name]
	return ok && v != nil
}

// FloatPtr returns the numeric field as *float64, nil when not present.
func (r Record) FloatPtr(name string) *float64 {
	switch v := r[name].(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}
