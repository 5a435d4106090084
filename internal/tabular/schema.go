package tabular

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FieldType is the target type of a decoded field.
type FieldType string

// Supported field types.
const (
	Integer   FieldType = "integer"
	Real      FieldType = "real"
	String    FieldType = "string"
	Boolean   FieldType = "boolean"
	Timestamp FieldType = "timestamp"
)

func (t FieldType) valid() bool {
	switch t {
	case Integer, Real, String, Boolean, Timestamp:
		return true
	}
	return false
}

// FieldSpec describes how one output field is read from a payload.
type FieldSpec struct {
	Name    string    `yaml:"name" json:"name"`
	Aliases []string  `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Type    FieldType `yaml:"type" json:"type"`
	// Default is used when the column is absent or the raw value is null,
	// empty or cannot be coerced. A nil Default means the type's zero value.
	Default any `yaml:"default,omitempty" json:"default,omitempty"`
	// ZeroAsAbsent stores nil instead of a numeric zero. Only meaningful
	// for Integer and Real fields.
	ZeroAsAbsent bool `yaml:"zero_as_absent,omitempty" json:"zero_as_absent,omitempty"`
}

// Schema is an ordered set of FieldSpecs describing one record shape.
type Schema struct {
	Name   string      `yaml:"name" json:"name"`
	Fields []FieldSpec `yaml:"fields" json:"fields"`
}

// NewSchema validates the fields and normalizes each Default to its
// field's type. It panics on an invalid schema; use it for package-level
// declarations. Schemas from external input go through Compile.
func NewSchema(name string, fields ...FieldSpec) Schema {
	s, err := Compile(Schema{Name: name, Fields: fields})
	if err != nil {
		panic(err)
	}
	return s
}

// Compile validates a schema and returns a copy with normalized defaults.
func Compile(s Schema) (Schema, error) {
	if strings.TrimSpace(s.Name) == "" {
		return Schema{}, fmt.Errorf("schema name is required")
	}
	if len(s.Fields) == 0 {
		return Schema{}, fmt.Errorf("schema %q has no fields", s.Name)
	}

	seen := make(map[string]bool, len(s.Fields))
	out := Schema{Name: s.Name, Fields: make([]FieldSpec, len(s.Fields))}
	for i, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return Schema{}, fmt.Errorf("schema %q: field %d has no name", s.Name, i)
		}
		if seen[f.Name] {
			return Schema{}, fmt.Errorf("schema %q: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = true
		if !f.Type.valid() {
			return Schema{}, fmt.Errorf("schema %q: field %q has unknown type %q", s.Name, f.Name, f.Type)
		}
		if f.ZeroAsAbsent && f.Type != Integer && f.Type != Real {
			return Schema{}, fmt.Errorf("schema %q: zero_as_absent requires a numeric field, %q is %s", s.Name, f.Name, f.Type)
		}

		def, err := normalizeDefault(f.Type, f.Default)
		if err != nil {
			return Schema{}, fmt.Errorf("schema %q: field %q: %w", s.Name, f.Name, err)
		}
		f.Default = def
		f.Aliases = append([]string(nil), f.Aliases...)
		out.Fields[i] = f
	}
	return out, nil
}

// FieldNames returns the schema's field names in declared order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func normalizeDefault(t FieldType, def any) (any, error) {
	if def == nil {
		return zeroValue(t), nil
	}
	var (
		v  any
		ok bool
	)
	switch t {
	case Integer:
		v, ok = toInt(def)
	case Real:
		v, ok = toFloat(def)
	case String:
		v, ok = toString(def)
	case Boolean:
		v, ok = def.(bool)
		if !ok {
			v, ok = toBoolStrict(def)
		}
	case Timestamp:
		v, ok = toTime(def)
	}
	if !ok {
		return nil, fmt.Errorf("default %v is not a valid %s", def, t)
	}
	return v, nil
}

func zeroValue(t FieldType) any {
	switch t {
	case Integer:
		return int64(0)
	case Real:
		return float64(0)
	case String:
		return ""
	case Boolean:
		return false
	case Timestamp:
		return time.Time{}
	}
	return nil
}

// LoadSchemaYAML reads one or more schemas from a YAML document. The
// document is either a single schema or a list of schemas.
func LoadSchemaYAML(data []byte) ([]Schema, error) {
	var list []Schema
	if err := yaml.Unmarshal(data, &list); err != nil {
		var single Schema
		if err2 := yaml.Unmarshal(data, &single); err2 != nil {
			return nil, fmt.Errorf("parse schema yaml: %w", err)
		}
		list = []Schema{single}
	}

	out := make([]Schema, 0, len(list))
	for _, s := range list {
		compiled, err := Compile(s)
		if err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return out, nil
}

// LoadSchemaFile reads schemas from a YAML file.
func LoadSchemaFile(path string) ([]Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return LoadSchemaYAML(data)
}
