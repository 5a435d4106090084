package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		schema  Schema
		wantErr string
	}{
		{"missing name", Schema{Fields: []FieldSpec{{Name: "a", Type: String}}}, "schema name is required"},
		{"no fields", Schema{Name: "s"}, "has no fields"},
		{"unnamed field", Schema{Name: "s", Fields: []FieldSpec{{Type: String}}}, "has no name"},
		{"duplicate field", Schema{Name: "s", Fields: []FieldSpec{{Name: "a", Type: String}, {Name: "a", Type: Integer}}}, "duplicate field"},
		{"unknown type", Schema{Name: "s", Fields: []FieldSpec{{Name: "a", Type: "decimal"}}}, "unknown type"},
		{"zero_as_absent on string", Schema{Name: "s", Fields: []FieldSpec{{Name: "a", Type: String, ZeroAsAbsent: true}}}, "requires a numeric field"},
		{"bad integer default", Schema{Name: "s", Fields: []FieldSpec{{Name: "a", Type: Integer, Default: "many"}}}, "not a valid integer"},
		{"bad boolean default", Schema{Name: "s", Fields: []FieldSpec{{Name: "a", Type: Boolean, Default: "ja"}}}, "not a valid boolean"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.schema)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCompile_NormalizesDefaults(t *testing.T) {
	t.Parallel()

	s, err := Compile(Schema{Name: "s", Fields: []FieldSpec{
		{Name: "i", Type: Integer, Default: 3},
		{Name: "r", Type: Real, Default: 2},
		{Name: "b", Type: Boolean, Default: "TRUE"},
		{Name: "s", Type: String},
	}})
	require.NoError(t, err)

	assert.Equal(t, int64(3), s.Fields[0].Default)
	assert.Equal(t, 2.0, s.Fields[1].Default)
	assert.Equal(t, true, s.Fields[2].Default)
	assert.Equal(t, "", s.Fields[3].Default)
	assert.Equal(t, []string{"i", "r", "b", "s"}, s.FieldNames())
}

func TestNewSchema_PanicsOnInvalid(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewSchema("", FieldSpec{Name: "a", Type: String}) })
}

func TestLoadSchemaYAML(t *testing.T) {
	t.Parallel()

	t.Run("list of schemas", func(t *testing.T) {
		doc := `
- name: fuel_event
  fields:
    - name: vehicle_id
      type: integer
    - name: litres
      aliases: [LITERS, volume]
      type: real
      default: 0
      zero_as_absent: true
    - name: full_tank
      type: boolean
      default: true
- name: tag
  fields:
    - name: label
      type: string
      default: none
`
		schemas, err := LoadSchemaYAML([]byte(doc))
		require.NoError(t, err)
		require.Len(t, schemas, 2)

		fuel := schemas[0]
		assert.Equal(t, "fuel_event", fuel.Name)
		litres, ok := fuel.Field("litres")
		require.True(t, ok)
		assert.Equal(t, []string{"LITERS", "volume"}, litres.Aliases)
		assert.True(t, litres.ZeroAsAbsent)

		recs, err := DecodeAll(&Payload{
			Columns: []string{"VEHICLE_ID", "volume"},
			Rows:    [][]any{{"4", "55.5"}, {"5", "0"}},
		}, fuel)
		require.NoError(t, err)
		assert.Equal(t, Record{"vehicle_id": int64(4), "litres": 55.5, "full_tank": true}, recs[0])
		assert.Equal(t, Record{"vehicle_id": int64(5), "litres": nil, "full_tank": true}, recs[1])

		assert.Equal(t, "none", schemas[1].Fields[0].Default)
	})

	t.Run("single schema", func(t *testing.T) {
		schemas, err := LoadSchemaYAML([]byte("name: one\nfields:\n  - name: a\n    type: string\n"))
		require.NoError(t, err)
		require.Len(t, schemas, 1)
		assert.Equal(t, "one", schemas[0].Name)
	})

	t.Run("invalid schema rejected", func(t *testing.T) {
		_, err := LoadSchemaYAML([]byte("name: bad\nfields:\n  - name: a\n    type: money\n"))
		require.Error(t, err)
	})
}

func TestLoadSchemaFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: f\nfields:\n  - name: x\n    type: integer\n"), 0o600))

	schemas, err := LoadSchemaFile(path)
	require.NoError(t, err)
	require.Len(t, schemas, 1)

	_, err = LoadSchemaFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
