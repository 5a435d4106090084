// Package tabular turns untyped columnar query results into typed records.
//
// A warehouse query returns a Payload: an ordered list of column names and
// an ordered list of rows, each row positionally aligned to the columns.
// Nothing about a column's type is declared, and the warehouse leaves many
// cells empty. Decoding is therefore driven by a Schema of FieldSpecs that
// says, per output field, which column(s) to read, what type to coerce to,
// and what to use when the value is missing or malformed.
//
// Decoding is total and deterministic: it never fails for a well-formed
// payload, and the same payload and schema always produce the same records.
package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is a columnar query result.
type Payload struct {
	Columns []string
	Rows    [][]any
}

// payloadColumn is the proxy's column descriptor.
type payloadColumn struct {
	Name string `json:"name"`
}

type payloadWire struct {
	Columns json.RawMessage `json:"columns"`
	Rows    [][]any         `json:"rows"`
}

// UnmarshalJSON accepts columns either as [{"name": "..."}] objects (the
// warehouse proxy format) or as a plain string array. Numbers are decoded
// as json.Number so large integer identifiers survive intact.
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var wire payloadWire
	if err := dec.Decode(&wire); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	cols, err := decodeColumns(wire.Columns)
	if err != nil {
		return err
	}
	p.Columns = cols
	p.Rows = wire.Rows
	return nil
}

// MarshalJSON writes the proxy format.
func (p Payload) MarshalJSON() ([]byte, error) {
	cols := make([]payloadColumn, len(p.Columns))
	for i, c := range p.Columns {
		cols[i] = payloadColumn{Name: c}
	}
	rows := p.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return json.Marshal(struct {
		Columns  []payloadColumn `json:"columns"`
		Rows     [][]any         `json:"rows"`
		RowCount int             `json:"row_count"`
	}{Columns: cols, Rows: rows, RowCount: len(rows)})
}

func decodeColumns(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var named []payloadColumn
	if err := json.Unmarshal(raw, &named); err == nil {
		out := make([]string, len(named))
		for i, c := range named {
			out[i] = c.Name
		}
		return out, nil
	}

	var plain []string
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("decode payload columns: %w", err)
	}
	return plain, nil
}

// ParsePayload decodes a JSON document into a Payload. A literal null
// document yields a nil payload and no error; callers treat that as a
// missing payload.
func ParsePayload(data []byte) (*Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var p Payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
