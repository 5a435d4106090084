package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"fleet-dash/internal/domain"
	"fleet-dash/internal/tabular"
)

var _ domain.Warehouse = (*LocalExecutor)(nil)

// LocalExecutor runs queries directly against a DuckDB connection. The
// proxy uses it to serve requests; tests and single-binary setups can use
// it in place of a ProxyClient.
type LocalExecutor struct {
	db *sql.DB
}

// NewLocalExecutor creates a LocalExecutor backed by the given database connection.
func NewLocalExecutor(db *sql.DB) *LocalExecutor {
	return &LocalExecutor{db: db}
}

// Query executes sql and scans the full result into a payload.
func (e *LocalExecutor) Query(ctx context.Context, sql string) (*tabular.Payload, error) {
	rows, err := e.db.QueryContext(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	payload, err := ScanPayload(rows)
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}
	return payload, nil
}

// ScanPayload reads all rows into a payload. Byte slices are converted to
// strings so the payload serializes as text.
func ScanPayload(rows *sql.Rows) (*tabular.Payload, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	payload := &tabular.Payload{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		payload.Rows = append(payload.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payload, nil
}
